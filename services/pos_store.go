package services

import (
	"errors"

	"bizops/models"

	"gorm.io/gorm"
)

// SyncStore is the narrow persistence surface the reconciliation engine and
// the configuration service depend on. GormPosStore is the real
// implementation; tests use an in-memory one.
type SyncStore interface {
	GetConfig() (*models.PosSyncConfig, error)
	SaveConfig(cfg *models.PosSyncConfig) error

	CreateRun(run *models.PosSyncRun) error
	UpdateRun(run *models.PosSyncRun) error

	TransactionExists(externalID string) (bool, error)
	CreateTransaction(tx *models.PosTransaction, run *models.PosSyncRun) error
}

type GormPosStore struct {
	db *gorm.DB
}

func NewGormPosStore(db *gorm.DB) *GormPosStore {
	return &GormPosStore{db: db}
}

func (s *GormPosStore) GetConfig() (*models.PosSyncConfig, error) {
	var cfg models.PosSyncConfig
	if err := s.db.First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *GormPosStore) SaveConfig(cfg *models.PosSyncConfig) error {
	return s.db.Save(cfg).Error
}

func (s *GormPosStore) CreateRun(run *models.PosSyncRun) error {
	return s.db.Create(run).Error
}

func (s *GormPosStore) UpdateRun(run *models.PosSyncRun) error {
	return s.db.Save(run).Error
}

func (s *GormPosStore) TransactionExists(externalID string) (bool, error) {
	var existing models.PosTransaction
	err := s.db.Select("id").Where("external_id = ?", externalID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateTransaction inserts the transaction with its line items in one create
// and links it to the run that observed it.
func (s *GormPosStore) CreateTransaction(tx *models.PosTransaction, run *models.PosSyncRun) error {
	if err := s.db.Create(tx).Error; err != nil {
		return err
	}
	if run != nil && run.ID != 0 {
		if err := s.db.Model(tx).Association("SyncRuns").Append(run); err != nil {
			return err
		}
	}
	return nil
}

func (s *GormPosStore) RecentRuns(limit int) ([]models.PosSyncRun, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var runs []models.PosSyncRun
	err := s.db.Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (s *GormPosStore) LastRun() (*models.PosSyncRun, error) {
	var run models.PosSyncRun
	if err := s.db.Order("id DESC").First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (s *GormPosStore) LastSuccessfulRun() (*models.PosSyncRun, error) {
	var run models.PosSyncRun
	err := s.db.Where("status = ?", models.PosSyncRunCompleted).
		Order("id DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
