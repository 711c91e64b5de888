package services

import (
	"errors"
	"log"
	"sync"

	"bizops/models"
	"bizops/providers/pos"
)

// ReportFetcher is what the engine needs from the remote client.
type ReportFetcher interface {
	FetchBranchReport(q pos.ReportQuery) (*pos.ReportResponse, error)
	FetchReport(q pos.ReportQuery) (*pos.ReportResponse, error)
}

var ErrSyncNotConfigured = errors.New("POS sync is not configured (missing API key or base URL)")
var ErrSyncDisabled = errors.New("POS sync is disabled")

// PosConfigService owns the single configuration row and the remote client
// built from it. The client is rebuilt whenever credentials or base URL
// change, so it must always be obtained through Fetcher, never cached.
type PosConfigService struct {
	store SyncStore

	mu      sync.Mutex
	fetcher ReportFetcher
	factory func(baseURL, apiKey string) ReportFetcher
}

func NewPosConfigService(store SyncStore) *PosConfigService {
	return &PosConfigService{
		store: store,
		factory: func(baseURL, apiKey string) ReportFetcher {
			return pos.NewClient(baseURL, apiKey)
		},
	}
}

// EnsureDefault creates the configuration row with defaults when absent.
// Best effort: a failure is logged, not fatal, so the rest of the
// application runs with the POS subsystem unconfigured.
func (s *PosConfigService) EnsureDefault() {
	cfg, err := s.store.GetConfig()
	if err != nil {
		log.Printf("⚠️  Failed to read POS sync configuration: %v", err)
		return
	}
	if cfg != nil {
		return
	}
	def := &models.PosSyncConfig{
		AutoSyncEnabled:   false,
		SyncIntervalHours: 24,
		MaxDaysToSync:     7,
		RetentionDays:     90,
	}
	if err := s.store.SaveConfig(def); err != nil {
		log.Printf("⚠️  Failed to create default POS sync configuration: %v", err)
		return
	}
	log.Println("✅ Created default POS sync configuration")
}

func (s *PosConfigService) Get() (*models.PosSyncConfig, error) {
	return s.store.GetConfig()
}

// PosConfigUpdate carries a partial update; nil fields are left unchanged.
type PosConfigUpdate struct {
	APIKey            *string `json:"apiKey"`
	BaseURL           *string `json:"baseUrl"`
	AutoSyncEnabled   *bool   `json:"autoSyncEnabled"`
	SyncIntervalHours *int    `json:"syncIntervalHours"`
	MaxDaysToSync     *int    `json:"maxDaysToSync"`
	RetentionDays     *int    `json:"retentionDays"`
}

func (s *PosConfigService) Update(upd PosConfigUpdate) (*models.PosSyncConfig, error) {
	cfg, err := s.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &models.PosSyncConfig{
			SyncIntervalHours: 24,
			MaxDaysToSync:     7,
			RetentionDays:     90,
		}
	}

	credentialsChanged := false
	if upd.APIKey != nil && *upd.APIKey != cfg.APIKey {
		cfg.APIKey = *upd.APIKey
		credentialsChanged = true
	}
	if upd.BaseURL != nil && *upd.BaseURL != cfg.BaseURL {
		cfg.BaseURL = *upd.BaseURL
		credentialsChanged = true
	}
	if upd.AutoSyncEnabled != nil {
		cfg.AutoSyncEnabled = *upd.AutoSyncEnabled
	}
	if upd.SyncIntervalHours != nil && *upd.SyncIntervalHours > 0 {
		cfg.SyncIntervalHours = *upd.SyncIntervalHours
	}
	if upd.MaxDaysToSync != nil && *upd.MaxDaysToSync > 0 {
		cfg.MaxDaysToSync = *upd.MaxDaysToSync
	}
	if upd.RetentionDays != nil && *upd.RetentionDays > 0 {
		cfg.RetentionDays = *upd.RetentionDays
	}

	if err := s.store.SaveConfig(cfg); err != nil {
		return nil, err
	}

	if credentialsChanged {
		s.mu.Lock()
		s.fetcher = nil
		s.mu.Unlock()
		log.Println("🟡 POS credentials changed, remote client will be re-initialized")
	}

	return cfg, nil
}

// Fetcher returns the remote client for the current configuration, building
// it lazily. Returns ErrSyncNotConfigured when no usable API key exists and
// ErrSyncDisabled when auto sync is switched off.
func (s *PosConfigService) Fetcher() (ReportFetcher, *models.PosSyncConfig, error) {
	cfg, err := s.store.GetConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil || cfg.APIKey == "" || cfg.BaseURL == "" {
		return nil, cfg, ErrSyncNotConfigured
	}
	if !cfg.AutoSyncEnabled {
		return nil, cfg, ErrSyncDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetcher == nil {
		s.fetcher = s.factory(cfg.BaseURL, cfg.APIKey)
	}
	return s.fetcher, cfg, nil
}
