package services

import (
	"time"

	"bizops/models"

	"github.com/shopspring/decimal"
)

type TransactionFilter struct {
	From         string
	To           string
	Status       string
	Kind         string
	LocationID   string
	SerialNumber string
	Page         int
	PageSize     int
}

type TransactionPage struct {
	Transactions []models.PosTransaction `json:"transactions"`
	Total        int64                   `json:"total"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"pageSize"`
}

func (s *GormPosStore) ListTransactions(f TransactionFilter) (*TransactionPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.Model(&models.PosTransaction{})
	if isStrictDate(f.From) {
		q = q.Where("occurred_at >= ?", f.From)
	}
	if isStrictDate(f.To) {
		end, _ := time.Parse(dateLayout, f.To)
		q = q.Where("occurred_at < ?", end.AddDate(0, 0, 1))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.LocationID != "" {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.SerialNumber != "" {
		q = q.Where("serial_number = ?", f.SerialNumber)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var txs []models.PosTransaction
	err := q.Preload("Items").
		Order("occurred_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}

	return &TransactionPage{Transactions: txs, Total: total, Page: page, PageSize: pageSize}, nil
}

// GroupBreakdown is one aggregate row of the location/device views.
// The grouping column is aliased to group_key: "key" is reserved in MySQL.
type GroupBreakdown struct {
	Key         string          `gorm:"column:group_key" json:"key"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func breakdownSelect(column string) string {
	return column + " AS group_key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount"
}

func (s *GormPosStore) LocationBreakdown(f TransactionFilter) ([]GroupBreakdown, error) {
	return s.breakdown("location_id", f)
}

func (s *GormPosStore) DeviceBreakdown(f TransactionFilter) ([]GroupBreakdown, error) {
	return s.breakdown("serial_number", f)
}

func (s *GormPosStore) breakdown(column string, f TransactionFilter) ([]GroupBreakdown, error) {
	q := s.db.Model(&models.PosTransaction{}).
		Select(breakdownSelect(column)).
		Where(column + " IS NOT NULL")
	if isStrictDate(f.From) {
		q = q.Where("occurred_at >= ?", f.From)
	}
	if isStrictDate(f.To) {
		end, _ := time.Parse(dateLayout, f.To)
		q = q.Where("occurred_at < ?", end.AddDate(0, 0, 1))
	}

	var rows []GroupBreakdown
	err := q.Group(column).Order("count DESC").Scan(&rows).Error
	return rows, err
}

type StatusSummary struct {
	Status      string          `json:"status"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type SyncSummary struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Total       int64           `json:"total"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ByStatus    []StatusSummary `json:"byStatus"`
	SuccessRate float64         `json:"successRate"`
}

// Summary aggregates counts and amounts by status over a date range and
// computes the share of COMPLETED transactions.
func (s *GormPosStore) Summary(from, to string) (*SyncSummary, error) {
	q := s.db.Model(&models.PosTransaction{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount")
	if isStrictDate(from) {
		q = q.Where("occurred_at >= ?", from)
	}
	if isStrictDate(to) {
		end, _ := time.Parse(dateLayout, to)
		q = q.Where("occurred_at < ?", end.AddDate(0, 0, 1))
	}

	var rows []StatusSummary
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &SyncSummary{From: from, To: to, ByStatus: rows, TotalAmount: decimal.Zero}
	var completed int64
	for _, row := range rows {
		summary.Total += row.Count
		summary.TotalAmount = summary.TotalAmount.Add(row.TotalAmount)
		if row.Status == models.PosTransactionCompleted {
			completed += row.Count
		}
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(completed) / float64(summary.Total) * 100
	}
	return summary, nil
}

type PosHealth struct {
	Configured      bool                `json:"configured"`
	AutoSyncEnabled bool                `json:"autoSyncEnabled"`
	LastRunAt       *time.Time          `json:"lastRunAt"`
	LastRunStatus   string              `json:"lastRunStatus"`
	LastSuccessAt   *time.Time          `json:"lastSuccessAt"`
	RecentRuns      []models.PosSyncRun `json:"recentRuns"`
}

func (s *GormPosStore) Health(cfg *models.PosSyncConfig) (*PosHealth, error) {
	health := &PosHealth{
		Configured:      cfg != nil && cfg.APIKey != "",
		AutoSyncEnabled: cfg != nil && cfg.AutoSyncEnabled,
	}

	last, err := s.LastRun()
	if err != nil {
		return nil, err
	}
	if last != nil {
		started := last.StartedAt
		health.LastRunAt = &started
		health.LastRunStatus = last.Status
	}

	success, err := s.LastSuccessfulRun()
	if err != nil {
		return nil, err
	}
	if success != nil && success.CompletedAt != nil {
		health.LastSuccessAt = success.CompletedAt
	}

	recent, err := s.RecentRuns(5)
	if err != nil {
		return nil, err
	}
	health.RecentRuns = recent

	return health, nil
}
