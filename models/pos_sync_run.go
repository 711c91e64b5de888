package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PosSyncRunManual    = "MANUAL"
	PosSyncRunScheduled = "SCHEDULED"

	PosSyncRunRunning   = "RUNNING"
	PosSyncRunCompleted = "COMPLETED"
	PosSyncRunFailed    = "FAILED"
)

// One row per reconciliation run. Status moves RUNNING -> COMPLETED|FAILED
// exactly once; terminal rows are never re-opened.
type PosSyncRun struct {
	gorm.Model

	Kind   string `gorm:"size:20;index" json:"kind"`
	Status string `gorm:"size:20;index" json:"status"`

	StartDate string `gorm:"size:10" json:"startDate"`
	EndDate   string `gorm:"size:10" json:"endDate"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`

	TotalProcessed int `gorm:"default:0" json:"totalProcessed"`
	TotalCreated   int `gorm:"default:0" json:"totalCreated"`
	TotalErrors    int `gorm:"default:0" json:"totalErrors"`

	// No explicit column type: datatypes.JSON resolves to jsonb on
	// postgres and json on mysql, matching the DB_DRIVER switch.
	ErrorDetails      datatypes.JSON `json:"errorDetails"`
	RawResponseSample datatypes.JSON `json:"-"`
}
