package models

import "gorm.io/gorm"

// Single mutable row holding terminal-API credentials and sync policy.
// Lazily created with defaults on first start.
type PosSyncConfig struct {
	gorm.Model

	APIKey  string `gorm:"size:255" json:"-"`
	BaseURL string `gorm:"size:255" json:"baseUrl"`

	AutoSyncEnabled   bool `gorm:"default:false" json:"autoSyncEnabled"`
	SyncIntervalHours int  `gorm:"default:24" json:"syncIntervalHours"`
	MaxDaysToSync     int  `gorm:"default:7" json:"maxDaysToSync"`
	RetentionDays     int  `gorm:"default:90" json:"retentionDays"`
}
