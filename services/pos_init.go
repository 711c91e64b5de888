package services

import "gorm.io/gorm"

// Package-level POS services, wired once from main after the database
// connection is up. Construction order matters: the configuration service
// must exist (and its default row be ensured) before the sync service can
// build a remote client from it.
var (
	PosData   *GormPosStore
	PosConfig *PosConfigService
	Pos       *PosSyncService
)

func InitPos(db *gorm.DB) {
	PosData = NewGormPosStore(db)
	PosConfig = NewPosConfigService(PosData)
	PosConfig.EnsureDefault()
	Pos = NewPosSyncService(PosData, PosConfig)
}
