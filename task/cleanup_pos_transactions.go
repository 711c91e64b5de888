package tasks

import (
	"log"

	"bizops/services"
)

// CleanupPosTransactions is the retention step that runs after each
// scheduled sync. Retention policy lives in configuration but is not
// enforced yet; this only reports what would apply.
// TODO: delete transactions older than retentionDays once the retention
// semantics are confirmed with the upstream ledger owners.
func CleanupPosTransactions() {
	cfg, err := services.PosConfig.Get()
	if err != nil || cfg == nil {
		return
	}
	log.Printf("🟡 POS retention cleanup skipped (retentionDays=%d, not enforced yet)", cfg.RetentionDays)
}
