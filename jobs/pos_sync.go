package jobs

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"bizops/models"
	"bizops/services"
	tasks "bizops/task"
)

const defaultSyncHour = 2

// StartPosSyncScheduler fires the reconciliation engine once a day at a fixed
// local hour (POS_SYNC_HOUR, default 02:00). The window is computed from the
// configured lookback; a disabled subsystem is logged and skipped without
// creating a run.
func StartPosSyncScheduler() {
	go func() {
		for {
			time.Sleep(untilNextRun(syncHour()))
			runScheduledSync()
		}
	}()
}

func syncHour() int {
	if v := os.Getenv("POS_SYNC_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
		log.Printf("⚠️  Invalid value for POS_SYNC_HOUR: %s", v)
	}
	return defaultSyncHour
}

func untilNextRun(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return time.Until(next)
}

func runScheduledSync() {
	// Same guard the engine applies, so a half-configured row (e.g. key
	// without base URL) is a skip here, not a failed run.
	_, cfg, err := services.PosConfig.Fetcher()
	if err != nil {
		if errors.Is(err, services.ErrSyncNotConfigured) || errors.Is(err, services.ErrSyncDisabled) {
			log.Println("🟡 Scheduled POS sync skipped: sync is disabled or not configured")
		} else {
			log.Printf("❌ Scheduled POS sync: failed to read configuration: %v", err)
		}
		return
	}

	now := time.Now()
	toDate := now.Format("2006-01-02")
	fromDate := now.AddDate(0, 0, -cfg.MaxDaysToSync).Format("2006-01-02")

	res := services.Pos.RunSync(models.PosSyncRunScheduled, fromDate, toDate)
	if res.Success {
		log.Printf("✅ Scheduled POS sync done: %s (%d processed, %d created)",
			res.Message, res.Processed, res.Created)
	} else {
		log.Printf("❌ Scheduled POS sync failed: %s", res.Message)
	}

	tasks.CleanupPosTransactions()
}
