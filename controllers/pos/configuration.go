package pos

import (
	"bizops/helpers"
	"bizops/services"

	"github.com/gofiber/fiber/v2"
)

// GetConfiguration returns the sync configuration with the API key redacted
// to a hasApiKey flag.
func GetConfiguration(c *fiber.Ctx) error {
	cfg, err := services.PosConfig.Get()
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_CONFIGURATION")
	}
	if cfg == nil {
		return helpers.JSONSuccess(c, "POS sync is not configured", nil)
	}

	return helpers.JSONSuccess(c, "Configuration retrieved successfully", fiber.Map{
		"hasApiKey":         cfg.APIKey != "",
		"baseUrl":           cfg.BaseURL,
		"autoSyncEnabled":   cfg.AutoSyncEnabled,
		"syncIntervalHours": cfg.SyncIntervalHours,
		"maxDaysToSync":     cfg.MaxDaysToSync,
		"retentionDays":     cfg.RetentionDays,
	})
}

// UpdateConfiguration applies a partial update; omitted fields keep their
// values. Changing the API key or base URL re-initializes the remote client.
func UpdateConfiguration(c *fiber.Ctx) error {
	var upd services.PosConfigUpdate
	if err := c.BodyParser(&upd); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	cfg, err := services.PosConfig.Update(upd)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_UPDATE_CONFIGURATION")
	}

	return helpers.JSONSuccess(c, "Configuration updated successfully", fiber.Map{
		"hasApiKey":         cfg.APIKey != "",
		"baseUrl":           cfg.BaseURL,
		"autoSyncEnabled":   cfg.AutoSyncEnabled,
		"syncIntervalHours": cfg.SyncIntervalHours,
		"maxDaysToSync":     cfg.MaxDaysToSync,
		"retentionDays":     cfg.RetentionDays,
	})
}
