package pos

import (
	"bizops/helpers"
	"bizops/services"

	"github.com/gofiber/fiber/v2"
)

// Health reports configuration presence, the enabled flag and recent run
// outcomes, for dashboards and uptime checks.
func Health(c *fiber.Ctx) error {
	cfg, err := services.PosConfig.Get()
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_HEALTH")
	}

	health, err := services.PosData.Health(cfg)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_HEALTH")
	}

	return helpers.JSONSuccess(c, "Health retrieved successfully", health)
}
