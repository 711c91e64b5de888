package pos

import (
	"bizops/helpers"
	"bizops/models"
	"bizops/services"

	"github.com/gofiber/fiber/v2"
)

type SyncRequest struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

// ManualSync triggers one reconciliation run over the requested (or default)
// window. Failure modes come back as a structured result, never as a 500.
func ManualSync(c *fiber.Ctx) error {
	var req SyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
	}

	res := services.Pos.RunSync(models.PosSyncRunManual, req.FromDate, req.ToDate)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": res.Success,
		"message": res.Message,
		"data": fiber.Map{
			"processedTransactions": res.Processed,
			"createdTransactions":   res.Created,
			"errors":                res.Errors,
		},
	})
}

// AdvancedSync is the paginated, filterable variant.
func AdvancedSync(c *fiber.Ctx) error {
	var opts services.AdvancedSyncOptions
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return helpers.JSONError(c, "INVALID_JSON")
		}
	}

	res := services.Pos.RunSyncAdvanced(models.PosSyncRunManual, opts)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": res.Success,
		"message": res.Message,
		"data": fiber.Map{
			"processedTransactions": res.Processed,
			"createdTransactions":   res.Created,
			"errors":                res.Errors,
		},
		"pagination": fiber.Map{
			"totalPages":     res.TotalPages,
			"pagesProcessed": res.PagesProcessed,
		},
	})
}

// SyncHistory returns the most recent runs, newest first.
func SyncHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	runs, err := services.PosData.RecentRuns(limit)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_SYNC_HISTORY")
	}
	return helpers.JSONSuccess(c, "Sync history retrieved successfully", runs)
}
