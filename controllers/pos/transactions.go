package pos

import (
	"bizops/helpers"
	"bizops/services"

	"github.com/gofiber/fiber/v2"
)

func filterFromQuery(c *fiber.Ctx) services.TransactionFilter {
	return services.TransactionFilter{
		From:         c.Query("from"),
		To:           c.Query("to"),
		Status:       c.Query("status"),
		Kind:         c.Query("type"),
		LocationID:   c.Query("locationId"),
		SerialNumber: c.Query("serialNumber"),
		Page:         c.QueryInt("page", 1),
		PageSize:     c.QueryInt("pageSize", 20),
	}
}

func ListTransactions(c *fiber.Ctx) error {
	page, err := services.PosData.ListTransactions(filterFromQuery(c))
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}
	return helpers.JSONSuccess(c, "Transactions retrieved successfully", page)
}

// AdvancedTransactions adds location and device aggregate breakdowns to the
// filtered page.
func AdvancedTransactions(c *fiber.Ctx) error {
	filter := filterFromQuery(c)

	page, err := services.PosData.ListTransactions(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}
	locations, err := services.PosData.LocationBreakdown(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}
	devices, err := services.PosData.DeviceBreakdown(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}

	return helpers.JSONSuccess(c, "Transactions retrieved successfully", fiber.Map{
		"transactions": page.Transactions,
		"total":        page.Total,
		"page":         page.Page,
		"pageSize":     page.PageSize,
		"byLocation":   locations,
		"byDevice":     devices,
	})
}

func TransactionsByLocation(c *fiber.Ctx) error {
	filter := filterFromQuery(c)
	filter.LocationID = c.Params("id")

	page, err := services.PosData.ListTransactions(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}
	breakdown, err := services.PosData.LocationBreakdown(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}

	return helpers.JSONSuccess(c, "Transactions retrieved successfully", fiber.Map{
		"transactions": page.Transactions,
		"total":        page.Total,
		"page":         page.Page,
		"pageSize":     page.PageSize,
		"aggregates":   breakdown,
	})
}

func TransactionsByDevice(c *fiber.Ctx) error {
	filter := filterFromQuery(c)
	filter.SerialNumber = c.Params("serial")

	page, err := services.PosData.ListTransactions(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}
	breakdown, err := services.PosData.DeviceBreakdown(filter)
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_TRANSACTIONS")
	}

	return helpers.JSONSuccess(c, "Transactions retrieved successfully", fiber.Map{
		"transactions": page.Transactions,
		"total":        page.Total,
		"page":         page.Page,
		"pageSize":     page.PageSize,
		"aggregates":   breakdown,
	})
}

// Summary aggregates counts and amounts by status over a date range, with a
// computed success rate.
func Summary(c *fiber.Ctx) error {
	summary, err := services.PosData.Summary(c.Query("from"), c.Query("to"))
	if err != nil {
		return helpers.JSONServerError(c, "FAILED_TO_LOAD_SUMMARY")
	}
	summary.SuccessRate = helpers.FormatFloat(summary.SuccessRate, 2)
	return helpers.JSONSuccess(c, "Summary retrieved successfully", summary)
}
