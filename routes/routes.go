package routes

import (
	"bizops/controllers/pos"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	posroutes := app.Group("/pos")

	posroutes.Post("/sync", pos.ManualSync)
	posroutes.Post("/sync-advanced", pos.AdvancedSync)

	posroutes.Get("/configuration", pos.GetConfiguration)
	posroutes.Post("/configuration", pos.UpdateConfiguration)

	posroutes.Get("/sync-history", pos.SyncHistory)

	posroutes.Get("/transactions", pos.ListTransactions)
	posroutes.Get("/transactions/advanced", pos.AdvancedTransactions)
	posroutes.Get("/transactions/location/:id", pos.TransactionsByLocation)
	posroutes.Get("/transactions/device/:serial", pos.TransactionsByDevice)

	posroutes.Get("/summary", pos.Summary)
	posroutes.Get("/health", pos.Health)
}
