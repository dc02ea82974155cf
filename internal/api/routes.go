package api

import (
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	// Ingestion
	api.Post("/fetch-repo", h.FetchRepo)

	// Read model
	api.Get("/commits", h.ListCommits)
	api.Get("/quality", h.ListQuality)
	api.Get("/dashboard", h.GetDashboard)
	api.Get("/runs", h.ListRuns)
}
