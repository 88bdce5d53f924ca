package api

import (
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)
	app.Get("/", h.GetVisualization)

	api := app.Group("/api")
	api.Get("/graph", h.GetGraph)

	entities := api.Group("/entities")
	entities.Get("/", h.ListEntities)
	entities.Get("/:name", h.GetEntity)
}
