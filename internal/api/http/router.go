package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-core/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Ingest  *handlers.IngestHandler
	Reports *handlers.ReportsHandler
	Tickets *handlers.TicketsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	events := app.Group("/ingest")
	events.Post("/events", cfg.Ingest.Event)
	events.Post("/classifier-calls", cfg.Ingest.ClassifierCall)
	events.Get("/classifier-calls", cfg.Ingest.ClassifierCalls)

	reports := app.Group("/reports")
	reports.Get("/score/:externalID", cfg.Reports.Score)
	reports.Get("/growth", cfg.Reports.Growth)
	reports.Get("/presence", cfg.Reports.Presence)
	reports.Get("/peak-hours", cfg.Reports.PeakHours)
	reports.Get("/rising-stars", cfg.Reports.RisingStars)
	reports.Get("/churn-risks", cfg.Reports.ChurnRisks)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListByStatus)
	tickets.Get("/channel/:channelRef", cfg.Tickets.GetByChannel)
	tickets.Get("/:id/history", cfg.Tickets.History)
}
