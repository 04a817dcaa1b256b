package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/http/handlers"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Technicians *handlers.TechniciansHandler
	Admin       *handlers.AdminHandler
	Models      *handlers.ModelsHandler
	Metrics     *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	tickets := app.Group("/tickets")
	tickets.Post("", cfg.Tickets.SubmitTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/assignments", cfg.Tickets.ListAssignments)
	tickets.Post("/:id/start", cfg.Tickets.StartProgress)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	technicians := app.Group("/technicians")
	technicians.Post("", cfg.Technicians.Create)
	technicians.Get("", cfg.Technicians.List)
	technicians.Get("/:id", cfg.Technicians.Get)
	technicians.Put("/:id", cfg.Technicians.Update)
	technicians.Patch("/:id/availability", cfg.Technicians.SetAvailability)
	technicians.Delete("/:id", cfg.Technicians.Deactivate)
	technicians.Get("/:id/queue", cfg.Technicians.Queue)

	admin := app.Group("/admin")
	admin.Get("/review-queue", cfg.Admin.ReviewQueue)
	admin.Post("/tickets/:id/assign", cfg.Admin.Assign)
	admin.Post("/tickets/:id/reassign", cfg.Admin.Reassign)
	admin.Post("/tickets/:id/force-close", cfg.Admin.ForceClose)
	admin.Get("/models", cfg.Models.List)
	admin.Get("/models/active", cfg.Models.Active)
	admin.Post("/models/:version/activate", cfg.Models.Activate)
}
