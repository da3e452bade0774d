package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticketero/queue-service/internal/api/http/handlers"
	"github.com/ticketero/queue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Queues         *handlers.QueuesHandler
	Advisors       *handlers.AdvisorHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/tickets", cfg.Tickets.CreateTicket)
	app.Get("/tickets/:reference_code", cfg.Tickets.GetTicket)
	app.Post("/tickets/:reference_code/cancel", cfg.Tickets.CancelTicket)

	app.Get("/queues", cfg.Queues.ListQueues)
	app.Get("/queues/:class", cfg.Queues.GetQueue)

	app.Post("/auth/advisors/login", cfg.Advisors.Login)

	advisors := app.Group("/advisors", cfg.AuthMiddleware.Handle)
	advisors.Get("/", cfg.Advisors.List)
	advisors.Put("/me/status", cfg.Advisors.SetStatus)
	advisors.Post("/tickets/:number/start", cfg.Advisors.StartService)
	advisors.Post("/tickets/:number/complete", cfg.Advisors.Complete)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/audit", cfg.Admin.Audit)
}
