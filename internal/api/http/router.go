package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	ClientTickets  *handlers.ClientTicketsHandler
	Catalog        *handlers.CatalogHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Gatherer       prometheus.Gatherer
	UploadDir      string
}

// RegisterRoutes wires HTTP routes. The API lives under /api; probes,
// metrics and uploaded files stay at the root.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")
	requireAuth := cfg.AuthMiddleware.Handle

	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/change-password", requireAuth, auth.RequireInternal(), cfg.Auth.ChangePassword)

	api.Get("/tickets/files/:name", cfg.Tickets.ServeFile)

	tickets := api.Group("/tickets", requireAuth, auth.RequireInternal())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/export", auth.RequireManager(), cfg.Tickets.Export)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/clients", cfg.Catalog.Clients)
	tickets.Get("/infrastructures", cfg.Catalog.Infrastructures)
	tickets.Get("/projects", cfg.Catalog.Projects)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/start", cfg.Tickets.Step(lifecycle.ActionStart))
	tickets.Patch("/:id/pause", cfg.Tickets.Step(lifecycle.ActionPause))
	tickets.Patch("/:id/resume", cfg.Tickets.Step(lifecycle.ActionResume))
	tickets.Patch("/:id/close", cfg.Tickets.Step(lifecycle.ActionClose))
	tickets.Patch("/:id/assign", cfg.Tickets.Assign)
	tickets.Patch("/:id/notes", cfg.Tickets.AddNote)
	tickets.Get("/:id/history", cfg.Tickets.History)

	users := api.Group("/users", requireAuth, auth.RequireInternal())
	users.Get("/by-division", cfg.Users.ByDivision)
	users.Post("/register", auth.RequireManager(), cfg.Users.Register)

	api.Post("/clientAuth/login", cfg.Auth.ClientLogin)
	client := api.Group("/clientAuth", requireAuth, auth.RequireClient())
	client.Post("/change-password", cfg.Auth.ChangePassword)
	client.Post("/client-tickets", cfg.ClientTickets.Create)
	client.Get("/client-tickets/:client_id", cfg.ClientTickets.List)
	client.Get("/client-projects/:client_id", cfg.Catalog.ClientProjects)
}
