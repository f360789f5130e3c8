package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/waitline/internal/api/http/handlers"
	"github.com/spec-kit/waitline/internal/auth"
	"github.com/spec-kit/waitline/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Entries        *handlers.EntriesHandler
	Queues         *handlers.QueuesHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/merchants/register", cfg.Staff.Register)
	authGroup.Post("/staff/login", cfg.Staff.Login)

	// Public customer endpoints: no account, the entry id is the credential.
	public := app.Group("/queues/:id")
	public.Post("/entries", cfg.Entries.Join)
	public.Get("/entries/:entryID", cfg.Entries.Status)
	public.Delete("/entries/:entryID", cfg.Entries.Leave)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle,
		auth.RequireStaffRole(domain.StaffRoleOwner, domain.StaffRoleHost))
	staff.Post("/queues", cfg.Queues.Create)
	staff.Get("/queues", cfg.Queues.List)
	staff.Get("/queues/:id", cfg.Queues.Get)
	staff.Get("/queues/:id/stats", cfg.Queues.Stats)
	staff.Post("/queues/:id/call-next", cfg.Queues.CallNext)
	staff.Post("/queues/:id/call", cfg.Queues.CallSpecific)
	staff.Post("/queues/:id/complete", cfg.Queues.Complete)
	staff.Post("/queues/:id/verify", cfg.Queues.Verify)
	staff.Post("/queues/:id/requeue", cfg.Queues.Requeue)
	staff.Post("/queues/:id/accepting/toggle", cfg.Queues.ToggleAccepting)
	staff.Post("/queues/:id/accepting/stop", cfg.Queues.StopAccepting)

	owner := app.Group("/staff/merchant", cfg.AuthMiddleware.Handle,
		auth.RequireStaffRole(domain.StaffRoleOwner))
	owner.Put("/notification-settings", cfg.Staff.UpdateNotificationSettings)
}
