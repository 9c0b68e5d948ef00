package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Directory      *handlers.DirectoryHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.EditTicket)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)

	staff := app.Group("/staff/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	staff.Post("/:id/assign", cfg.StaffTickets.AssignTicket)
	staff.Patch("/:id", cfg.StaffTickets.UpdateTicket)
	staff.Post("/:id/resolve", cfg.StaffTickets.ResolveTicket)
	staff.Post("/:id/remarks", cfg.StaffTickets.AddRemark)
	staff.Post("/:id/attachments", cfg.StaffTickets.AddAttachment)

	app.Get("/departments", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Directory.ListDepartments)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireSuperadmin())
	admin.Post("/users", cfg.Directory.CreateUser)
	admin.Get("/users", cfg.Directory.ListUsers)
	admin.Patch("/users/:id", cfg.Directory.UpdateUser)
	admin.Post("/departments", cfg.Directory.CreateDepartment)
	admin.Post("/analytics/refresh", cfg.Analytics.Refresh)
	admin.Get("/analytics/companies", cfg.Analytics.ListCompanies)
	admin.Get("/analytics/companies/:domain", cfg.Analytics.GetCompany)
}
