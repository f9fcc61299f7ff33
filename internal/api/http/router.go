package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-hq/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-hq/helpdesk/internal/auth"
)

// RouteConfig bundles everything route registration needs.
type RouteConfig struct {
	App              *fiber.App
	AuthMiddleware   *auth.AuthMiddleware
	HealthHandler    *handlers.HealthHandler
	UsersHandler     *handlers.UsersHandler
	TicketsHandler   *handlers.TicketsHandler
	AssistantHandler *handlers.AssistantHandler
}

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(rc RouteConfig) {
	app := rc.App
	authed := rc.AuthMiddleware.Handle

	app.Get("/health/live", rc.HealthHandler.Live)
	app.Get("/health/ready", rc.HealthHandler.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", rc.UsersHandler.Register)
	authGroup.Post("/login", rc.UsersHandler.Login)
	authGroup.Post("/password-reset/request", rc.UsersHandler.RequestPasswordReset)
	authGroup.Post("/password-reset/confirm", rc.UsersHandler.ConfirmPasswordReset)
	authGroup.Get("/me", authed, auth.RequireUser(), rc.UsersHandler.Me)
	authGroup.Post("/password-change", authed, auth.RequireUser(), rc.UsersHandler.ChangePassword)

	tickets := api.Group("/tickets", authed, auth.RequireUser())
	tickets.Post("/", rc.TicketsHandler.Create)
	tickets.Get("/", rc.TicketsHandler.ListMine)
	tickets.Get("/all", auth.RequireAdmin(), rc.TicketsHandler.ListAll)
	tickets.Get("/dashboard", rc.TicketsHandler.Dashboard)
	tickets.Get("/:id", rc.TicketsHandler.Get)
	tickets.Patch("/:id/status", rc.TicketsHandler.UpdateStatus)
	tickets.Get("/:id/history", rc.TicketsHandler.History)

	ai := api.Group("/ai", authed, auth.RequireUser())
	ai.Post("/chat", rc.AssistantHandler.Chat)
	ai.Post("/clear", rc.AssistantHandler.Clear)
	ai.Get("/history/:sessionId", rc.AssistantHandler.History)
	ai.Get("/summary", auth.RequireAdmin(), rc.AssistantHandler.Summary)
	ai.Get("/test", auth.RequireAdmin(), rc.AssistantHandler.TestConnection)
	ai.Get("/metrics", auth.RequireAdmin(), rc.AssistantHandler.Metrics)
}
