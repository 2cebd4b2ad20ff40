package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/open311-service/internal/api/http/handlers"
	"github.com/spec-kit/open311-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Changelogs     *handlers.ChangelogsHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	requests := app.Group("/requests", cfg.AuthMiddleware.Optional)
	requests.Post("", cfg.Requests.Create)
	requests.Get("", cfg.AuthMiddleware.Handle, cfg.Requests.List)
	requests.Get("/code/:code", cfg.Requests.GetByCode)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Post("/:id/changelogs", cfg.AuthMiddleware.Handle, cfg.Changelogs.Create)
	requests.Get("/:id/changelogs", cfg.Changelogs.List)

	analytics := app.Group("/analytics", cfg.AuthMiddleware.Handle)
	analytics.Get("/overview", cfg.Analytics.Overview)
	analytics.Get("/operators", cfg.Analytics.Operators)
}
