package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/community-portal-api/internal/config"
	"github.com/noah-isme/community-portal-api/internal/handler"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Health                 handler.HealthDependencies
	AdminModerationHandler *handler.AdminModerationHandler
	ModerationFeedHandler  *handler.ModerationFeedHandler
	AdminActivityHandler   *handler.AdminActivityHandler
	AdHandler              *handler.AdHandler
	ContentHandler         *handler.ContentHandler
	CommentHandler         *handler.CommentHandler
	NotificationHandler    *handler.NotificationHandler
	JWTMiddleware          fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Health))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ContentHandler != nil {
		deps.ContentHandler.Register(api, jwtMiddleware)
	}
	if deps.CommentHandler != nil {
		deps.CommentHandler.Register(api.Group("/blogs/:id/comments"), jwtMiddleware)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	admin := app.Group("/api/admin",
		jwtMiddleware,
		middleware.RequireRole(middleware.ModeratorRoles...),
		middleware.MutationRateLimit("admin", cfg.AdminMutationRateLimit, time.Minute),
	)

	moderation := admin.Group("/moderation")
	if deps.ModerationFeedHandler != nil {
		deps.ModerationFeedHandler.Register(moderation)
	}
	if deps.AdminModerationHandler != nil {
		deps.AdminModerationHandler.Register(moderation)
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activities"))
	}
	if deps.AdHandler != nil {
		deps.AdHandler.Register(admin.Group("/ads"))
	}
}
