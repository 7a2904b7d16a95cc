package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-forum-api/internal/config"
	"github.com/noah-isme/gema-forum-api/internal/handler"
	"github.com/noah-isme/gema-forum-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ThreadHandler   *handler.ThreadHandler
	ReplyHandler    *handler.ReplyHandler
	ChannelHandler  *handler.ChannelHandler
	TrendingHandler *handler.TrendingHandler
	LiveHandler     *handler.LiveHandler
	SeedHandler     *handler.SeedHandler
	// JWTMiddleware identifies the caller; anonymous reads must still pass through it.
	JWTMiddleware  fiber.Handler
	ReplyLimiter   fiber.Handler
	MetricsHandler fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Common v1 group for health & tooling
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	if deps.TrendingHandler != nil {
		admin := api.Group("/admin", middleware.JWTProtected(cfg.JWTSecret), middleware.RequireRole(middleware.AuthRoleAdmin, middleware.AuthRoleModerator))
		deps.TrendingHandler.RegisterAdmin(admin)
	}

	if deps.MetricsHandler != nil {
		app.Get("/metrics", deps.MetricsHandler)
	}

	requireUser := middleware.WithAuth(func(c *fiber.Ctx) error {
		return c.Next()
	}, middleware.AuthOptions{Role: middleware.AuthRoleAny, RequireUser: true})

	forum := app.Group("/", jwtMiddleware)

	if deps.ChannelHandler != nil {
		deps.ChannelHandler.Register(forum)
	}
	if deps.TrendingHandler != nil {
		deps.TrendingHandler.Register(forum)
	}
	if deps.LiveHandler != nil {
		deps.LiveHandler.Register(forum)
	}
	if deps.ReplyHandler != nil {
		deps.ReplyHandler.Register(forum, requireUser, deps.ReplyLimiter)
	}
	if deps.ThreadHandler != nil {
		deps.ThreadHandler.Register(forum, requireUser)
	}
}
