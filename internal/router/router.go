package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/socium-go/internal/config"
	"github.com/noah-isme/socium-go/internal/handler"
	"github.com/noah-isme/socium-go/internal/middleware"
	"github.com/noah-isme/socium-go/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Workspaces        middleware.WorkspaceProvider
	Session           handler.SessionStatusReader
	SessionHandler    *handler.SessionHandler
	ViewHandler       *handler.ViewHandler
	FeedHandler       *handler.FeedHandler
	SearchHandler     *handler.SearchHandler
	MessagesHandler   *handler.MessagesHandler
	ChannelsHandler   *handler.ChannelsHandler
	EventsHandler     *handler.EventsHandler
	AuthRateLimiter   fiber.Handler
	IntentRateLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Session))

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/session"), deps.AuthRateLimiter)
	}

	if deps.EventsHandler != nil {
		deps.EventsHandler.Register(api)
	}

	if deps.Workspaces == nil {
		return
	}

	guarded := []fiber.Handler{middleware.WithSession(deps.Workspaces)}
	if deps.IntentRateLimiter != nil {
		guarded = append(guarded, deps.IntentRateLimiter)
	}
	group := func(prefix string) fiber.Router {
		return api.Group(prefix, guarded...)
	}

	if deps.ViewHandler != nil {
		deps.ViewHandler.Register(group("/view"), group("/profile"))
	}
	if deps.FeedHandler != nil {
		deps.FeedHandler.Register(group("/feed"))
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.Register(group("/search"))
	}
	if deps.MessagesHandler != nil {
		deps.MessagesHandler.Register(group("/messages"))
	}
	if deps.ChannelsHandler != nil {
		deps.ChannelsHandler.Register(group("/channels"))
	}
}
