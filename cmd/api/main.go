package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/config"
	"github.com/noah-isme/socium-go/internal/database"
	"github.com/noah-isme/socium-go/internal/handler"
	"github.com/noah-isme/socium-go/internal/middleware"
	"github.com/noah-isme/socium-go/internal/repository"
	"github.com/noah-isme/socium-go/internal/router"
	"github.com/noah-isme/socium-go/internal/service"
	"github.com/noah-isme/socium-go/pkg/authapi"
	cloud "github.com/noah-isme/socium-go/pkg/cloudinary"
	"github.com/noah-isme/socium-go/pkg/geolocation"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	authClient, err := authapi.New(authapi.Config{BaseURL: cfg.AuthBaseURL, Timeout: cfg.AuthTimeout}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create auth client")
	}

	locator, err := buildLocator(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure geolocation")
	}

	hub := service.NewEventHub(redisClient, cfg.EventChannelBase, natsConn, logger)
	defer hub.Close()

	deps := service.WorkspaceDeps{
		Dataset: repository.NewMockDataset(),
		Messages: service.MessagesConfig{
			VoiceDuration:  cfg.VoiceRecordingDuration,
			MaxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
		},
		Publisher: hub,
		Logger:    logger,
	}

	mediaCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if mediaCfg.Enabled() {
		media, err := cloud.New(mediaCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		deps.Media = media
	} else {
		logger.Info().Msg("cloudinary not configured, uploads disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	gate := service.NewSessionGate(authClient, validate, hub, logger)
	shell := service.NewShell(gate, deps, logger)
	defer shell.Close()

	if cfg.RestoreSession {
		go func() {
			if _, err := gate.Restore(ctx); err != nil {
				logger.Info().Err(err).Msg("no session restored")
			}
		}()
	} else {
		gate.SkipRestore()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxUploadMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		Workspaces:        shell,
		Session:           gate,
		SessionHandler:    handler.NewSessionHandler(gate, validate, logger),
		ViewHandler:       handler.NewViewHandler(validate, logger),
		FeedHandler:       handler.NewFeedHandler(validate, logger),
		SearchHandler:     handler.NewSearchHandler(logger),
		MessagesHandler:   handler.NewMessagesHandler(locator, cfg.LocationTimeout, validate, logger),
		ChannelsHandler:   handler.NewChannelsHandler(validate, logger),
		EventsHandler:     handler.NewEventsHandler(hub, logger),
		AuthRateLimiter:   middleware.RateLimit("session", cfg.AuthRateLimit, cfg.AuthRateWindow),
		IntentRateLimiter: middleware.RateLimit("intent", 60, time.Second),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, hub, logger)
}

func buildLocator(cfg config.Config, logger zerolog.Logger) (geolocation.Locator, error) {
	switch cfg.GeolocationMode {
	case config.GeolocationFixed:
		return geolocation.Fixed(geolocation.Coordinates{
			Latitude:  cfg.GeolocationLatitude,
			Longitude: cfg.GeolocationLongitude,
		}), nil
	case config.GeolocationHTTP:
		return geolocation.NewHTTPLocator(cfg.GeolocationEndpoint, cfg.LocationTimeout, logger)
	default:
		return geolocation.Disabled(), nil
	}
}

// The hub is closed first so open event streams end and the server can drain.
func waitForShutdown(ctx context.Context, app *fiber.App, hub *service.EventHub, logger zerolog.Logger) {
	<-ctx.Done()

	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
