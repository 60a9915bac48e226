package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/socium-go/internal/config"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/utils"
)

// SessionStatusReader reports the current session status.
type SessionStatusReader interface {
	Status() models.SessionStatus
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string               `json:"status"`
	Timestamp     time.Time            `json:"timestamp"`
	Service       string               `json:"service"`
	Environment   string               `json:"environment"`
	SessionStatus models.SessionStatus `json:"session_status"`
	Uptime        string               `json:"uptime"`
}

// HealthCheck returns a handler that reports process health and the session gate status.
func HealthCheck(cfg config.Config, session SessionStatusReader) fiber.Handler {
	started := time.Now()

	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Uptime:      time.Since(started).Truncate(time.Second).String(),
		}
		if session != nil {
			payload.SessionStatus = session.Status()
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
