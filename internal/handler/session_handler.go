package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/service"
	"github.com/noah-isme/socium-go/internal/utils"
)

// SessionHandler exposes the session gate to the rendering layer.
type SessionHandler struct {
	gate      *service.SessionGate
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(gate *service.SessionGate, validator *validator.Validate, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		gate:      gate,
		validator: validator,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register binds session routes. Credential routes are wrapped with limit when provided.
func (h *SessionHandler) Register(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("/", h.current)
	router.Post("/login", limit, h.login)
	router.Post("/register", limit, h.register)
	router.Post("/verify-email", limit, h.verifyEmail)
	router.Post("/reset-password", limit, h.resetPassword)
	router.Post("/refresh", h.refresh)
	router.Post("/logout", h.logout)
}

func (h *SessionHandler) current(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "session", dto.NewSessionResponse(h.gate.Snapshot()))
}

// The gate validates credentials itself so its last error reflects the rejection.
func (h *SessionHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := bindJSON(c, nil, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	if _, err := h.gate.Login(requestContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "signed in", dto.NewSessionResponse(h.gate.Snapshot()))
}

func (h *SessionHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := bindJSON(c, nil, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	pending, err := h.gate.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := pending.Message
	if message == "" {
		message = "verification code sent"
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, message, dto.NewSessionResponse(h.gate.Snapshot()))
}

func (h *SessionHandler) verifyEmail(c *fiber.Ctx) error {
	var payload dto.VerifyEmailRequest
	if err := bindJSON(c, nil, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	if _, err := h.gate.VerifyEmail(requestContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "email verified", dto.NewSessionResponse(h.gate.Snapshot()))
}

func (h *SessionHandler) resetPassword(c *fiber.Ctx) error {
	var payload dto.ResetPasswordRequest
	if err := bindJSON(c, nil, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.gate.ResetPassword(requestContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}

	message := "reset code sent"
	if payload.Code != "" {
		message = "password updated"
	}
	return utils.SendSuccess(c, message, nil)
}

func (h *SessionHandler) refresh(c *fiber.Ctx) error {
	if _, err := h.gate.Refresh(requestContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "session refreshed", dto.NewSessionResponse(h.gate.Snapshot()))
}

// Local state is already cleared when the remote call fails, so the logout still succeeds.
func (h *SessionHandler) logout(c *fiber.Ctx) error {
	message := "signed out"
	if err := h.gate.Logout(requestContext(c)); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("remote logout failed")
		message = "signed out locally"
	}
	return utils.SendSuccess(c, message, dto.NewSessionResponse(h.gate.Snapshot()))
}
