package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/utils"
)

// ViewHandler exposes navigation between sections and the profile view.
type ViewHandler struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewViewHandler constructs a view handler.
func NewViewHandler(validator *validator.Validate, logger zerolog.Logger) *ViewHandler {
	return &ViewHandler{
		validator: validator,
		logger:    logger.With().Str("component", "view_handler").Logger(),
	}
}

// Register binds navigation and profile routes. Both groups must already require a session.
func (h *ViewHandler) Register(view, profile fiber.Router) {
	view.Get("/", h.current)
	view.Put("/", h.setSection)
	view.Get("/render", h.render)
	profile.Get("/", h.profile)
}

func (h *ViewHandler) current(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "view", dto.ViewResponse{Active: ws.Router.ActiveSection(), Sections: models.Sections})
}

func (h *ViewHandler) setSection(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.SetSectionRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	active := ws.Router.SetActiveSection(requestContext(c), payload.Section)
	return utils.SendSuccess(c, "section changed", dto.ViewResponse{Active: active, Sections: models.Sections})
}

func (h *ViewHandler) render(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "render", ws.Router.Render())
}

func (h *ViewHandler) profile(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "profile", ws.Profile.Snapshot())
}
