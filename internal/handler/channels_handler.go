package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/utils"
)

// ChannelsHandler exposes the channels controller and role management.
type ChannelsHandler struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChannelsHandler constructs a channels handler.
func NewChannelsHandler(validator *validator.Validate, logger zerolog.Logger) *ChannelsHandler {
	return &ChannelsHandler{
		validator: validator,
		logger:    logger.With().Str("component", "channels_handler").Logger(),
	}
}

// Register binds channel routes.
func (h *ChannelsHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.detail)
	router.Post("/:id/select", h.selectChannel)
	router.Put("/:id/members/:memberId/role", h.updateMemberRole)
	router.Put("/:id/roles/:roleId", h.renameRole)
}

func (h *ChannelsHandler) list(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channels", ws.Channels.Snapshot())
}

func (h *ChannelsHandler) create(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CreateChannelRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	channel, err := ws.Channels.CreateChannel(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "channel created", channel)
}

func (h *ChannelsHandler) detail(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	detail, err := ws.Channels.Channel(id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel", detail)
}

func (h *ChannelsHandler) selectChannel(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	detail, err := ws.Channels.SelectChannel(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel selected", detail)
}

func (h *ChannelsHandler) updateMemberRole(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	channelID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	memberID, err := parseUintParam(c, "memberId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.UpdateMemberRoleRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	member, err := ws.Channels.UpdateMemberRole(requestContext(c), channelID, memberID, payload.RoleID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "member role updated", member)
}

func (h *ChannelsHandler) renameRole(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	channelID, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	roleID, err := parseUintParam(c, "roleId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.RenameRoleRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	role, err := ws.Channels.RenameRole(requestContext(c), channelID, roleID, payload.Name)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "role renamed", role)
}
