package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/utils"
	"github.com/noah-isme/socium-go/pkg/geolocation"
)

const defaultLocationTimeout = 10 * time.Second

// MessagesHandler exposes the messages controller.
type MessagesHandler struct {
	locator         geolocation.Locator
	locationTimeout time.Duration
	validator       *validator.Validate
	logger          zerolog.Logger
}

// NewMessagesHandler constructs a messages handler. locator serves location requests that do not
// carry a device outcome; nil means location sharing only works with reported outcomes.
func NewMessagesHandler(locator geolocation.Locator, locationTimeout time.Duration, validator *validator.Validate, logger zerolog.Logger) *MessagesHandler {
	if locator == nil {
		locator = geolocation.Disabled()
	}
	if locationTimeout <= 0 {
		locationTimeout = defaultLocationTimeout
	}
	return &MessagesHandler{
		locator:         locator,
		locationTimeout: locationTimeout,
		validator:       validator,
		logger:          logger.With().Str("component", "messages_handler").Logger(),
	}
}

// Register binds messages routes.
func (h *MessagesHandler) Register(router fiber.Router) {
	router.Get("/", h.snapshot)
	router.Get("/conversations", h.conversations)
	router.Post("/conversations/:id/select", h.selectConversation)
	router.Get("/conversations/:id/messages", h.messages)
	router.Post("/text", h.sendText)
	router.Post("/media", h.attachMedia)
	router.Post("/upload", h.upload)
	router.Post("/location", h.shareLocation)
	router.Post("/voice", h.recordVoice)
	router.Delete("/voice", h.cancelRecording)
}

func (h *MessagesHandler) snapshot(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "messages", ws.Messages.Snapshot())
}

func (h *MessagesHandler) conversations(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "conversations", ws.Messages.Conversations())
}

func (h *MessagesHandler) selectConversation(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if _, err := ws.Messages.SelectConversation(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "conversation selected", ws.Messages.Snapshot())
}

func (h *MessagesHandler) messages(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	messages, err := ws.Messages.Messages(id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "messages", messages)
}

func (h *MessagesHandler) sendText(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.SendTextRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	message, err := ws.Messages.SendText(requestContext(c), payload.Content)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *MessagesHandler) attachMedia(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.AttachMediaRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	message, err := ws.Messages.AttachMedia(requestContext(c), models.MessageKind(payload.Kind))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attachment sent", message)
}

func (h *MessagesHandler) upload(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	message, err := ws.Messages.UploadMedia(requestContext(c), fileHeader.Filename, file)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Str("file", fileHeader.Filename).Msg("upload rejected")
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attachment uploaded", message)
}

func (h *MessagesHandler) shareLocation(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.ShareLocationRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	locator := h.locator
	if payload.Reported() {
		var coords *geolocation.Coordinates
		if payload.Latitude != nil && payload.Longitude != nil {
			coords = &geolocation.Coordinates{Latitude: *payload.Latitude, Longitude: *payload.Longitude}
		}
		locator = geolocation.Reported(coords, payload.Denied)
	}

	ctx, cancel := context.WithTimeout(requestContext(c), h.locationTimeout)
	defer cancel()

	message, err := ws.Messages.ShareLocation(ctx, locator)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "location shared", message)
}

func (h *MessagesHandler) recordVoice(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	task, started, err := ws.Messages.RecordVoice(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	response := dto.RecordingResponse{Recording: true, Started: started, TaskID: task.ID()}
	if started {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "recording started", response)
	}
	return utils.SendSuccess(c, "recording in progress", response)
}

func (h *MessagesHandler) cancelRecording(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if !ws.Messages.CancelRecording(requestContext(c)) {
		return utils.SendSuccess(c, "no recording in progress", dto.RecordingResponse{})
	}
	return utils.SendSuccess(c, "recording cancelled", dto.RecordingResponse{})
}
