package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/utils"
)

// FeedHandler exposes the feed controller.
type FeedHandler struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFeedHandler constructs a feed handler.
func NewFeedHandler(validator *validator.Validate, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		validator: validator,
		logger:    logger.With().Str("component", "feed_handler").Logger(),
	}
}

// Register binds feed routes.
func (h *FeedHandler) Register(router fiber.Router) {
	router.Get("/", h.snapshot)
	router.Get("/trending", h.trending)
	router.Put("/filter", h.filter)
	router.Post("/posts", h.createPost)
	router.Post("/posts/:id/like", h.toggleLike)
}

func (h *FeedHandler) snapshot(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "feed", ws.Feed.Snapshot())
}

func (h *FeedHandler) trending(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	return utils.SendSuccess(c, "trending tags", ws.Feed.TrendingTags(limit))
}

func (h *FeedHandler) filter(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.FilterRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	ws.Feed.FilterByTag(requestContext(c), payload.Tag)
	return utils.SendSuccess(c, "filter applied", ws.Feed.Snapshot())
}

func (h *FeedHandler) createPost(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CreatePostRequest
	if err := bindJSON(c, h.validator, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	post, err := ws.Feed.CreatePost(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", post)
}

func (h *FeedHandler) toggleLike(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	post, err := ws.Feed.ToggleLike(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "like toggled", post)
}
