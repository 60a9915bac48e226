package handler

import (
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/utils"
)

// SearchHandler exposes the search controller.
type SearchHandler struct {
	logger zerolog.Logger
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{logger: logger.With().Str("component", "search_handler").Logger()}
}

// Register binds search routes.
func (h *SearchHandler) Register(router fiber.Router) {
	router.Get("/", h.search)
	router.Post("/people/:id/friend", h.addFriend)
	router.Post("/channels/:id/join", h.joinChannel)
}

// An absent q returns the last results; an empty q clears them.
func (h *SearchHandler) search(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	// the controller keeps the query, so it must not alias the pooled request buffer
	if c.Context().QueryArgs().Has("q") {
		query := fiberutils.CopyString(c.Query("q"))
		return utils.SendSuccess(c, "search results", ws.Search.Search(query))
	}
	return utils.SendSuccess(c, "search results", ws.Search.Snapshot())
}

func (h *SearchHandler) addFriend(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := ws.Search.AddFriend(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "friend request sent", result)
}

func (h *SearchHandler) joinChannel(c *fiber.Ctx) error {
	ws, err := workspaceFrom(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := ws.Search.JoinChannel(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "channel joined", result)
}
