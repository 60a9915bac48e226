package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/middleware"
)

const eventWriteTimeout = 5 * time.Second

// EventStreamReady is the first frame of every stream, sent once the subscription is live.
const EventStreamReady = "stream.ready"

// EventSource hands out subscriptions to the state change stream.
type EventSource interface {
	Subscribe() (<-chan dto.Event, func())
}

// EventsHandler streams state change events to the rendering layer over a websocket.
type EventsHandler struct {
	source EventSource
	logger zerolog.Logger
}

// NewEventsHandler creates an events handler instance.
func NewEventsHandler(source EventSource, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		source: source,
		logger: logger.With().Str("component", "events_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *EventsHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *EventsHandler) handleConnection(conn *websocket.Conn) {
	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	logger := h.logger.With().Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Logger()

	events, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Info().Msg("event stream connected")
	defer logger.Info().Msg("event stream disconnected")

	_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteJSON(dto.Event{Type: EventStreamReady, OccurredAt: time.Now().UTC()}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Warn().Err(err).Str("event", event.Type).Msg("event delivery failed")
				return
			}
		}
	}
}
