package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/observability"
)

const eventBufferSize = 32

// Event types published by the controllers.
const (
	EventSessionChanged     = "session.changed"
	EventSectionChanged     = "view.section_changed"
	EventPostCreated        = "feed.post_created"
	EventPostLiked          = "feed.post_like_toggled"
	EventFilterChanged      = "feed.filter_changed"
	EventFriendRequested    = "search.friend_requested"
	EventChannelJoined      = "search.channel_joined"
	EventConversationOpened = "messages.conversation_selected"
	EventMessageAppended    = "messages.message_appended"
	EventRecordingStarted   = "messages.recording_started"
	EventRecordingCancelled = "messages.recording_cancelled"
	EventLocationFailed     = "messages.location_failed"
	EventChannelCreated     = "channels.channel_created"
	EventMemberRoleUpdated  = "channels.member_role_updated"
	EventRoleRenamed        = "channels.role_renamed"
)

// EventPublisher receives state change events from the controllers.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.Event)
}

// NewEvent stamps an event with an id and time.
func NewEvent(eventType string, section models.Section, userID uint, payload interface{}) dto.Event {
	return dto.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Section:    section,
		UserID:     userID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, dto.Event) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

type eventEnvelope struct {
	Source string    `json:"source"`
	Event  dto.Event `json:"event"`
	SentAt time.Time `json:"sent_at"`
}

// EventHub fans events out to in-process subscribers (the websocket bridge) and, when
// configured, to Redis pub/sub and NATS for external consumers.
type EventHub struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string

	mu          sync.RWMutex
	subscribers map[chan dto.Event]struct{}
	closed      bool
}

// NewEventHub constructs an event hub. redisClient and natsConn may be nil.
func NewEventHub(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) *EventHub {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase
		natsSubject = strings.ReplaceAll(channelBase, ":", ".")
	}

	return &EventHub{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		logger:       logger.With().Str("component", "event_hub").Logger(),
		nodeID:       uuid.NewString(),
		subscribers:  make(map[chan dto.Event]struct{}),
	}
}

// Subscribe registers a local subscriber. The returned function unsubscribes and closes the
// channel.
func (h *EventHub) Subscribe() (<-chan dto.Event, func()) {
	ch := make(chan dto.Event, eventBufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	observability.EventSubscribers().Inc()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.dropLocked(ch)
	}
}

// Close ends every subscription. Later subscriptions receive an already closed channel.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subscribers {
		h.dropLocked(ch)
	}
}

func (h *EventHub) dropLocked(ch chan dto.Event) {
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
	observability.EventSubscribers().Dec()
}

// Publish implements EventPublisher. It never blocks on slow subscribers.
func (h *EventHub) Publish(ctx context.Context, event dto.Event) {
	h.broadcast(event)

	if h.redis == nil && h.nats == nil {
		return
	}

	payload, err := json.Marshal(eventEnvelope{Source: h.nodeID, Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		h.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to marshal event")
		return
	}

	if h.redis != nil && h.redisChannel != "" {
		if err := h.redis.Publish(ctx, h.redisChannel, payload).Err(); err != nil {
			h.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish event to redis")
		} else {
			observability.EventsPublished().WithLabelValues("redis").Inc()
		}
	}

	if h.nats != nil && h.natsSubject != "" {
		subject := h.natsSubject + "." + strings.ReplaceAll(event.Type, "_", "-")
		if err := h.nats.Publish(subject, payload); err != nil {
			h.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish event to nats")
		} else {
			observability.EventsPublished().WithLabelValues("nats").Inc()
		}
	}
}

func (h *EventHub) broadcast(event dto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Warn().Str("type", event.Type).Msg("dropping event for slow subscriber")
		}
	}
	observability.EventsPublished().WithLabelValues("local").Inc()
}
