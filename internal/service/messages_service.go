package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/observability"
	"github.com/noah-isme/socium-go/internal/repository"
	"github.com/noah-isme/socium-go/pkg/geolocation"
)

const (
	placeholderMediaURL = "#"
	messageTimeLayout   = "15:04"

	defaultVoiceDuration = 2 * time.Second
	defaultMaxUpload     = 10 << 20
)

var placeholderContent = map[models.MessageKind]string{
	models.MessageImage:    "📷 Image",
	models.MessageAudio:    "🎵 Audio",
	models.MessageVoice:    "🎤 Voice message",
	models.MessageLocation: "📍 Location",
}

// MediaStorage stores uploaded attachments and returns their public URL.
type MediaStorage interface {
	Store(ctx context.Context, kind, name string, reader io.Reader) (string, error)
}

// MessagesConfig tunes the messages controller.
type MessagesConfig struct {
	VoiceDuration  time.Duration
	MaxUploadBytes int64
}

// MessagesService owns the conversation list and the per-conversation message sequences.
type MessagesService interface {
	Conversations() []models.Conversation
	SelectConversation(ctx context.Context, conversationID uint) (models.Conversation, error)
	Messages(conversationID uint) ([]models.Message, error)
	SendText(ctx context.Context, content string) (models.Message, error)
	AttachMedia(ctx context.Context, kind models.MessageKind) (models.Message, error)
	UploadMedia(ctx context.Context, name string, reader io.Reader) (models.Message, error)
	ShareLocation(ctx context.Context, locator geolocation.Locator) (models.Message, error)
	RecordVoice(ctx context.Context) (*Task, bool, error)
	CancelRecording(ctx context.Context) bool
	Recording() bool
	LastError() string
	Snapshot() dto.MessagesSnapshot
	Close()
}

type messagesService struct {
	user      models.User
	publisher EventPublisher
	media     MediaStorage
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	voice     time.Duration
	maxUpload int64
	lifetime  context.Context
	shutdown  context.CancelFunc

	mu            sync.Mutex
	conversations []models.Conversation
	messages      map[uint][]models.Message
	nextIDs       map[uint]uint
	selected      *uint
	recording     *Task
	lastError     string
}

// NewMessagesService constructs the messages controller. media may be nil, in which case only
// placeholder attachments are available.
func NewMessagesService(user models.User, dataset repository.Dataset, media MediaStorage, cfg MessagesConfig, publisher EventPublisher, logger zerolog.Logger) MessagesService {
	if cfg.VoiceDuration <= 0 {
		cfg.VoiceDuration = defaultVoiceDuration
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}

	messages := dataset.ConversationMessages(user.ID)
	nextIDs := make(map[uint]uint, len(messages))
	for conversationID, sequence := range messages {
		var maxID uint
		for _, message := range sequence {
			if message.ID > maxID {
				maxID = message.ID
			}
		}
		nextIDs[conversationID] = maxID + 1
	}

	lifetime, shutdown := context.WithCancel(context.Background())

	return &messagesService{
		user:          user,
		publisher:     publisherOrNop(publisher),
		media:         media,
		logger:        logger.With().Str("component", "messages_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/socium-go/internal/service/messages"),
		now:           time.Now,
		voice:         cfg.VoiceDuration,
		maxUpload:     cfg.MaxUploadBytes,
		lifetime:      lifetime,
		shutdown:      shutdown,
		conversations: dataset.Conversations(),
		messages:      messages,
		nextIDs:       nextIDs,
	}
}

func (s *messagesService) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Conversation(nil), s.conversations...)
}

// SelectConversation activates a conversation and clears its unread count. Unknown ids leave
// the selection unchanged.
func (s *messagesService) SelectConversation(ctx context.Context, conversationID uint) (models.Conversation, error) {
	s.mu.Lock()
	index := s.conversationIndexLocked(conversationID)
	if index < 0 {
		s.mu.Unlock()
		recordIntent("messages", "select", ErrConversationNotFound)
		return models.Conversation{}, ErrConversationNotFound
	}

	id := conversationID
	s.selected = &id
	s.conversations[index].Unread = 0
	conversation := s.conversations[index]
	s.mu.Unlock()

	recordIntent("messages", "select", nil)
	s.publisher.Publish(ctx, NewEvent(EventConversationOpened, models.SectionMessages, s.user.ID, conversation))
	return conversation, nil
}

func (s *messagesService) Messages(conversationID uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationIndexLocked(conversationID) < 0 {
		return nil, ErrConversationNotFound
	}
	return s.messagesLocked(conversationID), nil
}

// SendText appends a text message to the active conversation. Blank content is rejected.
func (s *messagesService) SendText(ctx context.Context, content string) (models.Message, error) {
	content = plainText(content)
	if content == "" {
		recordIntent("messages", "send_text", ErrEmptyContent)
		return models.Message{}, ErrEmptyContent
	}

	message, err := s.appendToSelected(ctx, models.Message{Kind: models.MessageText, Content: content})
	recordIntent("messages", "send_text", err)
	return message, err
}

// AttachMedia appends a placeholder attachment of the given kind.
func (s *messagesService) AttachMedia(ctx context.Context, kind models.MessageKind) (models.Message, error) {
	if kind != models.MessageImage && kind != models.MessageAudio {
		recordIntent("messages", "attach", ErrUnsupportedMedia)
		return models.Message{}, ErrUnsupportedMedia
	}

	message, err := s.appendToSelected(ctx, models.Message{
		Kind:     kind,
		Content:  placeholderContent[kind],
		MediaURL: placeholderMediaURL,
	})
	recordIntent("messages", "attach", err)
	return message, err
}

// UploadMedia stores a real attachment and appends a message referencing it. The kind is taken
// from the detected MIME type; only images and audio are accepted.
func (s *messagesService) UploadMedia(ctx context.Context, name string, reader io.Reader) (models.Message, error) {
	ctx, span := s.tracer.Start(ctx, "messages.upload_media")
	defer span.End()
	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxUpload))

	message, err := s.uploadMedia(ctx, span, name, reader)
	recordIntent("messages", "upload", err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload rejected")
		return models.Message{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	return message, nil
}

func (s *messagesService) uploadMedia(ctx context.Context, span trace.Span, name string, reader io.Reader) (models.Message, error) {
	if s.media == nil {
		return models.Message{}, ErrMediaStorageUnavailable
	}
	if reader == nil {
		return models.Message{}, fmt.Errorf("attachment is required: %w", ErrUnsupportedMedia)
	}

	target, ok := s.selectedID()
	if !ok {
		return models.Message{}, ErrNoConversationSelected
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(reader, s.maxUpload+1)); err != nil {
		return models.Message{}, fmt.Errorf("read attachment: %w", err)
	}
	if int64(buf.Len()) > s.maxUpload {
		observability.UploadRejected().WithLabelValues("size").Inc()
		return models.Message{}, ErrMediaTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	kind, ok := mediaKind(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !ok {
		observability.UploadRejected().WithLabelValues("type").Inc()
		return models.Message{}, ErrUnsupportedMedia
	}

	url, err := s.media.Store(ctx, string(kind), name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		return models.Message{}, fmt.Errorf("store attachment: %w", err)
	}

	return s.appendTo(ctx, target, models.Message{
		Kind:     kind,
		Content:  placeholderContent[kind],
		MediaURL: url,
	})
}

// ShareLocation asks the locator for the device position and appends a location message to the
// conversation that was active when the request was made. Denials and failures are recorded as
// the last error and reported, nothing is appended.
func (s *messagesService) ShareLocation(ctx context.Context, locator geolocation.Locator) (models.Message, error) {
	target, ok := s.selectedID()
	if !ok {
		recordIntent("messages", "share_location", ErrNoConversationSelected)
		return models.Message{}, ErrNoConversationSelected
	}

	ctx, span := s.tracer.Start(ctx, "messages.share_location", trace.WithAttributes(attribute.Int("conversation.id", int(target))))
	defer span.End()

	if locator == nil {
		locator = geolocation.Disabled()
	}

	coords, err := locator.CurrentPosition(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "position unavailable")
		return models.Message{}, s.locationFailed(ctx, target, err)
	}

	latitude, longitude := coords.Latitude, coords.Longitude
	message, err := s.appendTo(ctx, target, models.Message{
		Kind:      models.MessageLocation,
		Content:   placeholderContent[models.MessageLocation],
		Latitude:  &latitude,
		Longitude: &longitude,
	})
	recordIntent("messages", "share_location", err)
	return message, err
}

func (s *messagesService) locationFailed(ctx context.Context, conversationID uint, cause error) error {
	display := "Location is unavailable"
	if errors.Is(cause, geolocation.ErrPermissionDenied) {
		display = "Location access was denied"
	}

	s.mu.Lock()
	s.lastError = display
	s.mu.Unlock()

	err := fmt.Errorf("%w: %w", ErrLocationUnavailable, cause)
	recordIntent("messages", "share_location", err)
	s.logger.Info().Err(cause).Uint("conversation_id", conversationID).Msg("location sharing failed")
	s.publisher.Publish(ctx, NewEvent(EventLocationFailed, models.SectionMessages, s.user.ID, map[string]interface{}{
		"conversation_id": conversationID,
		"message":         display,
	}))
	return err
}

// RecordVoice starts a recording that completes on its own after the configured duration and
// appends a voice message. While a recording runs it returns the running task and false.
func (s *messagesService) RecordVoice(ctx context.Context) (*Task, bool, error) {
	s.mu.Lock()
	if s.recording != nil {
		task := s.recording
		s.mu.Unlock()
		return task, false, nil
	}
	if s.selected == nil {
		s.mu.Unlock()
		recordIntent("messages", "record_voice", ErrNoConversationSelected)
		return nil, false, ErrNoConversationSelected
	}
	if err := s.lifetime.Err(); err != nil {
		s.mu.Unlock()
		return nil, false, err
	}

	target := *s.selected
	task, taskCtx := newTask(s.lifetime)
	s.recording = task
	s.mu.Unlock()

	observability.VoiceRecordings().WithLabelValues("started").Inc()
	recordIntent("messages", "record_voice", nil)
	s.publisher.Publish(ctx, NewEvent(EventRecordingStarted, models.SectionMessages, s.user.ID, map[string]interface{}{
		"conversation_id": target,
		"task_id":         task.ID(),
	}))

	go s.completeRecording(taskCtx, task, target)
	return task, true, nil
}

func (s *messagesService) completeRecording(ctx context.Context, task *Task, conversationID uint) {
	timer := time.NewTimer(s.voice)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		s.clearRecording(task)
		observability.VoiceRecordings().WithLabelValues("cancelled").Inc()
		task.finish(ctx.Err())
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil || s.recording != task {
		s.mu.Unlock()
		observability.VoiceRecordings().WithLabelValues("cancelled").Inc()
		task.finish(context.Canceled)
		return
	}
	s.recording = nil
	message := s.appendLocked(conversationID, models.Message{
		Kind:     models.MessageVoice,
		Content:  placeholderContent[models.MessageVoice],
		MediaURL: placeholderMediaURL,
	})
	s.mu.Unlock()

	observability.VoiceRecordings().WithLabelValues("completed").Inc()
	s.publishAppended(s.lifetime, conversationID, message)
	task.finish(nil)
}

func (s *messagesService) clearRecording(task *Task) {
	s.mu.Lock()
	if s.recording == task {
		s.recording = nil
	}
	s.mu.Unlock()
}

// CancelRecording stops a running recording without appending anything.
func (s *messagesService) CancelRecording(ctx context.Context) bool {
	s.mu.Lock()
	task := s.recording
	s.recording = nil
	s.mu.Unlock()

	if task == nil {
		return false
	}

	task.Cancel()
	recordIntent("messages", "cancel_recording", nil)
	s.publisher.Publish(ctx, NewEvent(EventRecordingCancelled, models.SectionMessages, s.user.ID, map[string]interface{}{
		"task_id": task.ID(),
	}))
	return true
}

func (s *messagesService) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording != nil
}

func (s *messagesService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *messagesService) Snapshot() dto.MessagesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := dto.MessagesSnapshot{
		Conversations: append([]models.Conversation(nil), s.conversations...),
		Messages:      []models.Message{},
		Recording:     s.recording != nil,
		LastError:     s.lastError,
	}
	if s.selected != nil {
		id := *s.selected
		snapshot.SelectedID = &id
		snapshot.Messages = s.messagesLocked(id)
	}
	return snapshot
}

// Close cancels a running recording. The controller must not be used afterwards.
func (s *messagesService) Close() {
	s.mu.Lock()
	s.recording = nil
	s.mu.Unlock()
	s.shutdown()
}

func (s *messagesService) selectedID() (uint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

func (s *messagesService) appendToSelected(ctx context.Context, message models.Message) (models.Message, error) {
	target, ok := s.selectedID()
	if !ok {
		return models.Message{}, ErrNoConversationSelected
	}
	return s.appendTo(ctx, target, message)
}

func (s *messagesService) appendTo(ctx context.Context, conversationID uint, message models.Message) (models.Message, error) {
	s.mu.Lock()
	if err := s.lifetime.Err(); err != nil {
		s.mu.Unlock()
		return models.Message{}, err
	}
	appended := s.appendLocked(conversationID, message)
	s.mu.Unlock()

	s.publishAppended(ctx, conversationID, appended)
	return appended, nil
}

// appendLocked assigns the next per-conversation id, stamps the message and refreshes the
// conversation preview.
func (s *messagesService) appendLocked(conversationID uint, message models.Message) models.Message {
	next := s.nextIDs[conversationID]
	if next == 0 {
		next = 1
	}
	message.ID = next
	message.SenderID = s.user.ID
	message.Timestamp = s.now().Format(messageTimeLayout)
	s.nextIDs[conversationID] = next + 1
	s.messages[conversationID] = append(s.messages[conversationID], message)
	s.lastError = ""

	if index := s.conversationIndexLocked(conversationID); index >= 0 {
		s.conversations[index].LastMessage = message.Content
		s.conversations[index].Timestamp = message.Timestamp
	}
	return message
}

func (s *messagesService) publishAppended(ctx context.Context, conversationID uint, message models.Message) {
	s.publisher.Publish(ctx, NewEvent(EventMessageAppended, models.SectionMessages, s.user.ID, map[string]interface{}{
		"conversation_id": conversationID,
		"message":         message,
	}))
}

func (s *messagesService) messagesLocked(conversationID uint) []models.Message {
	return append([]models.Message{}, s.messages[conversationID]...)
}

func (s *messagesService) conversationIndexLocked(conversationID uint) int {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			return i
		}
	}
	return -1
}

func mediaKind(mime string) (models.MessageKind, bool) {
	lower := strings.ToLower(mime)
	switch {
	case strings.HasPrefix(lower, "image/"):
		return models.MessageImage, true
	case strings.HasPrefix(lower, "audio/"):
		return models.MessageAudio, true
	default:
		return "", false
	}
}
