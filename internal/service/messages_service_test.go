package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/repository"
	"github.com/noah-isme/socium-go/pkg/geolocation"
)

type mediaStorageStub struct {
	mu    sync.Mutex
	kinds []string
	names []string
	data  [][]byte
	url   string
	err   error
}

func (m *mediaStorageStub) Store(ctx context.Context, kind, name string, reader io.Reader) (string, error) {
	payload, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
	m.names = append(m.names, name)
	m.data = append(m.data, payload)
	return m.url, m.err
}

func newTestMessages(media MediaStorage, voice time.Duration) MessagesService {
	return NewMessagesService(testUser, repository.NewMockDataset(), media, MessagesConfig{
		VoiceDuration:  voice,
		MaxUploadBytes: 1024,
	}, nil, zerolog.Nop())
}

func selectFirst(t *testing.T, svc MessagesService) {
	t.Helper()
	_, err := svc.SelectConversation(context.Background(), 1)
	require.NoError(t, err)
}

func TestMessagesSelectConversationClearsUnread(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewMessagesService(testUser, repository.NewMockDataset(), nil, MessagesConfig{}, publisher, zerolog.Nop())
	defer svc.Close()

	require.Equal(t, 2, svc.Conversations()[0].Unread)

	conversation, err := svc.SelectConversation(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, conversation.Unread)
	require.Equal(t, 0, svc.Conversations()[0].Unread)
	require.Equal(t, []string{EventConversationOpened}, publisher.types())

	_, err = svc.SelectConversation(context.Background(), 77)
	require.ErrorIs(t, err, ErrConversationNotFound)
	require.Equal(t, uint(1), *svc.Snapshot().SelectedID)
}

func TestMessagesSendTextAppendsAtEnd(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()
	selectFirst(t, svc)

	before, err := svc.Messages(1)
	require.NoError(t, err)

	message, err := svc.SendText(context.Background(), "hi")
	require.NoError(t, err)

	after, err := svc.Messages(1)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	require.Equal(t, before, after[:len(before)])

	last := after[len(after)-1]
	require.Equal(t, message, last)
	require.Equal(t, models.MessageText, last.Kind)
	require.Equal(t, testUser.ID, last.SenderID)
	require.Equal(t, "hi", last.Content)
	require.Equal(t, uint(3), last.ID)
	require.Equal(t, "hi", svc.Conversations()[0].LastMessage)
}

func TestMessagesSendTextRejections(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()

	_, err := svc.SendText(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNoConversationSelected)

	selectFirst(t, svc)
	_, err = svc.SendText(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyContent)

	messages, err := svc.Messages(1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestMessagesIDsAreMonotonicPerConversation(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()
	ctx := context.Background()

	selectFirst(t, svc)
	first, err := svc.SendText(ctx, "one")
	require.NoError(t, err)
	second, err := svc.AttachMedia(ctx, models.MessageImage)
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	_, err = svc.SelectConversation(ctx, 2)
	require.NoError(t, err)
	other, err := svc.SendText(ctx, "elsewhere")
	require.NoError(t, err)
	require.Equal(t, uint(2), other.ID)
}

func TestMessagesAttachMediaPlaceholder(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()
	selectFirst(t, svc)

	image, err := svc.AttachMedia(context.Background(), models.MessageImage)
	require.NoError(t, err)
	require.Equal(t, models.MessageImage, image.Kind)
	require.Equal(t, "#", image.MediaURL)

	audio, err := svc.AttachMedia(context.Background(), models.MessageAudio)
	require.NoError(t, err)
	require.Equal(t, models.MessageAudio, audio.Kind)

	_, err = svc.AttachMedia(context.Background(), models.MessageLocation)
	require.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestMessagesUploadMedia(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	t.Run("stores image and appends message", func(t *testing.T) {
		media := &mediaStorageStub{url: "https://cdn.example.com/a.png"}
		svc := newTestMessages(media, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		message, err := svc.UploadMedia(context.Background(), "photo.png", bytes.NewReader(png))
		require.NoError(t, err)
		require.Equal(t, models.MessageImage, message.Kind)
		require.Equal(t, "https://cdn.example.com/a.png", message.MediaURL)
		require.Equal(t, []string{"image"}, media.kinds)
		require.Equal(t, png, media.data[0])
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		media := &mediaStorageStub{url: "x"}
		svc := newTestMessages(media, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		_, err := svc.UploadMedia(context.Background(), "notes.txt", strings.NewReader("plain text"))
		require.ErrorIs(t, err, ErrUnsupportedMedia)
		require.Empty(t, media.kinds)
	})

	t.Run("rejects oversize payload", func(t *testing.T) {
		media := &mediaStorageStub{url: "x"}
		svc := newTestMessages(media, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		_, err := svc.UploadMedia(context.Background(), "big.png", bytes.NewReader(append(png, make([]byte, 2048)...)))
		require.ErrorIs(t, err, ErrMediaTooLarge)
		require.Empty(t, media.kinds)
	})

	t.Run("requires storage", func(t *testing.T) {
		svc := newTestMessages(nil, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		_, err := svc.UploadMedia(context.Background(), "photo.png", bytes.NewReader(png))
		require.ErrorIs(t, err, ErrMediaStorageUnavailable)
	})

	t.Run("storage failure appends nothing", func(t *testing.T) {
		media := &mediaStorageStub{err: errors.New("cloud down")}
		svc := newTestMessages(media, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		_, err := svc.UploadMedia(context.Background(), "photo.png", bytes.NewReader(png))
		require.Error(t, err)
		messages, _ := svc.Messages(1)
		require.Len(t, messages, 2)
	})
}

func TestMessagesShareLocation(t *testing.T) {
	t.Run("appends coordinates", func(t *testing.T) {
		svc := newTestMessages(nil, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		message, err := svc.ShareLocation(context.Background(), geolocation.Fixed(geolocation.Coordinates{Latitude: 55.75, Longitude: 37.61}))
		require.NoError(t, err)
		require.Equal(t, models.MessageLocation, message.Kind)
		require.NotNil(t, message.Latitude)
		require.InDelta(t, 55.75, *message.Latitude, 1e-9)
		require.InDelta(t, 37.61, *message.Longitude, 1e-9)
	})

	t.Run("denial is recoverable and appends nothing", func(t *testing.T) {
		publisher := &recordingPublisher{}
		svc := NewMessagesService(testUser, repository.NewMockDataset(), nil, MessagesConfig{}, publisher, zerolog.Nop())
		defer svc.Close()
		selectFirst(t, svc)

		_, err := svc.ShareLocation(context.Background(), geolocation.Reported(nil, true))
		require.ErrorIs(t, err, ErrLocationUnavailable)
		require.ErrorIs(t, err, geolocation.ErrPermissionDenied)
		require.Equal(t, "Location access was denied", svc.LastError())
		require.Contains(t, publisher.types(), EventLocationFailed)

		messages, _ := svc.Messages(1)
		require.Len(t, messages, 2)

		_, err = svc.SendText(context.Background(), "after")
		require.NoError(t, err)
		require.Empty(t, svc.LastError())
	})

	t.Run("targets the conversation selected at request time", func(t *testing.T) {
		svc := newTestMessages(nil, time.Second)
		defer svc.Close()
		selectFirst(t, svc)

		entered := make(chan struct{})
		release := make(chan struct{})
		locator := geolocation.LocatorFunc(func(ctx context.Context) (geolocation.Coordinates, error) {
			close(entered)
			<-release
			return geolocation.Coordinates{Latitude: 1, Longitude: 2}, nil
		})

		done := make(chan error, 1)
		go func() {
			_, err := svc.ShareLocation(context.Background(), locator)
			done <- err
		}()

		<-entered
		_, err := svc.SelectConversation(context.Background(), 2)
		require.NoError(t, err)
		close(release)
		require.NoError(t, <-done)

		first, _ := svc.Messages(1)
		second, _ := svc.Messages(2)
		require.Len(t, first, 3)
		require.Equal(t, models.MessageLocation, first[2].Kind)
		require.Len(t, second, 1)
	})
}

func TestMessagesRecordVoiceCompletes(t *testing.T) {
	svc := newTestMessages(nil, 20*time.Millisecond)
	defer svc.Close()
	selectFirst(t, svc)

	task, started, err := svc.RecordVoice(context.Background())
	require.NoError(t, err)
	require.True(t, started)
	require.True(t, svc.Recording())

	again, startedAgain, err := svc.RecordVoice(context.Background())
	require.NoError(t, err)
	require.False(t, startedAgain)
	require.Same(t, task, again)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, task.Wait(ctx))
	require.False(t, svc.Recording())

	messages, _ := svc.Messages(1)
	require.Len(t, messages, 3)
	require.Equal(t, models.MessageVoice, messages[2].Kind)
}

func TestMessagesCancelRecording(t *testing.T) {
	svc := newTestMessages(nil, time.Hour)
	defer svc.Close()
	selectFirst(t, svc)

	require.False(t, svc.CancelRecording(context.Background()))

	task, started, err := svc.RecordVoice(context.Background())
	require.NoError(t, err)
	require.True(t, started)

	require.True(t, svc.CancelRecording(context.Background()))
	require.False(t, svc.Recording())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.ErrorIs(t, task.Wait(ctx), context.Canceled)

	messages, _ := svc.Messages(1)
	require.Len(t, messages, 2)
}

func TestMessagesCloseStopsRecording(t *testing.T) {
	svc := newTestMessages(nil, time.Hour)
	selectFirst(t, svc)

	task, _, err := svc.RecordVoice(context.Background())
	require.NoError(t, err)

	svc.Close()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("recording not stopped on close")
	}

	_, _, err = svc.RecordVoice(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestMessagesRecordVoiceRequiresSelection(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()

	_, _, err := svc.RecordVoice(context.Background())
	require.ErrorIs(t, err, ErrNoConversationSelected)
}
