package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/socium-go/internal/config"
	"github.com/noah-isme/socium-go/internal/handler"
	"github.com/noah-isme/socium-go/internal/middleware"
	"github.com/noah-isme/socium-go/internal/repository"
	"github.com/noah-isme/socium-go/internal/router"
	"github.com/noah-isme/socium-go/internal/service"
	"github.com/noah-isme/socium-go/pkg/authapi"
	"github.com/noah-isme/socium-go/pkg/geolocation"
)

type authStub struct {
	logoutErr error
}

func (a *authStub) Login(_ context.Context, creds authapi.Credentials) (authapi.Session, error) {
	if creds.Password == "wrong-password" {
		return authapi.Session{}, &authapi.Error{Action: authapi.ActionLogin, Kind: authapi.KindInvalidCredentials, Status: http.StatusUnauthorized, Message: "bad credentials"}
	}
	return stubSession(creds.Email), nil
}

func (a *authStub) Register(_ context.Context, creds authapi.Credentials) (authapi.Pending, error) {
	return authapi.Pending{Email: creds.Email, Message: "check your inbox"}, nil
}

func (a *authStub) VerifyEmail(_ context.Context, req authapi.VerifyRequest) (authapi.Session, error) {
	return stubSession(req.Email), nil
}

func (a *authStub) Refresh(context.Context, string) (authapi.Session, error) {
	return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: authapi.KindInvalidCredentials, Status: http.StatusUnauthorized}
}

func (a *authStub) Logout(context.Context, string, string) error {
	return a.logoutErr
}

func (a *authStub) ResetPassword(context.Context, authapi.ResetPasswordRequest) error {
	return nil
}

func stubSession(email string) authapi.Session {
	return authapi.Session{
		User:         authapi.User{ID: 1, Email: email, Name: "Ivan Petrov"},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}
}

type mediaStub struct {
	stored []string
}

func (m *mediaStub) Store(_ context.Context, kind, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	m.stored = append(m.stored, kind+":"+name)
	return "https://cdn.example.com/" + name, nil
}

type harness struct {
	app   *fiber.App
	shell *service.Shell
	hub   *service.EventHub
	auth  *authStub
	media *mediaStub
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	auth := &authStub{}
	media := &mediaStub{}
	hub := service.NewEventHub(nil, "", nil, logger)

	gate := service.NewSessionGate(auth, validate, hub, logger)
	gate.SkipRestore()
	shell := service.NewShell(gate, service.WorkspaceDeps{
		Dataset: repository.NewMockDataset(),
		Media:   media,
		Messages: service.MessagesConfig{
			VoiceDuration:  time.Minute,
			MaxUploadBytes: 1024,
		},
		Publisher: hub,
		Logger:    logger,
	}, logger)

	t.Cleanup(func() {
		shell.Close()
		hub.Close()
	})

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "socium-test", AppEnv: "test"}, router.Dependencies{
		Workspaces:      shell,
		Session:         gate,
		SessionHandler:  handler.NewSessionHandler(gate, validate, logger),
		ViewHandler:     handler.NewViewHandler(validate, logger),
		FeedHandler:     handler.NewFeedHandler(validate, logger),
		SearchHandler:   handler.NewSearchHandler(logger),
		MessagesHandler: handler.NewMessagesHandler(geolocation.Fixed(geolocation.Coordinates{Latitude: 55.75, Longitude: 37.61}), time.Second, validate, logger),
		ChannelsHandler: handler.NewChannelsHandler(validate, logger),
		EventsHandler:   handler.NewEventsHandler(hub, logger),
	})

	return &harness{app: app, shell: shell, hub: hub, auth: auth, media: media}
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Details map[string]interface{} `json:"details"`
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	status, payload := h.do(t, http.MethodPost, "/api/v1/session/login", map[string]string{
		"email":    "ivan.petrov@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, status, payload.Message)
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

func newPlainRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func decodeBody(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
