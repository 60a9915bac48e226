package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Action selects the collaborator endpoint through the "action" query parameter.
type Action string

const (
	ActionLogin         Action = "login"
	ActionRegister      Action = "register"
	ActionVerifyEmail   Action = "verify-email"
	ActionRefresh       Action = "refresh"
	ActionLogout        Action = "logout"
	ActionResetPassword Action = "reset-password"
)

const maxResponseBytes = 1 << 20

// Config configures the auth collaborator client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// User is the user record returned by the collaborator.
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is the successful result of login, verify-email and refresh.
type Session struct {
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Pending is the acknowledgement returned by register.
type Pending struct {
	Email   string
	Message string
}

// Credentials carries login and registration input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// VerifyRequest confirms an email address with the code sent by the collaborator.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest either requests a reset code (Code empty) or applies a new password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

type sessionPayload struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type pendingPayload struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the external auth service.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	logger        zerolog.Logger
	tracer        trace.Tracer
	sessionSchema *jsonschema.Schema
}

// New constructs an auth collaborator client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("auth base url must be provided")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid auth base url: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	schema, err := compileSessionSchema()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:       base,
		http:          client,
		logger:        logger.With().Str("component", "auth_client").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/socium-go/pkg/authapi"),
		sessionSchema: schema,
	}, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	return c.session(ctx, ActionLogin, creds, "")
}

// Register creates an account that stays pending until its email is verified.
func (c *Client) Register(ctx context.Context, creds Credentials) (Pending, error) {
	body, err := c.do(ctx, ActionRegister, creds, "")
	if err != nil {
		return Pending{}, err
	}

	var payload pendingPayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return Pending{}, &Error{Action: ActionRegister, Kind: KindServer, Message: "malformed register response", Err: err}
		}
	}
	if payload.Email == "" {
		payload.Email = creds.Email
	}

	return Pending{Email: payload.Email, Message: payload.Message}, nil
}

// VerifyEmail confirms a pending registration and opens a session.
func (c *Client) VerifyEmail(ctx context.Context, req VerifyRequest) (Session, error) {
	return c.session(ctx, ActionVerifyEmail, req, "")
}

// Refresh renews the session. An empty refresh token relies on collaborator-side cookies.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	payload := map[string]string{}
	if refreshToken != "" {
		payload["refresh_token"] = refreshToken
	}
	return c.session(ctx, ActionRefresh, payload, "")
}

// Logout revokes the session on the collaborator side.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	payload := map[string]string{}
	if refreshToken != "" {
		payload["refresh_token"] = refreshToken
	}
	_, err := c.do(ctx, ActionLogout, payload, accessToken)
	return err
}

// ResetPassword requests or completes a password reset.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	_, err := c.do(ctx, ActionResetPassword, req, "")
	return err
}

func (c *Client) session(ctx context.Context, action Action, request interface{}, bearer string) (Session, error) {
	body, err := c.do(ctx, action, request, bearer)
	if err != nil {
		return Session{}, err
	}

	if err := c.validateSession(body); err != nil {
		return Session{}, &Error{Action: action, Kind: KindServer, Message: "auth response failed schema validation", Err: err}
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Session{}, &Error{Action: action, Kind: KindServer, Message: "malformed auth response", Err: err}
	}

	session := Session{
		User:         payload.User,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if expiresAt, ok := TokenExpiry(payload.AccessToken); ok {
		session.ExpiresAt = &expiresAt
	}

	return session, nil
}

func (c *Client) do(ctx context.Context, action Action, request interface{}, bearer string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "authapi."+string(action), trace.WithAttributes(attribute.String("auth.action", string(action))))
	defer span.End()

	payload, err := json.Marshal(request)
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Action: action, Kind: KindValidation, Message: "unable to encode request", Err: err}
	}

	endpoint := *c.baseURL
	query := endpoint.Query()
	query.Set("action", string(action))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Action: action, Kind: KindNetwork, Message: "unable to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		if errors.Is(err, context.Canceled) {
			return nil, &Error{Action: action, Kind: KindCanceled, Message: "request canceled", Err: err}
		}
		return nil, &Error{Action: action, Kind: KindNetwork, Message: "auth service unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Action: action, Kind: KindNetwork, Status: resp.StatusCode, Message: "failed to read auth response", Err: err}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug().
		Str("action", string(action)).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("auth collaborator responded")

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "auth request rejected")
		return nil, newStatusError(action, resp.StatusCode, body)
	}

	return body, nil
}

func (c *Client) validateSession(body []byte) error {
	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return err
	}
	return c.sessionSchema.Validate(document)
}

func newStatusError(action Action, status int, body []byte) *Error {
	message := http.StatusText(status)
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case strings.TrimSpace(payload.Error) != "":
			message = strings.TrimSpace(payload.Error)
		case strings.TrimSpace(payload.Message) != "":
			message = strings.TrimSpace(payload.Message)
		}
	}

	kind := KindValidation
	switch {
	case status == http.StatusUnauthorized:
		kind = KindInvalidCredentials
	case status == http.StatusForbidden:
		kind = KindEmailNotVerified
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}

	return &Error{Action: action, Kind: kind, Status: status, Message: message}
}
