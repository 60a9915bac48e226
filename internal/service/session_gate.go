package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/internal/observability"
	"github.com/noah-isme/socium-go/pkg/authapi"
)

// AuthClient is the subset of the auth collaborator used by the session gate.
type AuthClient interface {
	Login(ctx context.Context, creds authapi.Credentials) (authapi.Session, error)
	Register(ctx context.Context, creds authapi.Credentials) (authapi.Pending, error)
	VerifyEmail(ctx context.Context, req authapi.VerifyRequest) (authapi.Session, error)
	Refresh(ctx context.Context, refreshToken string) (authapi.Session, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) error
}

// AuthErrorKind classifies session gate failures for display.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthEmailNotVerified   AuthErrorKind = "email_not_verified"
	AuthNetwork            AuthErrorKind = "network"
	AuthServer             AuthErrorKind = "server"
	AuthValidation         AuthErrorKind = "validation"
	AuthSuperseded         AuthErrorKind = "superseded"
)

// AuthError is the typed failure returned by every session gate operation.
type AuthError struct {
	Op      string
	Kind    AuthErrorKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type authOp string

const (
	opLogin         authOp = "login"
	opRegister      authOp = "register"
	opVerifyEmail   authOp = "verify_email"
	opRefresh       authOp = "refresh"
	opResetPassword authOp = "reset_password"
	opLogout        authOp = "logout"
)

type inflight struct {
	generation uint64
	cancel     context.CancelFunc
}

// SessionListener observes session transitions.
type SessionListener func(previous, current models.Session)

// SessionGate holds the authentication state and the current user. Each operation kind is
// latest-wins: a newer call cancels the older one, and responses of superseded calls never
// touch state.
type SessionGate struct {
	client    AuthClient
	validator *validator.Validate
	publisher EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer

	mu           sync.Mutex
	status       models.SessionStatus
	user         *models.User
	accessToken  string
	refreshToken string
	expiresAt    *time.Time
	pending      *models.PendingVerification
	lastError    string
	epoch        uint64
	ops          map[authOp]*inflight

	notifyMu     sync.Mutex
	listeners    map[int]SessionListener
	nextListener int
}

// NewSessionGate constructs a session gate in the loading state.
func NewSessionGate(client AuthClient, validate *validator.Validate, publisher EventPublisher, logger zerolog.Logger) *SessionGate {
	return &SessionGate{
		client:    client,
		validator: validate,
		publisher: publisherOrNop(publisher),
		logger:    logger.With().Str("component", "session_gate").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/socium-go/internal/service/session"),
		status:    models.SessionLoading,
		ops:       make(map[authOp]*inflight),
		listeners: make(map[int]SessionListener),
	}
}

// Status returns the current session status.
func (g *SessionGate) Status() models.SessionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// CurrentUser returns the authenticated user, if any.
func (g *SessionGate) CurrentUser() (models.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return models.User{}, false
	}
	return *g.user, true
}

// LastError returns the last user-visible failure message.
func (g *SessionGate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

// Snapshot returns the session state without tokens.
func (g *SessionGate) Snapshot() models.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Subscribe registers a listener for session transitions and returns its removal function.
// Listeners run synchronously in transition order and must not call mutating gate methods.
func (g *SessionGate) Subscribe(listener SessionListener) func() {
	g.notifyMu.Lock()
	id := g.nextListener
	g.nextListener++
	g.listeners[id] = listener
	g.notifyMu.Unlock()

	return func() {
		g.notifyMu.Lock()
		delete(g.listeners, id)
		g.notifyMu.Unlock()
	}
}

// Login exchanges credentials for an authenticated session.
func (g *SessionGate) Login(ctx context.Context, payload dto.LoginRequest) (models.User, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	if err := g.validator.Struct(payload); err != nil {
		return models.User{}, g.reject(opLogin, err)
	}

	ctx, span := g.tracer.Start(ctx, "session.login")
	defer span.End()

	callCtx, ticket := g.begin(ctx, opLogin)
	defer ticket.release()

	session, err := g.client.Login(callCtx, authapi.Credentials{Email: payload.Email, Password: payload.Password})
	if err != nil {
		span.RecordError(err)
		return models.User{}, g.fail(ctx, ticket, err, false)
	}

	return g.authenticate(ctx, ticket, session)
}

// Register creates an account and enters the pending-verification sub-state.
func (g *SessionGate) Register(ctx context.Context, payload dto.RegisterRequest) (models.PendingVerification, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Name = strings.TrimSpace(payload.Name)
	if err := g.validator.Struct(payload); err != nil {
		return models.PendingVerification{}, g.reject(opRegister, err)
	}

	ctx, span := g.tracer.Start(ctx, "session.register")
	defer span.End()

	callCtx, ticket := g.begin(ctx, opRegister)
	defer ticket.release()

	ack, err := g.client.Register(callCtx, authapi.Credentials{Email: payload.Email, Password: payload.Password, Name: payload.Name})
	if err != nil {
		span.RecordError(err)
		return models.PendingVerification{}, g.fail(ctx, ticket, err, false)
	}

	pending := models.PendingVerification{Email: ack.Email, Message: ack.Message}
	if pending.Email == "" {
		pending.Email = payload.Email
	}

	err = g.transition(ctx, ticket, func() {
		g.pending = &pending
		g.lastError = ""
		if g.status == models.SessionLoading {
			g.status = models.SessionUnauthenticated
		}
	})
	if err != nil {
		return models.PendingVerification{}, err
	}

	g.logger.Info().Str("email", pending.Email).Msg("registration pending verification")
	return pending, nil
}

// VerifyEmail confirms the pending registration and authenticates the user. The email defaults
// to the pending registration's address.
func (g *SessionGate) VerifyEmail(ctx context.Context, payload dto.VerifyEmailRequest) (models.User, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Code = strings.TrimSpace(payload.Code)
	if err := g.validator.Struct(payload); err != nil {
		return models.User{}, g.reject(opVerifyEmail, err)
	}

	if payload.Email == "" {
		g.mu.Lock()
		if g.pending != nil {
			payload.Email = g.pending.Email
		}
		g.mu.Unlock()
	}
	if payload.Email == "" {
		return models.User{}, g.reject(opVerifyEmail, errors.New("no registration is awaiting verification"))
	}

	ctx, span := g.tracer.Start(ctx, "session.verify_email")
	defer span.End()

	callCtx, ticket := g.begin(ctx, opVerifyEmail)
	defer ticket.release()

	session, err := g.client.VerifyEmail(callCtx, authapi.VerifyRequest{Email: payload.Email, Code: payload.Code})
	if err != nil {
		span.RecordError(err)
		return models.User{}, g.fail(ctx, ticket, err, false)
	}

	return g.authenticate(ctx, ticket, session)
}

// Refresh renews the session with the stored refresh token. A rejected token ends the session;
// server and transport failures keep it.
func (g *SessionGate) Refresh(ctx context.Context) (models.User, error) {
	ctx, span := g.tracer.Start(ctx, "session.refresh")
	defer span.End()

	callCtx, ticket := g.begin(ctx, opRefresh)
	defer ticket.release()

	g.mu.Lock()
	refreshToken := g.refreshToken
	g.mu.Unlock()

	session, err := g.client.Refresh(callCtx, refreshToken)
	if err != nil {
		span.RecordError(err)
		return models.User{}, g.fail(ctx, ticket, err, true)
	}

	return g.authenticate(ctx, ticket, session)
}

// Restore performs the silent session restore at startup and always leaves the loading state.
func (g *SessionGate) Restore(ctx context.Context) (models.User, error) {
	user, err := g.Refresh(ctx)
	if err != nil {
		g.SkipRestore()
		return models.User{}, err
	}
	return user, nil
}

// SkipRestore resolves the loading state to unauthenticated without contacting the collaborator.
func (g *SessionGate) SkipRestore() {
	g.mu.Lock()
	if g.status != models.SessionLoading {
		g.mu.Unlock()
		return
	}
	previous := g.snapshotLocked()
	g.status = models.SessionUnauthenticated
	g.commitLocked(context.Background(), previous)
}

// ResetPassword requests a reset code or, when a code is supplied, sets the new password.
func (g *SessionGate) ResetPassword(ctx context.Context, payload dto.ResetPasswordRequest) error {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Code = strings.TrimSpace(payload.Code)
	if err := g.validator.Struct(payload); err != nil {
		return g.reject(opResetPassword, err)
	}

	ctx, span := g.tracer.Start(ctx, "session.reset_password")
	defer span.End()

	callCtx, ticket := g.begin(ctx, opResetPassword)
	defer ticket.release()

	err := g.client.ResetPassword(callCtx, authapi.ResetPasswordRequest{
		Email:       payload.Email,
		Code:        payload.Code,
		NewPassword: payload.NewPassword,
	})
	if err != nil {
		span.RecordError(err)
		return g.fail(ctx, ticket, err, false)
	}

	return g.transition(ctx, ticket, func() { g.lastError = "" })
}

// Logout clears the local session before notifying the collaborator. The local state is cleared
// even when the remote call fails; that failure is returned for display only.
func (g *SessionGate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.epoch++
	for op, call := range g.ops {
		call.cancel()
		delete(g.ops, op)
	}
	previous := g.snapshotLocked()
	accessToken, refreshToken := g.accessToken, g.refreshToken
	g.status = models.SessionUnauthenticated
	g.user = nil
	g.accessToken = ""
	g.refreshToken = ""
	g.expiresAt = nil
	g.pending = nil
	g.lastError = ""
	g.commitLocked(ctx, previous)

	ctx, span := g.tracer.Start(ctx, "session.logout")
	defer span.End()

	if err := g.client.Logout(ctx, accessToken, refreshToken); err != nil {
		span.RecordError(err)
		authErr := classifyAuthError(opLogout, err)
		g.logger.Warn().Err(err).Str("kind", string(authErr.Kind)).Msg("remote logout failed; local session cleared")
		return authErr
	}

	g.logger.Info().Msg("session closed")
	return nil
}

type opTicket struct {
	op         authOp
	generation uint64
	epoch      uint64
	release    context.CancelFunc
}

func (g *SessionGate) begin(ctx context.Context, op authOp) (context.Context, opTicket) {
	callCtx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	var generation uint64 = 1
	if previous, ok := g.ops[op]; ok {
		previous.cancel()
		generation = previous.generation + 1
	}
	g.ops[op] = &inflight{generation: generation, cancel: cancel}

	return callCtx, opTicket{op: op, generation: generation, epoch: g.epoch, release: cancel}
}

func (g *SessionGate) currentLocked(ticket opTicket) bool {
	if ticket.epoch != g.epoch {
		return false
	}
	call, ok := g.ops[ticket.op]
	return ok && call.generation == ticket.generation
}

func (g *SessionGate) superseded(op authOp) *AuthError {
	return &AuthError{Op: string(op), Kind: AuthSuperseded, Message: "superseded by a newer request"}
}

// transition applies mutate only if the ticket is still current.
func (g *SessionGate) transition(ctx context.Context, ticket opTicket, mutate func()) error {
	g.mu.Lock()
	if !g.currentLocked(ticket) {
		g.mu.Unlock()
		return g.superseded(ticket.op)
	}
	previous := g.snapshotLocked()
	mutate()
	g.commitLocked(ctx, previous)
	return nil
}

func (g *SessionGate) authenticate(ctx context.Context, ticket opTicket, session authapi.Session) (models.User, error) {
	user := models.User{ID: session.User.ID, Email: session.User.Email, Name: session.User.Name}

	err := g.transition(ctx, ticket, func() {
		g.status = models.SessionAuthenticated
		g.user = &user
		g.accessToken = session.AccessToken
		if session.RefreshToken != "" {
			g.refreshToken = session.RefreshToken
		}
		g.expiresAt = session.ExpiresAt
		g.pending = nil
		g.lastError = ""
	})
	if err != nil {
		g.logger.Debug().Str("op", string(ticket.op)).Msg("discarding stale auth response")
		return models.User{}, err
	}

	g.logger.Info().Uint("user_id", user.ID).Str("op", string(ticket.op)).Msg("session authenticated")
	return user, nil
}

// fail records a collaborator failure. endSession drops an authenticated session when the
// collaborator rejected the request itself (any 4xx); server and transport failures keep it.
func (g *SessionGate) fail(ctx context.Context, ticket opTicket, err error, endSession bool) error {
	authErr := classifyAuthError(ticket.op, err)

	applied := g.transition(ctx, ticket, func() {
		g.lastError = authErr.Message
		if g.status == models.SessionLoading {
			g.status = models.SessionUnauthenticated
		}
		if endSession && rejectsSession(authErr.Kind) {
			g.status = models.SessionUnauthenticated
			g.user = nil
			g.accessToken = ""
			g.refreshToken = ""
			g.expiresAt = nil
		}
	})
	if applied != nil {
		return applied
	}

	g.logger.Warn().Err(err).Str("op", string(ticket.op)).Str("kind", string(authErr.Kind)).Msg("auth operation failed")
	return authErr
}

func rejectsSession(kind AuthErrorKind) bool {
	switch kind {
	case AuthInvalidCredentials, AuthEmailNotVerified, AuthValidation:
		return true
	}
	return false
}

func (g *SessionGate) reject(op authOp, err error) error {
	authErr := &AuthError{Op: string(op), Kind: AuthValidation, Message: validationMessage(err), Err: err}
	g.mu.Lock()
	g.lastError = authErr.Message
	g.mu.Unlock()
	return authErr
}

func (g *SessionGate) snapshotLocked() models.Session {
	session := models.Session{
		Status:    g.status,
		LastError: g.lastError,
	}
	if g.user != nil {
		user := *g.user
		session.User = &user
	}
	if g.expiresAt != nil {
		expiresAt := *g.expiresAt
		session.ExpiresAt = &expiresAt
	}
	if g.pending != nil {
		session.PendingVerification = true
		session.PendingEmail = g.pending.Email
	}
	return session
}

// commitLocked releases g.mu and notifies listeners in transition order.
func (g *SessionGate) commitLocked(ctx context.Context, previous models.Session) {
	current := g.snapshotLocked()
	g.notifyMu.Lock()
	g.mu.Unlock()
	defer g.notifyMu.Unlock()

	if previous.Status != current.Status {
		observability.SessionTransitions().WithLabelValues(string(previous.Status), string(current.Status)).Inc()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("session.status", string(current.Status)))
	}

	for _, listener := range g.listeners {
		listener(previous, current)
	}

	var userID uint
	if current.User != nil {
		userID = current.User.ID
	}
	g.publisher.Publish(ctx, NewEvent(EventSessionChanged, "", userID, dto.NewSessionResponse(current)))
}

func classifyAuthError(op authOp, err error) *AuthError {
	var apiErr *authapi.Error
	if errors.As(err, &apiErr) {
		kind := AuthServer
		message := apiErr.Message
		switch apiErr.Kind {
		case authapi.KindInvalidCredentials:
			kind = AuthInvalidCredentials
			message = "invalid email or password"
		case authapi.KindEmailNotVerified:
			kind = AuthEmailNotVerified
			message = "email address is not verified"
		case authapi.KindValidation:
			kind = AuthValidation
		case authapi.KindNetwork, authapi.KindCanceled:
			kind = AuthNetwork
			message = "unable to reach the authentication service"
		case authapi.KindServer:
			message = "authentication service error"
		}
		return &AuthError{Op: string(op), Kind: kind, Message: message, Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{Op: string(op), Kind: AuthNetwork, Message: "authentication request did not complete", Err: err}
	}

	return &AuthError{Op: string(op), Kind: AuthServer, Message: "authentication service error", Err: err}
}

func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		field := strings.ToLower(validationErrs[0].Field())
		switch validationErrs[0].Tag() {
		case "required":
			return field + " is required"
		case "email":
			return "email address is invalid"
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", field, validationErrs[0].Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", field, validationErrs[0].Param())
		default:
			return field + " is invalid"
		}
	}
	return err.Error()
}
