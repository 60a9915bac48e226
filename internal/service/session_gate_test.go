package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/socium-go/internal/dto"
	"github.com/noah-isme/socium-go/internal/models"
	"github.com/noah-isme/socium-go/pkg/authapi"
)

type loginResult struct {
	session authapi.Session
	err     error
}

type authClientStub struct {
	mu sync.Mutex

	// loginCalls receives one channel per Login call; the test replies on it.
	loginCalls chan chan loginResult

	loginSession  authapi.Session
	loginErr      error
	registerAck   authapi.Pending
	registerErr   error
	verifySession authapi.Session
	verifyErr     error
	refreshFn     func(ctx context.Context, token string) (authapi.Session, error)
	logoutErr     error
	resetErr      error

	verifyRequests  []authapi.VerifyRequest
	refreshTokens   []string
	logoutTokens    [][2]string
	resetRequests   []authapi.ResetPasswordRequest
	registerPayload []authapi.Credentials
}

func (s *authClientStub) Login(ctx context.Context, creds authapi.Credentials) (authapi.Session, error) {
	if s.loginCalls != nil {
		reply := make(chan loginResult, 1)
		s.loginCalls <- reply
		result := <-reply
		return result.session, result.err
	}
	return s.loginSession, s.loginErr
}

func (s *authClientStub) Register(ctx context.Context, creds authapi.Credentials) (authapi.Pending, error) {
	s.mu.Lock()
	s.registerPayload = append(s.registerPayload, creds)
	s.mu.Unlock()
	return s.registerAck, s.registerErr
}

func (s *authClientStub) VerifyEmail(ctx context.Context, req authapi.VerifyRequest) (authapi.Session, error) {
	s.mu.Lock()
	s.verifyRequests = append(s.verifyRequests, req)
	s.mu.Unlock()
	return s.verifySession, s.verifyErr
}

func (s *authClientStub) Refresh(ctx context.Context, token string) (authapi.Session, error) {
	s.mu.Lock()
	s.refreshTokens = append(s.refreshTokens, token)
	fn := s.refreshFn
	s.mu.Unlock()
	if fn == nil {
		return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: authapi.KindInvalidCredentials, Status: 401, Message: "no session"}
	}
	return fn(ctx, token)
}

func (s *authClientStub) Logout(ctx context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	s.logoutTokens = append(s.logoutTokens, [2]string{accessToken, refreshToken})
	s.mu.Unlock()
	return s.logoutErr
}

func (s *authClientStub) ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) error {
	s.mu.Lock()
	s.resetRequests = append(s.resetRequests, req)
	s.mu.Unlock()
	return s.resetErr
}

func newTestGate(client AuthClient) (*SessionGate, *recordingPublisher) {
	publisher := &recordingPublisher{}
	gate := NewSessionGate(client, validator.New(validator.WithRequiredStructEnabled()), publisher, zerolog.Nop())
	return gate, publisher
}

func sessionFor(id uint, email, name string) authapi.Session {
	return authapi.Session{
		User:         authapi.User{ID: id, Email: email, Name: name},
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
	}
}

func validLogin(email string) dto.LoginRequest {
	return dto.LoginRequest{Email: email, Password: "secret123"}
}

func TestSessionGateStartsLoading(t *testing.T) {
	gate, _ := newTestGate(&authClientStub{})

	require.Equal(t, models.SessionLoading, gate.Status())
	_, ok := gate.CurrentUser()
	require.False(t, ok)
}

func TestSessionGateLoginSuccess(t *testing.T) {
	client := &authClientStub{loginSession: sessionFor(7, "ivan@example.com", "Ivan")}
	gate, publisher := newTestGate(client)
	gate.SkipRestore()

	var transitions []models.SessionStatus
	unsubscribe := gate.Subscribe(func(previous, current models.Session) {
		transitions = append(transitions, current.Status)
	})
	defer unsubscribe()

	user, err := gate.Login(context.Background(), validLogin("ivan@example.com"))
	require.NoError(t, err)
	require.Equal(t, uint(7), user.ID)
	require.Equal(t, models.SessionAuthenticated, gate.Status())

	current, ok := gate.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "Ivan", current.Name)
	require.Equal(t, []models.SessionStatus{models.SessionAuthenticated}, transitions)
	require.Contains(t, publisher.types(), EventSessionChanged)
}

func TestSessionGateLoginInvalidCredentials(t *testing.T) {
	client := &authClientStub{loginErr: &authapi.Error{Action: authapi.ActionLogin, Kind: authapi.KindInvalidCredentials, Status: 401, Message: "nope"}}
	gate, _ := newTestGate(client)
	gate.SkipRestore()

	_, err := gate.Login(context.Background(), validLogin("ivan@example.com"))
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthInvalidCredentials, authErr.Kind)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
	require.Equal(t, "invalid email or password", gate.LastError())
}

func TestSessionGateLoginFailureFromLoadingResolvesUnauthenticated(t *testing.T) {
	client := &authClientStub{loginErr: &authapi.Error{Action: authapi.ActionLogin, Kind: authapi.KindNetwork, Message: "down"}}
	gate, _ := newTestGate(client)

	_, err := gate.Login(context.Background(), validLogin("ivan@example.com"))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthNetwork, authErr.Kind)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
}

func TestSessionGateLoginValidation(t *testing.T) {
	gate, _ := newTestGate(&authClientStub{})
	gate.SkipRestore()

	_, err := gate.Login(context.Background(), dto.LoginRequest{Email: "not-an-email", Password: "secret123"})

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthValidation, authErr.Kind)
	require.Equal(t, "email address is invalid", authErr.Message)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
}

func TestSessionGateStaleLoginDoesNotOverwriteNewer(t *testing.T) {
	client := &authClientStub{loginCalls: make(chan chan loginResult)}
	gate, _ := newTestGate(client)
	gate.SkipRestore()

	type outcome struct {
		user models.User
		err  error
	}
	first := make(chan outcome, 1)
	go func() {
		user, err := gate.Login(context.Background(), validLogin("first@example.com"))
		first <- outcome{user, err}
	}()
	firstReply := <-client.loginCalls

	second := make(chan outcome, 1)
	go func() {
		user, err := gate.Login(context.Background(), validLogin("second@example.com"))
		second <- outcome{user, err}
	}()
	secondReply := <-client.loginCalls

	secondReply <- loginResult{session: sessionFor(2, "second@example.com", "Second")}
	newer := <-second
	require.NoError(t, newer.err)
	require.Equal(t, uint(2), newer.user.ID)

	firstReply <- loginResult{session: sessionFor(1, "first@example.com", "First")}
	stale := <-first

	var authErr *AuthError
	require.True(t, errors.As(stale.err, &authErr))
	require.Equal(t, AuthSuperseded, authErr.Kind)

	current, ok := gate.CurrentUser()
	require.True(t, ok)
	require.Equal(t, uint(2), current.ID)
	require.Equal(t, models.SessionAuthenticated, gate.Status())
}

func TestSessionGateLogoutDiscardsInFlightLogin(t *testing.T) {
	client := &authClientStub{loginCalls: make(chan chan loginResult)}
	gate, _ := newTestGate(client)
	gate.SkipRestore()

	done := make(chan error, 1)
	go func() {
		_, err := gate.Login(context.Background(), validLogin("late@example.com"))
		done <- err
	}()
	reply := <-client.loginCalls

	require.NoError(t, gate.Logout(context.Background()))

	reply <- loginResult{session: sessionFor(5, "late@example.com", "")}
	err := <-done

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthSuperseded, authErr.Kind)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
}

func TestSessionGateRegisterThenVerify(t *testing.T) {
	client := &authClientStub{
		registerAck:   authapi.Pending{Email: "new@example.com", Message: "check your inbox"},
		verifySession: sessionFor(11, "new@example.com", "New"),
	}
	gate, _ := newTestGate(client)
	gate.SkipRestore()

	pending, err := gate.Register(context.Background(), dto.RegisterRequest{Email: "new@example.com", Password: "secret123", Name: "New"})
	require.NoError(t, err)
	require.Equal(t, "check your inbox", pending.Message)

	snapshot := gate.Snapshot()
	require.Equal(t, models.SessionUnauthenticated, snapshot.Status)
	require.True(t, snapshot.PendingVerification)
	require.Equal(t, "new@example.com", snapshot.PendingEmail)

	user, err := gate.VerifyEmail(context.Background(), dto.VerifyEmailRequest{Code: "123456"})
	require.NoError(t, err)
	require.Equal(t, uint(11), user.ID)
	require.Equal(t, "new@example.com", client.verifyRequests[0].Email)

	snapshot = gate.Snapshot()
	require.Equal(t, models.SessionAuthenticated, snapshot.Status)
	require.False(t, snapshot.PendingVerification)
}

func TestSessionGateVerifyWithoutPendingRegistration(t *testing.T) {
	gate, _ := newTestGate(&authClientStub{})
	gate.SkipRestore()

	_, err := gate.VerifyEmail(context.Background(), dto.VerifyEmailRequest{Code: "123456"})

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthValidation, authErr.Kind)
}

func TestSessionGateRestore(t *testing.T) {
	t.Run("resolves to authenticated", func(t *testing.T) {
		client := &authClientStub{refreshFn: func(ctx context.Context, token string) (authapi.Session, error) {
			return sessionFor(3, "back@example.com", ""), nil
		}}
		gate, _ := newTestGate(client)

		user, err := gate.Restore(context.Background())
		require.NoError(t, err)
		require.Equal(t, uint(3), user.ID)
		require.Equal(t, models.SessionAuthenticated, gate.Status())
		require.Equal(t, []string{""}, client.refreshTokens)
	})

	t.Run("resolves to unauthenticated", func(t *testing.T) {
		gate, _ := newTestGate(&authClientStub{})

		_, err := gate.Restore(context.Background())
		require.Error(t, err)
		require.Equal(t, models.SessionUnauthenticated, gate.Status())
	})
}

func TestSessionGateRefreshKeepsSessionOnNetworkError(t *testing.T) {
	calls := 0
	client := &authClientStub{
		loginSession: sessionFor(4, "keep@example.com", "Keep"),
		refreshFn: func(ctx context.Context, token string) (authapi.Session, error) {
			calls++
			if calls == 1 {
				return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: authapi.KindNetwork, Message: "offline"}
			}
			return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: authapi.KindInvalidCredentials, Status: 401, Message: "expired"}
		},
	}
	gate, _ := newTestGate(client)
	gate.SkipRestore()
	_, err := gate.Login(context.Background(), validLogin("keep@example.com"))
	require.NoError(t, err)

	_, err = gate.Refresh(context.Background())
	require.Error(t, err)
	require.Equal(t, models.SessionAuthenticated, gate.Status())
	require.Equal(t, "refresh-keep@example.com", client.refreshTokens[0])

	_, err = gate.Refresh(context.Background())
	require.Error(t, err)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
	_, ok := gate.CurrentUser()
	require.False(t, ok)
}

func TestSessionGateRefreshRejectionEndsSession(t *testing.T) {
	for _, kind := range []authapi.Kind{authapi.KindValidation, authapi.KindEmailNotVerified} {
		t.Run(string(kind), func(t *testing.T) {
			client := &authClientStub{
				loginSession: sessionFor(6, "stale@example.com", "Stale"),
				refreshFn: func(ctx context.Context, token string) (authapi.Session, error) {
					return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: kind, Status: 400, Message: "refresh token missing"}
				},
			}
			gate, _ := newTestGate(client)
			gate.SkipRestore()
			_, err := gate.Login(context.Background(), validLogin("stale@example.com"))
			require.NoError(t, err)

			_, err = gate.Refresh(context.Background())
			require.Error(t, err)
			require.Equal(t, models.SessionUnauthenticated, gate.Status())
			_, ok := gate.CurrentUser()
			require.False(t, ok)
		})
	}
}

func TestSessionGateRefreshKeepsSessionOnServerError(t *testing.T) {
	client := &authClientStub{
		loginSession: sessionFor(7, "busy@example.com", "Busy"),
		refreshFn: func(ctx context.Context, token string) (authapi.Session, error) {
			return authapi.Session{}, &authapi.Error{Action: authapi.ActionRefresh, Kind: authapi.KindServer, Status: 503, Message: "busy"}
		},
	}
	gate, _ := newTestGate(client)
	gate.SkipRestore()
	_, err := gate.Login(context.Background(), validLogin("busy@example.com"))
	require.NoError(t, err)

	_, err = gate.Refresh(context.Background())
	require.Error(t, err)
	require.Equal(t, models.SessionAuthenticated, gate.Status())
}

func TestSessionGateLogoutClearsStateWhenRemoteFails(t *testing.T) {
	client := &authClientStub{
		loginSession: sessionFor(8, "bye@example.com", "Bye"),
		logoutErr:    &authapi.Error{Action: authapi.ActionLogout, Kind: authapi.KindServer, Status: 500, Message: "boom"},
	}
	gate, _ := newTestGate(client)
	gate.SkipRestore()
	_, err := gate.Login(context.Background(), validLogin("bye@example.com"))
	require.NoError(t, err)

	err = gate.Logout(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthServer, authErr.Kind)
	require.Equal(t, models.SessionUnauthenticated, gate.Status())
	_, ok := gate.CurrentUser()
	require.False(t, ok)
	require.Equal(t, [2]string{"access-bye@example.com", "refresh-bye@example.com"}, client.logoutTokens[0])
}

func TestSessionGateResetPassword(t *testing.T) {
	client := &authClientStub{}
	gate, _ := newTestGate(client)
	gate.SkipRestore()

	require.NoError(t, gate.ResetPassword(context.Background(), dto.ResetPasswordRequest{Email: "reset@example.com"}))
	require.Len(t, client.resetRequests, 1)

	err := gate.ResetPassword(context.Background(), dto.ResetPasswordRequest{Email: "reset@example.com", Code: "123456"})
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, AuthValidation, authErr.Kind)
	require.Len(t, client.resetRequests, 1)
}

func TestSessionGateSubscribeUnsubscribe(t *testing.T) {
	gate, _ := newTestGate(&authClientStub{loginSession: sessionFor(1, "a@example.com", "")})

	calls := 0
	unsubscribe := gate.Subscribe(func(previous, current models.Session) { calls++ })
	gate.SkipRestore()
	unsubscribe()

	_, err := gate.Login(context.Background(), validLogin("a@example.com"))
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestSessionGateSnapshotCarriesExpiry(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	session := sessionFor(1, "exp@example.com", "")
	session.ExpiresAt = &expires
	gate, _ := newTestGate(&authClientStub{loginSession: session})
	gate.SkipRestore()

	_, err := gate.Login(context.Background(), validLogin("exp@example.com"))
	require.NoError(t, err)
	require.NotNil(t, gate.Snapshot().ExpiresAt)
	require.True(t, expires.Equal(*gate.Snapshot().ExpiresAt))
}
