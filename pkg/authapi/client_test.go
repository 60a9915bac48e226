package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL + "/auth"}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("collaborator-secret"))
	require.NoError(t, err)
	return signed
}

func TestLoginSendsActionAndParsesSession(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	access := signedToken(t, expires)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth", r.URL.Path)
		require.Equal(t, "login", r.URL.Query().Get("action"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "anna@example.com", creds.Email)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user":          map[string]interface{}{"id": 7, "email": "anna@example.com", "name": "Anna"},
			"access_token":  access,
			"refresh_token": "refresh-1",
		})
	})

	session, err := client.Login(context.Background(), Credentials{Email: "anna@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, uint(7), session.User.ID)
	require.Equal(t, "Anna", session.User.Name)
	require.Equal(t, "refresh-1", session.RefreshToken)
	require.NotNil(t, session.ExpiresAt)
	require.True(t, expires.Equal(*session.ExpiresAt))
}

func TestLoginMapsStatusCodesToKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusUnauthorized, KindInvalidCredentials},
		{http.StatusForbidden, KindEmailNotVerified},
		{http.StatusBadRequest, KindValidation},
		{http.StatusBadGateway, KindServer},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		})

		_, err := client.Login(context.Background(), Credentials{Email: "a@b.co", Password: "secret123"})
		var authErr *Error
		require.True(t, errors.As(err, &authErr))
		require.Equal(t, tc.kind, authErr.Kind)
		require.Equal(t, tc.status, authErr.Status)
		require.Equal(t, "nope", authErr.Message)
	}
}

func TestLoginRejectsResponseWithoutUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"x"}`))
	})

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.co", Password: "secret123"})
	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, KindServer, authErr.Kind)
}

func TestRegisterReturnsPendingAcknowledgement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "register", r.URL.Query().Get("action"))
		_, _ = w.Write([]byte(`{"message":"check your inbox"}`))
	})

	pending, err := client.Register(context.Background(), Credentials{Email: "new@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", pending.Email)
	require.Equal(t, "check your inbox", pending.Message)
}

func TestLogoutSendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "logout", r.URL.Query().Get("action"))
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Logout(context.Background(), "access-1", "refresh-1"))
}

func TestNetworkFailureIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client, err := New(Config{BaseURL: base, Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "refresh-1")
	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	require.Equal(t, KindNetwork, authErr.Kind)
}

func TestTokenExpiryIgnoresGarbage(t *testing.T) {
	_, ok := TokenExpiry("not-a-jwt")
	require.False(t, ok)

	_, ok = TokenExpiry("")
	require.False(t, ok)
}
