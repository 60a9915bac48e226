package geolocation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestReportedLocator(t *testing.T) {
	ctx := context.Background()

	coords, err := Reported(&Coordinates{Latitude: 55.75, Longitude: 37.62}, false).CurrentPosition(ctx)
	require.NoError(t, err)
	require.Equal(t, 55.75, coords.Latitude)

	_, err = Reported(nil, true).CurrentPosition(ctx)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = Reported(nil, false).CurrentPosition(ctx)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = Reported(&Coordinates{Latitude: 120}, false).CurrentPosition(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPLocatorResolvesPosition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude":59.93,"longitude":30.31}`))
	}))
	defer server.Close()

	locator, err := NewHTTPLocator(server.URL, time.Second, zerolog.Nop())
	require.NoError(t, err)

	coords, err := locator.CurrentPosition(context.Background())
	require.NoError(t, err)
	require.Equal(t, Coordinates{Latitude: 59.93, Longitude: 30.31}, coords)
}

func TestHTTPLocatorMapsForbiddenToDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	locator, err := NewHTTPLocator(server.URL, time.Second, zerolog.Nop())
	require.NoError(t, err)

	_, err = locator.CurrentPosition(context.Background())
	require.True(t, errors.Is(err, ErrPermissionDenied))
}
