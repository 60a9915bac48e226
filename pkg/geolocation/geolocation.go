package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrPermissionDenied indicates the user refused to share their position.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrUnavailable indicates the position could not be determined.
	ErrUnavailable = errors.New("geolocation unavailable")
)

// Coordinates is a device position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Locator resolves the current device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Coordinates, error)

// CurrentPosition implements Locator.
func (f LocatorFunc) CurrentPosition(ctx context.Context) (Coordinates, error) {
	return f(ctx)
}

// Fixed always reports the same coordinates.
func Fixed(coords Coordinates) Locator {
	return LocatorFunc(func(ctx context.Context) (Coordinates, error) {
		if err := ctx.Err(); err != nil {
			return Coordinates{}, err
		}
		return coords, nil
	})
}

// Reported replays the outcome the rendering layer got from the device: either coordinates or a
// denial.
func Reported(coords *Coordinates, denied bool) Locator {
	return LocatorFunc(func(ctx context.Context) (Coordinates, error) {
		if err := ctx.Err(); err != nil {
			return Coordinates{}, err
		}
		if denied {
			return Coordinates{}, ErrPermissionDenied
		}
		if coords == nil {
			return Coordinates{}, ErrUnavailable
		}
		if !coords.Valid() {
			return Coordinates{}, fmt.Errorf("coordinates out of range: %w", ErrUnavailable)
		}
		return *coords, nil
	})
}

// Disabled is used when no geolocation source is configured.
func Disabled() Locator {
	return LocatorFunc(func(ctx context.Context) (Coordinates, error) {
		return Coordinates{}, ErrPermissionDenied
	})
}

// HTTPLocator resolves the position through a JSON lookup endpoint answering
// {"latitude":..,"longitude":..} (ip-based lookup services use this shape).
type HTTPLocator struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewHTTPLocator constructs an HTTPLocator.
func NewHTTPLocator(endpoint string, timeout time.Duration, logger zerolog.Logger) (*HTTPLocator, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("geolocation endpoint must be provided")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPLocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "geolocation").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/socium-go/pkg/geolocation"),
	}, nil
}

// CurrentPosition implements Locator.
func (l *HTTPLocator) CurrentPosition(ctx context.Context) (Coordinates, error) {
	ctx, span := l.tracer.Start(ctx, "geolocation.lookup", trace.WithAttributes(attribute.String("geolocation.endpoint", l.endpoint)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		span.RecordError(err)
		return Coordinates{}, fmt.Errorf("build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Coordinates{}, ctxErr
		}
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		span.SetStatus(codes.Error, "denied")
		return Coordinates{}, ErrPermissionDenied
	case resp.StatusCode >= http.StatusBadRequest:
		span.SetStatus(codes.Error, "lookup rejected")
		return Coordinates{}, fmt.Errorf("%w: lookup returned %d", ErrUnavailable, resp.StatusCode)
	}

	var coords Coordinates
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&coords); err != nil {
		span.RecordError(err)
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !coords.Valid() {
		return Coordinates{}, fmt.Errorf("%w: coordinates out of range", ErrUnavailable)
	}

	l.logger.Debug().Float64("latitude", coords.Latitude).Float64("longitude", coords.Longitude).Msg("position resolved")
	return coords, nil
}
