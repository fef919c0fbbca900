// Package geocoding resolves place names with the Google Geocoding API.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/resilience"
)

// DefaultBaseURL is the Maps web service host; the client appends the
// geocode path.
const DefaultBaseURL = "https://maps.googleapis.com"

// Options configures the provider.
type Options struct {
	APIKey        string
	BaseURL       string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// Google implements ports.GeocodingProvider.
type Google struct {
	client  *maps.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*domain.PlaceMatch]
}

var _ ports.GeocodingProvider = (*Google)(nil)

// NewGoogle returns nil when no API key is configured so that the
// geocode service uses its built-in table.
func NewGoogle(opts Options) *Google {
	if opts.APIKey == "" {
		return nil
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	// The limiter below replaces the client's integer one.
	client, err := maps.NewClient(
		maps.WithAPIKey(opts.APIKey),
		maps.WithBaseURL(opts.BaseURL),
		maps.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
		maps.WithRateLimit(0),
	)
	if err != nil {
		slog.Warn("geocoding client rejected, using built-in location table", "error", err)
		return nil
	}

	return &Google{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		breaker: resilience.NewBreaker[*domain.PlaceMatch]("google-geocoding", resilience.BreakerSettings{
			Successful: func(err error) bool { return errors.Is(err, domain.ErrNotFound) },
		}),
	}
}

// Lookup returns the first result, or domain.ErrNotFound on ZERO_RESULTS.
func (g *Google) Lookup(ctx context.Context, query string) (*domain.PlaceMatch, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocode rate limit: %w", err)
	}
	return g.breaker.Execute(func() (*domain.PlaceMatch, error) {
		return g.lookup(ctx, query)
	})
}

func (g *Google) lookup(ctx context.Context, query string) (*domain.PlaceMatch, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	if len(results) == 0 {
		return nil, domain.ErrNotFound
	}

	first := results[0]
	return &domain.PlaceMatch{
		FormattedAddress: first.FormattedAddress,
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		Types:            first.Types,
	}, nil
}
