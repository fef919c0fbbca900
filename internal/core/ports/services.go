package ports

import (
	"context"
	"errors"
	"time"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/ee"
)

// ErrCacheMiss is returned by CacheService.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishQueryEvent(ctx context.Context, event *domain.QueryEvent) error
	PublishMonitorReport(ctx context.Context, report *domain.MonitorReport) error
}

// ThumbnailOptions controls a rendered PNG.
type ThumbnailOptions struct {
	Format string
}

// AnalyticsBackend is the managed geospatial analysis platform.
// Ready is fixed once the handle is constructed.
type AnalyticsBackend interface {
	Ready() bool
	ProjectID() string
	ComputeValue(ctx context.Context, expr *ee.Expression) ([]byte, error)
	Thumbnail(ctx context.Context, expr *ee.Expression, opts ThumbnailOptions) (string, error)
	MapTiles(ctx context.Context, expr *ee.Expression) (*domain.MapTiles, error)
}

// GeocodingProvider resolves free text via an external service. It returns
// domain.ErrNotFound when the provider answered but had no match.
type GeocodingProvider interface {
	Lookup(ctx context.Context, query string) (*domain.PlaceMatch, error)
}

// LanguageModel completes a chat given a system prompt and ordered turns.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error)
}
