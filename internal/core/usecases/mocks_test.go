package usecases_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/ee"
)

// --- Mock AnalyticsBackend ---

type mockBackend struct {
	notReady    bool
	computeFn   func(ctx context.Context, expr string) ([]byte, error)
	thumbnailFn func(ctx context.Context, expr string) (string, error)
	mapTilesFn  func(ctx context.Context, expr string) (*domain.MapTiles, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockBackend) Ready() bool       { return !m.notReady }
func (m *mockBackend) ProjectID() string { return "test-project" }

func (m *mockBackend) record(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, kind)
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockBackend) ComputeValue(ctx context.Context, expr *ee.Expression) ([]byte, error) {
	m.record("compute")
	if m.computeFn != nil {
		return m.computeFn(ctx, encodeExpr(expr))
	}
	return []byte(`{}`), nil
}

func (m *mockBackend) Thumbnail(ctx context.Context, expr *ee.Expression, opts ports.ThumbnailOptions) (string, error) {
	m.record("thumbnail")
	if m.thumbnailFn != nil {
		return m.thumbnailFn(ctx, encodeExpr(expr))
	}
	return "https://thumbs.example/1:getPixels", nil
}

func (m *mockBackend) MapTiles(ctx context.Context, expr *ee.Expression) (*domain.MapTiles, error) {
	m.record("maps")
	if m.mapTilesFn != nil {
		return m.mapTilesFn(ctx, encodeExpr(expr))
	}
	return &domain.MapTiles{MapID: "map-1", TileURL: "https://tiles.example/map-1/{z}/{x}/{y}"}, nil
}

func encodeExpr(expr *ee.Expression) string {
	data, _ := json.Marshal(expr)
	return string(data)
}

func isCall(expr, fn string) bool {
	return strings.Contains(expr, `"functionName":"`+fn+`"`)
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock GeocodingProvider ---

type mockGeocoder struct {
	lookupFn func(ctx context.Context, query string) (*domain.PlaceMatch, error)
	calls    int
}

func (m *mockGeocoder) Lookup(ctx context.Context, query string) (*domain.PlaceMatch, error) {
	m.calls++
	if m.lookupFn != nil {
		return m.lookupFn(ctx, query)
	}
	return nil, domain.ErrNotFound
}

// --- Mock LanguageModel ---

type mockLLM struct {
	completeFn func(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error)
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, system, turns)
	}
	return "", nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu      sync.Mutex
	queries []*domain.QueryEvent
	reports []*domain.MonitorReport
	err     error
}

func (m *mockPublisher) PublishQueryEvent(ctx context.Context, event *domain.QueryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, event)
	return m.err
}

func (m *mockPublisher) PublishMonitorReport(ctx context.Context, report *domain.MonitorReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	return m.err
}

// --- Mock QueryLogRepository ---

type mockQueryLog struct {
	entries []domain.QueryLogEntry
	err     error
}

func (m *mockQueryLog) Insert(ctx context.Context, entry *domain.QueryLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockQueryLog) Recent(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error) {
	return m.entries, len(m.entries), m.err
}

// mustJSON marshals v or fails the test.
func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
