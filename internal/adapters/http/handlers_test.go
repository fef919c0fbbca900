package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
	handler "github.com/samirrijal/kadal/internal/adapters/http"
	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/ee"
)

// ---- Mock backend ----

type mockBackend struct {
	notReady    bool
	computeFn   func(ctx context.Context) ([]byte, error)
	thumbnailFn func(ctx context.Context) (string, error)
}

func (m *mockBackend) Ready() bool       { return !m.notReady }
func (m *mockBackend) ProjectID() string { return "test-project" }

func (m *mockBackend) ComputeValue(ctx context.Context, _ *ee.Expression) ([]byte, error) {
	if m.computeFn != nil {
		return m.computeFn(ctx)
	}
	return []byte(`{}`), nil
}

func (m *mockBackend) Thumbnail(ctx context.Context, _ *ee.Expression, _ ports.ThumbnailOptions) (string, error) {
	if m.thumbnailFn != nil {
		return m.thumbnailFn(ctx)
	}
	return "https://thumbs.example/1:getPixels", nil
}

func (m *mockBackend) MapTiles(_ context.Context, _ *ee.Expression) (*domain.MapTiles, error) {
	return &domain.MapTiles{MapID: "map-1", TileURL: "https://tiles.example/map-1/{z}/{x}/{y}"}, nil
}

type mockStatus struct {
	status earthengine.Status
}

func (m mockStatus) Status() earthengine.Status { return m.status }

// ---- Mock repositories ----

type mockQueryLog struct {
	recentFn func(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error)
	inserted []domain.QueryLogEntry
}

func (m *mockQueryLog) Insert(_ context.Context, e *domain.QueryLogEntry) error {
	m.inserted = append(m.inserted, *e)
	return nil
}

func (m *mockQueryLog) Recent(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit, offset)
	}
	return []domain.QueryLogEntry{}, 0, nil
}

type mockPinger struct {
	err error
}

func (m mockPinger) Ping(context.Context) error { return m.err }

type mockReports struct {
	reports []domain.MonitorReport
}

func (m mockReports) Latest(context.Context) ([]domain.MonitorReport, error) {
	return m.reports, nil
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler,
	})
	handler.SetupRoutes(app, deps)
	return app
}

type testEnv struct {
	backend  *mockBackend
	queryLog *mockQueryLog
}

func makeDeps(opts ...func(*handler.Dependencies, *testEnv)) *handler.Dependencies {
	env := &testEnv{backend: &mockBackend{}, queryLog: &mockQueryLog{}}
	d := &handler.Dependencies{
		Backend: mockStatus{status: earthengine.Status{Configured: true, Initialized: true, ProjectID: "test-project"}},
		Env:     handler.Environment{BackendPort: 8000, MCPPort: 8001, Name: "test"},
		Version: "test",
	}
	for _, o := range opts {
		o(d, env)
	}

	geocoder := usecases.NewGeocodeService(nil, nil)
	imagery := usecases.NewImageryService(env.backend)
	heatmap := usecases.NewHeatmapService(env.backend, usecases.DefaultParameterTable())
	analysis := usecases.NewAnalysisService(env.backend)
	dispatcher := usecases.NewDispatcher(geocoder, imagery, analysis, heatmap)

	d.Geocoder = geocoder
	d.Imagery = imagery
	d.Heatmap = heatmap
	d.Queries = usecases.NewQueryService(usecases.NewRulePlanner(), dispatcher, nil, env.queryLog)
	return d
}

func backendNotReady(d *handler.Dependencies, env *testEnv) {
	env.backend.notReady = true
	d.Backend = mockStatus{status: earthengine.Status{Configured: false}}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeAPIError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(readBody(t, body), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ---- Similarity heatmap ----

func TestSimilarityHeatmap_InvertedBounds(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/api/similarity-heatmap?north=10&south=20&east=10&west=0", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.ErrorType != handler.ErrTypeValidation {
		t.Errorf("expected %s, got %s", handler.ErrTypeValidation, apiErr.ErrorType)
	}
	if apiErr.Success {
		t.Error("expected success=false")
	}
}

func TestSimilarityHeatmap_MissingBound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/api/similarity-heatmap?north=10&south=0&east=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := decodeAPIError(t, resp.Body).Message; !strings.Contains(msg, "west") {
		t.Errorf("expected message to name west, got %q", msg)
	}
}

func TestSimilarityHeatmap_InvalidBoundsBeforeReadiness(t *testing.T) {
	app := setupApp(makeDeps(backendNotReady))

	req := httptest.NewRequest("GET", "/api/similarity-heatmap?north=95&south=0&east=10&west=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for out-of-range latitude, got %d", resp.StatusCode)
	}
}

func TestSimilarityHeatmap_BackendNotReady(t *testing.T) {
	app := setupApp(makeDeps(backendNotReady))

	req := httptest.NewRequest("GET", "/api/similarity-heatmap?north=1&south=0&east=1&west=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.ErrorType != handler.ErrTypeAuthentication {
		t.Errorf("expected %s, got %s", handler.ErrTypeAuthentication, apiErr.ErrorType)
	}
	if apiErr.Error != "Earth Engine not configured" {
		t.Errorf("unexpected summary %q", apiErr.Error)
	}
}

func TestPostSimilarityHeatmap_RegionTooLarge(t *testing.T) {
	exhausted := func(d *handler.Dependencies, env *testEnv) {
		env.backend.computeFn = func(context.Context) ([]byte, error) {
			return nil, errors.New("User memory limit exceeded")
		}
		env.backend.thumbnailFn = func(context.Context) (string, error) {
			return "", errors.New("Image.clipToBoundsAndScale: too many pixels")
		}
	}
	app := setupApp(makeDeps(exhausted))

	body := map[string]any{
		"bounds":         map[string]float64{"north": 50, "south": 30, "east": 20, "west": 0},
		"reference_year": 2020,
		"target_year":    2024,
	}
	resp, _ := app.Test(jsonRequest(t, "POST", "/api/similarity-heatmap", body), -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	apiErr := decodeAPIError(t, resp.Body)
	if apiErr.ErrorType != handler.ErrTypeRegionTooLarge {
		t.Errorf("expected %s, got %s", handler.ErrTypeRegionTooLarge, apiErr.ErrorType)
	}
	if !strings.Contains(apiErr.Message, "smaller area") {
		t.Errorf("expected guidance in message, got %q", apiErr.Message)
	}
}

func TestPostSimilarityHeatmap_MissingBounds(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest(t, "POST", "/api/similarity-heatmap", map[string]any{"reference_year": 2020}), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPostSimilarityHeatmap_YearOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	body := map[string]any{
		"bounds":         map[string]float64{"north": 1, "south": 0, "east": 1, "west": 0},
		"reference_year": 1999,
	}
	resp, _ := app.Test(jsonRequest(t, "POST", "/api/similarity-heatmap", body), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := decodeAPIError(t, resp.Body).Message; !strings.Contains(msg, "reference_year") {
		t.Errorf("expected json field name in message, got %q", msg)
	}
}

// ---- Embeddings ----

func TestEmbeddings_NumPointsOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/api/embeddings?north=1&south=0&east=1&west=0&num_points=5000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEmbeddings_BackendNotReady(t *testing.T) {
	app := setupApp(makeDeps(backendNotReady))

	body := map[string]any{"bounds": map[string]float64{"north": 1, "south": 0, "east": 1, "west": 0}}
	resp, _ := app.Test(jsonRequest(t, "POST", "/api/embeddings", body), -1)
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Natural-language queries ----

func TestQuery_RulePlannerNavigates(t *testing.T) {
	var env *testEnv
	deps := makeDeps(func(_ *handler.Dependencies, e *testEnv) { env = e })
	app := setupApp(deps)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/mcp/query", map[string]any{"query": "  Go to Toronto  "}), -1)
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out domain.QueryResponse
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", out.Status)
	}
	if out.Response != "Navigating to Toronto" {
		t.Errorf("unexpected response %q", out.Response)
	}
	if len(out.Data) != 1 || out.Data[0].Tool != string(domain.ToolGeocodeLocation) {
		t.Fatalf("expected one geocode outcome, got %+v", out.Data)
	}
	if len(env.queryLog.inserted) != 1 || env.queryLog.inserted[0].Query != "Go to Toronto" {
		t.Errorf("expected trimmed query in log, got %+v", env.queryLog.inserted)
	}
}

func TestQuery_OutOfScopeIsOK(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest(t, "POST", "/api/mcp/query", map[string]any{"query": "What's a good pasta recipe?"}), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out domain.QueryResponse
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if out.Status != domain.StatusOutOfScope {
		t.Errorf("expected out_of_scope, got %s", out.Status)
	}
}

func TestQuery_BlankQuery(t *testing.T) {
	app := setupApp(makeDeps())

	for _, body := range []map[string]any{{}, {"query": "   "}} {
		resp, _ := app.Test(jsonRequest(t, "POST", "/api/mcp/query", body), -1)
		if resp.StatusCode != 400 {
			t.Errorf("body %v: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestQuery_InvalidRegion(t *testing.T) {
	app := setupApp(makeDeps())

	body := map[string]any{
		"query":  "show me satellite imagery",
		"region": map[string]any{"type": "rectangle", "coordinates": []float64{10, 10, 0, 0}},
	}
	resp, _ := app.Test(jsonRequest(t, "POST", "/api/mcp/query", body), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestQuery_MalformedBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/api/mcp/query", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestQueryHistory_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	withHistory := func(_ *handler.Dependencies, env *testEnv) {
		env.queryLog.recentFn = func(_ context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error) {
			gotLimit, gotOffset = limit, offset
			return []domain.QueryLogEntry{{
				ID:        "3f1c2a9e-0000-4000-8000-000000000001",
				Query:     "Go to Paris",
				Status:    domain.StatusSuccess,
				Tools:     []string{"geocode_location"},
				CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			}}, 45, nil
		}
	}
	app := setupApp(makeDeps(withHistory))

	req := httptest.NewRequest("GET", "/api/mcp/history?offset=20&limit=10", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotLimit != 10 || gotOffset != 20 {
		t.Errorf("expected limit=10 offset=20, got %d/%d", gotLimit, gotOffset)
	}

	var out struct {
		Data       []domain.QueryLogEntry `json:"data"`
		Pagination handler.Pagination     `json:"pagination"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Pagination.Total != 45 || !out.Pagination.HasMore {
		t.Errorf("unexpected pagination %+v", out.Pagination)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "offset=30") {
		t.Errorf("expected next link at offset 30, got %q", link)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
}

func TestQueryHistory_LimitClamped(t *testing.T) {
	var gotLimit int
	withHistory := func(_ *handler.Dependencies, env *testEnv) {
		env.queryLog.recentFn = func(_ context.Context, limit, _ int) ([]domain.QueryLogEntry, int, error) {
			gotLimit = limit
			return []domain.QueryLogEntry{}, 0, nil
		}
	}
	app := setupApp(makeDeps(withHistory))

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/mcp/history?limit=500", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotLimit != 20 {
		t.Errorf("expected limit reset to 20, got %d", gotLimit)
	}
}

// ---- Geocoding and reference data ----

func TestGeocode_FallbackTable(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/geocode?q=London", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out domain.GeocodeResult
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if !out.Found || out.Coordinates == nil {
		t.Fatalf("expected a hit, got %+v", out)
	}
	if out.Coordinates.Latitude != 51.5074 {
		t.Errorf("unexpected latitude %v", out.Coordinates.Latitude)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected day-long caching on a hit, got %q", cc)
	}
}

func TestGeocode_UnknownPlace(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/geocode?q=Xyzzy", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out domain.GeocodeResult
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if out.Found {
		t.Errorf("expected found=false, got %+v", out)
	}
}

func TestGeocode_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/geocode", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDatasets_LookupByID(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/datasets/USGS/SRTMGL1_003", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ds domain.Dataset
	_ = json.Unmarshal(readBody(t, resp.Body), &ds)
	if ds.ID != "USGS/SRTMGL1_003" {
		t.Errorf("unexpected dataset %+v", ds)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/api/datasets/NOPE/MISSING", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDemoLocations(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/demo-locations", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Success bool                  `json:"success"`
		Count   int                   `json:"count"`
		Data    []domain.DemoLocation `json:"data"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if !out.Success || out.Count == 0 || out.Count != len(out.Data) {
		t.Errorf("unexpected payload %+v", out)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected reference-data caching, got %q", cc)
	}
}

func TestMonitorReports(t *testing.T) {
	app := setupApp(makeDeps())
	resp, _ := app.Test(httptest.NewRequest("GET", "/api/monitor/reports", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 without a report store, got %d", resp.StatusCode)
	}

	withReports := func(d *handler.Dependencies, _ *testEnv) {
		d.Reports = mockReports{reports: []domain.MonitorReport{{Location: "Amazon Rainforest", ReferenceYear: 2022, TargetYear: 2023}}}
	}
	app = setupApp(makeDeps(withReports))
	resp, _ = app.Test(httptest.NewRequest("GET", "/api/monitor/reports", nil), -1)

	var out struct {
		Count int                    `json:"count"`
		Data  []domain.MonitorReport `json:"data"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if out.Count != 1 || out.Data[0].Location != "Amazon Rainforest" {
		t.Errorf("unexpected reports %+v", out)
	}
}

// ---- Health and readiness ----

func TestHealth_Degraded(t *testing.T) {
	app := setupApp(makeDeps(backendNotReady))

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 even when degraded, got %d", resp.StatusCode)
	}
	var out struct {
		Status   string `json:"status"`
		Services struct {
			EarthEngine earthengine.Status `json:"earth_engine"`
			Planner     string             `json:"planner"`
		} `json:"services"`
		Environment handler.Environment `json:"environment"`
	}
	_ = json.Unmarshal(readBody(t, resp.Body), &out)
	if out.Status != "degraded" {
		t.Errorf("expected degraded, got %q", out.Status)
	}
	if out.Services.Planner != "rules" {
		t.Errorf("expected rules planner, got %q", out.Services.Planner)
	}
	if out.Environment.BackendPort != 8000 {
		t.Errorf("expected environment echo, got %+v", out.Environment)
	}
}

func TestHealth_Healthy(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("expected healthy, got %s", body)
	}
	if v := resp.Header.Get("X-API-Version"); v != "test" {
		t.Errorf("expected X-API-Version=test, got %q", v)
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name string
		opt  func(*handler.Dependencies, *testEnv)
		want int
	}{
		{"all ok", func(d *handler.Dependencies, _ *testEnv) {
			d.DB = mockPinger{}
			d.Cache = mockPinger{}
		}, 200},
		{"backend not initialized", backendNotReady, 503},
		{"database down", func(d *handler.Dependencies, _ *testEnv) {
			d.DB = mockPinger{err: errors.New("connection refused")}
		}, 503},
		{"optional deps absent", func(*handler.Dependencies, *testEnv) {}, 200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupApp(makeDeps(tc.opt))
			resp, _ := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, resp.StatusCode, readBody(t, resp.Body))
			}
		})
	}
}

// ---- GraphQL ----

func TestGraphQL_ReferenceData(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{ demoLocations { name bounds { north } } geocode(q: "Paris") { found coordinates { latitude } } }`
	resp, _ := app.Test(jsonRequest(t, "POST", "/graphql", map[string]any{"query": query}), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			DemoLocations []struct {
				Name string `json:"name"`
			} `json:"demoLocations"`
			Geocode struct {
				Found       bool `json:"found"`
				Coordinates struct {
					Latitude float64 `json:"latitude"`
				} `json:"coordinates"`
			} `json:"geocode"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	if len(out.Data.DemoLocations) == 0 {
		t.Error("expected demo locations")
	}
	if !out.Data.Geocode.Found || out.Data.Geocode.Coordinates.Latitude != 48.8566 {
		t.Errorf("unexpected geocode %+v", out.Data.Geocode)
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(jsonRequest(t, "POST", "/graphql", map[string]any{}), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Middleware ----

func TestUnknownRoute_APIErrorShape(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/api/nope", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if et := decodeAPIError(t, resp.Body).ErrorType; et != handler.ErrTypeNotFound {
		t.Errorf("expected %s, got %s", handler.ErrTypeNotFound, et)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/api/geocode", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, _ := app.Test(req, -1)

	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected echoed request id, got %q", got)
	}
	if id := decodeAPIError(t, resp.Body).RequestID; id != "req-123" {
		t.Errorf("expected request id in error body, got %q", id)
	}
}

func TestDocs_ServesEmbeddedDocument(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("unexpected content type %q", ct)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "title: Kadal API") {
		t.Error("expected the OpenAPI document")
	}
}
