package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/geospatial"
)

var viewport = domain.Region{Type: domain.RegionRectangle, Coordinates: []float64{-80, 43, -79, 44}}

func newTestDispatcher(backend *mockBackend) *usecases.Dispatcher {
	return usecases.NewDispatcher(
		usecases.NewGeocodeService(nil, nil),
		usecases.NewImageryService(backend),
		usecases.NewAnalysisService(backend),
		usecases.NewHeatmapService(backend, nil),
	)
}

func statsBackend() *mockBackend {
	return &mockBackend{
		computeFn: func(ctx context.Context, expr string) ([]byte, error) {
			return []byte(`{"elevation_mean":245.5,"elevation_min":12,"elevation_max":890}`), nil
		},
	}
}

func boundsOf(t *testing.T, result map[string]any) domain.BoundingBox {
	t.Helper()
	raw, ok := result["bounds"].(map[string]any)
	if !ok {
		t.Fatalf("result has no bounds: %+v", result)
	}
	return domain.BoundingBox{
		North: raw["north"].(float64),
		South: raw["south"].(float64),
		East:  raw["east"].(float64),
		West:  raw["west"].(float64),
	}
}

func TestDispatcher_GeocodeFramesLaterBounds(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	analysis := &domain.QueryAnalysis{
		InScope: true,
		ToolCalls: []domain.ToolCall{
			{ToolName: "geocode_location", Parameters: map[string]any{"location_name": "Toronto"}},
			{ToolName: "get_image_statistics", Parameters: map[string]any{"dataset_id": "USGS/SRTMGL1_003", "bounds": nil}},
		},
		ResponseTemplate: "Elevation in {location}: {mean:.1f}m",
	}

	out := d.Execute(context.Background(), analysis, viewport)

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	for _, r := range out.Results {
		if !r.Succeeded() {
			t.Fatalf("tool %s failed: %s", r.Tool, r.Error)
		}
	}

	want := domain.BoxAround(domain.Point{Latitude: 43.6532, Longitude: -79.3832}, geospatial.MarginForZoom(10))
	if got := boundsOf(t, out.Results[1].Result); got != want {
		t.Errorf("expected bounds around Toronto %+v, got %+v", want, got)
	}
	if out.Response != "Elevation in Toronto: 245.5m" {
		t.Errorf("unexpected response %q", out.Response)
	}
}

func TestDispatcher_EmptyBoundsUseViewport(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	analysis := &domain.QueryAnalysis{
		ToolCalls: []domain.ToolCall{
			{ToolName: "geocode_location", Parameters: map[string]any{"location_name": "Paris"}},
			{ToolName: "get_image_statistics", Parameters: map[string]any{"dataset_id": "USGS/SRTMGL1_003", "bounds": map[string]any{}}},
		},
	}

	out := d.Execute(context.Background(), analysis, viewport)

	want, _ := viewport.Bounds()
	if got := boundsOf(t, out.Results[1].Result); got != want {
		t.Errorf("expected viewport %+v, got %+v", want, got)
	}
}

func TestDispatcher_RegionParameterFoldsIntoBounds(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	region := map[string]any{"type": "rectangle", "coordinates": []any{10.0, 20.0, 11.0, 21.0}}
	analysis := &domain.QueryAnalysis{
		ToolCalls: []domain.ToolCall{
			{ToolName: "get_image_statistics", Parameters: map[string]any{"dataset_id": "USGS/SRTMGL1_003", "region": region}},
		},
	}

	out := d.Execute(context.Background(), analysis, viewport)

	want := domain.BoundingBox{West: 10, South: 20, East: 11, North: 21}
	if got := boundsOf(t, out.Results[0].Result); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestDispatcher_FailureDoesNotStopSequence(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	analysis := &domain.QueryAnalysis{
		ToolCalls: []domain.ToolCall{
			{ToolName: "launch_rocket", Parameters: map[string]any{}},
			{ToolName: "geocode_location", Parameters: map[string]any{"location_name": "Xyzzy Qq"}},
			{ToolName: "get_image_statistics", Parameters: map[string]any{"dataset_id": "USGS/SRTMGL1_003", "bounds": nil}},
		},
	}

	out := d.Execute(context.Background(), analysis, viewport)

	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Results))
	}
	if !strings.Contains(out.Results[0].Error, "unknown tool") {
		t.Errorf("expected unknown tool error, got %q", out.Results[0].Error)
	}
	if !strings.Contains(out.Results[1].Error, "not found") {
		t.Errorf("expected geocode failure, got %q", out.Results[1].Error)
	}
	if !out.Results[2].Succeeded() {
		t.Fatalf("statistics should still run: %s", out.Results[2].Error)
	}
	want, _ := viewport.Bounds()
	if got := boundsOf(t, out.Results[2].Result); got != want {
		t.Errorf("failed geocode must not frame bounds, got %+v", got)
	}
}

func TestDispatcher_MissingTemplateFieldUsesCannedSentence(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	analysis := &domain.QueryAnalysis{
		ToolCalls: []domain.ToolCall{
			{ToolName: "geocode_location", Parameters: map[string]any{"location_name": "London"}},
		},
		ResponseTemplate: "London has {population} people",
	}

	out := d.Execute(context.Background(), analysis, viewport)

	if out.Response != "Navigating to London." {
		t.Errorf("unexpected response %q", out.Response)
	}
}

func TestDispatcher_AllFailedUsesFailureSentence(t *testing.T) {
	backend := &mockBackend{
		computeFn: func(ctx context.Context, expr string) ([]byte, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	d := newTestDispatcher(backend)

	analysis := &domain.QueryAnalysis{
		ToolCalls: []domain.ToolCall{
			{ToolName: "get_image_statistics", Parameters: map[string]any{"dataset_id": "USGS/SRTMGL1_003"}},
		},
		ResponseTemplate: "Average {mean:.0f}m",
	}

	out := d.Execute(context.Background(), analysis, viewport)

	if out.Results[0].Succeeded() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.Response, "wasn't able") {
		t.Errorf("expected failure sentence, got %q", out.Response)
	}
}

func TestDispatcher_SearchDatasets(t *testing.T) {
	d := newTestDispatcher(&mockBackend{})

	res, err := d.Invoke(context.Background(), "search_datasets", map[string]any{"keywords": "forest", "limit": 2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["count"].(float64) != 2 {
		t.Errorf("expected 2 hits, got %v", res["count"])
	}
}

func TestDispatcher_Invoke_AreaToolNeedsBounds(t *testing.T) {
	d := newTestDispatcher(statsBackend())

	_, err := d.Invoke(context.Background(), "get_image_statistics", map[string]any{"dataset_id": "USGS/SRTMGL1_003"})
	if !errors.Is(err, domain.ErrInvalidBounds) {
		t.Errorf("expected ErrInvalidBounds, got %v", err)
	}

	res, err := d.Invoke(context.Background(), "get_image_statistics", map[string]any{
		"dataset_id": "USGS/SRTMGL1_003",
		"bounds":     map[string]any{"north": 44.0, "south": 43.0, "east": -79.0, "west": -80.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res["dataset_id"] != "USGS/SRTMGL1_003" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDispatcher_Invoke_UnknownTool(t *testing.T) {
	d := newTestDispatcher(&mockBackend{})

	_, err := d.Invoke(context.Background(), "rm_rf", nil)
	if !errors.Is(err, domain.ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestDispatcher_LandCoverRequiresDates(t *testing.T) {
	d := newTestDispatcher(&mockBackend{})

	_, err := d.Invoke(context.Background(), "analyze_land_cover_change", map[string]any{
		"bounds": []any{-62.5, -3.5, -62.0, -3.0},
	})
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
