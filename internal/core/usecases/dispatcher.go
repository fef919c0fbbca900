package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

const (
	defaultReferenceYear = 2022
	defaultTargetYear    = 2023
)

type toolHandler func(ctx context.Context, params map[string]any) (any, error)

// Dispatcher executes planned tool calls in order.
type Dispatcher struct {
	geocoder *GeocodeService
	imagery  *ImageryService
	analysis *AnalysisService
	heatmap  *HeatmapService
	handlers map[domain.ToolName]toolHandler
}

// NewDispatcher creates a new Dispatcher over the domain services.
func NewDispatcher(geocoder *GeocodeService, imagery *ImageryService, analysis *AnalysisService, heatmap *HeatmapService) *Dispatcher {
	d := &Dispatcher{geocoder: geocoder, imagery: imagery, analysis: analysis, heatmap: heatmap}
	d.handlers = map[domain.ToolName]toolHandler{
		domain.ToolGeocodeLocation:        d.geocodeLocation,
		domain.ToolGetSatelliteImagery:    d.satelliteImagery,
		domain.ToolGetImageStatistics:     d.imageStatistics,
		domain.ToolSearchDatasets:         d.searchDatasets,
		domain.ToolGetDatasetInfo:         d.datasetInfo,
		domain.ToolAnalyzeLandCoverChange: d.landCoverChange,
		domain.ToolGetSimilarityHeatmap:   d.similarityHeatmap,
	}
	return d
}

// Execute runs every call sequentially. A failing call is recorded and the
// sequence continues; a successful geocode frames the bounds of later calls.
func (d *Dispatcher) Execute(ctx context.Context, analysis *domain.QueryAnalysis, region domain.Region) *domain.QueryOutcome {
	dctx := newDispatchContext(region)
	results := make([]domain.ToolOutcome, 0, len(analysis.ToolCalls))

	for _, call := range analysis.ToolCalls {
		outcome := domain.ToolOutcome{Tool: call.ToolName, Reasoning: call.Reasoning}

		result, err := d.run(ctx, call.ToolName, call.Parameters, dctx)
		if err != nil {
			outcome.Error = err.Error()
			metrics.ToolExecutions.WithLabelValues(toolLabel(call.ToolName), "error").Inc()
			slog.WarnContext(ctx, "tool call failed", "tool", call.ToolName, "error", err)
		} else {
			outcome.Result = result
			metrics.ToolExecutions.WithLabelValues(toolLabel(call.ToolName), "success").Inc()
			if coords, ok := geocodedCoordinates(call.ToolName, result); ok {
				dctx = dctx.withLocation(coords)
			}
		}
		results = append(results, outcome)
	}

	return &domain.QueryOutcome{
		Response: RenderResponse(analysis.ResponseTemplate, results),
		Results:  results,
	}
}

// Invoke runs a single tool without planner context. Area tools need
// explicit bounds.
func (d *Dispatcher) Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	return d.run(ctx, name, params, dispatchContext{})
}

func (d *Dispatcher) run(ctx context.Context, rawName string, params map[string]any, dctx dispatchContext) (map[string]any, error) {
	name, err := domain.ParseToolName(rawName)
	if err != nil {
		return nil, err
	}
	handler := d.handlers[name]

	resolved, err := resolveBounds(name, params, dctx)
	if err != nil {
		return nil, err
	}
	result, err := handler(ctx, resolved)
	if err != nil {
		return nil, err
	}
	return toResultMap(result)
}

// toResultMap normalises a typed result into its JSON object form.
func toResultMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return out, nil
}

func geocodedCoordinates(tool string, result map[string]any) (domain.Coordinates, bool) {
	if tool != string(domain.ToolGeocodeLocation) {
		return domain.Coordinates{}, false
	}
	c, ok := result["coordinates"].(map[string]any)
	if !ok {
		return domain.Coordinates{}, false
	}
	lat, okLat := toFloat(c["latitude"])
	lon, okLon := toFloat(c["longitude"])
	zoom, _ := toFloat(c["zoom"])
	if !okLat || !okLon {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Latitude: lat, Longitude: lon, Zoom: int(zoom)}, true
}

// toolLabel keeps metric cardinality bounded for names outside the registry.
func toolLabel(name string) string {
	if _, err := domain.ParseToolName(name); err != nil {
		return "unknown"
	}
	return name
}

// --- handlers ---

func (d *Dispatcher) geocodeLocation(ctx context.Context, p map[string]any) (any, error) {
	name := firstString(p, "location_name", "location", "query")
	if name == "" {
		return nil, fmt.Errorf("%w: location_name is required", domain.ErrInvalidParameter)
	}
	res := d.geocoder.Geocode(ctx, name)
	if !res.Found {
		return nil, errors.New(res.Error)
	}
	return res, nil
}

func (d *Dispatcher) satelliteImagery(ctx context.Context, p map[string]any) (any, error) {
	cloud, ok := toFloat(p["cloud_cover"])
	if !ok {
		cloud, _ = toFloat(p["cloud_coverage_max"])
	}
	return d.imagery.LatestImagery(ctx, domain.ImageryRequest{
		Bounds:           p["bounds"].(domain.BoundingBox),
		StartDate:        firstString(p, "start_date"),
		EndDate:          firstString(p, "end_date"),
		CloudCoverageMax: cloud,
		Visualization:    domain.Visualization(firstString(p, "visualization")),
	})
}

func (d *Dispatcher) imageStatistics(ctx context.Context, p map[string]any) (any, error) {
	scale, _ := toFloat(p["scale"])
	return d.analysis.ImageStatistics(ctx, firstString(p, "dataset_id"), p["bounds"].(domain.BoundingBox), int(scale))
}

func (d *Dispatcher) searchDatasets(_ context.Context, p map[string]any) (any, error) {
	keywords := firstString(p, "keywords", "query")
	if keywords == "" {
		return nil, fmt.Errorf("%w: keywords are required", domain.ErrInvalidParameter)
	}
	limit, _ := toFloat(p["limit"])
	return SearchDatasets(keywords, int(limit)), nil
}

func (d *Dispatcher) datasetInfo(ctx context.Context, p map[string]any) (any, error) {
	return d.analysis.DatasetInfo(ctx, firstString(p, "dataset_id"))
}

func (d *Dispatcher) landCoverChange(ctx context.Context, p map[string]any) (any, error) {
	start, end := firstString(p, "start_date"), firstString(p, "end_date")
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidParameter)
	}
	return d.analysis.LandCoverChange(ctx, p["bounds"].(domain.BoundingBox), start, end)
}

func (d *Dispatcher) similarityHeatmap(ctx context.Context, p map[string]any) (any, error) {
	ref := intOr(p["reference_year"], defaultReferenceYear)
	tgt := intOr(p["target_year"], defaultTargetYear)
	return d.heatmap.FetchSimilarityHeatmap(ctx, p["bounds"].(domain.BoundingBox), ref, tgt)
}

func firstString(p map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := p[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func intOr(v any, def int) int {
	if f, ok := toFloat(v); ok && f != 0 {
		return int(f)
	}
	return def
}
