package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/ee"
	"github.com/samirrijal/kadal/internal/pkg/geospatial"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

const (
	embeddingCollection = "GOOGLE/SATELLITE_EMBEDDING/V1/ANNUAL"
	similarityBand      = "similarity"

	stableThreshold  = 0.7
	changedThreshold = 0.3

	// MaxEmbeddingPoints bounds FetchEmbeddings.
	MaxEmbeddingPoints = 1000
)

// SimilarityPalette runs from changed (red) to stable (green).
var SimilarityPalette = []string{
	"#d73027", "#fc8d59", "#fee08b", "#ffffbf", "#d9ef8b", "#91cf60", "#1a9850",
}

// resourceErrorMarkers identify backend failures worth one degraded retry.
var resourceErrorMarkers = []string{"too many pixels", "memory", "timeout"}

// IsResourceError reports whether err looks like the backend refusing the
// request size. Matching is case-insensitive on the message.
func IsResourceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range resourceErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Classify buckets a similarity value.
func Classify(similarity float64) domain.SimilarityClass {
	switch {
	case similarity >= stableThreshold:
		return domain.ClassStable
	case similarity <= changedThreshold:
		return domain.ClassChanged
	default:
		return domain.ClassModerate
	}
}

// HeatmapService computes year-over-year embedding similarity.
type HeatmapService struct {
	backend ports.AnalyticsBackend
	table   ParameterTable
}

// NewHeatmapService creates a new HeatmapService. A nil table uses the defaults.
func NewHeatmapService(backend ports.AnalyticsBackend, table ParameterTable) *HeatmapService {
	if len(table) == 0 {
		table = DefaultParameterTable()
	}
	return &HeatmapService{backend: backend, table: table}
}

// Parameters exposes the tier selection for bounds.
func (s *HeatmapService) Parameters(b domain.BoundingBox) domain.ProcessingParameters {
	return s.table.Select(b)
}

// FetchSimilarityHeatmap renders similarity between two annual embedding
// mosaics. Resource errors trigger exactly one retry at reduced resolution.
func (s *HeatmapService) FetchSimilarityHeatmap(ctx context.Context, b domain.BoundingBox, referenceYear, targetYear int) (*domain.HeatmapResult, error) {
	if !s.backend.Ready() {
		return nil, domain.ErrBackendNotReady
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	params := s.table.Select(b)
	result, err := s.attempt(ctx, b, referenceYear, targetYear, params, BuildSampleGrid(b, params.SampleGridSize))
	if err == nil {
		return result, nil
	}
	if !IsResourceError(err) {
		return nil, fmt.Errorf("similarity heatmap: %w", err)
	}

	metrics.HeatmapFallbacks.WithLabelValues("triggered").Inc()
	fbParams := FallbackParameters(params)
	slog.WarnContext(ctx, "heatmap hit resource limit, retrying at reduced resolution",
		"error", err,
		"scale", fbParams.Scale,
		"dimensions", fbParams.Dimensions,
	)

	result, fbErr := s.attempt(ctx, b, referenceYear, targetYear, fbParams, FallbackGrid(b))
	if fbErr != nil {
		metrics.HeatmapFallbacks.WithLabelValues("exhausted").Inc()
		return nil, &domain.RegionTooLargeError{Original: err, Fallback: fbErr}
	}
	metrics.HeatmapFallbacks.WithLabelValues("recovered").Inc()
	result.FallbackUsed = true
	return result, nil
}

func (s *HeatmapService) attempt(ctx context.Context, b domain.BoundingBox, refYear, tgtYear int, params domain.ProcessingParameters, grid []domain.Point) (*domain.HeatmapResult, error) {
	region := ee.Rectangle(b.West, b.South, b.East, b.North)
	similarity := similarityImage(region, refYear, tgtYear)

	lo, hi, err := s.similarityRange(ctx, similarity, region, params)
	if err != nil {
		return nil, fmt.Errorf("similarity range: %w", err)
	}

	var (
		thumbnail string
		samples   []domain.SimilaritySample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rendered := ee.ClipToBoundsAndScale(ee.Visualize(similarity, ee.VisOptions{
			Min:     lo,
			Max:     hi,
			Palette: SimilarityPalette,
		}), region, params.Dimensions)

		url, err := s.backend.Thumbnail(gctx, ee.NewExpression(rendered), ports.ThumbnailOptions{Format: "png"})
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		thumbnail = url
		return nil
	})
	g.Go(func() error {
		out, err := s.samplePoints(gctx, similarity, grid, params.Scale)
		if err != nil {
			return fmt.Errorf("sample points: %w", err)
		}
		samples = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fc, err := samplesGeoJSON(samples)
	if err != nil {
		return nil, err
	}

	return &domain.HeatmapResult{
		ThumbnailURL:  thumbnail,
		Bounds:        b,
		ReferenceYear: refYear,
		TargetYear:    tgtYear,
		MinSimilarity: lo,
		MaxSimilarity: hi,
		Palette:       SimilarityPalette,
		Samples:       samples,
		Summary:       Summarize(samples),
		Parameters:    params,
		AreaKm2:       geospatial.AreaKm2(b),
		GeoJSON:       fc,
	}, nil
}

func (s *HeatmapService) similarityRange(ctx context.Context, similarity, region ee.Value, params domain.ProcessingParameters) (float64, float64, error) {
	stats := ee.ReduceRegion(similarity, ee.Reducer("minMax"), region, params.StatsScale, params.MaxPixels)
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(stats))
	if err != nil {
		return 0, 0, err
	}

	var out map[string]*float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, 0, fmt.Errorf("decode min/max: %w", err)
	}
	lo, hi := -1.0, 1.0
	if v := out[similarityBand+"_min"]; v != nil {
		lo = *v
	}
	if v := out[similarityBand+"_max"]; v != nil {
		hi = *v
	}
	if hi <= lo {
		hi = lo + 1e-6
	}
	return lo, hi, nil
}

func (s *HeatmapService) samplePoints(ctx context.Context, image ee.Value, grid []domain.Point, scale int) ([]domain.SimilaritySample, error) {
	fc, err := s.sample(ctx, image, grid, scale)
	if err != nil {
		return nil, err
	}

	samples := make([]domain.SimilaritySample, 0, len(fc.Features))
	for _, f := range fc.Features {
		lon, lat, ok := pointOf(f)
		if !ok {
			continue
		}
		v, err := f.PropertyFloat64(similarityBand)
		if err != nil {
			continue
		}
		samples = append(samples, domain.SimilaritySample{
			Latitude:       lat,
			Longitude:      lon,
			Similarity:     v,
			Classification: Classify(v),
		})
	}
	return samples, nil
}

// sample runs sampleRegions over grid and decodes the returned FeatureCollection.
func (s *HeatmapService) sample(ctx context.Context, image ee.Value, grid []domain.Point, scale int) (*geojson.FeatureCollection, error) {
	features := make([]ee.Value, 0, len(grid))
	for _, p := range grid {
		features = append(features, ee.Feature(ee.Point(p.Longitude, p.Latitude), nil))
	}

	sampled := ee.SampleRegions(image, ee.FeatureCollection(features...), scale)
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(sampled))
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	return fc, nil
}

// FetchEmbeddings samples the annual embedding mosaic on a regular grid and
// returns at most numPoints vectors.
func (s *HeatmapService) FetchEmbeddings(ctx context.Context, b domain.BoundingBox, year, numPoints int) ([]domain.EmbeddingPoint, error) {
	if !s.backend.Ready() {
		return nil, domain.ErrBackendNotReady
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if numPoints < 1 || numPoints > MaxEmbeddingPoints {
		return nil, fmt.Errorf("%w: number of points must be between 1 and %d", domain.ErrInvalidParameter, MaxEmbeddingPoints)
	}

	params := s.table.Select(b)
	region := ee.Rectangle(b.West, b.South, b.East, b.North)
	mosaic := embeddingMosaic(region, year)

	fc, err := s.sample(ctx, mosaic, RegularGrid(b, numPoints), params.Scale)
	if err != nil {
		if IsResourceError(err) {
			return nil, &domain.RegionTooLargeError{Original: err, Fallback: errors.New("no degraded mode for embeddings")}
		}
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	points := make([]domain.EmbeddingPoint, 0, len(fc.Features))
	for _, f := range fc.Features {
		lon, lat, ok := pointOf(f)
		if !ok {
			continue
		}
		vec := embeddingVector(f.Properties)
		if len(vec) == 0 {
			continue
		}
		points = append(points, domain.EmbeddingPoint{
			Latitude:  lat,
			Longitude: lon,
			Embedding: vec,
			Norm:      l2(vec),
		})
		if len(points) == numPoints {
			break
		}
	}
	return points, nil
}

// RegularGrid lays ceil(sqrt(n)) points per side over b, edges included.
func RegularGrid(b domain.BoundingBox, n int) []domain.Point {
	side := int(math.Ceil(math.Sqrt(float64(n))))
	if side < 2 {
		return []domain.Point{b.Centroid()}
	}
	latStep := (b.North - b.South) / float64(side-1)
	lonStep := (b.East - b.West) / float64(side-1)

	points := make([]domain.Point, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			points = append(points, domain.Point{
				Latitude:  b.South + latStep*float64(i),
				Longitude: b.West + lonStep*float64(j),
			})
		}
	}
	return points
}

// Summarize counts samples per class.
func Summarize(samples []domain.SimilaritySample) domain.ChangeSummary {
	var sum domain.ChangeSummary
	if len(samples) == 0 {
		return sum
	}
	var total float64
	for _, s := range samples {
		total += s.Similarity
		switch s.Classification {
		case domain.ClassStable:
			sum.Stable++
		case domain.ClassChanged:
			sum.Changed++
		default:
			sum.Moderate++
		}
	}
	n := float64(len(samples))
	sum.StablePercent = round2(float64(sum.Stable) / n * 100)
	sum.ChangedPercent = round2(float64(sum.Changed) / n * 100)
	sum.MeanSimilarity = round2(total / n)
	return sum
}

func similarityImage(region ee.Value, refYear, tgtYear int) ee.Value {
	product := ee.Multiply(embeddingMosaic(region, refYear), embeddingMosaic(region, tgtYear))
	return ee.Clip(ee.Rename(ee.ReduceBands(product, ee.Reducer("sum")), similarityBand), region)
}

func embeddingMosaic(region ee.Value, year int) ee.Value {
	col := ee.ImageCollection(embeddingCollection)
	col = ee.FilterDate(col, fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-01-01", year+1))
	col = ee.FilterBounds(col, region)
	return ee.Mosaic(col)
}

func samplesGeoJSON(samples []domain.SimilaritySample) (json.RawMessage, error) {
	fc := geojson.NewFeatureCollection()
	for _, s := range samples {
		f := geojson.NewPointFeature([]float64{s.Longitude, s.Latitude})
		f.SetProperty("similarity", s.Similarity)
		f.SetProperty("classification", string(s.Classification))
		fc.AddFeature(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

func pointOf(f *geojson.Feature) (lon, lat float64, ok bool) {
	if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
		return 0, 0, false
	}
	return f.Geometry.Point[0], f.Geometry.Point[1], true
}

// embeddingVector orders numeric band properties (A00, A01, ...) by name.
func embeddingVector(props map[string]interface{}) []float64 {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if _, ok := v.(float64); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	vec := make([]float64, 0, len(keys))
	for _, k := range keys {
		vec = append(vec, props[k].(float64))
	}
	return vec
}

func l2(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
