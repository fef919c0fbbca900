package usecases

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/ee"
)

const (
	hansenDataset      = "UMD/hansen/global_forest_change_2023_v1_11"
	hansenBaseYear     = 2000
	hansenLastYear     = 23
	hansenPixelM2      = 30 * 30
	statsMaxPixels     = 1e9
	defaultStatsScale  = 1000
	defaultThumbPixels = 512
)

// AnalysisService runs dataset statistics, change analysis and renders.
type AnalysisService struct {
	backend ports.AnalyticsBackend
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(backend ports.AnalyticsBackend) *AnalysisService {
	return &AnalysisService{backend: backend}
}

// loadImage treats ids with two or more slashes as collections and uses
// their first image.
func loadImage(datasetID string) ee.Value {
	if strings.Count(datasetID, "/") >= 2 {
		return ee.First(ee.ImageCollection(datasetID))
	}
	return ee.Image(datasetID)
}

func (s *AnalysisService) ready(b domain.BoundingBox) error {
	if !s.backend.Ready() {
		return domain.ErrBackendNotReady
	}
	return b.Validate()
}

// ImageStatistics computes mean, min, max and stdDev of every band.
func (s *AnalysisService) ImageStatistics(ctx context.Context, datasetID string, b domain.BoundingBox, scale int) (*domain.ImageStatistics, error) {
	if err := s.ready(b); err != nil {
		return nil, err
	}
	if datasetID == "" {
		return nil, fmt.Errorf("%w: dataset_id is required", domain.ErrInvalidParameter)
	}
	if scale <= 0 {
		scale = defaultStatsScale
	}

	reducer := ee.CombineReducers(ee.Reducer("mean"), ee.Reducer("minMax"), ee.Reducer("stdDev"))
	region := ee.Rectangle(b.West, b.South, b.East, b.North)
	stats, err := s.reduce(ctx, ee.ReduceRegion(loadImage(datasetID), reducer, region, scale, statsMaxPixels))
	if err != nil {
		return nil, fmt.Errorf("image statistics: %w", err)
	}

	return &domain.ImageStatistics{DatasetID: datasetID, Bounds: b, Scale: scale, Statistics: stats}, nil
}

// LandCoverChange measures forest loss between two dates from the Hansen
// loss-year band.
func (s *AnalysisService) LandCoverChange(ctx context.Context, b domain.BoundingBox, startDate, endDate string) (*domain.LandCoverChange, error) {
	if err := s.ready(b); err != nil {
		return nil, err
	}
	startYear, err := yearOf(startDate)
	if err != nil {
		return nil, err
	}
	endYear, err := yearOf(endDate)
	if err != nil {
		return nil, err
	}

	// lossyear 0 is "no loss"; the first loss year is 1 (2001).
	from := clampInt(startYear-hansenBaseYear, 1, hansenLastYear)
	to := clampInt(endYear-hansenBaseYear, 0, hansenLastYear)

	lossYear := ee.Select(ee.Image(hansenDataset), "lossyear")
	inPeriod := ee.And(
		ee.Gte(lossYear, ee.ConstantImage(float64(from))),
		ee.Lte(lossYear, ee.ConstantImage(float64(to))),
	)
	reducer := ee.CombineReducers(ee.Reducer("sum"), ee.Reducer("count"))
	region := ee.Rectangle(b.West, b.South, b.East, b.North)

	stats, err := s.reduce(ctx, ee.ReduceRegion(inPeriod, reducer, region, 30, statsMaxPixels))
	if err != nil {
		return nil, fmt.Errorf("land cover change: %w", err)
	}

	lossHa := stats["lossyear_sum"] * hansenPixelM2 / 10000
	totalHa := stats["lossyear_count"] * hansenPixelM2 / 10000
	var pct float64
	if totalHa > 0 {
		pct = round2(lossHa / totalHa * 100)
	}

	return &domain.LandCoverChange{
		AnalysisType:       "forest_cover_change",
		Bounds:             b,
		TimePeriod:         fmt.Sprintf("%s to %s", startDate, endDate),
		ForestLossHectares: round2(lossHa),
		TotalAreaHectares:  round2(totalHa),
		LossPercentage:     pct,
		RawStats:           stats,
	}, nil
}

// VisualizeImage renders a PNG thumbnail of a dataset. Without explicit
// options the first three bands are stretched over 0..3000.
func (s *AnalysisService) VisualizeImage(ctx context.Context, datasetID string, b domain.BoundingBox, params *domain.VisParams) (*domain.ImageVisualization, error) {
	if err := s.ready(b); err != nil {
		return nil, err
	}

	image := loadImage(datasetID)
	vp := domain.VisParams{Min: 0, Max: 3000}
	if params != nil {
		vp = *params
	}
	if len(vp.Bands) == 0 {
		bands, err := s.bandNames(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("band names: %w", err)
		}
		if len(bands) > 3 {
			bands = bands[:3]
		}
		vp.Bands = bands
	}

	region := ee.Rectangle(b.West, b.South, b.East, b.North)
	rendered := ee.ClipToBoundsAndScale(ee.Visualize(image, toVisOptions(vp)), region, defaultThumbPixels)
	url, err := s.backend.Thumbnail(ctx, ee.NewExpression(rendered), ports.ThumbnailOptions{Format: "png"})
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	return &domain.ImageVisualization{DatasetID: datasetID, Bounds: b, Params: vp, ThumbnailURL: url}, nil
}

// DatasetInfo describes a dataset from the catalog, falling back to the
// backend's band listing for ids outside it.
func (s *AnalysisService) DatasetInfo(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	if !strings.Contains(datasetID, "/") {
		return nil, fmt.Errorf("%w: invalid dataset ID format: %s", domain.ErrInvalidParameter, datasetID)
	}
	if d, ok := LookupDataset(datasetID); ok {
		return &d, nil
	}
	if !s.backend.Ready() {
		return nil, domain.ErrBackendNotReady
	}

	bands, err := s.bandNames(ctx, loadImage(datasetID))
	if err != nil {
		return nil, fmt.Errorf("dataset info: %w", err)
	}
	kind := "Image"
	if strings.Count(datasetID, "/") >= 2 {
		kind = "ImageCollection"
	}
	return &domain.Dataset{ID: datasetID, Name: datasetID, Kind: kind, Bands: bands}, nil
}

func (s *AnalysisService) bandNames(ctx context.Context, image ee.Value) ([]string, error) {
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(ee.BandNames(image)))
	if err != nil {
		return nil, err
	}
	var bands []string
	if err := json.Unmarshal(raw, &bands); err != nil {
		return nil, fmt.Errorf("decode band names: %w", err)
	}
	return bands, nil
}

// reduce evaluates a reduceRegion dictionary, dropping null entries.
func (s *AnalysisService) reduce(ctx context.Context, dict ee.Value) (map[string]float64, error) {
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(dict))
	if err != nil {
		return nil, err
	}
	var out map[string]*float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	stats := make(map[string]float64, len(out))
	for k, v := range out {
		if v != nil && !math.IsNaN(*v) {
			stats[k] = *v
		}
	}
	return stats, nil
}

func yearOf(date string) (int, error) {
	if len(date) < 4 {
		return 0, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidParameter, date)
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidParameter, date)
	}
	return y, nil
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
