package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/ee"
)

const (
	sentinelCollection    = "COPERNICUS/S2_SR_HARMONIZED"
	cloudProperty         = "CLOUDY_PIXEL_PERCENTAGE"
	defaultCloudMax       = 20.0
	relaxedCloudMax       = 50.0
	defaultImageryWindow  = 30 * 24 * time.Hour
	maxCompositeImages    = 5
	dateLayout            = "2006-01-02"
	noImageryMessage      = "No Sentinel-2 imagery available for the specified region and time period"
	compositeAcquisitionF = "%s to %s (composite)"
)

var visParams = map[domain.Visualization]domain.VisParams{
	domain.VisualizationRGB:         {Bands: []string{"B4", "B3", "B2"}, Min: 0, Max: 3000, Gamma: 1.4},
	domain.VisualizationFalseColor:  {Bands: []string{"B8", "B4", "B3"}, Min: 0, Max: 3000, Gamma: 1.4},
	domain.VisualizationNDVI:        {Bands: []string{"NDVI"}, Min: -1, Max: 1, Palette: []string{"red", "yellow", "green"}},
	domain.VisualizationAgriculture: {Bands: []string{"B11", "B8", "B2"}, Min: 0, Max: 3000, Gamma: 1.4},
}

// VisParamsFor returns the rendering options for v, defaulting to rgb.
func VisParamsFor(v domain.Visualization) domain.VisParams {
	if p, ok := visParams[v]; ok {
		return p
	}
	return visParams[domain.VisualizationRGB]
}

// ImageryService serves recent Sentinel-2 tile layers.
type ImageryService struct {
	backend ports.AnalyticsBackend
	now     func() time.Time
}

// NewImageryService creates a new ImageryService.
func NewImageryService(backend ports.AnalyticsBackend) *ImageryService {
	return &ImageryService{backend: backend, now: time.Now}
}

// WithClock overrides the clock used for the default date window.
func (s *ImageryService) WithClock(now func() time.Time) *ImageryService {
	s.now = now
	return s
}

// Visualizations lists the supported band combinations.
func (s *ImageryService) Visualizations() []domain.VisualizationOption {
	return []domain.VisualizationOption{
		{ID: domain.VisualizationRGB, Name: "True Color", Description: "Natural color satellite imagery (RGB)", Bands: []string{"B4", "B3", "B2"}},
		{ID: domain.VisualizationFalseColor, Name: "False Color", Description: "False color highlighting vegetation (NIR-Red-Green)", Bands: []string{"B8", "B4", "B3"}},
		{ID: domain.VisualizationNDVI, Name: "NDVI", Description: "Normalized Difference Vegetation Index", Bands: []string{"NDVI"}},
		{ID: domain.VisualizationAgriculture, Name: "Agriculture", Description: "Agricultural analysis (SWIR1-NIR-Blue)", Bands: []string{"B11", "B8", "B2"}},
	}
}

// LatestImagery builds a tile layer from the most recent scenes over the
// request bounds. When nothing passes the cloud filter it is relaxed to 50%
// once before giving up with domain.ErrNoImagery.
func (s *ImageryService) LatestImagery(ctx context.Context, req domain.ImageryRequest) (*domain.ImageryResult, error) {
	if !s.backend.Ready() {
		return nil, domain.ErrBackendNotReady
	}
	if err := req.Bounds.Validate(); err != nil {
		return nil, err
	}
	if !req.Visualization.Valid() {
		req.Visualization = domain.VisualizationRGB
	}
	if req.CloudCoverageMax <= 0 {
		req.CloudCoverageMax = defaultCloudMax
	}

	now := s.now()
	end := req.EndDate
	if end == "" {
		end = now.Format(dateLayout)
	}
	start := req.StartDate
	if start == "" {
		start = now.Add(-defaultImageryWindow).Format(dateLayout)
	}

	region := ee.Rectangle(req.Bounds.West, req.Bounds.South, req.Bounds.East, req.Bounds.North)

	collection := sentinelScenes(region, start, end, req.CloudCoverageMax)
	count, err := s.count(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("count scenes: %w", err)
	}
	if count == 0 {
		slog.InfoContext(ctx, "no scenes found, relaxing cloud filter", "cloud_max", relaxedCloudMax)
		collection = sentinelScenes(region, start, end, relaxedCloudMax)
		count, err = s.count(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("count scenes: %w", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoImagery, noImageryMessage)
		}
	}

	var (
		image       ee.Value
		cloud       = req.CloudCoverageMax
		acquisition = fmt.Sprintf(compositeAcquisitionF, start, end)
		imageInfo   = map[string]any{"type": "median_composite", "image_count": count}
	)
	if count == 1 {
		image = ee.First(collection)
		cloud, acquisition, err = s.sceneMetadata(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("scene metadata: %w", err)
		}
		imageInfo = map[string]any{"type": "single_image", "image_count": 1}
	} else {
		image = ee.Median(ee.Limit(collection, min(maxCompositeImages, count)))
	}

	if req.Visualization == domain.VisualizationNDVI {
		ndvi := ee.Rename(ee.NormalizedDifference(image, "B8", "B4"), "NDVI")
		image = ee.AddBands(image, ndvi)
	}
	image = ee.Clip(image, region)

	vp := VisParamsFor(req.Visualization)
	tiles, err := s.backend.MapTiles(ctx, ee.NewExpression(ee.Visualize(image, toVisOptions(vp))))
	if err != nil {
		return nil, fmt.Errorf("map tiles: %w", err)
	}

	return &domain.ImageryResult{
		TileURL:       tiles.TileURL,
		MapID:         tiles.MapID,
		Visualization: req.Visualization,
		DateRange:     domain.DateRange{Start: start, End: end, Acquisition: acquisition},
		CloudCoverage: cloud,
		Bounds:        req.Bounds,
		ImageCount:    count,
		Metadata: map[string]any{
			"collection_size": count,
			"image_info":      imageInfo,
			"viz_params":      vp,
		},
	}, nil
}

func (s *ImageryService) count(ctx context.Context, collection ee.Value) (int, error) {
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(ee.Size(collection)))
	if err != nil {
		return 0, err
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode size: %w", err)
	}
	return int(n), nil
}

// sceneMetadata reads cloud cover and acquisition date of one scene.
func (s *ImageryService) sceneMetadata(ctx context.Context, image ee.Value) (float64, string, error) {
	expr := ee.Dict(map[string]ee.Value{
		"cloud": ee.Get(image, cloudProperty),
		"time":  ee.Get(image, "system:time_start"),
	})
	raw, err := s.backend.ComputeValue(ctx, ee.NewExpression(expr))
	if err != nil {
		return 0, "", err
	}
	var meta struct {
		Cloud *float64 `json:"cloud"`
		Time  *float64 `json:"time"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return 0, "", fmt.Errorf("decode metadata: %w", err)
	}

	var cloud float64
	if meta.Cloud != nil {
		cloud = *meta.Cloud
	}
	acquisition := ""
	if meta.Time != nil {
		ms := int64(math.Round(*meta.Time))
		acquisition = time.UnixMilli(ms).UTC().Format(dateLayout)
	}
	return cloud, acquisition, nil
}

func sentinelScenes(region ee.Value, start, end string, cloudMax float64) ee.Value {
	col := ee.ImageCollection(sentinelCollection)
	col = ee.FilterBounds(col, region)
	col = ee.FilterDate(col, start, end)
	col = ee.FilterLessThan(col, cloudProperty, cloudMax)
	return ee.Sort(col, "system:time_start", false)
}

func toVisOptions(p domain.VisParams) ee.VisOptions {
	return ee.VisOptions{
		Bands:   p.Bands,
		Min:     p.Min,
		Max:     p.Max,
		Gamma:   p.Gamma,
		Palette: p.Palette,
	}
}
