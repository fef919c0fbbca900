package domain

import "encoding/json"

// ProcessingParameters sizes a remote image query. Derived from area only.
type ProcessingParameters struct {
	Scale          int     `json:"scale"`
	Dimensions     int     `json:"dimensions"`
	MaxPixels      float64 `json:"max_pixels"`
	StatsScale     int     `json:"stats_scale"`
	SampleGridSize int     `json:"sample_grid_size"`
	AreaSize       float64 `json:"area_size"`
}

// VisParams are the rendering options passed to the backend.
type VisParams struct {
	Bands   []string `json:"bands,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Gamma   float64  `json:"gamma,omitempty"`
	Palette []string `json:"palette,omitempty"`
}

// VisualizationOption describes one band combination to clients.
type VisualizationOption struct {
	ID          Visualization `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Bands       []string      `json:"bands"`
}

// ImageryRequest asks for the most recent optical imagery over a box.
type ImageryRequest struct {
	Bounds           BoundingBox   `json:"viewport_bounds" validate:"required"`
	StartDate        string        `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate          string        `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CloudCoverageMax float64       `json:"cloud_coverage_max" validate:"gte=0,lte=100"`
	Visualization    Visualization `json:"visualization"`
}

// DateRange is the window an imagery result was built from.
type DateRange struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Acquisition string `json:"acquisition"`
}

// ImageryResult is a tile layer for a map client. Never persisted.
type ImageryResult struct {
	TileURL       string         `json:"tile_url"`
	MapID         string         `json:"map_id"`
	Visualization Visualization  `json:"visualization_type"`
	DateRange     DateRange      `json:"date_range"`
	CloudCoverage float64        `json:"cloud_coverage"`
	Bounds        BoundingBox    `json:"bounds"`
	ImageCount    int            `json:"image_count"`
	Metadata      map[string]any `json:"metadata"`
}

// MapTiles is the backend's answer to a tile-layer request.
type MapTiles struct {
	MapID   string `json:"map_id"`
	TileURL string `json:"tile_url"`
}

// SimilarityClass buckets a similarity value.
type SimilarityClass string

const (
	ClassStable   SimilarityClass = "stable"
	ClassModerate SimilarityClass = "moderate"
	ClassChanged  SimilarityClass = "changed"
)

// SimilaritySample is one sampled point of a heatmap.
type SimilaritySample struct {
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	Similarity     float64         `json:"similarity"`
	Classification SimilarityClass `json:"classification"`
}

// ChangeSummary counts samples per class.
type ChangeSummary struct {
	Stable         int     `json:"stable"`
	Moderate       int     `json:"moderate"`
	Changed        int     `json:"changed"`
	StablePercent  float64 `json:"stable_percent"`
	ChangedPercent float64 `json:"changed_percent"`
	MeanSimilarity float64 `json:"mean_similarity"`
}

// HeatmapResult is a year-over-year similarity rendering of a region.
type HeatmapResult struct {
	ThumbnailURL  string               `json:"thumbnail_url"`
	Bounds        BoundingBox          `json:"bounds"`
	ReferenceYear int                  `json:"reference_year"`
	TargetYear    int                  `json:"target_year"`
	MinSimilarity float64              `json:"similarity_min"`
	MaxSimilarity float64              `json:"similarity_max"`
	Palette       []string             `json:"palette"`
	Samples       []SimilaritySample   `json:"samples"`
	Summary       ChangeSummary        `json:"summary"`
	Parameters    ProcessingParameters `json:"parameters"`
	FallbackUsed  bool                 `json:"fallback_used"`
	AreaKm2       float64              `json:"area_km2"`
	GeoJSON       json.RawMessage      `json:"geojson,omitempty"`
}

// EmbeddingPoint is one sampled embedding vector.
type EmbeddingPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Embedding []float64 `json:"embedding"`
	Norm      float64   `json:"norm"`
}

// ImageStatistics summarises an image over a region.
type ImageStatistics struct {
	DatasetID  string             `json:"dataset_id"`
	Bounds     BoundingBox        `json:"bounds"`
	Scale      int                `json:"scale"`
	Statistics map[string]float64 `json:"statistics"`
}

// LandCoverChange is the forest-loss summary over a period.
type LandCoverChange struct {
	AnalysisType       string             `json:"analysis_type"`
	Bounds             BoundingBox        `json:"bounds"`
	TimePeriod         string             `json:"time_period"`
	ForestLossHectares float64            `json:"forest_loss_hectares"`
	TotalAreaHectares  float64            `json:"total_area_hectares"`
	LossPercentage     float64            `json:"loss_percentage"`
	RawStats           map[string]float64 `json:"raw_stats"`
}

// ImageVisualization is a rendered thumbnail of an arbitrary dataset.
type ImageVisualization struct {
	DatasetID    string      `json:"dataset_id"`
	Bounds       BoundingBox `json:"bounds"`
	Params       VisParams   `json:"visualization_params"`
	ThumbnailURL string      `json:"thumbnail_url"`
}
