package usecases

import (
	"sort"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// ParameterTier applies when a region's area exceeds MinArea (deg²).
type ParameterTier struct {
	MinArea         float64 `mapstructure:"min_area"`
	Scale           int     `mapstructure:"scale"`
	Dimensions      int     `mapstructure:"dimensions"`
	MaxPixels       float64 `mapstructure:"max_pixels"`
	StatsMultiplier int     `mapstructure:"stats_multiplier"`
	StatsFloor      int     `mapstructure:"stats_floor"`
}

// ParameterTable is an area step function. Tiers may be listed in any order;
// the one with the smallest MinArea also catches every area below it.
type ParameterTable []ParameterTier

// DefaultParameterTable returns the tuned tiers.
func DefaultParameterTable() ParameterTable {
	return ParameterTable{
		{MinArea: 100, Scale: 2000, Dimensions: 256, MaxPixels: 1e10, StatsMultiplier: 4, StatsFloor: 8000},
		{MinArea: 25, Scale: 1000, Dimensions: 384, MaxPixels: 5e9, StatsMultiplier: 4, StatsFloor: 4000},
		{MinArea: 5, Scale: 500, Dimensions: 512, MaxPixels: 2e9, StatsMultiplier: 2, StatsFloor: 1000},
		{MinArea: 1, Scale: 200, Dimensions: 512, MaxPixels: 1e9, StatsMultiplier: 2, StatsFloor: 400},
		{MinArea: 0, Scale: 100, Dimensions: 512, MaxPixels: 5e8, StatsMultiplier: 1, StatsFloor: 100},
	}
}

// Sorted returns a copy ordered by descending MinArea.
func (t ParameterTable) Sorted() ParameterTable {
	out := make(ParameterTable, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinArea > out[j].MinArea })
	return out
}

// Select picks processing parameters for bounds. Pure.
func (t ParameterTable) Select(b domain.BoundingBox) domain.ProcessingParameters {
	tiers := t.Sorted()
	if len(tiers) == 0 {
		tiers = DefaultParameterTable()
	}

	area := b.Area()
	tier := tiers[len(tiers)-1]
	for _, candidate := range tiers {
		if area > candidate.MinArea {
			tier = candidate
			break
		}
	}

	statsScale := tier.Scale * tier.StatsMultiplier
	if statsScale < tier.StatsFloor {
		statsScale = tier.StatsFloor
	}

	return domain.ProcessingParameters{
		Scale:          tier.Scale,
		Dimensions:     tier.Dimensions,
		MaxPixels:      tier.MaxPixels,
		StatsScale:     statsScale,
		SampleGridSize: SampleGridSize(area),
		AreaSize:       area,
	}
}

// SampleGridSize is clamp(int(area*10), 3, 5).
func SampleGridSize(area float64) int {
	n := int(area * 10)
	if n < 3 {
		return 3
	}
	if n > 5 {
		return 5
	}
	return n
}

// FallbackParameters degrades p for the emergency retry.
func FallbackParameters(p domain.ProcessingParameters) domain.ProcessingParameters {
	fb := p
	fb.Scale = p.Scale * 16
	if fb.Scale < 2000 {
		fb.Scale = 2000
	}
	fb.Dimensions = p.Dimensions / 4
	if fb.Dimensions < 64 {
		fb.Dimensions = 64
	}
	if fb.StatsScale < fb.Scale {
		fb.StatsScale = fb.Scale
	}
	fb.SampleGridSize = 3
	return fb
}

// BuildSampleGrid returns the four corners and the centroid, plus a strided
// interior grid when gridSize > 5.
func BuildSampleGrid(b domain.BoundingBox, gridSize int) []domain.Point {
	points := append(b.Corners(), b.Centroid())
	if gridSize <= 5 {
		return points
	}

	stride := gridSize / 3
	if stride < 2 {
		stride = 2
	}
	latStep := (b.North - b.South) / float64(gridSize-1)
	lonStep := (b.East - b.West) / float64(gridSize-1)
	for i := 1; i < gridSize-1; i += stride {
		for j := 1; j < gridSize-1; j += stride {
			points = append(points, domain.Point{
				Latitude:  b.South + latStep*float64(i),
				Longitude: b.West + lonStep*float64(j),
			})
		}
	}
	return points
}

// FallbackGrid is the 3-point grid used by the emergency retry.
func FallbackGrid(b domain.BoundingBox) []domain.Point {
	return []domain.Point{
		{Latitude: b.South, Longitude: b.West},
		b.Centroid(),
		{Latitude: b.North, Longitude: b.East},
	}
}
