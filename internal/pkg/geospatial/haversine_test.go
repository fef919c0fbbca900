package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/geospatial"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Toronto to New York is roughly 550 km.
	d := geospatial.Haversine(43.6532, -79.3832, 40.7128, -74.0060) / 1000
	if d < 530 || d > 570 {
		t.Errorf("expected ~550km, got %.1f", d)
	}
}

func TestAreaKm2_OneDegreeAtEquator(t *testing.T) {
	b := domain.BoundingBox{North: 0.5, South: -0.5, East: 0.5, West: -0.5}
	area := geospatial.AreaKm2(b)
	// One square degree at the equator is about 12,364 km².
	if math.Abs(area-12364) > 100 {
		t.Errorf("expected ~12364 km², got %.1f", area)
	}
}

func TestAreaKm2_ShrinksWithLatitude(t *testing.T) {
	equator := geospatial.AreaKm2(domain.BoundingBox{North: 1, South: 0, East: 1, West: 0})
	polar := geospatial.AreaKm2(domain.BoundingBox{North: 71, South: 70, East: 1, West: 0})
	if polar >= equator {
		t.Errorf("expected high-latitude box to be smaller: %.1f >= %.1f", polar, equator)
	}
}

func TestMarginForZoom(t *testing.T) {
	tests := []struct {
		zoom int
		want float64
	}{
		{18, 0.01},
		{15, 0.01},
		{13, 0.04},
		{12, 0.04},
		{11, 0.2},
		{9, 0.2},
		{6, 0.8},
	}
	for _, tt := range tests {
		if got := geospatial.MarginForZoom(tt.zoom); got != tt.want {
			t.Errorf("zoom %d: expected %v, got %v", tt.zoom, tt.want, got)
		}
	}
}
