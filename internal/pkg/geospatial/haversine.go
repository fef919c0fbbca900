package geospatial

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/samirrijal/kadal/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// DiagonalKm is the SW to NE great-circle length of a box.
func DiagonalKm(b domain.BoundingBox) float64 {
	return Haversine(b.South, b.West, b.North, b.East) / 1000
}

// AreaKm2 returns the geodesic area of a box on the unit sphere scaled to Earth.
func AreaKm2(b domain.BoundingBox) float64 {
	sw := s2.LatLngFromDegrees(b.South, b.West)
	ne := s2.LatLngFromDegrees(b.North, b.East)

	rect := s2.Rect{
		Lat: r1.Interval{Lo: sw.Lat.Radians(), Hi: ne.Lat.Radians()},
		Lng: s1.Interval{Lo: sw.Lng.Radians(), Hi: ne.Lng.Radians()},
	}
	return rect.Area() * earthRadiusKm * earthRadiusKm
}

// MarginForZoom is the half-width in degrees of a box framing a point at zoom.
func MarginForZoom(zoom int) float64 {
	switch {
	case zoom >= 15:
		return 0.01
	case zoom >= 12:
		return 0.04
	case zoom >= 9:
		return 0.2
	default:
		return 0.8
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
