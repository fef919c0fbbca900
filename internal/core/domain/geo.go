package domain

import (
	"fmt"
	"math"
)

// Point represents a geographic coordinate (WGS 84).
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates is a point with the map zoom level a client should use to frame it.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// Point drops the zoom level.
func (c Coordinates) Point() Point {
	return Point{Latitude: c.Latitude, Longitude: c.Longitude}
}

// BoundingBox is an axis-aligned box in degrees.
type BoundingBox struct {
	North float64 `json:"north" validate:"gte=-90,lte=90"`
	South float64 `json:"south" validate:"gte=-90,lte=90"`
	East  float64 `json:"east" validate:"gte=-180,lte=180"`
	West  float64 `json:"west" validate:"gte=-180,lte=180"`
}

// Validate rejects degenerate and out-of-range boxes.
func (b BoundingBox) Validate() error {
	if b.North <= b.South || b.East <= b.West {
		return fmt.Errorf("%w: north must be greater than south, east must be greater than west", ErrInvalidBounds)
	}
	if b.North > 90 || b.South < -90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidBounds)
	}
	if b.East > 180 || b.West < -180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidBounds)
	}
	return nil
}

// Area returns |east-west| * |north-south| in square degrees.
func (b BoundingBox) Area() float64 {
	return math.Abs(b.East-b.West) * math.Abs(b.North-b.South)
}

// Centroid returns the midpoint of the box.
func (b BoundingBox) Centroid() Point {
	return Point{Latitude: (b.North + b.South) / 2, Longitude: (b.East + b.West) / 2}
}

// Corners returns NW, NE, SW, SE in that order.
func (b BoundingBox) Corners() []Point {
	return []Point{
		{Latitude: b.North, Longitude: b.West},
		{Latitude: b.North, Longitude: b.East},
		{Latitude: b.South, Longitude: b.West},
		{Latitude: b.South, Longitude: b.East},
	}
}

// Rectangle returns [west, south, east, north].
func (b BoundingBox) Rectangle() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// Region converts the box into its rectangle region form.
func (b BoundingBox) Region() Region {
	return Region{Type: RegionRectangle, Coordinates: b.Rectangle()}
}

// BoxAround builds a box centred on p with the given margin in degrees,
// clamped to valid latitude and longitude ranges.
func BoxAround(p Point, margin float64) BoundingBox {
	return BoundingBox{
		North: math.Min(90, p.Latitude+margin),
		South: math.Max(-90, p.Latitude-margin),
		East:  math.Min(180, p.Longitude+margin),
		West:  math.Max(-180, p.Longitude-margin),
	}
}

// RegionRectangle is the only region type currently accepted.
const RegionRectangle = "rectangle"

// Region is the map-client form of an area: {type, coordinates:[west,south,east,north]}.
type Region struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Bounds converts a rectangle region into a BoundingBox.
func (r Region) Bounds() (BoundingBox, error) {
	if r.Type != RegionRectangle {
		return BoundingBox{}, fmt.Errorf("%w: unsupported region type %q", ErrInvalidBounds, r.Type)
	}
	if len(r.Coordinates) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: rectangle needs 4 coordinates, got %d", ErrInvalidBounds, len(r.Coordinates))
	}
	return BoundingBox{
		West:  r.Coordinates[0],
		South: r.Coordinates[1],
		East:  r.Coordinates[2],
		North: r.Coordinates[3],
	}, nil
}
