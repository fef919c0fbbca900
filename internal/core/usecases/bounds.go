package usecases

import (
	"fmt"
	"strconv"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/geospatial"
)

// dispatchContext is what earlier tool calls tell later ones. It is passed
// by value; with* methods return a modified copy.
type dispatchContext struct {
	viewport    domain.BoundingBox
	hasViewport bool
	located     *domain.Coordinates
}

func newDispatchContext(region domain.Region) dispatchContext {
	b, err := region.Bounds()
	if err != nil || b.Validate() != nil {
		return dispatchContext{}
	}
	return dispatchContext{viewport: b, hasViewport: true}
}

func (c dispatchContext) withLocation(coords domain.Coordinates) dispatchContext {
	c.located = &coords
	return c
}

// toolsWithBounds lists the tools that operate on an area.
var toolsWithBounds = map[domain.ToolName]bool{
	domain.ToolGetSatelliteImagery:    true,
	domain.ToolGetImageStatistics:     true,
	domain.ToolAnalyzeLandCoverChange: true,
	domain.ToolGetSimilarityHeatmap:   true,
}

// resolveBounds returns a copy of params whose "bounds" entry is a concrete
// domain.BoundingBox. A "region" entry is folded into "bounds" first.
//
// Absent or null bounds take the box around the last geocoded place, else
// the viewport. Empty bounds ({}, "", []) always take the viewport.
func resolveBounds(name domain.ToolName, params map[string]any, dctx dispatchContext) (map[string]any, error) {
	out := make(map[string]any, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if !toolsWithBounds[name] {
		return out, nil
	}

	if region, ok := out["region"]; ok {
		delete(out, "region")
		if existing, has := out["bounds"]; !has || existing == nil {
			switch {
			case region == nil:
			case isEmptyValue(region):
				out["bounds"] = map[string]any{}
			default:
				rb, err := regionToBounds(region)
				if err != nil {
					return nil, err
				}
				out["bounds"] = rb
			}
		}
	}

	raw, present := out["bounds"]
	switch {
	case !present || raw == nil:
		if dctx.located != nil {
			out["bounds"] = domain.BoxAround(dctx.located.Point(), geospatial.MarginForZoom(dctx.located.Zoom))
			return out, nil
		}
		fallthrough
	case isEmptyValue(raw):
		if !dctx.hasViewport {
			return nil, fmt.Errorf("%w: no bounds given and no viewport available", domain.ErrInvalidBounds)
		}
		out["bounds"] = dctx.viewport
		return out, nil
	}

	b, err := parseBounds(raw)
	if err != nil {
		return nil, err
	}
	out["bounds"] = b
	return out, nil
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case []float64:
		return len(t) == 0
	}
	return false
}

// parseBounds accepts {north,south,east,west}, a [west,south,east,north]
// array, or an already-typed box.
func parseBounds(v any) (domain.BoundingBox, error) {
	var b domain.BoundingBox
	switch t := v.(type) {
	case domain.BoundingBox:
		b = t
	case map[string]any:
		if _, ok := t["coordinates"]; ok {
			return regionToBounds(t)
		}
		vals := [4]float64{}
		for i, key := range []string{"north", "south", "east", "west"} {
			f, ok := toFloat(t[key])
			if !ok {
				return b, fmt.Errorf("%w: bounds.%s must be a number", domain.ErrInvalidBounds, key)
			}
			vals[i] = f
		}
		b = domain.BoundingBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
	case []any, []float64:
		coords, err := toFloats(t)
		if err != nil {
			return b, err
		}
		if len(coords) != 4 {
			return b, fmt.Errorf("%w: bounds array needs 4 numbers", domain.ErrInvalidBounds)
		}
		b = domain.BoundingBox{West: coords[0], South: coords[1], East: coords[2], North: coords[3]}
	default:
		return b, fmt.Errorf("%w: unsupported bounds value %T", domain.ErrInvalidBounds, v)
	}
	return b, b.Validate()
}

// regionToBounds reads the {type, coordinates} region form.
func regionToBounds(v any) (domain.BoundingBox, error) {
	switch t := v.(type) {
	case domain.Region:
		return t.Bounds()
	case map[string]any:
		typ, _ := t["type"].(string)
		coords, err := toFloats(t["coordinates"])
		if err != nil {
			return domain.BoundingBox{}, err
		}
		b, err := domain.Region{Type: typ, Coordinates: coords}.Bounds()
		if err != nil {
			return b, err
		}
		return b, b.Validate()
	}
	return domain.BoundingBox{}, fmt.Errorf("%w: unsupported region value %T", domain.ErrInvalidBounds, v)
}

func toFloats(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []any:
		out := make([]float64, len(t))
		for i, x := range t {
			f, ok := toFloat(x)
			if !ok {
				return nil, fmt.Errorf("%w: coordinate %d is not a number", domain.ErrInvalidBounds, i)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: coordinates must be an array", domain.ErrInvalidBounds)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
