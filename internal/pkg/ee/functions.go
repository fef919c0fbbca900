package ee

import "fmt"

// Geometry

// Rectangle is a planar rectangle from [west, south, east, north].
func Rectangle(west, south, east, north float64) Value {
	return Invoke("GeometryConstructors.Rectangle", map[string]Value{
		"coordinates": Constant([]float64{west, south, east, north}),
		"geodesic":    Constant(false),
	})
}

// Point is a single lon/lat point.
func Point(lon, lat float64) Value {
	return Invoke("GeometryConstructors.Point", map[string]Value{
		"coordinates": Constant([]float64{lon, lat}),
	})
}

// Feature wraps a geometry with properties.
func Feature(geometry Value, props map[string]any) Value {
	args := map[string]Value{"geometry": geometry}
	if len(props) > 0 {
		args["metadata"] = Constant(props)
	}
	return Invoke("Feature", args)
}

// FeatureCollection builds a collection from features.
func FeatureCollection(features ...Value) Value {
	return Invoke("Collection", map[string]Value{"features": Array(features...)})
}

// Loading

// Image loads a single image asset.
func Image(id string) Value {
	return Invoke("Image.load", map[string]Value{"id": Constant(id)})
}

// ImageCollection loads an image collection asset.
func ImageCollection(id string) Value {
	return Invoke("ImageCollection.load", map[string]Value{"id": Constant(id)})
}

// Collections

// FilterBounds keeps elements intersecting geometry.
func FilterBounds(collection, geometry Value) Value {
	return filter(collection, Invoke("Filter.intersects", map[string]Value{
		"leftField":  Constant(".all"),
		"rightValue": geometry,
	}))
}

// FilterDate keeps elements whose system:time_start is in [start, end).
func FilterDate(collection Value, start, end string) Value {
	return filter(collection, Invoke("Filter.dateRangeContains", map[string]Value{
		"leftValue": Invoke("DateRange", map[string]Value{
			"start": Constant(start),
			"end":   Constant(end),
		}),
		"rightField": Constant("system:time_start"),
	}))
}

// FilterLessThan keeps elements whose property is below value.
func FilterLessThan(collection Value, property string, value float64) Value {
	return filter(collection, Invoke("Filter.lessThan", map[string]Value{
		"leftField":  Constant(property),
		"rightValue": Constant(value),
	}))
}

func filter(collection, f Value) Value {
	return Invoke("Collection.filter", map[string]Value{
		"collection": collection,
		"filter":     f,
	})
}

// Sort orders a collection by property.
func Sort(collection Value, property string, ascending bool) Value {
	return Invoke("Collection.limit", map[string]Value{
		"collection": collection,
		"key":        Constant(property),
		"ascending":  Constant(ascending),
	})
}

// Limit truncates a collection.
func Limit(collection Value, n int) Value {
	return Invoke("Collection.limit", map[string]Value{
		"collection": collection,
		"limit":      Constant(n),
	})
}

// Size counts a collection.
func Size(collection Value) Value {
	return Invoke("Collection.size", map[string]Value{"collection": collection})
}

// First returns the first element of a collection.
func First(collection Value) Value {
	return Invoke("Collection.first", map[string]Value{"collection": collection})
}

// Median reduces a collection per pixel.
func Median(collection Value) Value {
	return Invoke("reduce.median", map[string]Value{"collection": collection})
}

// Mosaic composites a collection, last image on top.
func Mosaic(collection Value) Value {
	return Invoke("ImageCollection.mosaic", map[string]Value{"collection": collection})
}

// Get reads a property of an element.
func Get(object Value, property string) Value {
	return Invoke("Element.get", map[string]Value{
		"object":   object,
		"property": Constant(property),
	})
}

// Images

// Select keeps the named bands.
func Select(image Value, bands ...string) Value {
	return Invoke("Image.select", map[string]Value{
		"input":         image,
		"bandSelectors": Strings(bands...),
	})
}

// Rename sets band names.
func Rename(image Value, names ...string) Value {
	return Invoke("Image.rename", map[string]Value{
		"input": image,
		"names": Strings(names...),
	})
}

// BandNames lists an image's bands.
func BandNames(image Value) Value {
	return Invoke("Image.bandNames", map[string]Value{"image": image})
}

// NormalizedDifference computes (a-b)/(a+b).
func NormalizedDifference(image Value, a, b string) Value {
	return Invoke("Image.normalizedDifference", map[string]Value{
		"input":     image,
		"bandNames": Strings(a, b),
	})
}

// AddBands appends the bands of src to dst.
func AddBands(dst, src Value) Value {
	return Invoke("Image.addBands", map[string]Value{
		"dstImg": dst,
		"srcImg": src,
	})
}

// Clip masks an image to geometry.
func Clip(image, geometry Value) Value {
	return Invoke("Image.clip", map[string]Value{
		"input":    image,
		"geometry": geometry,
	})
}

// Multiply is a per-band product.
func Multiply(a, b Value) Value {
	return binary("Image.multiply", a, b)
}

// Gte is a per-pixel a >= b.
func Gte(a, b Value) Value {
	return binary("Image.gte", a, b)
}

// Lte is a per-pixel a <= b.
func Lte(a, b Value) Value {
	return binary("Image.lte", a, b)
}

// And is a per-pixel logical and.
func And(a, b Value) Value {
	return binary("Image.and", a, b)
}

// ConstantImage is an image with a single constant band.
func ConstantImage(v float64) Value {
	return Invoke("Image.constant", map[string]Value{"value": Constant(v)})
}

func binary(fn string, a, b Value) Value {
	return Invoke(fn, map[string]Value{"image1": a, "image2": b})
}

// ReduceBands collapses bands with reducer.
func ReduceBands(image, reducer Value) Value {
	return Invoke("Image.reduce", map[string]Value{
		"image":   image,
		"reducer": reducer,
	})
}

// ReduceRegion computes reducer over geometry.
func ReduceRegion(image, reducer, geometry Value, scale int, maxPixels float64) Value {
	return Invoke("Image.reduceRegion", map[string]Value{
		"image":      image,
		"reducer":    reducer,
		"geometry":   geometry,
		"scale":      Constant(scale),
		"maxPixels":  Constant(maxPixels),
		"bestEffort": Constant(false),
	})
}

// SampleRegions samples image at each feature of collection.
func SampleRegions(image, collection Value, scale int) Value {
	return Invoke("Image.sampleRegions", map[string]Value{
		"image":      image,
		"collection": collection,
		"scale":      Constant(scale),
		"geometries": Constant(true),
	})
}

// Visualization

// VisOptions mirrors the renderer parameters.
type VisOptions struct {
	Bands   []string
	Min     float64
	Max     float64
	Gamma   float64
	Palette []string
}

// Visualize renders an image to RGB.
func Visualize(image Value, opts VisOptions) Value {
	args := map[string]Value{
		"image": image,
		"min":   Constant([]float64{opts.Min}),
		"max":   Constant([]float64{opts.Max}),
	}
	if len(opts.Bands) > 0 {
		args["bands"] = Strings(opts.Bands...)
	}
	if opts.Gamma > 0 {
		args["gamma"] = Constant([]float64{opts.Gamma})
	}
	if len(opts.Palette) > 0 {
		args["palette"] = Strings(opts.Palette...)
	}
	return Invoke("Image.visualize", args)
}

// ClipToBoundsAndScale prepares a thumbnail of at most maxDimension pixels.
func ClipToBoundsAndScale(image, geometry Value, maxDimension int) Value {
	return Invoke("Image.clipToBoundsAndScale", map[string]Value{
		"input":        image,
		"geometry":     geometry,
		"maxDimension": Constant(maxDimension),
	})
}

// Reducers

// Reducer returns a parameterless reducer such as "mean" or "minMax".
func Reducer(name string) Value {
	return Invoke(fmt.Sprintf("Reducer.%s", name), nil)
}

// CombineReducers joins reducers with shared inputs.
func CombineReducers(first Value, rest ...Value) Value {
	out := first
	for _, r := range rest {
		out = Invoke("Reducer.combine", map[string]Value{
			"reducer1":     out,
			"reducer2":     r,
			"sharedInputs": Constant(true),
		})
	}
	return out
}
