package shpwrite

import (
	geojson "github.com/paulmach/go.geojson"
)

// Layer is the set of records destined for one shapefile.
// Geometries[i] is described by Properties[i].
type Layer struct {
	Type       ShapeType
	Geometries []Parts
	Properties []map[string]interface{}
}

// Len returns the number of records in the layer.
func (l *Layer) Len() int {
	return len(l.Geometries)
}

func (l *Layer) add(parts Parts, props map[string]interface{}) {
	l.Geometries = append(l.Geometries, parts)
	l.Properties = append(l.Properties, props)
}

// Classifier selects the features of one GeoJSON geometry type and
// dimensionality and maps them to records of one shape type.
type Classifier struct {
	GeoJSONType geojson.GeometryType
	ShapeType   ShapeType
	Z           bool // select features with any z value instead of purely 2D ones

	// KeepMultiParts emits one record per MultiPoint or MultiLineString
	// feature instead of one record per member.
	KeepMultiParts bool
}

// Classifiers for every supported GeoJSON type and dimensionality.
var (
	PointClassifier       = Classifier{GeoJSONType: geojson.GeometryPoint, ShapeType: Point}
	PointZClassifier      = Classifier{GeoJSONType: geojson.GeometryPoint, ShapeType: PointZ, Z: true}
	MultiPointClassifier  = Classifier{GeoJSONType: geojson.GeometryMultiPoint, ShapeType: MultiPoint}
	MultiPointZClassifier = Classifier{GeoJSONType: geojson.GeometryMultiPoint, ShapeType: MultiPointZ, Z: true}
	LineClassifier        = Classifier{GeoJSONType: geojson.GeometryLineString, ShapeType: PolyLine}
	LineZClassifier       = Classifier{GeoJSONType: geojson.GeometryLineString, ShapeType: PolyLineZ, Z: true}
	MultiLineClassifier   = Classifier{GeoJSONType: geojson.GeometryMultiLineString, ShapeType: PolyLine}
	MultiLineZClassifier  = Classifier{GeoJSONType: geojson.GeometryMultiLineString, ShapeType: PolyLineZ, Z: true}
	PolygonClassifier     = Classifier{GeoJSONType: geojson.GeometryPolygon, ShapeType: Polygon}
	PolygonZClassifier    = Classifier{GeoJSONType: geojson.GeometryPolygon, ShapeType: PolygonZ, Z: true}
)

// Classifiers lists all classifiers.
var Classifiers = []Classifier{
	PointClassifier, PointZClassifier,
	MultiPointClassifier, MultiPointZClassifier,
	LineClassifier, LineZClassifier,
	MultiLineClassifier, MultiLineZClassifier,
	PolygonClassifier, PolygonZClassifier,
}

// Classify returns the records of fc selected by c. No qualifying feature
// yields an empty layer.
func (c Classifier) Classify(fc *geojson.FeatureCollection) *Layer {
	layer := &Layer{Type: c.ShapeType}
	if fc == nil {
		return layer
	}
	for _, f := range fc.Features {
		if c.Match(f) {
			c.emit(layer, f)
		}
	}
	return layer
}

// Match reports whether f has the classifier's geometry type and
// dimensionality.
func (c Classifier) Match(f *geojson.Feature) bool {
	if f == nil || f.Geometry == nil || f.Geometry.Type != c.GeoJSONType {
		return false
	}
	threeD, flat := dimensionOf(flatten(f.Geometry))
	if c.Z {
		return threeD
	}
	return flat
}

// dimensionOf reports whether any coordinate has 3 or more values and whether
// every coordinate has exactly 2. A coordinate with fewer than 2 values
// matches neither.
func dimensionOf(coords []Coord) (threeD, flat bool) {
	if len(coords) == 0 {
		return false, false
	}
	flat = true
	for _, c := range coords {
		if len(c) < 2 {
			return false, false
		}
		if len(c) >= 3 {
			threeD = true
		}
		if len(c) != 2 {
			flat = false
		}
	}
	return threeD, flat
}

// emit appends the records of one matching feature.
func (c Classifier) emit(layer *Layer, f *geojson.Feature) {
	g := f.Geometry
	switch g.Type {
	case geojson.GeometryPoint:
		layer.add(Parts{{g.Point}}, f.Properties)

	case geojson.GeometryMultiPoint:
		if c.KeepMultiParts {
			layer.add(Parts{toCoords(g.MultiPoint)}, f.Properties)
			return
		}
		for _, p := range g.MultiPoint {
			layer.add(Parts{{p}}, copyProperties(f.Properties))
		}

	case geojson.GeometryLineString:
		layer.add(Parts{toCoords(g.LineString)}, f.Properties)

	case geojson.GeometryMultiLineString:
		if c.KeepMultiParts {
			layer.add(toParts(g.MultiLineString), f.Properties)
			return
		}
		for _, line := range g.MultiLineString {
			layer.add(Parts{toCoords(line)}, copyProperties(f.Properties))
		}

	case geojson.GeometryPolygon:
		layer.add(toParts(g.Polygon), f.Properties)
	}
}

func copyProperties(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Layers classifies fc into one layer per shape type, in ShapeTypes order.
// Features of different GeoJSON types that map to the same shape type keep
// their input order. Empty layers are omitted.
func Layers(fc *geojson.FeatureCollection, opts *Options) []*Layer {
	opts = opts.clone()

	byType := make(map[ShapeType]*Layer, len(ShapeTypes))
	for _, t := range ShapeTypes {
		byType[t] = &Layer{Type: t}
	}

	skipped := 0
	if fc != nil {
		for _, f := range fc.Features {
			matched := false
			for _, c := range Classifiers {
				c.KeepMultiParts = opts.KeepMultiParts
				if c.Match(f) {
					c.emit(byType[c.ShapeType], f)
					matched = true
					break
				}
			}
			if !matched {
				skipped++
			}
		}
	}
	if skipped > 0 {
		opts.Logger.Debug("skipped features", "count", skipped)
	}

	layers := make([]*Layer, 0, len(ShapeTypes))
	for _, t := range ShapeTypes {
		if l := byType[t]; l.Len() > 0 {
			layers = append(layers, l)
		}
	}
	return layers
}
