package shpwrite

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

// Parts is one record's coordinates grouped by part.
// A point record holds a single part with a single coordinate, a multipoint
// record a single part with all its points, a polyline one part per line and
// a polygon one part per ring.
type Parts [][]Coord

// Points returns all coordinates of p in part order.
func (p Parts) Points() []Coord {
	n := 0
	for _, part := range p {
		n += len(part)
	}
	pts := make([]Coord, 0, n)
	for _, part := range p {
		pts = append(pts, part...)
	}
	return pts
}

// NumPoints returns the total number of coordinates in p.
func (p Parts) NumPoints() int {
	n := 0
	for _, part := range p {
		n += len(part)
	}
	return n
}

// flatten returns every position of g, walked according to its declared type.
func flatten(g *geojson.Geometry) []Coord {
	switch g.Type {
	case geojson.GeometryPoint:
		if g.Point == nil {
			return nil
		}
		return []Coord{g.Point}
	case geojson.GeometryMultiPoint:
		return toCoords(g.MultiPoint)
	case geojson.GeometryLineString:
		return toCoords(g.LineString)
	case geojson.GeometryMultiLineString:
		return flattenLines(g.MultiLineString)
	case geojson.GeometryPolygon:
		return flattenLines(g.Polygon)
	case geojson.GeometryMultiPolygon:
		var pts []Coord
		for _, poly := range g.MultiPolygon {
			pts = append(pts, flattenLines(poly)...)
		}
		return pts
	default:
		return nil
	}
}

func toCoords(pts [][]float64) []Coord {
	coords := make([]Coord, len(pts))
	for i, p := range pts {
		coords[i] = p
	}
	return coords
}

func flattenLines(lines [][][]float64) []Coord {
	var pts []Coord
	for _, line := range lines {
		pts = append(pts, toCoords(line)...)
	}
	return pts
}

func toParts(lines [][][]float64) Parts {
	parts := make(Parts, len(lines))
	for i, line := range lines {
		parts[i] = toCoords(line)
	}
	return parts
}

// FromOrb converts an orb.Geometry to a GeoJSON geometry.
// Bounds become rectangular polygons and rings single-ring polygons.
func FromOrb(geom orb.Geometry) *geojson.Geometry {
	if geom == nil {
		return nil
	}

	switch v := geom.(type) {
	case orb.Point:
		return geojson.NewPointGeometry([]float64{v[0], v[1]})

	case orb.MultiPoint:
		return geojson.NewMultiPointGeometry(pointsToXY(v)...)

	case orb.LineString:
		return geojson.NewLineStringGeometry(pointsToXY(v))

	case orb.MultiLineString:
		lines := make([][][]float64, 0, len(v))
		for _, ls := range v {
			lines = append(lines, pointsToXY(ls))
		}
		return geojson.NewMultiLineStringGeometry(lines...)

	case orb.Ring:
		return geojson.NewPolygonGeometry([][][]float64{pointsToXY(v)})

	case orb.Polygon:
		return geojson.NewPolygonGeometry(polygonToXY(v))

	case orb.MultiPolygon:
		polys := make([][][][]float64, 0, len(v))
		for _, poly := range v {
			polys = append(polys, polygonToXY(poly))
		}
		return geojson.NewMultiPolygonGeometry(polys...)

	case orb.Collection:
		children := make([]*geojson.Geometry, 0, len(v))
		for _, child := range v {
			if g := FromOrb(child); g != nil {
				children = append(children, g)
			}
		}
		return geojson.NewCollectionGeometry(children...)

	case orb.Bound:
		return geojson.NewPolygonGeometry(polygonToXY(boundToPolygon(v)))

	default:
		return nil
	}
}

// FromOrbFeatures converts an orb FeatureCollection. Properties are shared,
// not copied.
func FromOrbFeatures(fc *orbjson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil {
		return nil
	}

	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		feature := geojson.NewFeature(FromOrb(f.Geometry))
		feature.ID = f.ID
		if f.Properties != nil {
			feature.Properties = map[string]interface{}(f.Properties)
		}
		out.AddFeature(feature)
	}
	return out
}

func pointsToXY(pts []orb.Point) [][]float64 {
	xy := make([][]float64, 0, len(pts))
	for _, p := range pts {
		xy = append(xy, []float64{p[0], p[1]})
	}
	return xy
}

func polygonToXY(poly orb.Polygon) [][][]float64 {
	rings := make([][][]float64, 0, len(poly))
	for _, ring := range poly {
		rings = append(rings, pointsToXY(ring))
	}
	return rings
}

func boundToPolygon(b orb.Bound) orb.Polygon {
	return orb.Polygon{
		orb.Ring{
			{b.Min[0], b.Min[1]},
			{b.Max[0], b.Min[1]},
			{b.Max[0], b.Max[1]},
			{b.Min[0], b.Max[1]},
			{b.Min[0], b.Min[1]},
		},
	}
}
