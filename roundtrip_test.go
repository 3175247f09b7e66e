package shpwrite

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cheekybits/is"
	shp "github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
)

// openShape writes fc to a temporary directory and opens the named layer
// with go-shp.
func openShape(t *testing.T, fc *geojson.FeatureCollection, opts *Options, name string) *shp.Reader {
	t.Helper()

	dir := t.TempDir()
	if _, err := WriteDir(dir, fc, opts); err != nil {
		t.Fatalf("WriteDir failed: %v", err)
	}

	r, err := shp.Open(filepath.Join(dir, name+".shp"))
	if err != nil {
		t.Fatalf("shp.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRoundTrip_Polygon(t *testing.T) {
	is := is.New(t)

	fc := parseCollection(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]},"properties":{"name":"sq"}}
	]}`)

	r := openShape(t, fc, nil, DefaultName)
	is.Equal(r.GeometryType, shp.POLYGON)

	box := r.BBox()
	is.Equal(box.MinX, 0.0)
	is.Equal(box.MinY, 0.0)
	is.Equal(box.MaxX, 1.0)
	is.Equal(box.MaxY, 1.0)

	is.True(r.Next())
	n, shape := r.Shape()
	is.Equal(n, 0)

	poly, ok := shape.(*shp.Polygon)
	is.True(ok)
	is.Equal(poly.NumParts, int32(1))
	is.Equal(poly.NumPoints, int32(5))
	is.Equal(poly.Parts[0], int32(0))

	expected := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	for i, p := range expected {
		is.Equal(poly.Points[i], p)
	}

	fields := r.Fields()
	is.Equal(len(fields), 1)
	is.Equal(fields[0].String(), "name")
	is.Equal(strings.TrimSpace(r.ReadAttribute(0, 0)), "sq")

	is.False(r.Next())
	is.NoErr(r.Err())
}

func TestRoundTrip_PolygonZ(t *testing.T) {
	is := is.New(t)

	fc := parseCollection(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0,5],[0,1,5],[1,1,5],[1,0,5],[0,0,5]]]},"properties":{"name":"sq"}}
	]}`)

	r := openShape(t, fc, nil, DefaultName)
	is.Equal(r.GeometryType, shp.POLYGONZ)

	is.True(r.Next())
	_, shape := r.Shape()
	poly, ok := shape.(*shp.PolygonZ)
	is.True(ok)
	is.Equal(poly.NumPoints, int32(5))
	is.Equal(poly.ZRange[0], 5.0)
	is.Equal(poly.ZRange[1], 5.0)
	is.Equal(poly.MRange[0], 0.0)
	is.Equal(poly.MRange[1], 0.0)
	for _, z := range poly.ZArray {
		is.Equal(z, 5.0)
	}
	for _, m := range poly.MArray {
		is.Equal(m, 0.0)
	}
}

func TestRoundTrip_LinesAndPoints(t *testing.T) {
	is := is.New(t)

	fc := parseCollection(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1],[2,0]]},"properties":{"id":1}},
		{"type":"Feature","geometry":{"type":"MultiLineString","coordinates":[[[5,5],[6,6]],[[7,7],[8,8]]]},"properties":{"id":2}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{"id":3}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4,9,2]},"properties":{"id":4}}
	]}`)

	opts := &Options{Name: "data", Types: TypeNames{Point: "points", Line: "lines", Polygon: "polygons"}}

	lines := openShape(t, fc, opts, "lines")
	is.Equal(lines.GeometryType, shp.POLYLINE)
	var ids []string
	for lines.Next() {
		n, shape := lines.Shape()
		line, ok := shape.(*shp.PolyLine)
		is.True(ok)
		is.Equal(line.NumParts, int32(1))
		ids = append(ids, strings.TrimSpace(lines.ReadAttribute(n, 0)))
	}
	is.NoErr(lines.Err())
	is.Equal(strings.Join(ids, ","), "1,2,2")

	points := openShape(t, fc, opts, "points")
	is.Equal(points.GeometryType, shp.POINT)
	is.True(points.Next())
	_, shape := points.Shape()
	p, ok := shape.(*shp.Point)
	is.True(ok)
	is.Equal(p.X, 3.0)
	is.Equal(p.Y, 4.0)

	pointsZ := openShape(t, fc, opts, "points_pointz")
	is.Equal(pointsZ.GeometryType, shp.POINTZ)
	is.True(pointsZ.Next())
	_, shape = pointsZ.Shape()
	pz, ok := shape.(*shp.PointZ)
	is.True(ok)
	is.Equal(pz.Z, 9.0)
	is.Equal(pz.M, 2.0)
	is.Equal(strings.TrimSpace(pointsZ.ReadAttribute(0, 0)), "4")
}

func TestRoundTrip_MultiPointKept(t *testing.T) {
	is := is.New(t)

	fc := parseCollection(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"MultiPoint","coordinates":[[0,0],[1,2],[3,1]]},"properties":{"id":1}}
	]}`)

	r := openShape(t, fc, &Options{KeepMultiParts: true}, DefaultName)
	is.Equal(r.GeometryType, shp.MULTIPOINT)

	is.True(r.Next())
	_, shape := r.Shape()
	mp, ok := shape.(*shp.MultiPoint)
	is.True(ok)
	is.Equal(mp.NumPoints, int32(3))
	is.Equal(mp.Box.MaxX, 3.0)
	is.Equal(mp.Box.MaxY, 2.0)
	is.Equal(mp.Points[1], shp.Point{X: 1, Y: 2})
}
