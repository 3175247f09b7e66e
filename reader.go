package shpwrite

import (
	"encoding/binary"
	"encoding/json"
	"math"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	geojson "github.com/paulmach/go.geojson"
)

// ReadFlatGeobufFile reads a FlatGeobuf file into a FeatureCollection so it
// can be exported as shapefiles. The file is memory-mapped.
func ReadFlatGeobufFile(path string) (*geojson.FeatureCollection, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return readFlatGeobuf(fgb)
}

// ReadFlatGeobuf reads FlatGeobuf data into a FeatureCollection. Z and M
// values are kept; features are enumerated through the spatial index, so
// files written without one return ErrNoIndex.
func ReadFlatGeobuf(data []byte) (*geojson.FeatureCollection, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return readFlatGeobuf(fgb)
}

func readFlatGeobuf(fgb *flatgeobuf.FlatGeoBuf) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	h := fgb.Header()
	if h == nil {
		return nil, ErrInvalidData
	}

	// Unindexed files also leave features_count at zero.
	if h.IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	if h.FeaturesCount() == 0 {
		return fc, nil
	}
	if h.EnvelopeLength() < 4 {
		return nil, ErrInvalidData
	}

	features, err := fgb.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
	if err != nil {
		return nil, err
	}

	for _, fgbFeature := range features {
		if f := convertFeature(fgbFeature, h); f != nil {
			fc.AddFeature(f)
		}
	}
	return fc, nil
}

// convertFeature converts a FlatGeobuf feature to a GeoJSON feature.
func convertFeature(fgbFeature *flattypes.Feature, h *flattypes.Header) *geojson.Feature {
	if fgbFeature == nil {
		return nil
	}

	var geomObj flattypes.Geometry
	geom := fgbFeature.Geometry(&geomObj)
	if geom == nil {
		return nil
	}

	g := geometryFromFGB(geom, h.GeometryType())
	if g == nil {
		return nil
	}
	feature := geojson.NewFeature(g)

	propsLen := fgbFeature.PropertiesLength()
	if propsLen > 0 && h.ColumnsLength() > 0 {
		data := make([]byte, propsLen)
		for i := 0; i < propsLen; i++ {
			data[i] = byte(fgbFeature.Properties(i))
		}
		feature.Properties = decodeProperties(data, h)
	}

	return feature
}

// geometryFromFGB converts a FlatGeobuf geometry. Geometries without their
// own type use the header's.
func geometryFromFGB(g *flattypes.Geometry, headerType flattypes.GeometryType) *geojson.Geometry {
	t := g.Type()
	if t == flattypes.GeometryTypeUnknown {
		t = headerType
	}

	switch t {
	case flattypes.GeometryTypePoint:
		pts := fgbCoords(g)
		if len(pts) == 0 {
			return nil
		}
		return geojson.NewPointGeometry(pts[0])

	case flattypes.GeometryTypeMultiPoint:
		return geojson.NewMultiPointGeometry(fgbCoords(g)...)

	case flattypes.GeometryTypeLineString:
		return geojson.NewLineStringGeometry(fgbCoords(g))

	case flattypes.GeometryTypeMultiLineString:
		return geojson.NewMultiLineStringGeometry(fgbRings(g)...)

	case flattypes.GeometryTypePolygon:
		return geojson.NewPolygonGeometry(fgbRings(g))

	case flattypes.GeometryTypeMultiPolygon:
		polys := make([][][][]float64, 0, g.PartsLength())
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if g.Parts(&part, i) {
				polys = append(polys, fgbRings(&part))
			}
		}
		return geojson.NewMultiPolygonGeometry(polys...)

	case flattypes.GeometryTypeGeometryCollection:
		children := make([]*geojson.Geometry, 0, g.PartsLength())
		for i := 0; i < g.PartsLength(); i++ {
			var part flattypes.Geometry
			if g.Parts(&part, i) {
				if child := geometryFromFGB(&part, flattypes.GeometryTypeUnknown); child != nil {
					children = append(children, child)
				}
			}
		}
		return geojson.NewCollectionGeometry(children...)

	default:
		return nil
	}
}

// fgbCoords returns the positions of a geometry. An M without Z is stored
// with z = 0, since shapefiles only carry M next to Z.
func fgbCoords(g *flattypes.Geometry) [][]float64 {
	n := g.XyLength() / 2
	hasZ := g.ZLength() >= n && n > 0
	hasM := g.MLength() >= n && n > 0

	coords := make([][]float64, 0, n)
	for j := 0; j < n; j++ {
		c := []float64{g.Xy(2 * j), g.Xy(2*j + 1)}
		switch {
		case hasZ && hasM:
			c = append(c, g.Z(j), g.M(j))
		case hasZ:
			c = append(c, g.Z(j))
		case hasM:
			c = append(c, 0, g.M(j))
		}
		coords = append(coords, c)
	}
	return coords
}

// fgbRings splits the positions of a geometry at its ends array.
func fgbRings(g *flattypes.Geometry) [][][]float64 {
	coords := fgbCoords(g)
	if g.EndsLength() == 0 {
		if len(coords) == 0 {
			return nil
		}
		return [][][]float64{coords}
	}

	rings := make([][][]float64, 0, g.EndsLength())
	start := 0
	for i := 0; i < g.EndsLength(); i++ {
		end := int(g.Ends(i))
		if end > len(coords) {
			end = len(coords)
		}
		if start < end {
			rings = append(rings, coords[start:end])
		}
		start = end
	}
	return rings
}

// fixedWidth holds the encoded size of fixed-length column types.
var fixedWidth = map[flattypes.ColumnType]int{
	flattypes.ColumnTypeBool:   1,
	flattypes.ColumnTypeByte:   1,
	flattypes.ColumnTypeUByte:  1,
	flattypes.ColumnTypeShort:  2,
	flattypes.ColumnTypeUShort: 2,
	flattypes.ColumnTypeInt:    4,
	flattypes.ColumnTypeUInt:   4,
	flattypes.ColumnTypeFloat:  4,
	flattypes.ColumnTypeLong:   8,
	flattypes.ColumnTypeULong:  8,
	flattypes.ColumnTypeDouble: 8,
}

// decodeProperties decodes FlatGeobuf binary properties: a sequence of
// little-endian uint16 column indexes, each followed by its value.
func decodeProperties(data []byte, h *flattypes.Header) map[string]interface{} {
	props := make(map[string]interface{})

	for off := 0; off+2 <= len(data); {
		idx := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2

		var col flattypes.Column
		if idx >= h.ColumnsLength() || !h.Columns(&col, idx) {
			break
		}

		value, n := readPropertyValue(data[off:], col.Type())
		if n == 0 {
			break
		}
		props[string(col.Name())] = value
		off += n
	}

	return props
}

// readPropertyValue decodes one value and returns the number of bytes used,
// 0 when data is truncated. Variable-length values carry a uint32 length
// prefix.
func readPropertyValue(data []byte, t flattypes.ColumnType) (interface{}, int) {
	if width, ok := fixedWidth[t]; ok {
		if len(data) < width {
			return nil, 0
		}
		b := data[:width]
		switch t {
		case flattypes.ColumnTypeBool:
			return b[0] != 0, width
		case flattypes.ColumnTypeByte:
			return int64(int8(b[0])), width
		case flattypes.ColumnTypeUByte:
			return int64(b[0]), width
		case flattypes.ColumnTypeShort:
			return int64(int16(binary.LittleEndian.Uint16(b))), width
		case flattypes.ColumnTypeUShort:
			return int64(binary.LittleEndian.Uint16(b)), width
		case flattypes.ColumnTypeInt:
			return int64(int32(binary.LittleEndian.Uint32(b))), width
		case flattypes.ColumnTypeUInt:
			return int64(binary.LittleEndian.Uint32(b)), width
		case flattypes.ColumnTypeLong:
			return int64(binary.LittleEndian.Uint64(b)), width
		case flattypes.ColumnTypeULong:
			return binary.LittleEndian.Uint64(b), width
		case flattypes.ColumnTypeFloat:
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), width
		default:
			return math.Float64frombits(binary.LittleEndian.Uint64(b)), width
		}
	}

	if len(data) < 4 {
		return nil, 0
	}
	length := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+length {
		return nil, 0
	}
	raw := data[4 : 4+length]
	n := 4 + length

	switch t {
	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime:
		return string(raw), n
	case flattypes.ColumnTypeJson:
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return string(raw), n
		}
		return v, n
	case flattypes.ColumnTypeBinary:
		return string(raw), n
	default:
		return nil, 0
	}
}
