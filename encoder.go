package shpwrite

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	headerLength    = 100
	recordHeaderLen = 8
	indexEntryLen   = 8
	fileCode        = 9994
	fileVersion     = 1000

	// maxFileLength is the largest file length expressible in the header,
	// which counts 16-bit words in a signed 32-bit integer.
	maxFileLength int64 = math.MaxInt32 * 2
)

// byteWriter writes typed fields into a pre-sized buffer at a moving offset.
type byteWriter struct {
	buf []byte
	off int
}

func newByteWriter(size int) *byteWriter {
	return &byteWriter{buf: make([]byte, size)}
}

func (w *byteWriter) int32BE(v int32) int {
	binary.BigEndian.PutUint32(w.buf[w.off:], uint32(v))
	w.off += 4
	return w.off
}

func (w *byteWriter) int32LE(v int32) int {
	binary.LittleEndian.PutUint32(w.buf[w.off:], uint32(v))
	w.off += 4
	return w.off
}

func (w *byteWriter) float64LE(v float64) int {
	binary.LittleEndian.PutUint64(w.buf[w.off:], math.Float64bits(v))
	w.off += 8
	return w.off
}

// recordEncoder lays out the body of one shape type.
type recordEncoder interface {
	// contentLength returns the body size in bytes, excluding the record header.
	contentLength(parts Parts) int
	// encode writes the body and returns the record's written extent.
	encode(w *byteWriter, parts Parts) Extent
}

func encoderFor(t ShapeType) recordEncoder {
	switch t {
	case Point, PointZ:
		return pointEncoder{z: t.HasZ()}
	case MultiPoint, MultiPointZ:
		return multiPointEncoder{z: t.HasZ()}
	case PolyLine, PolyLineZ, Polygon, PolygonZ:
		return polyEncoder{shapeType: t}
	default:
		return nil
	}
}

// Files holds the encoded files of one layer.
type Files struct {
	Name    string    // Base file name, without extension
	Type    ShapeType // Shape type of every record
	Records int       // Number of records in SHP, SHX and DBF
	Extent  Extent    // Bounding box written to the headers
	SHP     []byte
	SHX     []byte
	DBF     []byte
	PRJ     []byte
	CPG     []byte
}

// Encode writes the SHP and SHX files of a layer. Only the geometry files are
// set on the result.
func Encode(layer *Layer) (*Files, error) {
	if layer == nil {
		return nil, ErrNilCollection
	}
	enc := encoderFor(layer.Type)
	if enc == nil {
		return nil, fmt.Errorf("shpwrite: unsupported shape type %d", layer.Type)
	}

	shpLength := headerLength
	lengths := make([]int, len(layer.Geometries))
	for i, parts := range layer.Geometries {
		if err := validate(layer.Type, parts); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		lengths[i] = enc.contentLength(parts)
		shpLength += recordHeaderLen + lengths[i]
	}
	if int64(shpLength) > maxFileLength {
		return nil, ErrFileTooLarge
	}
	shxLength := headerLength + indexEntryLen*len(layer.Geometries)

	shp := newByteWriter(shpLength)
	shx := newByteWriter(shxLength)
	shp.off = headerLength
	shx.off = headerLength

	ext := BlankExtent()
	for i, parts := range layer.Geometries {
		words := int32(lengths[i] / 2)

		shx.int32BE(int32(shp.off / 2))
		shx.int32BE(words)

		shp.int32BE(int32(i + 1))
		shp.int32BE(words)
		ext = ext.Union(enc.encode(shp, parts))
	}

	writeHeader(shp, layer.Type, shpLength, ext)
	writeHeader(shx, layer.Type, shxLength, ext)

	return &Files{
		Type:    layer.Type,
		Records: len(layer.Geometries),
		Extent:  ext,
		SHP:     shp.buf,
		SHX:     shx.buf,
	}, nil
}

// validate rejects records that would encode into corrupt files.
func validate(t ShapeType, parts Parts) error {
	if len(parts) == 0 {
		return ErrEmptyGeometry
	}
	for _, part := range parts {
		if len(part) == 0 {
			return ErrEmptyGeometry
		}
		for _, c := range part {
			if len(c) < 2 {
				return fmt.Errorf("%w: %d values", ErrInvalidCoordinate, len(c))
			}
			for _, v := range c {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: %v", ErrInvalidCoordinate, v)
				}
			}
		}
	}
	if (t == Point || t == PointZ) && (len(parts) != 1 || len(parts[0]) != 1) {
		return fmt.Errorf("%w: point record with %d coordinates", ErrInvalidCoordinate, parts.NumPoints())
	}
	return nil
}

// zValue returns the z of c, or 0 when absent.
func zValue(c Coord) float64 {
	if len(c) >= 3 {
		return c[2]
	}
	return 0
}

// mValue returns the m of c, or 0 when absent.
func mValue(c Coord) float64 {
	if len(c) >= 4 {
		return c[3]
	}
	return 0
}
