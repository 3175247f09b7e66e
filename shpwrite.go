// Package shpwrite writes ESRI Shapefiles from GeoJSON.
// It classifies features by shapefile geometry type and dimensionality,
// encodes SHP/SHX records, builds DBF attribute tables and packages complete
// file sets into ZIP archives. Z and M values are preserved, so the input
// model is github.com/paulmach/go.geojson; orb geometries are accepted as 2D
// input.
package shpwrite

import (
	"errors"
	"os"
	"strings"
	"time"

	log "github.com/inconshreveable/log15"
	yaml "gopkg.in/yaml.v2"
)

// Common errors returned by this package.
var (
	ErrNilCollection       = errors.New("shpwrite: nil feature collection")
	ErrNoFeatures          = errors.New("shpwrite: no exportable features")
	ErrInvalidCoordinate   = errors.New("shpwrite: invalid coordinate")
	ErrEmptyGeometry       = errors.New("shpwrite: empty geometry")
	ErrFileTooLarge        = errors.New("shpwrite: shapefile exceeds maximum size")
	ErrUnsupportedEncoding = errors.New("shpwrite: unsupported dbf encoding")
	ErrInvalidData         = errors.New("shpwrite: invalid data")
	ErrNoIndex             = errors.New("shpwrite: flatgeobuf has no spatial index")
)

// ShapeType is an ESRI shapefile shape type code.
type ShapeType int32

// Shape types written by this package.
const (
	Null        ShapeType = 0
	Point       ShapeType = 1
	PolyLine    ShapeType = 3
	Polygon     ShapeType = 5
	MultiPoint  ShapeType = 8
	PointZ      ShapeType = 11
	PolyLineZ   ShapeType = 13
	PolygonZ    ShapeType = 15
	MultiPointZ ShapeType = 18
)

// ShapeTypes lists the writable shape types in output order.
var ShapeTypes = []ShapeType{
	Point, PointZ, MultiPoint, MultiPointZ,
	PolyLine, PolyLineZ, Polygon, PolygonZ,
}

var shapeTypeNames = map[ShapeType]string{
	Null:        "NULL",
	Point:       "POINT",
	PolyLine:    "POLYLINE",
	Polygon:     "POLYGON",
	MultiPoint:  "MULTIPOINT",
	PointZ:      "POINTZ",
	PolyLineZ:   "POLYLINEZ",
	PolygonZ:    "POLYGONZ",
	MultiPointZ: "MULTIPOINTZ",
}

func (t ShapeType) String() string {
	if name, ok := shapeTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// HasZ reports whether records of this type carry Z and M blocks.
func (t ShapeType) HasZ() bool {
	switch t {
	case PointZ, PolyLineZ, PolygonZ, MultiPointZ:
		return true
	}
	return false
}

// Family returns the naming family of the shape type.
func (t ShapeType) Family() Family {
	switch t {
	case PolyLine, PolyLineZ:
		return FamilyLine
	case Polygon, PolygonZ:
		return FamilyPolygon
	default:
		return FamilyPoint
	}
}

// Family groups shape types for output file naming.
type Family int

// Naming families.
const (
	FamilyPoint Family = iota
	FamilyLine
	FamilyPolygon
)

// DefaultName is the base name used when Options.Name is empty.
const DefaultName = "Shapefile"

// Encodings accepted for DBF string values.
const (
	EncodingUTF8   = "UTF-8"
	EncodingLatin1 = "ISO-8859-1"
)

// CRS represents a coordinate reference system.
// Only the WKT is written; coordinates are never reprojected.
type CRS struct {
	Code int    `yaml:"code"` // EPSG code (e.g., 4326 for WGS84)
	Name string `yaml:"name"` // CRS name
	WKT  string `yaml:"wkt"`  // ESRI Well-Known Text written to the .prj file
}

// WGS84 returns the standard WGS84 CRS (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
		WKT:  wgs84WKT,
	}
}

// TypeNames holds per-family base file names.
type TypeNames struct {
	Point   string `yaml:"point"`
	Line    string `yaml:"line"`
	Polygon string `yaml:"polygon"`
}

// Options configures shapefile writing.
type Options struct {
	Name           string     `yaml:"name"`             // Archive name, default "Shapefile"
	Types          TypeNames  `yaml:"types"`            // Per-family base names, default derived from Name
	CRS            *CRS       `yaml:"crs"`              // Projection text for .prj files (default: WGS84)
	Encoding       string     `yaml:"encoding"`         // DBF string encoding (default: UTF-8)
	KeepMultiParts bool       `yaml:"keep_multi_parts"` // Keep MultiPoint/MultiLineString as one record
	ModTime        time.Time  `yaml:"-"`                // DBF header date and zip entry time (default: now)
	Logger         log.Logger `yaml:"-"`                // Debug logger (default: discard)
}

// DefaultOptions returns default options for writing shapefiles.
func DefaultOptions() *Options {
	o := &Options{}
	o.normalize()
	return o
}

// LoadOptions reads options from a YAML file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// BaseName returns Name without its extension.
func (o *Options) BaseName() string {
	name := o.Name
	if name == "" {
		name = DefaultName
	}
	return strings.SplitN(name, ".", 2)[0]
}

// ArchiveName returns the file name of the ZIP archive.
func (o *Options) ArchiveName() string {
	return o.BaseName() + ".zip"
}

// TypeName returns the base file name for a family.
func (o *Options) TypeName(f Family) string {
	var name string
	switch f {
	case FamilyPoint:
		name = o.Types.Point
	case FamilyLine:
		name = o.Types.Line
	case FamilyPolygon:
		name = o.Types.Polygon
	}
	if name == "" {
		return o.BaseName()
	}
	return name
}

// normalize fills defaults in place.
func (o *Options) normalize() {
	base := o.BaseName()
	if o.Name == "" {
		o.Name = base
	}
	if o.Types.Point == "" {
		o.Types.Point = base
	}
	if o.Types.Line == "" {
		o.Types.Line = base
	}
	if o.Types.Polygon == "" {
		o.Types.Polygon = base
	}
	if o.CRS == nil || o.CRS.WKT == "" {
		o.CRS = WGS84()
	}
	if o.Encoding == "" {
		o.Encoding = EncodingUTF8
	}
	if o.ModTime.IsZero() {
		o.ModTime = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.New()
		o.Logger.SetHandler(log.DiscardHandler())
	}
}

// clone returns a normalized copy so callers' options are never mutated.
func (o *Options) clone() *Options {
	if o == nil {
		return DefaultOptions()
	}
	c := *o
	if o.CRS != nil {
		crs := *o.CRS
		c.CRS = &crs
	}
	c.normalize()
	return &c
}
