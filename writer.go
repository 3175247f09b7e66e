package shpwrite

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

// Extensions of the files written for every layer, in archive order.
var Extensions = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// Split classifies fc and encodes one complete file set per non-empty layer.
func Split(fc *geojson.FeatureCollection, opts *Options) ([]*Files, error) {
	if fc == nil {
		return nil, ErrNilCollection
	}
	opts = opts.clone()

	layers := Layers(fc, opts)
	if len(layers) == 0 {
		return nil, ErrNoFeatures
	}

	names := make(map[string]bool, len(layers))
	sets := make([]*Files, 0, len(layers))
	for _, layer := range layers {
		files, err := Encode(layer)
		if err != nil {
			return nil, fmt.Errorf("%s layer: %w", layer.Type, err)
		}

		files.DBF, err = writeDBF(layer.Properties, opts.Encoding, opts.ModTime)
		if err != nil {
			return nil, fmt.Errorf("%s layer: %w", layer.Type, err)
		}
		files.PRJ = opts.prj()
		files.CPG = []byte(cpgName(opts.Encoding))
		files.Name = layerName(opts.TypeName(layer.Type.Family()), layer.Type, names)

		opts.Logger.Debug("encoded layer", "layer", layer.Type, "name", files.Name, "records", files.Records)
		sets = append(sets, files)
	}

	return sets, nil
}

// layerName returns base for the first layer claiming it and
// base_<shapetype> for any later one.
func layerName(base string, t ShapeType, taken map[string]bool) string {
	name := base
	if taken[name] {
		name = base + "_" + strings.ToLower(t.String())
	}
	taken[name] = true
	return name
}

// File returns the content stored under the given extension.
func (f *Files) File(ext string) []byte {
	switch ext {
	case ".shp":
		return f.SHP
	case ".shx":
		return f.SHX
	case ".dbf":
		return f.DBF
	case ".prj":
		return f.PRJ
	case ".cpg":
		return f.CPG
	default:
		return nil
	}
}

// WriteFeatures writes a FeatureCollection as a ZIP archive of shapefiles.
func WriteFeatures(w io.Writer, fc *geojson.FeatureCollection, opts *Options) error {
	opts = opts.clone()

	sets, err := Split(fc, opts)
	if err != nil {
		return err
	}
	return writeZip(w, sets, opts.ModTime)
}

// WriteFeature writes a single feature as a ZIP archive of shapefiles.
func WriteFeature(w io.Writer, f *geojson.Feature, opts *Options) error {
	if f == nil {
		return ErrNilCollection
	}

	fc := geojson.NewFeatureCollection()
	fc.AddFeature(f)

	return WriteFeatures(w, fc, opts)
}

// Write writes orb geometries without attributes as a ZIP archive.
// This is a convenience function for writing geometry-only data.
func Write(w io.Writer, geometries []orb.Geometry, opts *Options) error {
	fc := geojson.NewFeatureCollection()
	for _, g := range geometries {
		if g == nil {
			continue // Skip nil geometries
		}
		fc.AddFeature(geojson.NewFeature(FromOrb(g)))
	}

	return WriteFeatures(w, fc, opts)
}

// WriteOrbFeatures writes an orb FeatureCollection as a ZIP archive.
func WriteOrbFeatures(w io.Writer, fc *orbjson.FeatureCollection, opts *Options) error {
	if fc == nil {
		return ErrNilCollection
	}
	return WriteFeatures(w, FromOrbFeatures(fc), opts)
}

// WriteDir writes every file set of fc into dir and returns the written paths.
func WriteDir(dir string, fc *geojson.FeatureCollection, opts *Options) ([]string, error) {
	sets, err := Split(fc, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, files := range sets {
		for _, ext := range Extensions {
			path := filepath.Join(dir, files.Name+ext)
			if err := os.WriteFile(path, files.File(ext), 0o644); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
