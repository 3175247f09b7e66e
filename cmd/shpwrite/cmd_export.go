package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/inconshreveable/log15"
	geojson "github.com/paulmach/go.geojson"
	"golang.org/x/sync/errgroup"

	shpwrite "github.com/tingold/orb-shpwrite"
)

type CmdExport struct {
	global *GlobalOptions

	Config         string `short:"c" long:"config" description:"YAML naming config"`
	Name           string `short:"n" long:"name" description:"Archive and default file name"`
	Output         string `short:"o" long:"output" description:"Output ZIP archive (default <name>.zip)"`
	Dir            string `short:"d" long:"dir" description:"Write unzipped file sets into this directory"`
	KeepMultiParts bool   `long:"keep-multi-parts" description:"Write MultiPoint and MultiLineString features as one record"`
	Encoding       string `long:"encoding" description:"DBF string encoding (UTF-8, ISO-8859-1, windows-1252)"`
}

func init() {
	_, err := parser.AddCommand("export",
		"Export shapefiles",
		"Export GeoJSON and FlatGeobuf inputs as a zipped shapefile per geometry type",
		&CmdExport{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd *CmdExport) Usage() string {
	return "input.geojson [input.fgb ...]"
}

func (cmd *CmdExport) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("No input specified, Usage: %s", cmd.Usage())
	}
	if cmd.Output != "" && cmd.Dir != "" {
		return errors.New("--output and --dir are mutually exclusive")
	}

	logger := cmd.global.Logger()

	opts, err := cmd.options()
	if err != nil {
		return err
	}
	opts.Logger = logger

	fc, err := loadInputs(context.Background(), args, logger)
	if err != nil {
		return err
	}

	if cmd.Dir != "" {
		paths, err := shpwrite.WriteDir(cmd.Dir, fc, opts)
		if err != nil {
			return fmt.Errorf("Failed to export: %w", err)
		}
		logger.Info("exported", "dir", cmd.Dir, "files", len(paths))
		return nil
	}

	out := cmd.Output
	if out == "" {
		out = opts.ArchiveName()
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := shpwrite.WriteFeatures(f, fc, opts); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("Failed to export: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("exported", "archive", out, "features", len(fc.Features))
	return nil
}

// options loads the config file, if any, and applies the flags on top.
func (cmd *CmdExport) options() (*shpwrite.Options, error) {
	opts := &shpwrite.Options{}
	if cmd.Config != "" {
		var err error
		opts, err = shpwrite.LoadOptions(cmd.Config)
		if err != nil {
			return nil, fmt.Errorf("Failed to load config: %w", err)
		}
	}

	if cmd.Name != "" {
		opts.Name = cmd.Name
	}
	if cmd.KeepMultiParts {
		opts.KeepMultiParts = true
	}
	if cmd.Encoding != "" {
		opts.Encoding = cmd.Encoding
	}
	return opts, nil
}

// loadInputs decodes every input concurrently and merges their features in
// argument order.
func loadInputs(ctx context.Context, paths []string, logger log.Logger) (*geojson.FeatureCollection, error) {
	results := make([]*geojson.FeatureCollection, len(paths))

	group, errctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := errctx.Err(); err != nil {
				return err
			}
			fc, err := readInput(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("read input", "path", path, "features", len(fc.Features))
			results[i] = fc
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := geojson.NewFeatureCollection()
	for _, fc := range results {
		merged.Features = append(merged.Features, fc.Features...)
	}
	return merged, nil
}

// readInput decodes one input file. GeoJSON files may hold a
// FeatureCollection, a single Feature or a bare geometry.
func readInput(path string) (*geojson.FeatureCollection, error) {
	if strings.EqualFold(filepath.Ext(path), ".fgb") {
		return shpwrite.ReadFlatGeobufFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case "FeatureCollection":
		return geojson.UnmarshalFeatureCollection(data)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.AddFeature(f)
		return fc, nil
	case "":
		return nil, errors.New("not a GeoJSON object")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.AddFeature(geojson.NewFeature(g))
		return fc, nil
	}
}
