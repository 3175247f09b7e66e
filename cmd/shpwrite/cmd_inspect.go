package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/kr/pretty"

	shpwrite "github.com/tingold/orb-shpwrite"
)

type CmdInspect struct {
	global *GlobalOptions

	Verbose bool `short:"v" long:"verbose" description:"Dump every shape and attribute row"`
}

func init() {
	_, err := parser.AddCommand("inspect",
		"Inspect shapefiles",
		"Print the header, fields and record count of a shapefile or of every shapefile in a ZIP archive",
		&CmdInspect{global: &globalOpts})
	if err != nil {
		panic(err)
	}
}

func (cmd *CmdInspect) Usage() string {
	return "file.shp|file.zip"
}

func (cmd *CmdInspect) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("No shapefile specified, Usage: %s", cmd.Usage())
	}
	return inspect(os.Stdout, args[0], cmd.Verbose)
}

// inspect reports on a .shp file, or on each .shp inside a .zip.
func inspect(w io.Writer, path string, verbose bool) error {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return inspectShape(w, path, verbose)
	}

	dir, err := os.MkdirTemp("", "shpwrite-inspect")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	shapes, err := extractZip(path, dir)
	if err != nil {
		return err
	}
	if len(shapes) == 0 {
		return fmt.Errorf("%s: no .shp files in archive", path)
	}
	for _, p := range shapes {
		if err := inspectShape(w, p, verbose); err != nil {
			return err
		}
	}
	return nil
}

// extractZip unpacks the archive's root entries into dir and returns the
// extracted .shp paths in name order.
func extractZip(path, dir string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var shapes []string
	for _, f := range zr.File {
		name := filepath.Base(f.Name)
		if f.FileInfo().IsDir() || name != f.Name {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		out, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			rc.Close()
			return nil, err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(filepath.Ext(name), ".shp") {
			shapes = append(shapes, filepath.Join(dir, name))
		}
	}
	sort.Strings(shapes)
	return shapes, nil
}

func inspectShape(w io.Writer, path string, verbose bool) error {
	r, err := shp.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	box := r.BBox()
	fmt.Fprintf(w, "%s\n", filepath.Base(path))
	fmt.Fprintf(w, "  type:   %s\n", shpwrite.ShapeType(r.GeometryType))
	fmt.Fprintf(w, "  bbox:   %g %g %g %g\n", box.MinX, box.MinY, box.MaxX, box.MaxY)

	fields := r.Fields()
	for _, f := range fields {
		fmt.Fprintf(w, "  field:  %-10s %c %d.%d\n", f.String(), f.Fieldtype, f.Size, f.Precision)
	}

	records := 0
	for r.Next() {
		n, shape := r.Shape()
		records++
		if !verbose {
			continue
		}

		fmt.Fprintf(w, "  #%d %# v\n", n+1, pretty.Formatter(shape))
		for i, f := range fields {
			fmt.Fprintf(w, "    %s = %q\n", f.String(), strings.TrimSpace(r.ReadAttribute(n, i)))
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(w, "  records: %d\n", records)
	return nil
}
