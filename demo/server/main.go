package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	log "github.com/inconshreveable/log15"
	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	shpwrite "github.com/tingold/orb-shpwrite"
)

// maxBodySize caps uploaded GeoJSON documents.
const maxBodySize = 32 << 20

type City struct {
	Name       string
	Country    string
	Longitude  float64
	Latitude   float64
	Population int
	Capital    bool
}

var cities = []City{
	{"Tokyo", "Japan", 139.6917, 35.6895, 13960000, true},
	{"New York", "United States", -73.9857, 40.7484, 8336817, false},
	{"London", "United Kingdom", -0.1276, 51.5074, 8982000, true},
	{"Paris", "France", 2.3522, 48.8566, 2161000, true},
	{"Beijing", "China", 116.4074, 39.9042, 21540000, true},
	{"Moscow", "Russia", 37.6173, 55.7558, 12615000, true},
	{"São Paulo", "Brazil", -46.6333, -23.5505, 12300000, false},
	{"Mumbai", "India", 72.8777, 19.0760, 12400000, false},
	{"Los Angeles", "United States", -118.2437, 34.0522, 3971883, false},
	{"Shanghai", "China", 121.4737, 31.2304, 24870000, false},
	{"Istanbul", "Turkey", 28.9784, 41.0082, 15520000, false},
	{"Buenos Aires", "Argentina", -58.3816, -34.6037, 3075646, true},
	{"Cairo", "Egypt", 31.2357, 30.0444, 10230000, true},
	{"Sydney", "Australia", 151.2093, -33.8688, 5312000, false},
	{"Berlin", "Germany", 13.4050, 52.5200, 3669491, true},
}

// sampleArchive exports the cities as a zipped point shapefile.
func sampleArchive(logger log.Logger) ([]byte, error) {
	fc := orbjson.NewFeatureCollection()
	for _, city := range cities {
		f := orbjson.NewFeature(orb.Point{city.Longitude, city.Latitude})
		f.Properties = orbjson.Properties{
			"name":       city.Name,
			"country":    city.Country,
			"population": city.Population,
			"capital":    city.Capital,
		}
		fc.Append(f)
	}

	var buf bytes.Buffer
	opts := &shpwrite.Options{
		Name:     "world_cities",
		Encoding: shpwrite.EncodingLatin1,
		Logger:   logger,
	}
	if err := shpwrite.WriteOrbFeatures(&buf, fc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeArchive(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// newHandler serves the sample archive and exports POSTed GeoJSON bodies of
// at most limit bytes.
func newHandler(sample []byte, limit int64, logger log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/sample.zip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeArchive(w, "world_cities.zip", sample)
	})

	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}
		fc, err := geojson.UnmarshalFeatureCollection(body)
		if err != nil {
			http.Error(w, "invalid GeoJSON: "+err.Error(), http.StatusBadRequest)
			return
		}

		opts := &shpwrite.Options{Name: r.URL.Query().Get("name"), Logger: logger}
		var buf bytes.Buffer
		if err := shpwrite.WriteFeatures(&buf, fc, opts); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, shpwrite.ErrNoFeatures) || errors.Is(err, shpwrite.ErrInvalidCoordinate) || errors.Is(err, shpwrite.ErrEmptyGeometry) {
				status = http.StatusUnprocessableEntity
			}
			logger.Warn("export failed", "err", err)
			http.Error(w, err.Error(), status)
			return
		}

		logger.Info("exported", "name", opts.ArchiveName(), "features", len(fc.Features), "bytes", buf.Len())
		writeArchive(w, opts.ArchiveName(), buf.Bytes())
	})

	return mux
}

func main() {
	logger := log.New("module", "demo")
	logger.SetHandler(log.StreamHandler(os.Stderr, log.LogfmtFormat()))

	sample, err := sampleArchive(logger)
	if err != nil {
		logger.Crit("Failed to create sample archive", "err", err)
		os.Exit(1)
	}

	logger.Info("Server starting on http://localhost:8080")
	if err := http.ListenAndServe(":8080", newHandler(sample, maxBodySize, logger)); err != nil {
		logger.Crit("server stopped", "err", err)
		os.Exit(1)
	}
}
