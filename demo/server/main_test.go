package main

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	log "github.com/inconshreveable/log15"
)

func testHandler(t *testing.T, limit int64) http.Handler {
	t.Helper()

	logger := log.New()
	logger.SetHandler(log.DiscardHandler())

	sample, err := sampleArchive(logger)
	if err != nil {
		t.Fatalf("sampleArchive failed: %v", err)
	}
	return newHandler(sample, limit, logger)
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestSample(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(t, maxBodySize).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sample.zip", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="world_cities.zip"` {
		t.Errorf("unexpected content disposition %q", cd)
	}

	names := zipNames(t, rec.Body.Bytes())
	if len(names) != 5 || names[0] != "world_cities.shp" {
		t.Errorf("unexpected entries %v", names)
	}
}

func TestExport(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{"name":"a"}}
	]}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/export?name=roads", strings.NewReader(body))
	testHandler(t, maxBodySize).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="roads.zip"` {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if names := zipNames(t, rec.Body.Bytes()); len(names) != 5 || names[0] != "roads.shp" {
		t.Errorf("unexpected entries %v", names)
	}
}

func TestExport_Errors(t *testing.T) {
	h := testHandler(t, maxBodySize)

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"no features", http.MethodPost, `{"type":"FeatureCollection","features":[]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/export", strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestExport_TooLarge(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"name":"a"}}
	]}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(body))
	testHandler(t, 16).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}
