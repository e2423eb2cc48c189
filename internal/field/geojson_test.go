// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package field

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "north"},
     "geometry": {"type": "Polygon", "coordinates": [[[-90.0, 40.0], [-89.995, 40.0], [-89.995, 39.995], [-90.0, 39.995], [-90.0, 40.0]]]}},
    {"type": "Feature", "properties": {"name": "south"},
     "geometry": {"type": "Polygon", "coordinates": [[[-89.998, 39.995], [-89.99, 39.995], [-89.99, 39.99], [-89.998, 39.99], [-89.998, 39.995]]]}}
  ]
}`

func TestLoadBoundaryGeoJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "feature collection", doc: featureCollection},
		{
			name: "feature",
			doc: `{"type": "Feature", "properties": {},
			  "geometry": {"type": "Polygon", "coordinates": [[[-90.0, 40.0], [-89.99, 40.0], [-89.99, 39.99], [-90.0, 39.99], [-90.0, 40.0]]]}}`,
		},
		{
			name: "bare geometry",
			doc:  `{"type": "MultiPoint", "coordinates": [[-90.0, 40.0], [-89.99, 39.99]]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := LoadBoundaryGeoJSON(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatalf("LoadBoundaryGeoJSON() error = %v", err)
			}
			bounds := b.Bounds()
			if bounds.North != 40.0 || bounds.South != 39.99 || bounds.East != -89.99 || bounds.West != -90.0 {
				t.Errorf("bounds = %+v, want N40 S39.99 E-89.99 W-90", bounds)
			}
		})
	}
}

func TestLoadBoundaryGeoJSONErrors(t *testing.T) {
	t.Parallel()

	docs := map[string]string{
		"not json":         `{{`,
		"empty collection": `{"type": "FeatureCollection", "features": []}`,
		"single point":     `{"type": "Point", "coordinates": [-90.0, 40.0]}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadBoundaryGeoJSON(strings.NewReader(doc)); !errors.Is(err, ErrInvalidBoundary) {
				t.Errorf("LoadBoundaryGeoJSON() error = %v, want ErrInvalidBoundary", err)
			}
		})
	}
}

func TestLoadBoundaryFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "field.geojson")
	if err := os.WriteFile(path, []byte(featureCollection), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadBoundaryFile(path); err != nil {
		t.Errorf("LoadBoundaryFile() error = %v", err)
	}
	if _, err := LoadBoundaryFile(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Error("LoadBoundaryFile(missing) error = nil, want error")
	}
}
