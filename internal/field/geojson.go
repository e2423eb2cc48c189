// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package field

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadBoundaryFile reads a GeoJSON document from disk and returns the
// envelope of everything in it.
func LoadBoundaryFile(path string) (Boundary, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return Boundary{}, fmt.Errorf("open field boundary: %w", err)
	}
	defer f.Close()

	return LoadBoundaryGeoJSON(f)
}

// LoadBoundaryGeoJSON accepts a FeatureCollection, a single Feature or a
// bare geometry and returns the envelope of all geometries it contains.
func LoadBoundaryGeoJSON(r io.Reader) (Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Boundary{}, fmt.Errorf("read field boundary: %w", err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Boundary{}, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return Boundary{}, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
		}
		for _, feature := range fc.Features {
			geoms = append(geoms, feature.Geometry)
		}
	case "Feature":
		feature, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return Boundary{}, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
		}
		geoms = append(geoms, feature.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return Boundary{}, fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
		}
		geoms = append(geoms, g.Geometry())
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if !found {
			bound = g.Bound()
			found = true
			continue
		}
		bound = bound.Union(g.Bound())
	}
	if !found {
		return Boundary{}, fmt.Errorf("%w: document contains no geometry", ErrInvalidBoundary)
	}

	return BoundaryFromBounds(bound.Top(), bound.Bottom(), bound.Right(), bound.Left())
}
