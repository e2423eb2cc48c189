// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/furrow/internal/geo"
)

// ErrInvalidBoundary is returned for boundaries with zero area, inverted
// edges or coordinates outside WGS84 range.
var ErrInvalidBoundary = errors.New("invalid field boundary")

// Boundary is the rectangular envelope of a field.
type Boundary struct {
	NorthWest geo.GeoPoint `json:"north_west"`
	NorthEast geo.GeoPoint `json:"north_east"`
	SouthEast geo.GeoPoint `json:"south_east"`
	SouthWest geo.GeoPoint `json:"south_west"`
}

// BoundaryFromBounds builds a boundary from its four edges.
func BoundaryFromBounds(north, south, east, west float64) (Boundary, error) {
	b := Boundary{
		NorthWest: geo.GeoPoint{Lat: north, Lon: west},
		NorthEast: geo.GeoPoint{Lat: north, Lon: east},
		SouthEast: geo.GeoPoint{Lat: south, Lon: east},
		SouthWest: geo.GeoPoint{Lat: south, Lon: west},
	}
	if err := b.Validate(); err != nil {
		return Boundary{}, err
	}
	return b, nil
}

// Bounds returns the geographic rectangle of the boundary.
func (b Boundary) Bounds() geo.Bounds {
	return geo.Bounds{
		North: b.NorthWest.Lat,
		South: b.SouthWest.Lat,
		East:  b.NorthEast.Lon,
		West:  b.NorthWest.Lon,
	}
}

// Validate checks the rectangle invariants.
func (b Boundary) Validate() error {
	for _, p := range []geo.GeoPoint{b.NorthWest, b.NorthEast, b.SouthEast, b.SouthWest} {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.Abs(p.Lat) >= 90 || math.Abs(p.Lon) > 180 {
			return fmt.Errorf("%w: corner %s out of range", ErrInvalidBoundary, p)
		}
	}
	if b.NorthWest.Lat != b.NorthEast.Lat || b.SouthWest.Lat != b.SouthEast.Lat ||
		b.NorthWest.Lon != b.SouthWest.Lon || b.NorthEast.Lon != b.SouthEast.Lon {
		return fmt.Errorf("%w: corners do not form an axis-aligned rectangle", ErrInvalidBoundary)
	}

	bounds := b.Bounds()
	if bounds.North <= bounds.South {
		return fmt.Errorf("%w: north %.7f must be greater than south %.7f", ErrInvalidBoundary, bounds.North, bounds.South)
	}
	if bounds.East <= bounds.West {
		// Fields spanning the antimeridian land here too.
		return fmt.Errorf("%w: east %.7f must be greater than west %.7f", ErrInvalidBoundary, bounds.East, bounds.West)
	}
	return nil
}

// Center returns the midpoint of the rectangle.
func (b Boundary) Center() geo.GeoPoint {
	bounds := b.Bounds()
	return geo.GeoPoint{
		Lat: (bounds.North + bounds.South) / 2,
		Lon: (bounds.East + bounds.West) / 2,
	}
}
