// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package geo

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"
)

const (
	// TileSize is the edge length in pixels of every synthesized tile.
	TileSize = 512

	// MaxZoom is the deepest zoom level accepted for tile addresses.
	MaxZoom = 24

	// equatorMetersPerPixel is the ground resolution at zoom 0 on the equator.
	equatorMetersPerPixel = 156543.03392

	// sinLatLimit keeps the Mercator y finite near the poles.
	sinLatLimit = 0.9999
)

// ErrDegenerateProjection is returned when the Mercator scale collapses to
// zero, which happens at or beyond the poles.
var ErrDegenerateProjection = errors.New("degenerate projection")

// MetersPerPixel returns the ground resolution at the given latitude and zoom,
// rounded to four decimal places.
func MetersPerPixel(lat float64, zoom int) (float64, error) {
	if math.Abs(lat) >= 90 || math.IsNaN(lat) {
		return 0, fmt.Errorf("%w: latitude %.6f", ErrDegenerateProjection, lat)
	}

	mpp := equatorMetersPerPixel * math.Cos(lat*math.Pi/180) / math.Exp2(float64(zoom))
	mpp = math.Round(mpp*1e4) / 1e4
	if mpp <= 0 {
		return 0, fmt.Errorf("%w: resolution rounds to zero at latitude %.6f zoom %d",
			ErrDegenerateProjection, lat, zoom)
	}
	return mpp, nil
}

// ProjectToTileSpace returns the world pixel coordinate of p at zoom 0.
func ProjectToTileSpace(p GeoPoint) vec.Vec2 {
	siny := math.Sin(p.Lat * math.Pi / 180)
	siny = math.Min(math.Max(siny, -sinLatLimit), sinLatLimit)

	return vec.Vec2{
		X: TileSize * (0.5 + p.Lon/360),
		Y: TileSize * (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)),
	}
}

// ProjectToZoom returns the world pixel coordinate of p at the given zoom.
func ProjectToZoom(p GeoPoint, zoom int) vec.Vec2 {
	return ProjectToTileSpace(p).Mul(math.Exp2(float64(zoom)))
}
