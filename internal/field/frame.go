// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package field

import (
	"fmt"
	"image"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/tomtom215/furrow/internal/geo"
)

// ReferenceZoom is the zoom level at which the canvas is stored.
const ReferenceZoom = 20

// Frame maps geographic positions onto the canvas pixel grid of one field.
// A Frame is immutable; a field switch builds a new one.
type Frame struct {
	boundary       Boundary
	zoom           int
	metersPerPixel float64
	size           image.Point
}

// NewFrame derives the canvas grid for a boundary at the given zoom.
func NewFrame(boundary Boundary, zoom int) (*Frame, error) {
	if err := boundary.Validate(); err != nil {
		return nil, err
	}

	mpp, err := geo.MetersPerPixel(boundary.NorthWest.Lat, zoom)
	if err != nil {
		return nil, fmt.Errorf("field frame: %w", err)
	}

	width := boundary.NorthWest.DistanceTo(boundary.NorthEast) / mpp
	height := boundary.NorthWest.DistanceTo(boundary.SouthWest) / mpp

	return &Frame{
		boundary:       boundary,
		zoom:           zoom,
		metersPerPixel: mpp,
		size: image.Point{
			X: max(1, int(math.Ceil(width))),
			Y: max(1, int(math.Ceil(height))),
		},
	}, nil
}

// Boundary returns the field boundary the frame was built from.
func (f *Frame) Boundary() Boundary { return f.boundary }

// Bounds returns the geographic rectangle of the field.
func (f *Frame) Bounds() geo.Bounds { return f.boundary.Bounds() }

// Origin returns the geographic position of pixel (0, 0).
func (f *Frame) Origin() geo.GeoPoint { return f.boundary.NorthWest }

// Zoom returns the reference zoom of the canvas grid.
func (f *Frame) Zoom() int { return f.zoom }

// MetersPerPixel returns the ground size of one canvas pixel.
func (f *Frame) MetersPerPixel() float64 { return f.metersPerPixel }

// CanvasSize returns the canvas dimensions in pixels.
func (f *Frame) CanvasSize() image.Point { return f.size }

// PixelFor returns the canvas position of p. Points west or north of the
// origin get negative coordinates.
func (f *Frame) PixelFor(p geo.GeoPoint) vec.Vec2 {
	origin := f.boundary.NorthWest

	dx := origin.DistanceTo(geo.GeoPoint{Lat: origin.Lat, Lon: p.Lon}) / f.metersPerPixel
	dy := origin.DistanceTo(geo.GeoPoint{Lat: p.Lat, Lon: origin.Lon}) / f.metersPerPixel
	if p.Lon < origin.Lon {
		dx = -dx
	}
	if p.Lat > origin.Lat {
		dy = -dy
	}
	return vec.Vec2{X: dx, Y: dy}
}

// PixelsForMeters converts a ground distance to canvas pixels. The canvas
// has a single scale so the position is not consulted.
func (f *Frame) PixelsForMeters(meters float64, _ geo.GeoPoint) float64 {
	return meters / f.metersPerPixel
}
