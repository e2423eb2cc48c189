// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package field

import (
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/furrow/internal/geo"
)

func testBoundary(t *testing.T) Boundary {
	t.Helper()
	b, err := BoundaryFromBounds(40.0, 39.99, -89.99, -90.0)
	if err != nil {
		t.Fatalf("BoundaryFromBounds() error = %v", err)
	}
	return b
}

func TestNewFrame(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(testBoundary(t), ReferenceZoom)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}

	if got := frame.MetersPerPixel(); got != 0.1144 {
		t.Errorf("MetersPerPixel() = %v, want 0.1144", got)
	}
	if got := frame.PixelFor(frame.Origin()); got.X != 0 || got.Y != 0 {
		t.Errorf("PixelFor(origin) = %v, want (0, 0)", got)
	}

	size := frame.CanvasSize()
	se := frame.PixelFor(frame.Boundary().SouthEast)
	if math.Abs(se.X-float64(size.X)) > 1 || math.Abs(se.Y-float64(size.Y)) > 1 {
		t.Errorf("PixelFor(south east) = %v, want within 1px of canvas size %v", se, size)
	}
	if size.X < 7000 || size.Y < 9000 {
		t.Errorf("CanvasSize() = %v, want roughly 7446x9720", size)
	}
}

func TestNewFrameErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		boundary Boundary
		wantErr  error
	}{
		{
			name:     "zero area",
			boundary: Boundary{},
			wantErr:  ErrInvalidBoundary,
		},
		{
			name: "inverted latitude",
			boundary: Boundary{
				NorthWest: geo.GeoPoint{Lat: 39, Lon: -90},
				NorthEast: geo.GeoPoint{Lat: 39, Lon: -89},
				SouthEast: geo.GeoPoint{Lat: 40, Lon: -89},
				SouthWest: geo.GeoPoint{Lat: 40, Lon: -90},
			},
			wantErr: ErrInvalidBoundary,
		},
		{
			name: "pole",
			boundary: Boundary{
				NorthWest: geo.GeoPoint{Lat: 90, Lon: -90},
				NorthEast: geo.GeoPoint{Lat: 90, Lon: -89},
				SouthEast: geo.GeoPoint{Lat: 89, Lon: -89},
				SouthWest: geo.GeoPoint{Lat: 89, Lon: -90},
			},
			wantErr: ErrInvalidBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewFrame(tt.boundary, ReferenceZoom); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPixelForMonotonic(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(testBoundary(t), ReferenceZoom)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}

	base := geo.GeoPoint{Lat: 39.995, Lon: -89.995}
	p := frame.PixelFor(base)

	east := frame.PixelFor(geo.GeoPoint{Lat: base.Lat, Lon: base.Lon + 0.0001})
	if east.X <= p.X {
		t.Errorf("moving east: x %v -> %v, want increase", p.X, east.X)
	}
	if math.Abs(east.Y-p.Y) > 1e-9 {
		t.Errorf("moving east changed y: %v -> %v", p.Y, east.Y)
	}

	south := frame.PixelFor(geo.GeoPoint{Lat: base.Lat - 0.0001, Lon: base.Lon})
	if south.Y <= p.Y {
		t.Errorf("moving south: y %v -> %v, want increase", p.Y, south.Y)
	}

	// Outside the field the sign still tracks direction.
	west := frame.PixelFor(geo.GeoPoint{Lat: 40.0, Lon: -90.001})
	north := frame.PixelFor(geo.GeoPoint{Lat: 40.001, Lon: -90.0})
	if west.X >= 0 {
		t.Errorf("west of origin x = %v, want negative", west.X)
	}
	if north.Y >= 0 {
		t.Errorf("north of origin y = %v, want negative", north.Y)
	}
}

func TestPixelsForMeters(t *testing.T) {
	t.Parallel()

	frame, err := NewFrame(testBoundary(t), ReferenceZoom)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	got := frame.PixelsForMeters(27.432, frame.Origin())
	want := 27.432 / 0.1144
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PixelsForMeters(27.432) = %v, want %v", got, want)
	}
}
