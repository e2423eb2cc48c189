// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package geo

import (
	"errors"
	"math"
	"testing"
)

func TestMetersPerPixel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lat     float64
		zoom    int
		want    float64
		wantErr bool
	}{
		{name: "equator zoom 0", lat: 0, zoom: 0, want: 156543.0339},
		{name: "latitude 40 zoom 20", lat: 40, zoom: 20, want: 0.1144},
		{name: "southern hemisphere is symmetric", lat: -40, zoom: 20, want: 0.1144},
		{name: "north pole", lat: 90, zoom: 20, wantErr: true},
		{name: "beyond south pole", lat: -91, zoom: 3, wantErr: true},
		{name: "rounds to zero near pole", lat: 89.9999999, zoom: 22, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := MetersPerPixel(tt.lat, tt.zoom)
			if tt.wantErr {
				if !errors.Is(err, ErrDegenerateProjection) {
					t.Fatalf("MetersPerPixel(%v, %d) error = %v, want ErrDegenerateProjection", tt.lat, tt.zoom, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MetersPerPixel(%v, %d) unexpected error: %v", tt.lat, tt.zoom, err)
			}
			if got != tt.want {
				t.Errorf("MetersPerPixel(%v, %d) = %v, want %v", tt.lat, tt.zoom, got, tt.want)
			}
		})
	}
}

func TestProjectToTileSpace(t *testing.T) {
	t.Parallel()

	origin := ProjectToTileSpace(GeoPoint{Lat: 0, Lon: 0})
	if origin.X != TileSize/2 || math.Abs(origin.Y-TileSize/2) > 1e-9 {
		t.Errorf("ProjectToTileSpace(0,0) = %v, want (%d, %d)", origin, TileSize/2, TileSize/2)
	}

	// Latitudes past the clamp all land on the same row.
	a := ProjectToTileSpace(GeoPoint{Lat: 89.5, Lon: 0})
	b := ProjectToTileSpace(GeoPoint{Lat: 89.9, Lon: 0})
	if a.Y != b.Y {
		t.Errorf("clamped latitudes differ: %v vs %v", a.Y, b.Y)
	}
	if a.Y < 0 {
		t.Errorf("clamped y = %v, want >= 0", a.Y)
	}
}

func TestTileAddressRoundTrip(t *testing.T) {
	t.Parallel()

	points := []GeoPoint{
		{Lat: 40.0, Lon: -90.0},
		{Lat: 39.99512, Lon: -89.99731},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 52.52, Lon: 13.405},
		{Lat: 0.0001, Lon: -0.0001},
		{Lat: 64.1466, Lon: -21.9426},
	}

	for _, p := range points {
		for zoom := 10; zoom <= 22; zoom++ {
			addr := TileAddressFor(p, zoom)
			if !addr.Valid() {
				t.Fatalf("TileAddressFor(%v, %d) = %v, not a valid address", p, zoom, addr)
			}

			nw := TileTopLeftCorner(addr.X, addr.Y, zoom)
			se := TileTopLeftCorner(addr.X+1, addr.Y+1, zoom)

			if p.Lat > nw.Lat+1e-9 || p.Lat < se.Lat-1e-9 {
				t.Errorf("zoom %d: lat %v outside tile rows [%v, %v]", zoom, p.Lat, se.Lat, nw.Lat)
			}
			if p.Lon < nw.Lon-1e-9 || p.Lon > se.Lon+1e-9 {
				t.Errorf("zoom %d: lon %v outside tile columns [%v, %v]", zoom, p.Lon, nw.Lon, se.Lon)
			}
		}
	}
}

func TestTileBoundsFor(t *testing.T) {
	t.Parallel()

	b := TileBoundsFor(TileAddress{X: 0, Y: 0, Zoom: 0})
	if b.West != -180 || b.East != 180 {
		t.Errorf("zoom 0 longitude span = [%v, %v], want [-180, 180]", b.West, b.East)
	}
	if math.Abs(b.North-85.0511287798) > 1e-6 || math.Abs(b.South+85.0511287798) > 1e-6 {
		t.Errorf("zoom 0 latitude span = [%v, %v], want +/-85.0511", b.South, b.North)
	}
}

func TestTilePixel(t *testing.T) {
	t.Parallel()

	addr := TileAddress{X: 3, Y: 5, Zoom: 4}
	nw := TileTopLeftCorner(addr.X, addr.Y, addr.Zoom)
	se := TileTopLeftCorner(addr.X+1, addr.Y+1, addr.Zoom)

	x, y := TilePixel(addr, nw)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("TilePixel(nw) = (%v, %v), want (0, 0)", x, y)
	}
	x, y = TilePixel(addr, se)
	if math.Abs(x-TileSize) > 1e-6 || math.Abs(y-TileSize) > 1e-6 {
		t.Errorf("TilePixel(se) = (%v, %v), want (%d, %d)", x, y, TileSize, TileSize)
	}
}

func TestTileAddressValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr TileAddress
		want bool
	}{
		{TileAddress{X: 0, Y: 0, Zoom: 0}, true},
		{TileAddress{X: 1, Y: 0, Zoom: 0}, false},
		{TileAddress{X: 1023, Y: 1023, Zoom: 10}, true},
		{TileAddress{X: 1024, Y: 0, Zoom: 10}, false},
		{TileAddress{X: -1, Y: 0, Zoom: 10}, false},
		{TileAddress{X: 0, Y: 0, Zoom: MaxZoom + 1}, false},
		{TileAddress{X: 0, Y: 0, Zoom: -1}, false},
	}
	for _, tt := range tests {
		if got := tt.addr.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	t.Parallel()

	// One degree of latitude is about 111.195 km on a 6371 km sphere.
	d := Haversine(40, -90, 41, -90)
	if math.Abs(d-111194.93) > 1 {
		t.Errorf("Haversine one degree latitude = %v, want ~111194.93", d)
	}
	if got := (GeoPoint{Lat: 10, Lon: 10}).DistanceTo(GeoPoint{Lat: 10, Lon: 10}); got != 0 {
		t.Errorf("distance to self = %v, want 0", got)
	}
}

func TestBoundsIntersects(t *testing.T) {
	t.Parallel()

	field := Bounds{North: 40, South: 39.99, East: -89.99, West: -90}
	tests := []struct {
		name  string
		other Bounds
		want  bool
	}{
		{"contains", Bounds{North: 41, South: 39, East: -89, West: -91}, true},
		{"overlaps corner", Bounds{North: 40.5, South: 39.995, East: -89.5, West: -89.995}, true},
		{"touches east edge", Bounds{North: 40, South: 39.99, East: -89.98, West: -89.99}, false},
		{"disjoint north", Bounds{North: 41, South: 40.5, East: -89.99, West: -90}, false},
	}
	for _, tt := range tests {
		if got := field.Intersects(tt.other); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}
