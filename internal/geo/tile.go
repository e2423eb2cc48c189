// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package geo

import (
	"fmt"
	"math"
)

// TileAddress identifies a slippy-map tile.
type TileAddress struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"z"`
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.X, a.Y)
}

// Valid reports whether the address names a tile that exists.
func (a TileAddress) Valid() bool {
	if a.Zoom < 0 || a.Zoom > MaxZoom {
		return false
	}
	n := 1 << a.Zoom
	return a.X >= 0 && a.X < n && a.Y >= 0 && a.Y < n
}

// TileAddressFor returns the tile containing p at the given zoom.
func TileAddressFor(p GeoPoint, zoom int) TileAddress {
	world := ProjectToZoom(p, zoom)
	return TileAddress{
		X:    int(math.Floor(world.X / TileSize)),
		Y:    int(math.Floor(world.Y / TileSize)),
		Zoom: zoom,
	}
}

// TileTopLeftCorner returns the north-west corner of tile (x, y) at zoom.
func TileTopLeftCorner(x, y, zoom int) GeoPoint {
	n := math.Exp2(float64(zoom))
	return GeoPoint{
		Lat: math.Atan(math.Sinh(math.Pi-float64(y)/n*2*math.Pi)) * 180 / math.Pi,
		Lon: float64(x)/n*360 - 180,
	}
}

// TileBoundsFor returns the geographic rectangle covered by a tile.
func TileBoundsFor(a TileAddress) Bounds {
	nw := TileTopLeftCorner(a.X, a.Y, a.Zoom)
	se := TileTopLeftCorner(a.X+1, a.Y+1, a.Zoom)
	return Bounds{North: nw.Lat, South: se.Lat, East: se.Lon, West: nw.Lon}
}

// TilePixel returns the position of p in the pixel space of tile a, where
// (0, 0) is the tile's top-left corner and (TileSize, TileSize) its
// bottom-right corner.
func TilePixel(a TileAddress, p GeoPoint) (x, y float64) {
	world := ProjectToZoom(p, a.Zoom)
	return world.X - float64(a.X*TileSize), world.Y - float64(a.Y*TileSize)
}
