// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// GeoPoint is a WGS84 position in degrees.
//
//nolint:revive // GeoPoint reads better than geo.Point next to vec.Vec2 pixel points
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// Equal reports whether both coordinates match exactly.
func (p GeoPoint) Equal(o GeoPoint) bool {
	return p.Lat == o.Lat && p.Lon == o.Lon
}

// DistanceTo returns the haversine great-circle distance to o in meters.
func (p GeoPoint) DistanceTo(o GeoPoint) float64 {
	return Haversine(p.Lat, p.Lon, o.Lat, o.Lon)
}

// Degenerate reports whether the point sits on or beyond a pole, where the
// Mercator scale is zero.
func (p GeoPoint) Degenerate() bool {
	return math.Abs(p.Lat) >= 90 || math.IsNaN(p.Lat) || math.IsNaN(p.Lon)
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.7f, %.7f)", p.Lat, p.Lon)
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Bounds is an axis-aligned geographic rectangle.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// NorthWest returns the top-left corner.
func (b Bounds) NorthWest() GeoPoint { return GeoPoint{Lat: b.North, Lon: b.West} }

// SouthEast returns the bottom-right corner.
func (b Bounds) SouthEast() GeoPoint { return GeoPoint{Lat: b.South, Lon: b.East} }

// Intersects reports whether the two rectangles share a region of non-zero
// area. Rectangles that only touch along an edge do not intersect.
func (b Bounds) Intersects(o Bounds) bool {
	return b.West < o.East && o.West < b.East &&
		b.South < o.North && o.South < b.North
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat <= b.North && p.Lat >= b.South &&
		p.Lon >= b.West && p.Lon <= b.East
}
