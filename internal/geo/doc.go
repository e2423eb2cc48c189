// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package geo implements the Web Mercator math shared by the field frame and
// the tile synthesizer.
//
// Everything here is a pure function over value types. Tiles are addressed
// with the usual slippy-map (x, y, zoom) scheme and rendered at TileSize
// pixels per side, so world pixel coordinates at zoom 0 span [0, TileSize).
//
// # Conventions
//
//   - Latitude and longitude are WGS84 degrees.
//   - Pixel y grows southward, pixel x grows eastward.
//   - Headings are degrees clockwise from north.
//
// The only error this package produces is ErrDegenerateProjection, returned
// when a latitude sits on or beyond a pole and the Mercator scale collapses.
package geo
