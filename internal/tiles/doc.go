// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package tiles renders slippy-map tiles from the plotting canvas.
//
// The canvas is stored once at the reference zoom. A tile request at any
// other zoom crops the part of the canvas under the tile, rescales it with
// golang.org/x/image/draw and places it at the right offset inside a
// transparent TileSize x TileSize image. Tiles that do not overlap the field
// yield ErrNoTile so map clients can fall through to the base layer.
//
// Encoded tiles are kept in a Cache keyed by address and metric and stamped
// with the canvas layer version they were rendered from; a stale entry is a
// miss.
package tiles
