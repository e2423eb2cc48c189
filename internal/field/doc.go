// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package field anchors the plotting canvas to the ground.
//
// A Boundary is the axis-aligned envelope of a field. A Frame derives the
// canvas pixel grid from a boundary at a fixed reference zoom: the north-west
// corner is pixel (0, 0), x grows eastward, y grows southward, and one pixel
// covers MetersPerPixel meters of ground at the north-west latitude.
//
// PixelFor measures the east-west and north-south great-circle distances from
// the origin independently. Over the extent of a single field this locally
// flat approximation stays well below a pixel of error at zoom 20.
//
// Boundaries can be built from four configured edges or loaded from a GeoJSON
// document with LoadBoundaryGeoJSON.
package field
