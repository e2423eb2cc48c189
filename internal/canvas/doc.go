// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package canvas holds the persistent raster layers of the as-applied map.
//
// A Canvas keeps one RGBA layer per Metric, all sized to the field frame at
// the reference zoom. Layers are stored in an array indexed by Metric, so the
// set of layers is fixed when the canvas is built.
//
// # Locking
//
// Each layer has its own RWMutex. PaintRowSegment takes the write lock of one
// layer, so writers to different metrics never contend. Snapshot and
// SnapshotRegion copy pixels under the read lock and hand back an image the
// caller owns. Reset takes a canvas-wide write lock first, which excludes
// every paint and snapshot on every layer until all layers are cleared. The
// canvas-wide lock is always taken before a layer lock.
//
// # Fill
//
// Quads are clipped to the canvas, rasterized into a coverage mask with
// golang.org/x/image/vector, and every pixel whose coverage reaches the
// threshold is replaced with the segment color. Edges are hard: adjacent
// rows meet without a blended seam and a later pass overwrites an earlier
// one.
package canvas
