// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package plotter turns row transitions into painted canvas segments.
//
// For every pair of consecutive telemetry rows the Rasterizer builds one
// quad per engaged planter row. The quad spans the planter row's slice of
// the implement width at both samples, each edge rotated about its own
// sample by that sample's heading:
//
//	offset(i)  = -width/2 + i*width/rowCount
//	corner     = R(heading) * (sample + (offset, 0) - sample) + sample
//	quad(i)    = [cur+off(i), cur+off(i+1), next+off(i+1), next+off(i)]
//
// R is the clockwise rotation in y-down pixel space, so heading 0 travels
// toward negative y.
//
// # Layers
//
// The active metric is painted before OnRow returns. Every other metric is
// painted by its replay worker: one goroutine per metric with an unbounded
// FIFO, so a layer is written by exactly one goroutine in arrival order and
// queuing never blocks the caller. Synchronous paints go through the same
// worker, which keeps a metric that just became active from overtaking its
// own backlog.
package plotter
