// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package simulator drives a virtual planter across the configured field
// and publishes the telemetry it would report. It plants the field in
// back-and-forth passes one implement width apart, lifts the planter for
// the headland turn between passes, and starts over once the field is
// covered.
//
// Readings are synthetic: occasional singulation skips and doubles at the
// configured rate, a slowly varying downforce pattern, and ride quality
// that drops with speed. A fixed seed makes a run reproducible.
package simulator
