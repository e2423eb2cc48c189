// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package metrics defines the Prometheus collectors of the plotting pipeline.
//
// Collectors belong to a Metrics value registered on a caller-supplied
// registerer, so every engine, test and field switch can own its counters.
// All Record methods are safe on a nil *Metrics and do nothing, which keeps
// instrumentation optional for library callers.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.RecordTileRequest(metrics.TileResultHit)
package metrics
