// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package engine

import (
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/tiles"
)

// FieldInfo describes the field a session maps.
type FieldInfo struct {
	Boundary       field.Boundary `json:"boundary"`
	Bounds         geo.Bounds     `json:"bounds"`
	Zoom           int            `json:"zoom"`
	MetersPerPixel float64        `json:"meters_per_pixel"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
}

func fieldInfo(f *field.Frame) FieldInfo {
	size := f.CanvasSize()
	return FieldInfo{
		Boundary:       f.Boundary(),
		Bounds:         f.Bounds(),
		Zoom:           f.Zoom(),
		MetersPerPixel: f.MetersPerPixel(),
		Width:          size.X,
		Height:         size.Y,
	}
}

// Status is a point-in-time view of the session.
type Status struct {
	Field        FieldInfo         `json:"field"`
	ActiveMetric canvas.Metric     `json:"active_metric"`
	RowsReceived uint64            `json:"rows_received"`
	RowsPlotted  uint64            `json:"rows_plotted"`
	StripRows    uint64            `json:"strip_rows"`
	Resets       uint64            `json:"resets"`
	FieldChanges uint64            `json:"field_changes"`
	LastPosition *geo.GeoPoint     `json:"last_position,omitempty"`
	LastRowAt    *time.Time        `json:"last_row_at,omitempty"`
	Trail        []geo.GeoPoint    `json:"trail"`
	Versions     map[string]uint64 `json:"layer_versions"`
	Tiles        tiles.Stats       `json:"tiles"`
	CachedTiles  int               `json:"cached_tiles"`
}

// Status reports counters and the recent track.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.current

	st := Status{
		Field:        fieldInfo(s.frame),
		ActiveMetric: e.ActiveMetric(),
		RowsReceived: e.rowsReceived.Load(),
		RowsPlotted:  e.rowsPlotted.Load(),
		StripRows:    s.seq.Count(),
		Resets:       e.resets.Load(),
		FieldChanges: e.switches.Load(),
		Versions:     make(map[string]uint64, canvas.MetricCount),
		Tiles:        s.synth.Stats(),
		CachedTiles:  e.cache.Len(),
	}
	if r := e.lastRow.Load(); r != nil {
		pos, at := r.Position, r.ReceivedAt
		st.LastPosition, st.LastRowAt = &pos, &at
	}
	recent := s.seq.Recent()
	st.Trail = make([]geo.GeoPoint, len(recent))
	for i, r := range recent {
		st.Trail[i] = r.Position
	}
	for _, m := range canvas.Metrics() {
		st.Versions[m.String()] = s.canvas.Version(m)
	}
	return st
}
