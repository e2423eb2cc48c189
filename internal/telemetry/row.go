// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
)

// RowState is what one planter row reported in a sample.
type RowState struct {
	On     bool
	Values map[canvas.Metric]float64
}

// Value returns the reading for metric m, if the row reported one.
func (s RowState) Value(m canvas.Metric) (float64, bool) {
	v, ok := s.Values[m]
	return v, ok
}

// Row is one decoded telemetry sample. It is not modified after decoding.
type Row struct {
	// Sequence is the arrival order assigned by the Sequencer, starting at 1.
	Sequence uint64

	Position geo.GeoPoint

	// Heading is degrees clockwise from north in [0, 360).
	Heading float64

	// Speed is ground speed in meters per second.
	Speed float64

	MasterOn bool
	Rows     []RowState

	// Timestamp is the sample time reported by the implement. It is the
	// receive time when the implement sends none.
	Timestamp  time.Time
	ReceivedAt time.Time
}

// RowOn reports whether planter row i was engaged. Rows the sample did not
// describe count as off.
func (r *Row) RowOn(i int) bool {
	if i < 0 || i >= len(r.Rows) {
		return false
	}
	return r.Rows[i].On
}

// RowValue returns planter row i's reading for metric m.
func (r *Row) RowValue(i int, m canvas.Metric) (float64, bool) {
	if i < 0 || i >= len(r.Rows) {
		return 0, false
	}
	return r.Rows[i].Value(m)
}
