// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package engine

import (
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
)

// Event types sent to a Notifier.
const (
	EventRowPlotted    = "row_plotted"
	EventCanvasReset   = "canvas_reset"
	EventMetricChanged = "metric_changed"
	EventFieldChanged  = "field_changed"
)

// Event is a session change the live view may want to show.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier receives session events. Notify must not block.
type Notifier interface {
	Notify(ev Event)
}

// RowPlotted describes a painted transition.
type RowPlotted struct {
	Sequence uint64       `json:"sequence"`
	Position geo.GeoPoint `json:"position"`
	Heading  float64      `json:"heading"`
	Speed    float64      `json:"speed"`
	RowsOn   int          `json:"rows_on"`
}

// MetricChanged carries the new display metric.
type MetricChanged struct {
	Metric canvas.Metric `json:"metric"`
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
