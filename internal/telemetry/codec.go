// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/validation"
)

var (
	// ErrDecode is returned for payloads that are not a telemetry row.
	ErrDecode = errors.New("telemetry decode failed")

	// ErrMissingPosition is returned for rows without a position. Such rows
	// cannot be placed on the canvas and are dropped.
	ErrMissingPosition = errors.New("telemetry row has no position")

	// ErrInvalidRow is returned for rows with out-of-range fields.
	ErrInvalidRow = errors.New("telemetry row invalid")
)

type wirePoint struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type wireRowState struct {
	On     bool               `json:"on"`
	Values map[string]float64 `json:"values,omitempty"`
}

type wireRow struct {
	Position  *wirePoint     `json:"position"`
	Heading   float64        `json:"heading"`
	Speed     float64        `json:"speed" validate:"gte=0"`
	MasterOn  bool           `json:"master_on"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Rows      []wireRowState `json:"rows" validate:"max=256"`
}

// Decode parses and validates a JSON telemetry row. Value keys that are not
// tracked metrics are ignored.
func Decode(data []byte, receivedAt time.Time) (*Row, error) {
	var w wireRow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if w.Position == nil || w.Position.Lat == nil || w.Position.Lon == nil {
		return nil, ErrMissingPosition
	}
	if verr := validation.ValidateStruct(w); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRow, verr)
	}
	if math.IsNaN(w.Heading) || math.IsInf(w.Heading, 0) {
		return nil, fmt.Errorf("%w: heading is not finite", ErrInvalidRow)
	}

	row := &Row{
		Position:   geo.GeoPoint{Lat: *w.Position.Lat, Lon: *w.Position.Lon},
		Heading:    NormalizeHeading(w.Heading),
		Speed:      w.Speed,
		MasterOn:   w.MasterOn,
		Rows:       make([]RowState, len(w.Rows)),
		Timestamp:  receivedAt,
		ReceivedAt: receivedAt,
	}
	if w.Timestamp != nil {
		row.Timestamp = *w.Timestamp
	}

	for i, rs := range w.Rows {
		state := RowState{On: rs.On}
		if len(rs.Values) > 0 {
			state.Values = make(map[canvas.Metric]float64, len(rs.Values))
			for name, v := range rs.Values {
				m, err := canvas.ParseMetric(name)
				if err != nil || math.IsNaN(v) {
					continue
				}
				state.Values[m] = v
			}
		}
		row.Rows[i] = state
	}
	return row, nil
}

// Encode renders a row in the wire format Decode accepts.
func Encode(r *Row) ([]byte, error) {
	lat, lon := r.Position.Lat, r.Position.Lon
	w := wireRow{
		Position: &wirePoint{Lat: &lat, Lon: &lon},
		Heading:  r.Heading,
		Speed:    r.Speed,
		MasterOn: r.MasterOn,
		Rows:     make([]wireRowState, len(r.Rows)),
	}
	if !r.Timestamp.IsZero() {
		ts := r.Timestamp
		w.Timestamp = &ts
	}
	for i, rs := range r.Rows {
		ws := wireRowState{On: rs.On}
		if len(rs.Values) > 0 {
			ws.Values = make(map[string]float64, len(rs.Values))
			for m, v := range rs.Values {
				ws.Values[m.String()] = v
			}
		}
		w.Rows[i] = ws
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode telemetry row: %w", err)
	}
	return data, nil
}

// NormalizeHeading folds any finite heading into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}
