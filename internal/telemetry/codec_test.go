// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
)

const sampleRowJSON = `{
  "position": {"lat": 39.9951, "lon": -89.9973},
  "heading": -87.5,
  "speed": 2.4,
  "master_on": true,
  "timestamp": "2026-04-21T14:03:11.25Z",
  "rows": [
    {"on": true, "values": {"singulation": 1, "downforce": 182.5, "ride_quality": 96, "yield": 3}},
    {"on": false}
  ]
}`

func TestDecode(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, 4, 21, 14, 3, 12, 0, time.UTC)
	row, err := Decode([]byte(sampleRowJSON), received)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if !row.Position.Equal(geo.GeoPoint{Lat: 39.9951, Lon: -89.9973}) {
		t.Errorf("Position = %v", row.Position)
	}
	if row.Heading != 272.5 {
		t.Errorf("Heading = %v, want 272.5", row.Heading)
	}
	if !row.MasterOn || row.Speed != 2.4 {
		t.Errorf("MasterOn = %v Speed = %v", row.MasterOn, row.Speed)
	}
	if want := time.Date(2026, 4, 21, 14, 3, 11, 250_000_000, time.UTC); !row.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", row.Timestamp, want)
	}
	if !row.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v", row.ReceivedAt, received)
	}
	if len(row.Rows) != 2 || !row.RowOn(0) || row.RowOn(1) || row.RowOn(2) {
		t.Fatalf("row states = %+v", row.Rows)
	}
	if v, ok := row.RowValue(0, canvas.Downforce); !ok || v != 182.5 {
		t.Errorf("downforce = %v, %v; want 182.5", v, ok)
	}
	if len(row.Rows[0].Values) != 3 {
		t.Errorf("values = %v, want the three tracked metrics only", row.Rows[0].Values)
	}
	if _, ok := row.RowValue(1, canvas.Singulation); ok {
		t.Error("row 1 reported a value it never sent")
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{name: "not json", payload: `not json`, want: ErrDecode},
		{name: "no position", payload: `{"heading": 10, "master_on": true}`, want: ErrMissingPosition},
		{name: "position without lon", payload: `{"position": {"lat": 40}}`, want: ErrMissingPosition},
		{name: "latitude out of range", payload: `{"position": {"lat": 95, "lon": 0}}`, want: ErrInvalidRow},
		{name: "negative speed", payload: `{"position": {"lat": 40, "lon": -90}, "speed": -1}`, want: ErrInvalidRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode([]byte(tt.payload), time.Now()); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeWithoutTimestampUsesReceiveTime(t *testing.T) {
	t.Parallel()

	received := time.Date(2026, 4, 21, 10, 0, 0, 0, time.UTC)
	row, err := Decode([]byte(`{"position": {"lat": 0, "lon": 0}}`), received)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !row.Timestamp.Equal(received) {
		t.Errorf("Timestamp = %v, want %v", row.Timestamp, received)
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	in := &Row{
		Position:  geo.GeoPoint{Lat: 40, Lon: -90},
		Heading:   45,
		Speed:     3,
		MasterOn:  true,
		Timestamp: time.Date(2026, 4, 21, 10, 0, 0, 0, time.UTC),
		Rows: []RowState{
			{On: true, Values: map[canvas.Metric]float64{canvas.RideQuality: 88}},
			{On: false},
		},
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out, err := Decode(data, time.Now())
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if !out.Position.Equal(in.Position) || out.Heading != in.Heading || !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if v, ok := out.RowValue(0, canvas.RideQuality); !ok || v != 88 {
		t.Errorf("ride quality = %v, %v; want 88", v, ok)
	}
}

func TestNormalizeHeading(t *testing.T) {
	t.Parallel()

	tests := map[float64]float64{0: 0, 359.5: 359.5, 360: 0, 450: 90, -90: 270, -720: 0}
	for in, want := range tests {
		if got := NormalizeHeading(in); got != want {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", in, got, want)
		}
	}
}
