// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package validation

import (
	"strings"
	"testing"
)

type point struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type request struct {
	Metric   string  `json:"metric" validate:"required,metric"`
	Position *point  `json:"position" validate:"required"`
	Speed    float64 `json:"speed" validate:"gte=0"`
}

func ptr(v float64) *float64 { return &v }

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        request
		wantFields []string
	}{
		{
			name: "valid",
			req:  request{Metric: "downforce", Position: &point{Lat: ptr(40), Lon: ptr(-90)}},
		},
		{
			name:       "unknown metric",
			req:        request{Metric: "yield", Position: &point{Lat: ptr(40), Lon: ptr(-90)}},
			wantFields: []string{"metric"},
		},
		{
			name:       "missing position",
			req:        request{Metric: "singulation"},
			wantFields: []string{"position"},
		},
		{
			name:       "latitude out of range and negative speed",
			req:        request{Metric: "ride_quality", Position: &point{Lat: ptr(91), Lon: ptr(0)}, Speed: -1},
			wantFields: []string{"position.lat", "speed"},
		},
		{
			name:       "missing longitude",
			req:        request{Metric: "ride_quality", Position: &point{Lat: ptr(0)}},
			wantFields: []string{"position.lon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(tt.req)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("ValidateStruct() = nil, want errors on %v", tt.wantFields)
			}
			got := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				got[i] = f.Field
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("failed fields = %v, want %v (%v)", got, tt.wantFields, verr)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	t.Parallel()

	verr := ValidateStruct(request{Metric: "yield", Position: &point{Lat: ptr(0), Lon: ptr(0)}, Speed: -2})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil, want errors")
	}
	msg := verr.Error()
	for _, want := range []string{"metric must be a tracked metric name", "speed must be greater than or equal to 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned distinct instances")
	}
}
