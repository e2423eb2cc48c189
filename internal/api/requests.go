// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/validation"
)

// maxBodyBytes bounds request bodies. A field boundary GeoJSON with a
// detailed polygon fits comfortably.
const maxBodyBytes = 1 << 20

// MetricRequest selects the display metric.
type MetricRequest struct {
	Metric string `json:"metric" validate:"required,metric"`
}

// FieldRequest is a field boundary given by its edges in degrees.
type FieldRequest struct {
	North float64 `json:"north" validate:"gte=-85.05112878,lte=85.05112878,gtfield=South"`
	South float64 `json:"south" validate:"gte=-85.05112878,lte=85.05112878"`
	East  float64 `json:"east" validate:"gte=-180,lte=180,gtfield=West"`
	West  float64 `json:"west" validate:"gte=-180,lte=180"`
}

// Boundary converts the request to a field boundary.
func (f FieldRequest) Boundary() (field.Boundary, error) {
	return field.BoundaryFromBounds(f.North, f.South, f.East, f.West)
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (*validation.RequestValidationError, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr, nil
	}
	return nil, nil
}
