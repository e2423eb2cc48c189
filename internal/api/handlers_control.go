// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/engine"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
)

// MetricResponse reports the display metric.
type MetricResponse struct {
	Metric    canvas.Metric   `json:"metric"`
	Available []canvas.Metric `json:"available"`
}

// SessionResponse is engine status plus process uptime.
type SessionResponse struct {
	engine.Status
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (rt *Router) metricResponse() MetricResponse {
	return MetricResponse{Metric: rt.session.ActiveMetric(), Available: canvas.Metrics()}
}

// GetMetric reports the display metric.
func (rt *Router) GetMetric(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, rt.metricResponse())
}

// PutMetric changes the display metric. Later rows paint it synchronously
// and "active" tile requests resolve to it.
func (rt *Router) PutMetric(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req MetricRequest
	verr, err := decodeJSON(w, r, &req)
	if err != nil {
		rw.BadRequest(ErrCodeBadRequest, err.Error())
		return
	}
	if verr != nil {
		rw.ValidationError("Invalid metric request", verr.Fields)
		return
	}

	m, err := canvas.ParseMetric(req.Metric)
	if err != nil {
		rw.BadRequest(ErrCodeUnknownMetric, err.Error())
		return
	}
	if err := rt.session.SetActiveMetric(m); err != nil {
		rw.InternalError("Failed to change display metric", err)
		return
	}
	rw.Success(rt.metricResponse())
}

// PostReset clears every layer and the pending row.
func (rt *Router) PostReset(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := rt.session.Reset(); err != nil {
		if errors.Is(err, engine.ErrClosed) {
			rw.ServiceUnavailable("Engine is shutting down", nil)
			return
		}
		rw.InternalError("Failed to reset canvas", err)
		return
	}
	rw.Success(map[string]any{"reset": true, "at": time.Now().UTC()})
}

// GetField reports the mapped field.
func (rt *Router) GetField(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, rt.session.Field())
}

// PutField switches to a new field. The body is either four edges as JSON
// or a GeoJSON object whose envelope becomes the boundary.
func (rt *Router) PutField(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var (
		boundary field.Boundary
		err      error
	)
	if isGeoJSON(r) {
		boundary, err = field.LoadBoundaryGeoJSON(io.LimitReader(r.Body, maxBodyBytes))
	} else {
		var req FieldRequest
		verr, derr := decodeJSON(w, r, &req)
		if derr != nil {
			rw.BadRequest(ErrCodeBadRequest, derr.Error())
			return
		}
		if verr != nil {
			rw.ValidationError("Invalid field boundary", verr.Fields)
			return
		}
		boundary, err = req.Boundary()
	}
	if err != nil {
		rw.BadRequest(ErrCodeInvalidField, err.Error())
		return
	}

	info, err := rt.session.SwitchField(boundary)
	switch {
	case err == nil:
		rw.Success(info)
	case errors.Is(err, field.ErrInvalidBoundary),
		errors.Is(err, canvas.ErrCanvasTooLarge),
		errors.Is(err, geo.ErrDegenerateProjection):
		rw.BadRequest(ErrCodeInvalidField, err.Error())
	case errors.Is(err, engine.ErrClosed):
		rw.ServiceUnavailable("Engine is shutting down", nil)
	default:
		rw.InternalError("Failed to switch field", err)
	}
}

func isGeoJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/geo+json"
}

// GetSession reports engine status.
func (rt *Router) GetSession(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, SessionResponse{
		Status:        rt.session.Status(),
		UptimeSeconds: time.Since(rt.startTime).Seconds(),
	})
}

// GetColors returns the legend of every metric.
func (rt *Router) GetColors(w http.ResponseWriter, r *http.Request) {
	legend, err := buildLegend(rt.session.Palette())
	if err != nil {
		NewResponseWriter(w, r).InternalError("Failed to build legend", fmt.Errorf("legend: %w", err))
		return
	}
	writeSuccess(w, r, legend)
}
