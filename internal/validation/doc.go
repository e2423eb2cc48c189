// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package validation wraps go-playground/validator for telemetry rows and
// API request bodies.
//
// A single validator instance is shared by the process. Field names in
// errors come from json tags, so messages match what clients send:
//
//	type setMetricRequest struct {
//	    Metric string `json:"metric" validate:"required,metric"`
//	}
//
//	if verr := validation.ValidateStruct(req); verr != nil {
//	    // verr.Error() == "metric must be a tracked metric name"
//	}
//
// The custom "metric" tag accepts the names canvas.ParseMetric understands.
package validation
