// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"context"
	"net/http"
	"time"
)

// readyTimeout bounds each readiness check.
const readyTimeout = 2 * time.Second

// HealthLive reports that the process is serving requests.
func (rt *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, map[string]any{
		"alive":  true,
		"uptime": time.Since(rt.startTime).Seconds(),
	})
}

// HealthReady returns 200 when the engine is open and every check passes,
// 503 otherwise.
func (rt *Router) HealthReady(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	if rt.session.Closed() {
		failed["engine"] = "closed"
	}
	for _, c := range rt.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			failed[c.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		NewResponseWriter(w, r).ServiceUnavailable("Service is not ready", failed)
		return
	}
	writeSuccess(w, r, map[string]any{"ready": true})
}
