// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package api serves map tiles and the session control API over chi.

Routes (all under /api/v1):

	GET  /tiles/{metric}/{z}/{x}/{y}.png  PNG tile; 204 when the tile misses the field
	GET  /metric                          display metric
	PUT  /metric                          {"metric":"downforce"}
	POST /reset                           clear every layer
	GET  /field                           current field and frame size
	PUT  /field                           four edges as JSON, or a GeoJSON boundary
	GET  /session                         engine status
	GET  /metrics/colors                  legend for every metric
	GET  /ws                              live-view websocket
	GET  /health/live, /health/ready      probes

The Prometheus exposition is served at /metrics outside the versioned tree.

Control routes are rate limited per client IP with go-chi/httprate. Tile
routes are not: a map viewport pulls dozens of tiles at once. The {metric}
segment also accepts "active", which resolves to the current display
metric at request time.

JSON responses share one envelope:

	{"success": true, "data": {...}, "meta": {"timestamp": "...", "request_id": "..."}}
	{"success": false, "error": {"code": "BAD_REQUEST", "message": "..."}, "meta": {...}}
*/
package api
