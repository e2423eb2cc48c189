// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package middleware provides the HTTP middleware used by the tile server and
control API.

  - RequestID: X-Request-ID propagation into the logging context
  - AccessLog: one structured log line per request
  - Prometheus: request latency by method, route pattern and status
  - Compression: gzip for JSON responses

Tile responses are already PNG-compressed and skip Compression. Prometheus
labels requests with the chi route pattern rather than the raw path, so tile
coordinates do not explode label cardinality.
*/
package middleware
