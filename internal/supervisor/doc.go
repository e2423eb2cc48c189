// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package supervisor runs the process's long-lived services under a
thejerf/suture/v4 tree.

	furrow (root)
	├── ingest-layer     telemetry ingestor, simulator
	├── messaging-layer  embedded NATS broker, live-view hub
	└── api-layer        HTTP server

A service that returns an error or panics is restarted by its layer with
suture's backoff, so a broker hiccup that kills the ingestor does not take
the tile server down with it. Tree events are logged through sutureslog
on the zerolog-backed slog handler from internal/logging.

Service wrappers that adapt the HTTP server, the websocket hub and the
embedded broker to suture.Service live in the services subpackage. The
telemetry ingestor and the simulator implement suture.Service themselves.
*/
package supervisor
