// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package websocket pushes live session events to map clients.

The Hub implements engine.Notifier. Every event the engine reports is
broadcast to all connected clients, which use it to refresh tiles or move
the tractor marker:

  - row_plotted: a transition was painted (rate limited per hub)
  - canvas_reset: every layer was cleared
  - metric_changed: the display metric changed
  - field_changed: a new field replaced the session

Each client has two goroutines. readPump answers application-level pings
and enforces the pong deadline; writePump drains the send buffer and sends
websocket pings. A client whose buffer is full is disconnected rather than
allowed to stall the broadcast.

Usage:

	hub := websocket.NewHub(websocket.HubOptions{RowRate: 10, Metrics: m})
	go hub.RunWithContext(ctx)
	r.Get("/api/v1/ws", hub.ServeHTTP)
*/
package websocket
