// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package telemetry receives implement telemetry and turns it into ordered
// row transitions.
//
// A Row is one decoded sample: where the implement was, which way it was
// heading, whether the master clutch was engaged and what every planter row
// reported. Rows arrive as JSON on a NATS subject:
//
//	{
//	  "position": {"lat": 39.9951, "lon": -89.9973},
//	  "heading": 92.5,
//	  "speed": 2.4,
//	  "master_on": true,
//	  "timestamp": "2026-04-21T14:03:11.250Z",
//	  "rows": [
//	    {"on": true, "values": {"singulation": 0, "downforce": 182.5, "ride_quality": 96}},
//	    {"on": false}
//	  ]
//	}
//
// The Sequencer pairs each row with its successor, since a row can only be
// painted once the next position is known. The Ingestor drives a Watermill
// subscriber, skips rows that fail to decode and hands good rows to a
// RowHandler in arrival order.
package telemetry
