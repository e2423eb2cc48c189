// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package logging provides the process-wide zerolog logger for Furrow.
//
// Production output is JSON on stderr; the console format is meant for a
// developer terminal. Libraries that want a different logging interface get
// an adapter backed by the same logger:
//
//   - NewSlogLogger for suture (through sutureslog)
//   - NewWatermillLogger for the Watermill telemetry subscriber and publisher
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("field", name).Msg("Field loaded")
//	logging.Error().Err(err).Msg("Tile synthesis failed")
//
//	log := logging.WithComponent("rasterizer")
//	log.Debug().Int("row", i).Msg("Row skipped")
//
// Request-scoped logging picks up correlation and request IDs stored in the
// context:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Switching field")
package logging
