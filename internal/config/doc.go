// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

/*
Package config loads and validates the Furrow configuration.

# Configuration Sources

Configuration is layered with Koanf v2. Later layers win:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/furrow/config.yaml
 3. Environment variables, through an explicit mapping table so unrelated
    variables never leak into the configuration

# Sections

  - server: HTTP listener and live-view push rate
  - field: field boundary as four edges or a GeoJSON file, canvas zoom
  - machine: implement width and planter row count
  - canvas: pixel budget and fill threshold
  - tiles: interpolation, cache size and client max-age
  - colors: display metric and color map ranges
  - telemetry: NATS connection, subject and the embedded broker
  - simulator: built-in kinematic telemetry source for demos and tests
  - security: CORS origins and control-route rate limiting
  - logging: level, format and caller reporting

# Environment Variables

A few common ones:

  - HTTP_PORT: listen port (default: 8470)
  - FIELD_NORTH, FIELD_SOUTH, FIELD_EAST, FIELD_WEST: field edges in degrees
  - FIELD_BOUNDARY_FILE: GeoJSON file whose envelope is the field
  - MACHINE_WIDTH_METERS, MACHINE_ROW_COUNT: implement profile
  - DISPLAY_METRIC: singulation, downforce or ride_quality
  - NATS_URL, TELEMETRY_TOPIC, NATS_EMBEDDED: telemetry intake
  - SIMULATOR_ENABLED: publish simulated rows
  - LOG_LEVEL, LOG_FORMAT: logging

Usage:

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	boundary, err := cfg.Field.Boundary()
*/
package config
