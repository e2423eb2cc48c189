// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/tiles"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks that the configuration can start a session.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateField(); err != nil {
		return err
	}
	if err := c.validateMachine(); err != nil {
		return err
	}
	if err := c.validateTiles(); err != nil {
		return err
	}
	if err := c.validateColors(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	if err := c.validateSimulator(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.LiveRowRate <= 0 {
		return invalid("LIVE_ROW_RATE must be positive")
	}
	if c.Server.LiveRowBurst < 1 {
		return invalid("LIVE_ROW_BURST must be at least 1")
	}
	return nil
}

// validateField resolves the boundary and checks that its canvas fits the
// pixel budget. A boundary file is read here so a bad path fails at startup.
func (c *Config) validateField() error {
	if c.Field.Zoom < 0 || c.Field.Zoom > geo.MaxZoom {
		return invalid("FIELD_ZOOM must be between 0 and %d", geo.MaxZoom)
	}
	b, err := c.Field.Boundary()
	if err != nil {
		return fmt.Errorf("%w: field: %w", ErrInvalid, err)
	}
	frame, err := field.NewFrame(b, c.Field.Zoom)
	if err != nil {
		return fmt.Errorf("%w: field: %w", ErrInvalid, err)
	}

	limit := c.Canvas.MaxPixels
	if limit <= 0 {
		limit = canvas.DefaultMaxPixels
	}
	size := frame.CanvasSize()
	if px := int64(size.X) * int64(size.Y); px > limit {
		return invalid("field needs a %dx%d canvas (%d pixels), over canvas.max_pixels %d",
			size.X, size.Y, px, limit)
	}
	return nil
}

func (c *Config) validateMachine() error {
	if err := c.Machine.Profile().Validate(); err != nil {
		return fmt.Errorf("%w: machine: %w", ErrInvalid, err)
	}
	if c.Machine.RowCount > 256 {
		return invalid("MACHINE_ROW_COUNT must be at most 256, got %d", c.Machine.RowCount)
	}
	return nil
}

func (c *Config) validateTiles() error {
	if _, err := tiles.ParseScaler(c.Tiles.Interpolation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Tiles.CacheSize < 1 {
		return invalid("TILE_CACHE_SIZE must be at least 1")
	}
	if c.Tiles.CacheTTL <= 0 {
		return invalid("TILE_CACHE_TTL must be positive")
	}
	if c.Tiles.MaxAge < 0 {
		return invalid("TILE_MAX_AGE must not be negative")
	}
	return nil
}

func (c *Config) validateColors() error {
	if _, err := c.Colors.Metric(); err != nil {
		return fmt.Errorf("%w: DISPLAY_METRIC: %w", ErrInvalid, err)
	}
	if !(c.Colors.DownforceMin < c.Colors.DownforceMax) {
		return invalid("DOWNFORCE_MIN must be below DOWNFORCE_MAX")
	}
	if !(c.Colors.RideQualityMin < c.Colors.RideQualityMax) {
		return invalid("RIDE_QUALITY_MIN must be below RIDE_QUALITY_MAX")
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	t := c.Telemetry
	if strings.TrimSpace(t.Topic) == "" {
		return invalid("TELEMETRY_TOPIC is required")
	}
	if strings.ContainsAny(t.Topic, " \t*>") {
		return invalid("TELEMETRY_TOPIC %q must be a literal subject", t.Topic)
	}
	if t.Embedded {
		if t.EmbeddedPort < -1 || t.EmbeddedPort > 65535 {
			return invalid("NATS_EMBEDDED_PORT must be between -1 and 65535")
		}
	} else if t.URL == "" {
		return invalid("NATS_URL is required when NATS_EMBEDDED=false")
	}
	return nil
}

func (c *Config) validateSimulator() error {
	s := c.Simulator
	if !s.Enabled {
		return nil
	}
	if s.Interval <= 0 {
		return invalid("SIMULATOR_INTERVAL must be positive")
	}
	if !(s.SpeedMPS > 0) || math.IsInf(s.SpeedMPS, 0) {
		return invalid("SIMULATOR_SPEED_MPS must be positive")
	}
	if s.SkipRate < 0 || s.SkipRate > 1 {
		return invalid("SIMULATOR_SKIP_RATE must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return invalid("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return invalid("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("LOG_LEVEL %q is not a log level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	}
	return invalid("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
}
