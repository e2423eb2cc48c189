// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package config

import (
	"os"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/plotter"
	"github.com/tomtom215/furrow/internal/telemetry"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Field     FieldConfig     `koanf:"field"`
	Machine   MachineConfig   `koanf:"machine"`
	Canvas    CanvasConfig    `koanf:"canvas"`
	Tiles     TilesConfig     `koanf:"tiles"`
	Colors    ColorsConfig    `koanf:"colors"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Simulator SimulatorConfig `koanf:"simulator"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// LiveRowRate caps row_plotted pushes per second to each live-view
	// client.
	LiveRowRate  float64 `koanf:"live_row_rate"`
	LiveRowBurst int     `koanf:"live_row_burst"`
}

// FieldConfig locates the field. BoundaryFile wins over the edges.
type FieldConfig struct {
	North        float64 `koanf:"north"`
	South        float64 `koanf:"south"`
	East         float64 `koanf:"east"`
	West         float64 `koanf:"west"`
	BoundaryFile string  `koanf:"boundary_file"`
	Zoom         int     `koanf:"zoom"`
}

// Boundary resolves the configured field boundary.
func (f FieldConfig) Boundary() (field.Boundary, error) {
	if f.BoundaryFile != "" {
		return field.LoadBoundaryFile(f.BoundaryFile)
	}
	return field.BoundaryFromBounds(f.North, f.South, f.East, f.West)
}

// MachineConfig describes the planter.
type MachineConfig struct {
	WidthMeters float64 `koanf:"width_meters"`
	RowCount    int     `koanf:"row_count"`
}

// Profile converts to the rasterizer's machine profile.
func (m MachineConfig) Profile() plotter.MachineProfile {
	return plotter.MachineProfile{WidthMeters: m.WidthMeters, RowCount: m.RowCount}
}

// CanvasConfig bounds canvas memory and tunes the fill.
type CanvasConfig struct {
	MaxPixels         int64 `koanf:"max_pixels"`
	MaxSegmentArea    int   `koanf:"max_segment_area"`
	CoverageThreshold uint8 `koanf:"coverage_threshold"`
}

// Options converts to canvas options.
func (c CanvasConfig) Options() canvas.Options {
	return canvas.Options{
		MaxPixels:         c.MaxPixels,
		MaxSegmentArea:    c.MaxSegmentArea,
		CoverageThreshold: c.CoverageThreshold,
	}
}

// TilesConfig tunes tile synthesis and caching.
type TilesConfig struct {
	Interpolation string        `koanf:"interpolation"`
	CacheSize     int           `koanf:"cache_size"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	MaxAge        time.Duration `koanf:"max_age"`
}

// ColorsConfig selects the display metric and color map ranges.
type ColorsConfig struct {
	DisplayMetric  string  `koanf:"display_metric"`
	DownforceMin   float64 `koanf:"downforce_min"`
	DownforceMax   float64 `koanf:"downforce_max"`
	RideQualityMin float64 `koanf:"ride_quality_min"`
	RideQualityMax float64 `koanf:"ride_quality_max"`
}

// Metric parses DisplayMetric.
func (c ColorsConfig) Metric() (canvas.Metric, error) {
	return canvas.ParseMetric(c.DisplayMetric)
}

// Palette builds the color maps.
func (c ColorsConfig) Palette() plotter.Palette {
	return plotter.NewPalette(plotter.Ranges{
		DownforceMin:   c.DownforceMin,
		DownforceMax:   c.DownforceMax,
		RideQualityMin: c.RideQualityMin,
		RideQualityMax: c.RideQualityMax,
	})
}

// TelemetryConfig holds the telemetry intake settings.
type TelemetryConfig struct {
	URL             string        `koanf:"url"`
	Topic           string        `koanf:"topic"`
	Embedded        bool          `koanf:"embedded"`
	EmbeddedHost    string        `koanf:"embedded_host"`
	EmbeddedPort    int           `koanf:"embedded_port"`
	MaxReconnects   int           `koanf:"max_reconnects"`
	ReconnectWait   time.Duration `koanf:"reconnect_wait"`
	CloseTimeout    time.Duration `koanf:"close_timeout"`
	RetentionWindow int           `koanf:"retention_window"`
}

// NATS converts to the connection settings. url overrides URL when set,
// which is how the embedded broker's address is passed in.
func (t TelemetryConfig) NATS(url string) telemetry.NATSConfig {
	if url == "" {
		url = t.URL
	}
	return telemetry.NATSConfig{
		URL:           url,
		MaxReconnects: t.MaxReconnects,
		ReconnectWait: t.ReconnectWait,
		CloseTimeout:  t.CloseTimeout,
	}
}

// SimulatorConfig drives the built-in telemetry source.
type SimulatorConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	SpeedMPS      float64       `koanf:"speed_mps"`
	SkipRate      float64       `koanf:"skip_rate"`
	HeadingJitter float64       `koanf:"heading_jitter"`
	Seed          uint64        `koanf:"seed"`
}

// SecurityConfig holds the HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// LoggerConfig converts to logging.Config writing to stderr.
func (l LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:  l.Level,
		Format: l.Format,
		Caller: l.Caller,
		Output: os.Stderr,
	}
}
