// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/telemetry"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/furrow/config.yaml",
	"/etc/furrow/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. The default field is a
// small plot in central Illinois and the default machine a 36-row, 90 ft
// planter.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			LiveRowRate:     10,
			LiveRowBurst:    20,
		},
		Field: FieldConfig{
			North: 40.1100,
			South: 40.1080,
			East:  -88.2435,
			West:  -88.2460,
			Zoom:  field.ReferenceZoom,
		},
		Machine: MachineConfig{
			WidthMeters: 27.432,
			RowCount:    36,
		},
		Canvas: CanvasConfig{
			MaxPixels:         canvas.DefaultMaxPixels,
			MaxSegmentArea:    canvas.DefaultMaxSegmentArea,
			CoverageThreshold: canvas.DefaultCoverageThreshold,
		},
		Tiles: TilesConfig{
			Interpolation: "nearest",
			CacheSize:     4096,
			CacheTTL:      time.Minute,
			MaxAge:        2 * time.Second,
		},
		Colors: ColorsConfig{
			DisplayMetric:  canvas.Singulation.String(),
			DownforceMin:   0,
			DownforceMax:   400,
			RideQualityMin: 0,
			RideQualityMax: 100,
		},
		Telemetry: TelemetryConfig{
			URL:             "nats://127.0.0.1:4222",
			Topic:           telemetry.DefaultTopic,
			Embedded:        true,
			EmbeddedHost:    "127.0.0.1",
			EmbeddedPort:    4222,
			MaxReconnects:   -1, // reconnect forever
			ReconnectWait:   2 * time.Second,
			CloseTimeout:    5 * time.Second,
			RetentionWindow: telemetry.DefaultRetentionWindow,
		},
		Simulator: SimulatorConfig{
			Enabled:       false,
			Interval:      200 * time.Millisecond,
			SpeedMPS:      2.7,
			SkipRate:      0.02,
			HeadingJitter: 0.5,
			Seed:          1,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     60,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in that order of precedence, and validates the result.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// File returns the config file Load reads, or "" when it runs on defaults
// and environment alone.
func File() string {
	return findConfigFile()
}

// findConfigFile returns CONFIG_PATH when it exists, else the first default
// path that exists, else "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names, lower-cased, to config
// paths. Unlisted variables are ignored.
var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"http_idle_timeout":  "server.idle_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"live_row_rate":      "server.live_row_rate",
	"live_row_burst":     "server.live_row_burst",

	"field_north":         "field.north",
	"field_south":         "field.south",
	"field_east":          "field.east",
	"field_west":          "field.west",
	"field_boundary_file": "field.boundary_file",
	"field_zoom":          "field.zoom",

	"machine_width_meters": "machine.width_meters",
	"machine_row_count":    "machine.row_count",

	"canvas_max_pixels":         "canvas.max_pixels",
	"canvas_max_segment_area":   "canvas.max_segment_area",
	"canvas_coverage_threshold": "canvas.coverage_threshold",

	"tile_interpolation": "tiles.interpolation",
	"tile_cache_size":    "tiles.cache_size",
	"tile_cache_ttl":     "tiles.cache_ttl",
	"tile_max_age":       "tiles.max_age",

	"display_metric":   "colors.display_metric",
	"downforce_min":    "colors.downforce_min",
	"downforce_max":    "colors.downforce_max",
	"ride_quality_min": "colors.ride_quality_min",
	"ride_quality_max": "colors.ride_quality_max",

	"nats_url":                   "telemetry.url",
	"telemetry_topic":            "telemetry.topic",
	"nats_embedded":              "telemetry.embedded",
	"nats_embedded_host":         "telemetry.embedded_host",
	"nats_embedded_port":         "telemetry.embedded_port",
	"nats_max_reconnects":        "telemetry.max_reconnects",
	"nats_reconnect_wait":        "telemetry.reconnect_wait",
	"nats_close_timeout":         "telemetry.close_timeout",
	"telemetry_retention_window": "telemetry.retention_window",

	"simulator_enabled":        "simulator.enabled",
	"simulator_interval":       "simulator.interval",
	"simulator_speed_mps":      "simulator.speed_mps",
	"simulator_skip_rate":      "simulator.skip_rate",
	"simulator_heading_jitter": "simulator.heading_jitter",
	"simulator_seed":           "simulator.seed",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to a config path, or
// to "" to skip it.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - FIELD_NORTH -> field.north
//   - NATS_URL -> telemetry.url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller reloads with Load and decides which settings can change live.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
