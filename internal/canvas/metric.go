// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package canvas

import (
	"errors"
	"fmt"
	"strings"
)

// Metric identifies one tracked sensor quantity and its raster layer.
type Metric int

const (
	Singulation Metric = iota
	Downforce
	RideQuality

	// MetricCount is the number of layers in every canvas.
	MetricCount
)

// ErrUnknownMetric is returned when a metric name or index is not tracked.
var ErrUnknownMetric = errors.New("unknown metric")

var metricNames = [MetricCount]string{
	Singulation: "singulation",
	Downforce:   "downforce",
	RideQuality: "ride_quality",
}

// Metrics returns every tracked metric in layer order.
func Metrics() []Metric {
	out := make([]Metric, MetricCount)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// Valid reports whether m names a layer.
func (m Metric) Valid() bool {
	return m >= 0 && m < MetricCount
}

func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("metric(%d)", int(m))
	}
	return metricNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(m))
	}
	return []byte(metricNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMetric resolves a metric name. Matching ignores case and accepts
// hyphens in place of underscores.
func ParseMetric(name string) (Metric, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for i, n := range metricNames {
		if n == normalized {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}
