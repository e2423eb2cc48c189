// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "furrow"

// Tile request outcomes.
const (
	TileResultHit      = "hit"
	TileResultRendered = "rendered"
	TileResultNoTile   = "no_tile"
	TileResultInvalid  = "invalid"
	TileResultError    = "error"
)

// Row skip reasons.
const (
	SkipMasterOff   = "master_off"
	SkipDegenerate  = "degenerate_position"
	SkipInvalid     = "invalid_row"
	SkipNoSuccessor = "no_successor"
)

// Metrics groups every collector of one process.
type Metrics struct {
	// Telemetry intake
	RowsReceived    prometheus.Counter
	DecodeFailures  *prometheus.CounterVec
	RowsRasterized  prometheus.Counter
	RowsSkipped     *prometheus.CounterVec
	IngestLatency   prometheus.Histogram
	SegmentsPainted *prometheus.CounterVec
	OutOfRange      *prometheus.CounterVec
	ReplayDepth     *prometheus.GaugeVec

	// Tiles
	TileRequests   *prometheus.CounterVec
	TileDuration   prometheus.Histogram
	TileCacheItems prometheus.Gauge

	// Session
	CanvasResets  prometheus.Counter
	FieldSwitches prometheus.Counter
	ActiveMetric  *prometheus.GaugeVec

	// API and live view
	APIRequestDuration *prometheus.HistogramVec
	WebSocketClients   prometheus.Gauge
	WebSocketDropped   prometheus.Counter

	// Simulator and publisher
	PublishedRows   prometheus.Counter
	PublishFailures prometheus.Counter
	CircuitState    *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RowsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_rows_received_total",
			Help:      "Telemetry rows decoded and accepted for plotting",
		}),
		DecodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_decode_failures_total",
			Help:      "Telemetry payloads dropped before plotting",
		}, []string{"reason"}), // "decode", "missing_position", "invalid"
		RowsRasterized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rasterized_total",
			Help:      "Row transitions painted onto the canvas",
		}),
		RowsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Row transitions not painted",
		}, []string{"reason"}),
		IngestLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "row_paint_duration_seconds",
			Help:      "Time from row arrival to the active layer being painted",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		SegmentsPainted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_segments_painted_total",
			Help:      "Quads filled on a metric layer",
		}, []string{"metric"}),
		OutOfRange: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_values_clamped_total",
			Help:      "Row readings outside the color range of their metric",
		}, []string{"metric"}),
		ReplayDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "replay_queue_depth",
			Help:      "Row transitions waiting to be painted on an inactive layer",
		}, []string{"metric"}),

		TileRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_requests_total",
			Help:      "Tile requests by outcome",
		}, []string{"result"}),
		TileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tile_render_duration_seconds",
			Help:      "Time spent cropping, scaling and encoding one tile",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}),
		TileCacheItems: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tile_cache_entries",
			Help:      "Encoded tiles held in the tile cache",
		}),

		CanvasResets: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canvas_resets_total",
			Help:      "Canvas reset commands executed",
		}),
		FieldSwitches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_switches_total",
			Help:      "Field boundary changes",
		}),
		ActiveMetric: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_metric",
			Help:      "1 for the metric currently painted synchronously",
		}, []string{"metric"}),

		APIRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		WebSocketClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live-view clients",
		}),
		WebSocketDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_messages_dropped_total",
			Help:      "Live-view messages dropped because a buffer was full",
		}),

		PublishedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulator_rows_published_total",
			Help:      "Telemetry rows published by the simulator",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulator_publish_failures_total",
			Help:      "Simulator publishes rejected by the broker or the circuit breaker",
		}),
		CircuitState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
	}
}

func (m *Metrics) RecordRowReceived() {
	if m == nil {
		return
	}
	m.RowsReceived.Inc()
}

func (m *Metrics) RecordDecodeFailure(reason string) {
	if m == nil {
		return
	}
	m.DecodeFailures.WithLabelValues(reason).Inc()
}

// RecordRowRasterized counts a painted transition and the latency of its
// synchronous paint.
func (m *Metrics) RecordRowRasterized(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RowsRasterized.Inc()
	m.IngestLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordRowSkipped(reason string) {
	if m == nil {
		return
	}
	m.RowsSkipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordSegments(metric string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SegmentsPainted.WithLabelValues(metric).Add(float64(n))
}

func (m *Metrics) RecordOutOfRange(metric string) {
	if m == nil {
		return
	}
	m.OutOfRange.WithLabelValues(metric).Inc()
}

func (m *Metrics) SetReplayDepth(metric string, depth int) {
	if m == nil {
		return
	}
	m.ReplayDepth.WithLabelValues(metric).Set(float64(depth))
}

// RecordTileRequest counts one tile request by outcome.
func (m *Metrics) RecordTileRequest(result string) {
	if m == nil {
		return
	}
	m.TileRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTileRender(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TileDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SetTileCacheEntries(n int) {
	if m == nil {
		return
	}
	m.TileCacheItems.Set(float64(n))
}

func (m *Metrics) RecordReset() {
	if m == nil {
		return
	}
	m.CanvasResets.Inc()
}

func (m *Metrics) RecordFieldSwitch() {
	if m == nil {
		return
	}
	m.FieldSwitches.Inc()
}

// SetActiveMetric flags active as the metric painted synchronously.
func (m *Metrics) SetActiveMetric(active string, all []string) {
	if m == nil {
		return
	}
	for _, name := range all {
		v := 0.0
		if name == active {
			v = 1
		}
		m.ActiveMetric.WithLabelValues(name).Set(v)
	}
}

func (m *Metrics) RecordAPIRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) SetWebSocketClients(n int) {
	if m == nil {
		return
	}
	m.WebSocketClients.Set(float64(n))
}

func (m *Metrics) RecordWebSocketDropped() {
	if m == nil {
		return
	}
	m.WebSocketDropped.Inc()
}

func (m *Metrics) RecordPublish(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PublishFailures.Inc()
		return
	}
	m.PublishedRows.Inc()
}

func (m *Metrics) SetCircuitState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitState.WithLabelValues(name).Set(float64(state))
}
