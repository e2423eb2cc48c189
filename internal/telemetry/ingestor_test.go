// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, watermill.NopLogger{})
}

type collector struct {
	mu   sync.Mutex
	rows []*Row
	got  chan struct{}
	fail error
}

func newCollector() *collector { return &collector{got: make(chan struct{}, 64)} }

func (c *collector) HandleRow(_ context.Context, r *Row) error {
	c.mu.Lock()
	c.rows = append(c.rows, r)
	c.mu.Unlock()
	c.got <- struct{}{}
	return c.fail
}

func (c *collector) wait(t *testing.T, n int) []*Row {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-deadline:
			t.Fatalf("received %d rows, want %d", i, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Row(nil), c.rows...)
}

func sampleRow(lat float64) *Row {
	return &Row{
		Position: geo.GeoPoint{Lat: lat, Lon: -90},
		Heading:  90,
		Speed:    2.2,
		MasterOn: true,
		Rows: []RowState{
			{On: true, Values: map[canvas.Metric]float64{canvas.Downforce: 140}},
			{On: false},
		},
		Timestamp: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestIngestorDeliversInOrderAndSkipsBadRows(t *testing.T) {
	t.Parallel()
	ps := newPubSub()
	defer ps.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := newCollector()
	ing := NewIngestor(ps, "rows", h, m)
	if err := ing.Ready(context.Background()); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Ready() before Serve = %v, want ErrNotSubscribed", err)
	}

	payloads := [][]byte{
		mustEncode(t, sampleRow(40.0001)),
		[]byte(`{"position":`),
		[]byte(`{"heading":90,"master_on":true}`),
		[]byte(`{"position":{"lat":95,"lon":0}}`),
		mustEncode(t, sampleRow(40.0002)),
	}
	for _, p := range payloads {
		if err := ps.Publish("rows", message.NewMessage(watermill.NewUUID(), p)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ing.Serve(ctx) }()

	rows := h.wait(t, 2)
	if err := ing.Ready(ctx); err != nil {
		t.Errorf("Ready() while serving = %v", err)
	}
	if rows[0].Position.Lat != 40.0001 || rows[1].Position.Lat != 40.0002 {
		t.Errorf("rows arrived as %v then %v, want publish order", rows[0].Position, rows[1].Position)
	}

	// The good rows bracket the bad ones, so the counters are final.
	stats := ing.Stats()
	if stats.Received != 5 || stats.Rejected != 3 {
		t.Errorf("Stats() = %+v, want 5 received 3 rejected", stats)
	}
	for reason, want := range map[string]float64{
		ReasonMalformed:       1,
		ReasonMissingPosition: 1,
		ReasonInvalid:         1,
	} {
		if got := testutil.ToFloat64(m.DecodeFailures.WithLabelValues(reason)); got != want {
			t.Errorf("decode failures{%s} = %v, want %v", reason, got, want)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestIngestorHandlerErrorsDoNotStopIntake(t *testing.T) {
	t.Parallel()
	ps := newPubSub()
	defer ps.Close()

	h := newCollector()
	h.fail = errors.New("canvas busy")
	ing := NewIngestor(ps, "", h, nil)

	for _, lat := range []float64{40.1, 40.2} {
		if err := ps.Publish(DefaultTopic, message.NewMessage(watermill.NewUUID(), mustEncode(t, sampleRow(lat)))); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ing.Serve(ctx) }()

	h.wait(t, 2)
	// The counter is bumped after the handler returns.
	deadline := time.Now().Add(time.Second)
	for ing.Stats().Failed < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := ing.Stats().Failed; got != 2 {
		t.Errorf("Stats().Failed = %d, want 2", got)
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	t.Parallel()
	ps := newPubSub()
	defer ps.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	pub := NewPublisher(ps, "rows", DefaultBreakerConfig(), m)

	msgs, err := ps.Subscribe(context.Background(), "rows")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	want := sampleRow(40.5)
	if err := pub.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		got, err := Decode(msg.Payload, time.Now())
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !got.Position.Equal(want.Position) || got.RowOn(1) || !got.RowOn(0) {
			t.Errorf("decoded row = %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("published row never arrived")
	}
	if got := testutil.ToFloat64(m.PublishedRows); got != 1 {
		t.Errorf("published rows = %v, want 1", got)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Publish(context.Background(), want); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrPublisherClosed", err)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestPublisherBreakerOpens(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	bc := DefaultBreakerConfig()
	bc.FailureThreshold = 3
	pub := NewPublisher(failingPublisher{}, "rows", bc, m)

	for i := 0; i < 3; i++ {
		if err := pub.Publish(context.Background(), sampleRow(40)); err == nil {
			t.Fatalf("Publish() #%d error = nil, want broker error", i)
		}
	}
	err := pub.Publish(context.Background(), sampleRow(40))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Publish() with open breaker error = %v, want ErrOpenState", err)
	}
	if got := pub.BreakerState(); got != gobreaker.StateOpen.String() {
		t.Errorf("BreakerState() = %q, want open", got)
	}
	if got := testutil.ToFloat64(m.PublishFailures); got != 4 {
		t.Errorf("publish failures = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.CircuitState.WithLabelValues(bc.Name)); got != float64(gobreaker.StateOpen) {
		t.Errorf("circuit state gauge = %v, want %d", got, gobreaker.StateOpen)
	}
}

func TestEmbeddedServerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a NATS server")
	}
	t.Parallel()

	srv, err := NewEmbeddedServer(EmbeddedConfig{Host: "127.0.0.1", Port: server.RANDOM_PORT})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()
	if !srv.Running() {
		t.Fatal("Running() = false after start")
	}

	cfg := NATSConfig{URL: srv.ClientURL(), MaxReconnects: 1, ReconnectWait: 50 * time.Millisecond, CloseTimeout: time.Second}
	sub, err := NewNATSSubscriber(cfg)
	if err != nil {
		t.Fatalf("NewNATSSubscriber() error = %v", err)
	}
	defer sub.Close()

	h := newCollector()
	ing := NewIngestor(sub, DefaultTopic, h, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ing.Serve(ctx) }()

	pub, err := NewNATSPublisher(cfg, DefaultTopic, DefaultBreakerConfig(), nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	defer pub.Close()

	// Core NATS drops messages published before the subscription exists, so
	// keep publishing until one lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := pub.Publish(ctx, sampleRow(41)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		select {
		case <-h.got:
			return
		case <-time.After(100 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("row never arrived through the embedded server")
		}
	}
}

func mustEncode(t *testing.T, r *Row) []byte {
	t.Helper()
	data, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}
