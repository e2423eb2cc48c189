// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package simulator

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/plotter"
	"github.com/tomtom215/furrow/internal/telemetry"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

var discard = SinkFunc(func(context.Context, *telemetry.Row) error { return nil })

func testConfig(t *testing.T) Config {
	t.Helper()
	// Roughly 85 m east-west by 111 m north-south: four passes.
	b, err := field.BoundaryFromBounds(40.001, 40.0, -89.999, -90.0)
	if err != nil {
		t.Fatalf("BoundaryFromBounds() error = %v", err)
	}
	return Config{
		Boundary: b,
		Profile:  plotter.MachineProfile{WidthMeters: 27.432, RowCount: 36},
		Interval: time.Second,
		SpeedMPS: 5,
		Seed:     42,
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sink   Sink
		want   error
	}{
		{"nil sink", func(*Config) {}, nil, nil},
		{"bad profile", func(c *Config) { c.Profile.RowCount = 0 }, discard, plotter.ErrInvalidProfile},
		{"bad boundary", func(c *Config) { c.Boundary = field.Boundary{} }, discard, field.ErrInvalidBoundary},
		{"skip rate above one", func(c *Config) { c.SkipRate = 1.5 }, discard, nil},
		{"field narrower than a pass", func(c *Config) {
			c.Boundary, _ = field.BoundaryFromBounds(40.0001, 40.0, -89.999, -90.0)
		}, discard, ErrFieldTooNarrow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			tt.mutate(&cfg)
			_, err := New(cfg, tt.sink)
			if err == nil {
				t.Fatal("New() error = nil")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPathStaysInsideField(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	sim, err := New(cfg, discard)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := sim.Passes(); got != 4 {
		t.Fatalf("Passes() = %d, want 4", got)
	}

	bounds := cfg.Boundary.Bounds()
	const eps = 1e-9
	headings := map[float64]int{}
	for i := 0; i < 500; i++ {
		r := sim.Next()
		p := r.Position
		if p.Lat > bounds.North+eps || p.Lat < bounds.South-eps || p.Lon < bounds.West-eps || p.Lon > bounds.East+eps {
			t.Fatalf("sample %d at %v left the field %+v", i, p, bounds)
		}
		if len(r.Rows) != cfg.Profile.RowCount {
			t.Fatalf("sample %d has %d rows", i, len(r.Rows))
		}
		headings[r.Heading]++
		if r.Heading == 180 && r.MasterOn {
			t.Fatalf("sample %d: planter down during the headland turn", i)
		}
	}
	for _, h := range []float64{90, 270, 180} {
		if headings[h] == 0 {
			t.Errorf("no samples with heading %v: %v", h, headings)
		}
	}
	if sim.laps == 0 {
		t.Error("simulator never finished the field")
	}
}

func TestPassesAdvanceOneImplementWidth(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	sim, err := New(cfg, discard)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var passLats []float64
	last := -1.0
	for i := 0; i < 200 && len(passLats) < 3; i++ {
		r := sim.Next()
		if !r.MasterOn {
			continue
		}
		if r.Position.Lat != last {
			passLats = append(passLats, r.Position.Lat)
			last = r.Position.Lat
		}
	}
	if len(passLats) < 3 {
		t.Fatalf("saw %d passes, want 3", len(passLats))
	}
	for i := 1; i < len(passLats); i++ {
		gap := (passLats[i-1] - passLats[i]) * metersPerDegreeLat
		if gap < cfg.Profile.WidthMeters-0.01 || gap > cfg.Profile.WidthMeters+0.01 {
			t.Errorf("pass %d is %.3f m from the previous one, want %.3f", i, gap, cfg.Profile.WidthMeters)
		}
	}
}

func TestSkipRate(t *testing.T) {
	t.Parallel()

	count := func(rate float64) (faults, total int) {
		cfg := testConfig(t)
		cfg.SkipRate = rate
		sim, err := New(cfg, discard)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		for i := 0; i < 50; i++ {
			for _, rs := range sim.Next().Rows {
				total++
				if v, _ := rs.Value(canvas.Singulation); v != plotter.SingulationGood {
					faults++
				}
			}
		}
		return faults, total
	}

	if faults, _ := count(0); faults != 0 {
		t.Errorf("skip rate 0 produced %d faults", faults)
	}
	if faults, total := count(1); faults != total {
		t.Errorf("skip rate 1 produced %d faults in %d rows", faults, total)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.HeadingJitter = 3
	cfg.SkipRate = 0.1

	a, _ := New(cfg, discard)
	b, _ := New(cfg, discard)
	for i := 0; i < 40; i++ {
		ra, rb := a.Next(), b.Next()
		if ra.Position != rb.Position || ra.Heading != rb.Heading {
			t.Fatalf("sample %d diverged: %v/%v vs %v/%v", i, ra.Position, ra.Heading, rb.Position, rb.Heading)
		}
		da, _ := ra.RowValue(7, canvas.Downforce)
		db, _ := rb.RowValue(7, canvas.Downforce)
		if da != db {
			t.Fatalf("sample %d downforce diverged: %v vs %v", i, da, db)
		}
	}
}

func TestServePublishesUntilCancelled(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Interval = 5 * time.Millisecond

	var (
		mu   sync.Mutex
		rows []*telemetry.Row
	)
	fail := true
	sink := SinkFunc(func(_ context.Context, r *telemetry.Row) error {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			fail = false
			return errors.New("broker down")
		}
		rows = append(rows, r)
		return nil
	})
	sim, err := New(cfg, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(rows)
		mu.Unlock()
		if n >= 5 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("only %d rows published", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
