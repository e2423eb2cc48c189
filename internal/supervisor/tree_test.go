// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// mockService runs until cancelled, failing its first failures starts.
type mockService struct {
	name     string
	failures int32
	starts   atomic.Int32
	stops    atomic.Int32
}

func (m *mockService) Serve(ctx context.Context) error {
	n := m.starts.Add(1)
	defer m.stops.Add(1)
	if n <= m.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitForStarts(t *testing.T, svc *mockService, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.starts.Load() < want {
		if time.Now().After(deadline) {
			t.Fatalf("%s started %d times, want %d", svc.name, svc.starts.Load(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewTreeDefaults(t *testing.T) {
	t.Parallel()
	tree := NewTree(testLogger(), TreeConfig{})
	if tree.Root() == nil {
		t.Fatal("Root() = nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}

	custom := NewTree(testLogger(), TreeConfig{FailureBackoff: time.Second})
	if custom.config.FailureBackoff != time.Second || custom.config.FailureThreshold != 5 {
		t.Errorf("partial config = %+v", custom.config)
	}
}

func TestTreeRunsEveryLayer(t *testing.T) {
	t.Parallel()
	tree := NewTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	ingest := &mockService{name: "ingest"}
	messaging := &mockService{name: "messaging"}
	api := &mockService{name: "api"}
	tree.AddIngestService(ingest)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	for _, svc := range []*mockService{ingest, messaging, api} {
		waitForStarts(t, svc, 1)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	for _, svc := range []*mockService{ingest, messaging, api} {
		if svc.stops.Load() != svc.starts.Load() {
			t.Errorf("%s: %d starts, %d stops", svc.name, svc.starts.Load(), svc.stops.Load())
		}
	}
	if report, err := tree.UnstoppedServiceReport(); err != nil || len(report) != 0 {
		t.Errorf("unstopped services = %v, %v", report, err)
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	t.Parallel()
	tree := NewTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := &mockService{name: "flaky-ingestor", failures: 2}
	steady := &mockService{name: "http"}
	tree.AddIngestService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, flaky, 3)
	if got := steady.starts.Load(); got != 1 {
		t.Errorf("api layer restarted %d times by an ingest failure", got-1)
	}
	cancel()
	<-errCh
}
