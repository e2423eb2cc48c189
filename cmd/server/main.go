// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package main is the entry point for the Furrow mapping server.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Logging and Prometheus metrics
//  3. Live-view hub and the mapping engine
//  4. Telemetry: optional embedded NATS broker, subscriber and ingestor
//  5. Simulator (optional): synthetic planter publishing over NATS
//  6. HTTP server: tiles, control API, live view and /metrics
//  7. Supervisor tree (suture v4)
//
// Edits to the config file change the display metric and log level live.
// Everything else needs a restart.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. Once every layer of the tree
// has stopped, queued replays are drained and the engine closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/tomtom215/furrow/internal/api"
	"github.com/tomtom215/furrow/internal/config"
	"github.com/tomtom215/furrow/internal/engine"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
	"github.com/tomtom215/furrow/internal/simulator"
	"github.com/tomtom215/furrow/internal/supervisor"
	"github.com/tomtom215/furrow/internal/supervisor/services"
	"github.com/tomtom215/furrow/internal/telemetry"
	"github.com/tomtom215/furrow/internal/tiles"
	"github.com/tomtom215/furrow/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggerConfig())
	logging.Info().Str("config_file", config.File()).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer app.close()

	if path := config.File(); path != "" {
		if err := config.WatchConfigFile(path, app.reload); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
		}
	}

	logging.Info().Str("addr", app.addr).Msg("Starting supervisor tree")
	errCh := app.tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := app.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}
	logging.Info().Msg("Furrow stopped")
}

// application is the wired process.
type application struct {
	cfg       *config.Config
	engine    *engine.Engine
	sub       io.Closer
	broker    *telemetry.EmbeddedServer
	publisher *telemetry.Publisher
	tree      *supervisor.Tree
	addr      string
	shutdown  time.Duration

	reloadMu sync.Mutex
}

func build(cfg *config.Config) (*application, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	boundary, err := cfg.Field.Boundary()
	if err != nil {
		return nil, fmt.Errorf("field boundary: %w", err)
	}
	active, err := cfg.Colors.Metric()
	if err != nil {
		return nil, err
	}
	scaler, err := tiles.ParseScaler(cfg.Tiles.Interpolation)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(websocket.HubOptions{
		RowRate:        rate.Limit(cfg.Server.LiveRowRate),
		RowBurst:       cfg.Server.LiveRowBurst,
		AllowedOrigins: cfg.Security.CORSOrigins,
		Metrics:        m,
	})

	eng, err := engine.New(engine.Config{
		Boundary:        boundary,
		Zoom:            cfg.Field.Zoom,
		Profile:         cfg.Machine.Profile(),
		Palette:         cfg.Colors.Palette(),
		Canvas:          cfg.Canvas.Options(),
		Scaler:          scaler,
		ActiveMetric:    active,
		CacheSize:       cfg.Tiles.CacheSize,
		CacheTTL:        cfg.Tiles.CacheTTL,
		RetentionWindow: cfg.Telemetry.RetentionWindow,
		Metrics:         m,
		Notifier:        hub,
	})
	if err != nil {
		return nil, fmt.Errorf("mapping engine: %w", err)
	}

	app := &application{
		cfg:    cfg,
		engine: eng,
		addr:   net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),

		shutdown: cfg.Server.ShutdownTimeout,
	}
	ok := false
	defer func() {
		if !ok {
			app.close()
		}
	}()

	natsURL := ""
	if cfg.Telemetry.Embedded {
		app.broker, err = telemetry.NewEmbeddedServer(telemetry.EmbeddedConfig{
			Host: cfg.Telemetry.EmbeddedHost,
			Port: cfg.Telemetry.EmbeddedPort,
		})
		if err != nil {
			return nil, fmt.Errorf("embedded NATS: %w", err)
		}
		natsURL = app.broker.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS broker started")
	}
	natsCfg := cfg.Telemetry.NATS(natsURL)

	sub, err := telemetry.NewNATSSubscriber(natsCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry subscriber: %w", err)
	}
	app.sub = sub
	ingestor := telemetry.NewIngestor(sub, cfg.Telemetry.Topic, eng, m)

	var sim *simulator.Simulator
	if cfg.Simulator.Enabled {
		app.publisher, err = telemetry.NewNATSPublisher(natsCfg, cfg.Telemetry.Topic, telemetry.DefaultBreakerConfig(), m)
		if err != nil {
			return nil, fmt.Errorf("simulator publisher: %w", err)
		}
		sim, err = simulator.New(simulator.Config{
			Boundary:      boundary,
			Profile:       cfg.Machine.Profile(),
			Interval:      cfg.Simulator.Interval,
			SpeedMPS:      cfg.Simulator.SpeedMPS,
			SkipRate:      cfg.Simulator.SkipRate,
			HeadingJitter: cfg.Simulator.HeadingJitter,
			Seed:          cfg.Simulator.Seed,
		}, app.publisher)
		if err != nil {
			return nil, err
		}
	}

	checks := []api.ReadyCheck{{Name: "telemetry", Check: ingestor.Ready}}
	if app.broker != nil {
		broker := app.broker
		checks = append(checks, api.ReadyCheck{Name: "nats", Check: func(context.Context) error {
			if !broker.Running() {
				return services.ErrBrokerStopped
			}
			return nil
		}})
	}

	router := api.NewRouter(api.Options{
		Session:  eng,
		LiveFeed: hub,
		Metrics:  m,
		Gatherer: reg,
		Middleware: api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSOrigins,
			CORSMaxAge:         300,
			RateLimitRequests:  cfg.Security.RateLimitReqs,
			RateLimitWindow:    cfg.Security.RateLimitWindow,
			RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		},
		TileMaxAge:  cfg.Tiles.MaxAge,
		ReadyChecks: checks,
	})
	server := &http.Server{
		Addr:              app.addr,
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddIngestService(ingestor)
	if sim != nil {
		tree.AddIngestService(sim)
	}
	tree.AddMessagingService(services.NewHubService(hub))
	if app.broker != nil {
		tree.AddMessagingService(services.NewBrokerService(app.broker, cfg.Server.ShutdownTimeout))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, app.addr, cfg.Server.ShutdownTimeout))
	app.tree = tree

	ok = true
	return app, nil
}

// reload applies the settings that may change without a restart.
func (a *application) reload() {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	next, err := config.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("Config reload rejected")
		return
	}
	if next.Logging != a.cfg.Logging {
		logging.Init(next.Logging.LoggerConfig())
		logging.Info().Str("level", next.Logging.Level).Msg("Log settings reloaded")
	}
	active, err := next.Colors.Metric()
	if err == nil {
		err = a.engine.SetActiveMetric(active)
	}
	if err != nil {
		logging.Warn().Err(err).Msg("Display metric reload rejected")
	}
	a.cfg = next
}

func (a *application) close() {
	if a.sub != nil {
		if err := a.sub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Telemetry subscriber close failed")
		}
	}
	a.engine.Close()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Telemetry publisher close failed")
		}
	}
	if a.broker != nil && a.broker.Running() {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdown)
		defer cancel()
		if err := a.broker.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
		}
	}
}
