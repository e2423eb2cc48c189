// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/engine"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/metrics"
	"github.com/tomtom215/furrow/internal/middleware"
	"github.com/tomtom215/furrow/internal/plotter"
)

// Session is the engine surface the handlers use.
type Session interface {
	Tile(ctx context.Context, addr geo.TileAddress, m canvas.Metric) (*engine.TileData, error)
	ActiveMetric() canvas.Metric
	SetActiveMetric(m canvas.Metric) error
	Reset() error
	SwitchField(b field.Boundary) (engine.FieldInfo, error)
	Field() engine.FieldInfo
	Status() engine.Status
	Palette() plotter.Palette
	Closed() bool
}

// ReadyCheck is one dependency consulted by the readiness probe.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options configures a Router.
type Options struct {
	Session Session

	// LiveFeed serves /api/v1/ws. The route is absent when nil.
	LiveFeed http.Handler

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Middleware MiddlewareConfig

	// TileMaxAge is the Cache-Control max-age of tile responses. Layers
	// change with every row, so keep it short.
	TileMaxAge time.Duration

	ReadyChecks []ReadyCheck
}

// Router holds the handlers' dependencies.
type Router struct {
	session    Session
	liveFeed   http.Handler
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	mw         *Middleware
	tileMaxAge time.Duration
	checks     []ReadyCheck
	startTime  time.Time
}

// NewRouter returns a router for opts. Session is required.
func NewRouter(opts Options) *Router {
	if opts.TileMaxAge <= 0 {
		opts.TileMaxAge = 2 * time.Second
	}
	return &Router{
		session:    opts.Session,
		liveFeed:   opts.LiveFeed,
		metrics:    opts.Metrics,
		gatherer:   opts.Gatherer,
		mw:         NewMiddleware(opts.Middleware),
		tileMaxAge: opts.TileMaxAge,
		checks:     opts.ReadyChecks,
		startTime:  time.Now(),
	}
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Prometheus(rt.metrics))
	r.Use(rt.mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("No route for " + r.URL.Path)
	})

	if rt.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", rt.HealthLive)
		r.Get("/health/ready", rt.HealthReady)

		r.Get("/tiles/{metric}/{z}/{x}/{y}.png", rt.TilePNG)

		if rt.liveFeed != nil {
			r.Handle("/ws", rt.liveFeed)
		}

		r.Group(func(r chi.Router) {
			r.Use(rt.mw.RateLimit())
			r.Use(middleware.Compression)

			r.Get("/metric", rt.GetMetric)
			r.Put("/metric", rt.PutMetric)
			r.Post("/reset", rt.PostReset)
			r.Get("/field", rt.GetField)
			r.Put("/field", rt.PutField)
			r.Get("/session", rt.GetSession)
			r.Get("/metrics/colors", rt.GetColors)
		})
	})

	return r
}
