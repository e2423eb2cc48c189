// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
	"github.com/tomtom215/furrow/internal/plotter"
	"github.com/tomtom215/furrow/internal/telemetry"
	"github.com/tomtom215/furrow/internal/tiles"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("engine closed")

// Config describes a session.
type Config struct {
	Boundary     field.Boundary
	Zoom         int // canvas reference zoom, field.ReferenceZoom when zero
	Profile      plotter.MachineProfile
	Palette      plotter.Palette
	Canvas       canvas.Options
	Scaler       draw.Scaler
	ActiveMetric canvas.Metric

	CacheSize       int
	CacheTTL        time.Duration
	RetentionWindow int

	Metrics  *metrics.Metrics
	Notifier Notifier
}

// session is everything that is rebuilt on a field switch.
type session struct {
	frame  *field.Frame
	canvas *canvas.Canvas
	raster *plotter.Rasterizer
	synth  *tiles.Synthesizer
	seq    *telemetry.Sequencer
}

// Engine runs one mapping session at a time.
type Engine struct {
	cfg      Config
	metrics  *metrics.Metrics
	notifier Notifier
	log      zerolog.Logger
	cache    *tiles.Cache

	// ingest serializes HandleRow so rows are paired in arrival order.
	ingest sync.Mutex

	// mu is held for reading by rows and tiles and for writing by Reset and
	// SwitchField.
	mu      sync.RWMutex
	current *session
	closed  bool

	active       atomic.Int32
	rowsReceived atomic.Uint64
	rowsPlotted  atomic.Uint64
	resets       atomic.Uint64
	switches     atomic.Uint64
	lastRow      atomic.Pointer[telemetry.Row]
}

// New validates cfg and starts a session on cfg.Boundary.
func New(cfg Config) (*Engine, error) {
	if cfg.Zoom == 0 {
		cfg.Zoom = field.ReferenceZoom
	}
	if !cfg.ActiveMetric.Valid() {
		return nil, fmt.Errorf("%w: %d", canvas.ErrUnknownMetric, int(cfg.ActiveMetric))
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}

	e := &Engine{
		cfg:      cfg,
		metrics:  cfg.Metrics,
		notifier: cfg.Notifier,
		log:      logging.WithComponent("engine"),
		cache:    tiles.NewCache(cfg.CacheSize, cfg.CacheTTL),
	}
	s, err := e.newSession(cfg.Boundary)
	if err != nil {
		return nil, err
	}
	e.current = s
	e.active.Store(int32(cfg.ActiveMetric))
	e.metrics.SetActiveMetric(cfg.ActiveMetric.String(), metricNames())

	size := s.frame.CanvasSize()
	e.log.Info().
		Str("field", s.frame.Bounds().NorthWest().String()).
		Int("width", size.X).
		Int("height", size.Y).
		Float64("meters_per_pixel", s.frame.MetersPerPixel()).
		Msg("Mapping session started")
	return e, nil
}

func (e *Engine) newSession(b field.Boundary) (*session, error) {
	frame, err := field.NewFrame(b, e.cfg.Zoom)
	if err != nil {
		return nil, err
	}
	cv, err := canvas.New(frame, e.cfg.Canvas)
	if err != nil {
		return nil, err
	}
	raster, err := plotter.New(frame, cv, e.cfg.Profile, plotter.Options{
		Palette: e.cfg.Palette,
		Metrics: e.metrics,
	})
	if err != nil {
		return nil, err
	}
	return &session{
		frame:  frame,
		canvas: cv,
		raster: raster,
		synth:  tiles.New(cv, tiles.Options{Scaler: e.cfg.Scaler, Metrics: e.metrics}),
		seq:    telemetry.NewSequencer(e.cfg.RetentionWindow),
	}, nil
}

func metricNames() []string {
	all := canvas.Metrics()
	names := make([]string, len(all))
	for i, m := range all {
		names[i] = m.String()
	}
	return names
}

// HandleRow implements telemetry.RowHandler. The row's predecessor is
// rasterized now that its successor is known; r itself waits for the next
// row.
func (e *Engine) HandleRow(ctx context.Context, r *telemetry.Row) error {
	if r == nil {
		return nil
	}
	e.ingest.Lock()
	defer e.ingest.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}

	e.rowsReceived.Add(1)
	e.lastRow.Store(r)

	s := e.current
	prev := s.seq.Push(r)
	if prev == nil {
		return nil
	}

	if err := s.raster.OnRow(prev, r, e.ActiveMetric()); err != nil {
		return fmt.Errorf("rasterize row %d: %w", prev.Sequence, err)
	}
	if !prev.MasterOn {
		return nil
	}

	e.rowsPlotted.Add(1)
	rowsOn := 0
	for i := range prev.Rows {
		if prev.RowOn(i) {
			rowsOn++
		}
	}
	e.notify(EventRowPlotted, RowPlotted{
		Sequence: prev.Sequence,
		Position: prev.Position,
		Heading:  prev.Heading,
		Speed:    prev.Speed,
		RowsOn:   rowsOn,
	})
	logging.Ctx(ctx).Trace().Uint64("sequence", prev.Sequence).Int("rows_on", rowsOn).Msg("Row plotted")
	return nil
}

// ActiveMetric returns the metric painted synchronously.
func (e *Engine) ActiveMetric() canvas.Metric {
	return canvas.Metric(e.active.Load())
}

// SetActiveMetric changes the display metric. Rows already queued for
// replay are unaffected; later rows paint m first.
func (e *Engine) SetActiveMetric(m canvas.Metric) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", canvas.ErrUnknownMetric, int(m))
	}
	if canvas.Metric(e.active.Swap(int32(m))) == m {
		return nil
	}
	e.metrics.SetActiveMetric(m.String(), metricNames())
	e.log.Info().Str("metric", m.String()).Msg("Display metric changed")
	e.notify(EventMetricChanged, MetricChanged{Metric: m})
	return nil
}

// Reset clears every layer and starts a new strip with the next row.
func (e *Engine) Reset() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	s := e.current
	s.raster.Wait()
	s.canvas.Reset()
	s.seq.Reset()
	e.cache.Clear()
	e.mu.Unlock()

	e.resets.Add(1)
	e.metrics.RecordReset()
	e.metrics.SetTileCacheEntries(0)
	e.log.Info().Msg("Canvas reset")
	e.notify(EventCanvasReset, nil)
	return nil
}

// SwitchField replaces the session with one for b. The new canvas is built
// before the old one is released, so both exist briefly. On error the
// current session is untouched.
func (e *Engine) SwitchField(b field.Boundary) (FieldInfo, error) {
	next, err := e.newSession(b)
	if err != nil {
		return FieldInfo{}, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		next.raster.Close()
		return FieldInfo{}, ErrClosed
	}
	old := e.current
	old.raster.Close()
	e.current = next
	e.cache.Clear()
	e.mu.Unlock()

	e.switches.Add(1)
	e.lastRow.Store(nil)
	e.metrics.RecordFieldSwitch()
	e.metrics.SetTileCacheEntries(0)

	info := fieldInfo(next.frame)
	e.log.Info().
		Str("north_west", b.NorthWest.String()).
		Str("south_east", b.SouthEast.String()).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("Field switched")
	e.notify(EventFieldChanged, info)
	return info, nil
}

// TileData is an encoded tile.
type TileData struct {
	PNG     []byte
	Version uint64
	Cached  bool
}

// Tile returns the PNG for addr on metric m's layer. It returns
// tiles.ErrNoTile when the tile misses the field.
func (e *Engine) Tile(ctx context.Context, addr geo.TileAddress, m canvas.Metric) (*TileData, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}
	s := e.current

	key := tiles.Key{Metric: m, Address: addr}
	if m.Valid() {
		if data, ok := e.cache.Get(key, s.canvas.Version(m)); ok {
			e.metrics.RecordTileRequest(metrics.TileResultHit)
			return &TileData{PNG: data, Version: s.canvas.Version(m), Cached: true}, nil
		}
	}

	tile, err := s.synth.RequestTile(ctx, addr, m)
	if err != nil {
		return nil, err
	}
	data, err := tiles.EncodePNG(tile.Image)
	if err != nil {
		e.metrics.RecordTileRequest(metrics.TileResultError)
		return nil, err
	}
	e.cache.Add(key, tile.Version, data)
	e.metrics.SetTileCacheEntries(e.cache.Len())
	return &TileData{PNG: data, Version: tile.Version}, nil
}

// Snapshot returns a copy of metric m's whole layer.
func (e *Engine) Snapshot(m canvas.Metric) (*image.RGBA, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", canvas.ErrUnknownMetric, int(m))
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current.canvas.Snapshot(m), nil
}

// Wait blocks until queued replays of the current session are painted.
func (e *Engine) Wait() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.current.raster.Wait()
}

// Palette returns the color maps in use.
func (e *Engine) Palette() plotter.Palette {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current.raster.Palette()
}

// Field describes the current field.
func (e *Engine) Field() FieldInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fieldInfo(e.current.frame)
}

// Close stops the rasterizer after draining its queues.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.current.raster.Close()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

func (e *Engine) notify(typ string, data any) {
	e.notifier.Notify(Event{Type: typ, Data: data, Timestamp: time.Now().UTC()})
}
