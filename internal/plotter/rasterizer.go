// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package plotter

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
	"github.com/tomtom215/furrow/internal/telemetry"
)

var (
	// ErrNoSuccessor is returned when a transition is requested before the
	// next row is known. The caller keeps the row and retries later.
	ErrNoSuccessor = errors.New("row has no successor yet")

	// ErrClosed is returned by OnRow after Close.
	ErrClosed = errors.New("rasterizer closed")

	// ErrInvalidProfile is returned for machine profiles without width or rows.
	ErrInvalidProfile = errors.New("invalid machine profile")
)

// Projector is the narrow view of a map backend the rasterizer needs.
type Projector interface {
	PixelFor(p geo.GeoPoint) vec.Vec2
	PixelsForMeters(meters float64, at geo.GeoPoint) float64
}

// MachineProfile describes the implement.
type MachineProfile struct {
	WidthMeters float64
	RowCount    int
}

// Validate checks that the profile can be rasterized.
func (p MachineProfile) Validate() error {
	if !(p.WidthMeters > 0) || math.IsInf(p.WidthMeters, 0) {
		return fmt.Errorf("%w: width %v must be positive", ErrInvalidProfile, p.WidthMeters)
	}
	if p.RowCount <= 0 {
		return fmt.Errorf("%w: row count %d must be positive", ErrInvalidProfile, p.RowCount)
	}
	return nil
}

// Options configures a Rasterizer.
type Options struct {
	Palette Palette
	Metrics *metrics.Metrics
}

// Rasterizer converts row transitions into painted segments.
type Rasterizer struct {
	proj    Projector
	profile MachineProfile
	palette Palette
	metrics *metrics.Metrics
	log     zerolog.Logger
	workers [canvas.MetricCount]*layerWorker
	closed  atomic.Bool
}

// New starts one replay worker per metric.
func New(proj Projector, painter Painter, profile MachineProfile, opts Options) (*Rasterizer, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	for m, cm := range opts.Palette {
		if cm == nil {
			opts.Palette[m] = DefaultPalette()[m]
		}
	}

	r := &Rasterizer{
		proj:    proj,
		profile: profile,
		palette: opts.Palette,
		metrics: opts.Metrics,
		log:     logging.WithComponent("rasterizer"),
	}
	for _, m := range canvas.Metrics() {
		name := m.String()
		r.workers[m] = newLayerWorker(m, painter,
			func(depth int) { r.metrics.SetReplayDepth(name, depth) },
			func(painted int) { r.metrics.RecordSegments(name, painted) },
		)
	}
	return r, nil
}

// Profile returns the machine profile.
func (r *Rasterizer) Profile() MachineProfile { return r.profile }

// Palette returns the color maps in use.
func (r *Rasterizer) Palette() Palette { return r.palette }

// OnRow paints the transition from current to next. The active metric's
// layer is painted before OnRow returns; every other layer is queued.
//
// A transition whose current row has the master switch off paints nothing
// and returns nil. Positions on or past a pole return
// geo.ErrDegenerateProjection. Neither row is retained after OnRow returns.
func (r *Rasterizer) OnRow(current, next *telemetry.Row, active canvas.Metric) error {
	start := time.Now()

	if r.closed.Load() {
		return ErrClosed
	}
	if current == nil {
		return nil
	}
	if !current.MasterOn {
		r.metrics.RecordRowSkipped(metrics.SkipMasterOff)
		return nil
	}
	if next == nil {
		return ErrNoSuccessor
	}
	if current.Position.Degenerate() || next.Position.Degenerate() {
		r.metrics.RecordRowSkipped(metrics.SkipDegenerate)
		return fmt.Errorf("row %d: %w", current.Sequence, geo.ErrDegenerateProjection)
	}
	if !active.Valid() {
		return fmt.Errorf("%w: %d", canvas.ErrUnknownMetric, int(active))
	}

	segments := r.segments(current, next)

	var jobs [canvas.MetricCount]*job
	for _, m := range canvas.Metrics() {
		jobs[m] = r.buildJob(m, current, segments)
	}

	r.workers[active].do(jobs[active])
	for _, m := range canvas.Metrics() {
		if m != active {
			r.workers[m].submit(jobs[m])
		}
	}

	r.metrics.RecordRowRasterized(time.Since(start))
	return nil
}

// Wait blocks until every queued replay has been painted.
func (r *Rasterizer) Wait() {
	for _, w := range r.workers {
		w.barrier()
	}
}

// Close drains the replay queues and stops the workers.
func (r *Rasterizer) Close() {
	if r.closed.Swap(true) {
		return
	}
	for _, w := range r.workers {
		w.close()
	}
}

type segment struct {
	row  int
	quad canvas.Quad
}

// segments builds the quad of every engaged planter row.
func (r *Rasterizer) segments(current, next *telemetry.Row) []segment {
	cur := r.proj.PixelFor(current.Position)
	nxt := r.proj.PixelFor(next.Position)
	width := r.proj.PixelsForMeters(r.profile.WidthMeters, current.Position)
	n := r.profile.RowCount

	rotCur := rotationAbout(current.Heading, cur)
	rotNext := rotationAbout(next.Heading, nxt)

	out := make([]segment, 0, n)
	for i := 0; i < n; i++ {
		if !current.RowOn(i) {
			continue
		}
		left := -width/2 + float64(i)*width/float64(n)
		right := -width/2 + float64(i+1)*width/float64(n)

		out = append(out, segment{
			row: i,
			quad: canvas.Quad{
				apply(rotCur, vec.Vec2{X: left}),
				apply(rotCur, vec.Vec2{X: right}),
				apply(rotNext, vec.Vec2{X: right}),
				apply(rotNext, vec.Vec2{X: left}),
			},
		})
	}
	return out
}

func (r *Rasterizer) buildJob(m canvas.Metric, current *telemetry.Row, segments []segment) *job {
	cm := r.palette[m]
	j := &job{paints: make([]paint, 0, len(segments))}
	for _, s := range segments {
		v, ok := current.RowValue(s.row, m)
		if !ok {
			continue
		}
		c, clamped := cm.Color(v)
		if clamped {
			r.metrics.RecordOutOfRange(m.String())
			r.log.Debug().
				Str("metric", m.String()).
				Int("row", s.row).
				Float64("value", v).
				Msg("Clamping out-of-range reading")
		}
		j.paints = append(j.paints, paint{quad: s.quad, color: c})
	}
	return j
}

// rotationAbout returns the transform that takes an offset relative to
// pivot to its canvas position after rotating clockwise by heading degrees.
func rotationAbout(heading float64, pivot vec.Vec2) matrix.Matrix {
	theta := heading * math.Pi / 180
	sin, cos := math.Sincos(theta)
	return matrix.Matrix{cos, sin, -sin, cos, pivot.X, pivot.Y}
}

func apply(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*v.X + m[2]*v.Y + m[4],
		Y: m[1]*v.X + m[3]*v.Y + m[5],
	}
}
