// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/metrics"
)

var (
	// ErrNoTile means the tile does not overlap the field. It is an answer,
	// not a failure.
	ErrNoTile = errors.New("no tile")

	// ErrInvalidTile is returned for addresses outside the tile pyramid.
	ErrInvalidTile = errors.New("invalid tile address")
)

// Source is the canvas view tile synthesis reads from.
type Source interface {
	Frame() *field.Frame
	ScaleInto(m canvas.Metric, sr image.Rectangle, dst draw.Image, dr image.Rectangle, s draw.Scaler) uint64
}

// Tile is a rendered tile and the layer version it shows.
type Tile struct {
	Address geo.TileAddress
	Metric  canvas.Metric
	Image   *image.RGBA
	Version uint64
}

// Options configures a Synthesizer.
type Options struct {
	// Scaler resamples the canvas. Defaults to nearest neighbour.
	Scaler  draw.Scaler
	Metrics *metrics.Metrics
}

// Stats counts requests handled by one Synthesizer.
type Stats struct {
	Requests uint64 `json:"requests"`
	Rendered uint64 `json:"rendered"`
	NoTile   uint64 `json:"no_tile"`
	Invalid  uint64 `json:"invalid"`
}

// Synthesizer renders tiles for one canvas.
type Synthesizer struct {
	src     Source
	scaler  draw.Scaler
	metrics *metrics.Metrics

	requests atomic.Uint64
	rendered atomic.Uint64
	noTile   atomic.Uint64
	invalid  atomic.Uint64
}

// New returns a Synthesizer reading from src.
func New(src Source, opts Options) *Synthesizer {
	if opts.Scaler == nil {
		opts.Scaler = draw.NearestNeighbor
	}
	return &Synthesizer{src: src, scaler: opts.Scaler, metrics: opts.Metrics}
}

// ParseScaler maps a configuration name to an interpolator.
func ParseScaler(name string) (draw.Scaler, error) {
	switch strings.ToLower(name) {
	case "", "nearest":
		return draw.NearestNeighbor, nil
	case "approx_bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown tile interpolation %q", name)
}

// Stats returns the request counters.
func (s *Synthesizer) Stats() Stats {
	return Stats{
		Requests: s.requests.Load(),
		Rendered: s.rendered.Load(),
		NoTile:   s.noTile.Load(),
		Invalid:  s.invalid.Load(),
	}
}

// RequestTile renders tile addr of metric m's layer.
func (s *Synthesizer) RequestTile(ctx context.Context, addr geo.TileAddress, m canvas.Metric) (*Tile, error) {
	s.requests.Add(1)

	if !addr.Valid() {
		s.invalid.Add(1)
		s.metrics.RecordTileRequest(metrics.TileResultInvalid)
		return nil, fmt.Errorf("%w: %s", ErrInvalidTile, addr)
	}
	if !m.Valid() {
		s.invalid.Add(1)
		s.metrics.RecordTileRequest(metrics.TileResultInvalid)
		return nil, fmt.Errorf("%w: %d", canvas.ErrUnknownMetric, int(m))
	}

	frame := s.src.Frame()
	fieldBounds := frame.Bounds()
	tileBounds := geo.TileBoundsFor(addr)
	if !fieldBounds.Intersects(tileBounds) {
		s.noTile.Add(1)
		s.metrics.RecordTileRequest(metrics.TileResultNoTile)
		return nil, ErrNoTile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	sr, dr := cropRects(frame, addr)

	img := image.NewRGBA(image.Rect(0, 0, geo.TileSize, geo.TileSize))
	version := s.src.ScaleInto(m, sr, img, dr, s.scaler)

	s.rendered.Add(1)
	s.metrics.RecordTileRequest(metrics.TileResultRendered)
	s.metrics.RecordTileRender(time.Since(start))

	return &Tile{Address: addr, Metric: m, Image: img, Version: version}, nil
}

// span is the crop of one axis: [src0, src1) in canvas pixels maps to
// [dst0, dst1) in tile pixels.
type span struct {
	src0, src1 float64
	dst0, dst1 float64
}

// cropAxis resolves one axis. fieldNear and fieldFar are the field's edges
// in tile pixels; tileNear and tileFar are the tile's edges in canvas pixels.
func cropAxis(fieldNear, fieldFar, tileNear, tileFar float64, canvasExtent float64) span {
	var s span

	if fieldNear >= 0 {
		// The field image starts inside the tile: draw it from its first
		// pixel at the field's offset.
		s.src0, s.dst0 = 0, fieldNear
	} else {
		// The tile starts inside the field: skip the canvas pixels before
		// the tile edge and draw from the tile's first pixel.
		s.src0, s.dst0 = tileNear, 0
	}

	if fieldFar <= geo.TileSize {
		s.src1, s.dst1 = canvasExtent, fieldFar
	} else {
		s.src1, s.dst1 = math.Min(tileFar, canvasExtent), geo.TileSize
	}
	return s
}

// cropRects returns the canvas source rectangle and the tile destination
// rectangle for addr. Both are snapped to whole pixels.
func cropRects(frame *field.Frame, addr geo.TileAddress) (src, dst image.Rectangle) {
	bounds := frame.Bounds()
	size := frame.CanvasSize()

	fx0, fy0 := geo.TilePixel(addr, bounds.NorthWest())
	fx1, fy1 := geo.TilePixel(addr, bounds.SouthEast())

	tb := geo.TileBoundsFor(addr)
	t0 := frame.PixelFor(tb.NorthWest())
	t1 := frame.PixelFor(tb.SouthEast())

	x := cropAxis(fx0, fx1, t0.X, t1.X, float64(size.X))
	y := cropAxis(fy0, fy1, t0.Y, t1.Y, float64(size.Y))

	sx0, sx1 := snap(x.src0, x.src1, size.X)
	sy0, sy1 := snap(y.src0, y.src1, size.Y)
	dx0, dx1 := snap(x.dst0, x.dst1, geo.TileSize)
	dy0, dy1 := snap(y.dst0, y.dst1, geo.TileSize)

	return image.Rect(sx0, sy0, sx1, sy1), image.Rect(dx0, dy0, dx1, dy1)
}

// snap rounds [a, b) to whole pixels inside [0, limit) and keeps at least
// one pixel so a sliver of field never disappears.
func snap(a, b float64, limit int) (int, int) {
	lo := clampInt(int(math.Round(a)), 0, limit-1)
	hi := clampInt(int(math.Round(b)), 0, limit)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
