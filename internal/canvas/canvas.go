// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
)

const (
	// DefaultCoverageThreshold is the mask coverage (0-255) at which a pixel
	// takes the segment color. It sits below one half so two segments
	// sharing an edge always cover the pixels on it between them.
	DefaultCoverageThreshold = 0x60

	// DefaultMaxPixels caps a single layer at 128 megapixels.
	DefaultMaxPixels = 128 << 20

	// DefaultMaxSegmentArea caps the bounding box of one painted segment.
	// Larger segments come from position jumps and are dropped.
	DefaultMaxSegmentArea = 4 << 20
)

// ErrCanvasTooLarge is returned when the field frame needs more pixels per
// layer than the configured limit.
var ErrCanvasTooLarge = errors.New("canvas exceeds pixel limit")

// Options tunes a Canvas.
type Options struct {
	// Strict panics on an out-of-range Metric instead of ignoring it.
	Strict bool

	// MaxPixels limits width*height of one layer. Zero means DefaultMaxPixels.
	MaxPixels int64

	// MaxSegmentArea limits the bounding box of one segment in pixels.
	// Zero means DefaultMaxSegmentArea.
	MaxSegmentArea int

	// CoverageThreshold overrides DefaultCoverageThreshold when non-zero.
	CoverageThreshold uint8
}

// Canvas is the set of raster layers for one field.
type Canvas struct {
	frame  *field.Frame
	opts   Options
	mu     sync.RWMutex
	layers [MetricCount]*layer
}

type layer struct {
	mu      sync.RWMutex
	img     *image.RGBA
	version atomic.Uint64

	// Scratch state reused across fills; guarded by mu.
	raster *vector.Rasterizer
	mask   *image.Alpha
}

// New allocates a transparent layer per metric sized to the frame.
func New(frame *field.Frame, opts Options) (*Canvas, error) {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.MaxSegmentArea <= 0 {
		opts.MaxSegmentArea = DefaultMaxSegmentArea
	}
	if opts.CoverageThreshold == 0 {
		opts.CoverageThreshold = DefaultCoverageThreshold
	}

	size := frame.CanvasSize()
	if pixels := int64(size.X) * int64(size.Y); pixels > opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d needs %d pixels, limit %d",
			ErrCanvasTooLarge, size.X, size.Y, pixels, opts.MaxPixels)
	}

	c := &Canvas{frame: frame, opts: opts}
	for i := range c.layers {
		c.layers[i] = &layer{img: image.NewRGBA(image.Rect(0, 0, size.X, size.Y))}
	}
	return c, nil
}

// Frame returns the field frame the canvas is anchored to.
func (c *Canvas) Frame() *field.Frame { return c.frame }

// Size returns the layer dimensions in pixels.
func (c *Canvas) Size() image.Point { return c.frame.CanvasSize() }

// PixelFor returns the canvas position of p.
func (c *Canvas) PixelFor(p geo.GeoPoint) vec.Vec2 { return c.frame.PixelFor(p) }

// Version returns a counter that changes every time the layer is painted or
// reset. Out-of-range metrics report zero.
func (c *Canvas) Version(m Metric) uint64 {
	l := c.layer(m)
	if l == nil {
		return 0
	}
	return l.version.Load()
}

// PaintRowSegment fills quad with col on the layer of metric m. It reports
// whether any pixel changed; segments outside the canvas, degenerate
// segments and oversize segments paint nothing.
func (c *Canvas) PaintRowSegment(m Metric, quad Quad, col color.RGBA) bool {
	l := c.layer(m)
	if l == nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.fill(quad, col, c.opts) {
		return false
	}
	l.version.Add(1)
	return true
}

// Snapshot returns a copy of the whole layer for metric m.
func (c *Canvas) Snapshot(m Metric) *image.RGBA {
	img, _ := c.SnapshotRegion(m, image.Rectangle{Max: c.Size()})
	return img
}

// SnapshotRegion copies the part of layer m inside r, clipped to the canvas.
// The copy's bounds start at (0, 0). The layer version the copy was taken at
// is returned alongside. Out-of-range metrics yield a nil image.
func (c *Canvas) SnapshotRegion(m Metric, r image.Rectangle) (*image.RGBA, uint64) {
	l := c.layer(m)
	if l == nil {
		return nil, 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	l.mu.RLock()
	defer l.mu.RUnlock()

	r = r.Intersect(l.img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	rowBytes := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		src := l.img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+rowBytes], l.img.Pix[src:src+rowBytes])
	}
	return out, l.version.Load()
}

// ScaleInto scales the part of layer m inside sr onto dr of dst while holding
// the layer read lock, and returns the layer version that was drawn. It lets
// tile synthesis read a consistent layer without copying it first.
func (c *Canvas) ScaleInto(m Metric, sr image.Rectangle, dst draw.Image, dr image.Rectangle, s draw.Scaler) uint64 {
	l := c.layer(m)
	if l == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	l.mu.RLock()
	defer l.mu.RUnlock()

	sr = sr.Intersect(l.img.Bounds())
	if sr.Empty() || dr.Empty() {
		return l.version.Load()
	}
	s.Scale(dst, dr, l.img, sr, draw.Src, nil)
	return l.version.Load()
}

// Reset clears every layer to transparent. No paint or snapshot on any
// layer runs while the reset is in progress.
func (c *Canvas) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range c.layers {
		l.mu.Lock()
		clear(l.img.Pix)
		l.version.Add(1)
		l.mu.Unlock()
	}
}

func (c *Canvas) layer(m Metric) *layer {
	if m.Valid() {
		return c.layers[m]
	}
	if c.opts.Strict {
		panic(fmt.Sprintf("canvas: %v: %d", ErrUnknownMetric, int(m)))
	}
	logging.Warn().Int("metric", int(m)).Msg("Ignoring canvas operation on unknown metric")
	return nil
}

// fill rasterizes quad into the layer. Caller holds l.mu.
func (l *layer) fill(quad Quad, col color.RGBA, opts Options) bool {
	bounds := l.img.Bounds()
	poly := clipToRect(quad[:], float64(bounds.Dx()), float64(bounds.Dy()))
	if len(poly) < 3 {
		return false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(bounds)
	if box.Empty() {
		return false
	}
	if box.Dx()*box.Dy() > opts.MaxSegmentArea {
		logging.Debug().
			Int("width", box.Dx()).
			Int("height", box.Dy()).
			Msg("Dropping oversize row segment")
		return false
	}

	w, h := box.Dx(), box.Dy()
	if l.raster == nil {
		l.raster = vector.NewRasterizer(w, h)
	} else {
		l.raster.Reset(w, h)
	}
	l.raster.DrawOp = draw.Src

	origin := vec.Vec2{X: float64(box.Min.X), Y: float64(box.Min.Y)}
	for i, p := range poly {
		local := p.Sub(origin)
		if i == 0 {
			l.raster.MoveTo(float32(local.X), float32(local.Y))
			continue
		}
		l.raster.LineTo(float32(local.X), float32(local.Y))
	}
	l.raster.ClosePath()

	mask := l.maskFor(w, h)
	l.raster.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	painted := false
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, coverage := range row {
			if coverage < opts.CoverageThreshold {
				continue
			}
			off := l.img.PixOffset(box.Min.X+x, box.Min.Y+y)
			l.img.Pix[off+0] = col.R
			l.img.Pix[off+1] = col.G
			l.img.Pix[off+2] = col.B
			l.img.Pix[off+3] = col.A
			painted = true
		}
	}
	return painted
}

// maskFor returns a cleared w x h coverage mask, reusing the previous buffer
// when it is large enough.
func (l *layer) maskFor(w, h int) *image.Alpha {
	need := w * h
	if l.mask == nil || cap(l.mask.Pix) < need {
		l.mask = image.NewAlpha(image.Rect(0, 0, w, h))
		return l.mask
	}
	l.mask.Pix = l.mask.Pix[:need]
	clear(l.mask.Pix)
	l.mask.Stride = w
	l.mask.Rect = image.Rect(0, 0, w, h)
	return l.mask
}
