// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package plotter

import (
	"image/color"
	"sync"

	"github.com/tomtom215/furrow/internal/canvas"
)

// Painter is the canvas surface the rasterizer writes to.
type Painter interface {
	PaintRowSegment(m canvas.Metric, quad canvas.Quad, c color.RGBA) bool
}

type paint struct {
	quad  canvas.Quad
	color color.RGBA
}

// job is one row transition for one metric.
type job struct {
	paints []paint
	done   chan struct{} // closed once painted; nil for fire-and-forget
}

// layerWorker is the only goroutine that paints its metric's layer.
type layerWorker struct {
	metric  canvas.Metric
	painter Painter
	onDepth func(depth int)
	onDone  func(painted int)

	mu      sync.Mutex
	queue   []*job
	closing bool
	wake    chan struct{}
	stopped chan struct{}
}

func newLayerWorker(m canvas.Metric, p Painter, onDepth, onDone func(int)) *layerWorker {
	w := &layerWorker{
		metric:  m,
		painter: p,
		onDepth: onDepth,
		onDone:  onDone,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w
}

// submit queues j and returns immediately. Jobs submitted after close are
// painted on the caller's goroutine.
func (w *layerWorker) submit(j *job) {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		w.exec(j)
		return
	}
	w.queue = append(w.queue, j)
	depth := len(w.queue)
	w.mu.Unlock()

	w.onDepth(depth)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// do queues j behind everything already pending and waits for it.
func (w *layerWorker) do(j *job) {
	j.done = make(chan struct{})
	w.submit(j)
	<-j.done
}

// barrier waits until every job queued before the call has been painted.
func (w *layerWorker) barrier() {
	w.do(&job{})
}

// close paints the remaining backlog and stops the worker.
func (w *layerWorker) close() {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		<-w.stopped
		return
	}
	w.closing = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	<-w.stopped
}

func (w *layerWorker) run() {
	defer close(w.stopped)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			closing := w.closing
			w.mu.Unlock()
			if closing {
				return
			}
			<-w.wake
			continue
		}
		j := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		depth := len(w.queue)
		w.mu.Unlock()

		w.exec(j)
		w.onDepth(depth)
	}
}

func (w *layerWorker) exec(j *job) {
	painted := 0
	for _, p := range j.paints {
		if w.painter.PaintRowSegment(w.metric, p.quad, p.color) {
			painted++
		}
	}
	if len(j.paints) > 0 {
		w.onDone(painted)
	}
	if j.done != nil {
		close(j.done)
	}
}
