// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package telemetry

import "sync"

// DefaultRetentionWindow is how many recent rows a Sequencer keeps.
const DefaultRetentionWindow = 32

// Sequencer assigns arrival order and tracks the row still waiting for a
// successor. Rows older than the retention window are released.
type Sequencer struct {
	mu      sync.Mutex
	window  int
	next    uint64
	pending *Row
	recent  []*Row // ring buffer, oldest at head
	head    int
}

// NewSequencer returns a Sequencer keeping the given number of recent rows.
func NewSequencer(window int) *Sequencer {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return &Sequencer{window: window, recent: make([]*Row, 0, window)}
}

// Push records r as the newest row and returns the row it succeeds, or nil
// when r is the first row since a reset.
func (s *Sequencer) Push(r *Row) *Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	r.Sequence = s.next

	prev := s.pending
	s.pending = r

	if len(s.recent) < s.window {
		s.recent = append(s.recent, r)
	} else {
		s.recent[s.head] = r
		s.head = (s.head + 1) % s.window
	}
	return prev
}

// Pending returns the newest row, which has no successor yet.
func (s *Sequencer) Pending() *Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Recent returns the retained rows, oldest first.
func (s *Sequencer) Recent() []*Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Row, 0, len(s.recent))
	out = append(out, s.recent[s.head:]...)
	out = append(out, s.recent[:s.head]...)
	return out
}

// Count returns how many rows have been pushed since the last reset.
func (s *Sequencer) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Reset forgets the pending row and the retention window. The next pushed
// row starts a new strip.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next = 0
	s.pending = nil
	s.recent = s.recent[:0]
	s.head = 0
}
