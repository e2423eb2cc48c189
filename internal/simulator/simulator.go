// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/field"
	"github.com/tomtom215/furrow/internal/geo"
	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/plotter"
	"github.com/tomtom215/furrow/internal/telemetry"
)

// ErrFieldTooNarrow means the field is narrower than one pass.
var ErrFieldTooNarrow = errors.New("field narrower than the implement")

const metersPerDegreeLat = math.Pi * geo.EarthRadiusMeters / 180

// Sink receives simulated rows. *telemetry.Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, r *telemetry.Row) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r *telemetry.Row) error

// Publish implements Sink.
func (f SinkFunc) Publish(ctx context.Context, r *telemetry.Row) error { return f(ctx, r) }

// Config describes a simulated run.
type Config struct {
	Boundary field.Boundary
	Profile  plotter.MachineProfile

	Interval      time.Duration // between samples, 200ms when zero
	SpeedMPS      float64       // ground speed, 2.7 m/s when zero
	SkipRate      float64       // probability a row reports a skip or double
	HeadingJitter float64       // degrees of uniform noise on the reported heading
	Seed          uint64        // zero seeds from the clock
}

type phase int

const (
	phasePass phase = iota
	phaseTurn
)

// Simulator generates rows along a serpentine path.
type Simulator struct {
	cfg  Config
	sink Sink
	log  zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	widthM, heightM float64 // field extent in meters
	lonScale        float64 // meters per degree of longitude at the field center

	x, y    float64 // meters east and south of the north-west corner
	dir     float64 // +1 east, -1 west
	phase   phase
	targetY float64
	pass    int
	laps    int
}

// New validates cfg and places the planter at the start of the first pass.
func New(cfg Config, sink Sink) (*Simulator, error) {
	if sink == nil {
		return nil, errors.New("simulator: nil sink")
	}
	if err := cfg.Boundary.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if err := cfg.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 200 * time.Millisecond
	}
	if cfg.SpeedMPS <= 0 {
		cfg.SpeedMPS = 2.7
	}
	if cfg.SkipRate < 0 || cfg.SkipRate > 1 {
		return nil, fmt.Errorf("simulator: skip rate %v outside [0, 1]", cfg.SkipRate)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	b := cfg.Boundary.Bounds()
	center := cfg.Boundary.Center()
	s := &Simulator{
		cfg:      cfg,
		sink:     sink,
		log:      logging.WithComponent("simulator"),
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		lonScale: metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180),
	}
	s.widthM = (b.East - b.West) * s.lonScale
	s.heightM = (b.North - b.South) * metersPerDegreeLat
	if s.heightM < cfg.Profile.WidthMeters {
		return nil, fmt.Errorf("%w: %.1f m across, implement %.1f m", ErrFieldTooNarrow, s.heightM, cfg.Profile.WidthMeters)
	}
	s.restart()
	return s, nil
}

func (s *Simulator) restart() {
	s.x, s.y = 0, s.cfg.Profile.WidthMeters/2
	s.dir = 1
	s.phase = phasePass
	s.pass = 0
}

// Passes returns how many full passes cover the field.
func (s *Simulator) Passes() int {
	return int(s.heightM / s.cfg.Profile.WidthMeters)
}

// Next advances the planter by one sample interval and returns the row it
// reports there.
func (s *Simulator) Next() *telemetry.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := s.cfg.SpeedMPS * s.cfg.Interval.Seconds()
	heading := 90.0
	masterOn := true

	switch s.phase {
	case phasePass:
		s.x += s.dir * step
		if s.x >= s.widthM || s.x <= 0 {
			s.x = math.Max(0, math.Min(s.x, s.widthM))
			s.startTurn()
		}
		if s.dir < 0 {
			heading = 270
		}
	case phaseTurn:
		s.y = math.Min(s.y+step, s.targetY)
		heading, masterOn = 180, false
		if s.y >= s.targetY {
			s.dir = -s.dir
			s.phase = phasePass
			s.pass++
		}
	}

	return s.row(heading, masterOn)
}

// startTurn heads for the next pass, or back to the first one when the
// field is covered.
func (s *Simulator) startTurn() {
	next := s.y + s.cfg.Profile.WidthMeters
	if next > s.heightM-s.cfg.Profile.WidthMeters/2 {
		s.laps++
		s.log.Info().Int("passes", s.pass+1).Int("laps", s.laps).Msg("Field covered, starting over")
		s.restart()
		return
	}
	s.phase = phaseTurn
	s.targetY = next
}

func (s *Simulator) row(heading float64, masterOn bool) *telemetry.Row {
	b := s.cfg.Boundary.Bounds()
	pos := geo.GeoPoint{
		Lat: b.North - s.y/metersPerDegreeLat,
		Lon: b.West + s.x/s.lonScale,
	}
	if j := s.cfg.HeadingJitter; j > 0 {
		heading += (s.rng.Float64()*2 - 1) * j
	}

	rows := make([]telemetry.RowState, s.cfg.Profile.RowCount)
	for i := range rows {
		rows[i] = telemetry.RowState{On: masterOn, Values: s.readings(i)}
	}
	now := time.Now().UTC()
	return &telemetry.Row{
		Position:  pos,
		Heading:   telemetry.NormalizeHeading(heading),
		Speed:     s.cfg.SpeedMPS,
		MasterOn:  masterOn,
		Rows:      rows,
		Timestamp: now,
	}
}

// readings returns planter row i's values at the current position.
// Downforce follows a broad diagonal wave so pass-to-pass banding shows on
// the map.
func (s *Simulator) readings(i int) map[canvas.Metric]float64 {
	sing := float64(plotter.SingulationGood)
	if s.rng.Float64() < s.cfg.SkipRate {
		sing = plotter.SingulationSkip
		if s.rng.IntN(3) == 0 {
			sing = plotter.SingulationMultiple
		}
	}
	wave := math.Sin((s.x+s.y)/60 + float64(i)*0.05)
	downforce := 200 + 120*wave + s.rng.NormFloat64()*10
	ride := 98 - 4*s.cfg.SpeedMPS - math.Abs(s.rng.NormFloat64())*3

	return map[canvas.Metric]float64{
		canvas.Singulation: sing,
		canvas.Downforce:   math.Max(0, downforce),
		canvas.RideQuality: math.Max(0, math.Min(100, ride)),
	}
}

// Serve publishes one row per interval until ctx is cancelled. Publish
// failures are logged and the run continues; the sink's circuit breaker
// decides when the broker is worth trying again.
func (s *Simulator) Serve(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Float64("speed_mps", s.cfg.SpeedMPS).
		Int("passes", s.Passes()).
		Msg("Simulator started")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	var failures int
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Simulator stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.sink.Publish(ctx, s.Next()); err != nil {
				failures++
				if failures == 1 || failures%50 == 0 {
					s.log.Warn().Err(err).Int("failures", failures).Msg("Simulated row not published")
				}
				continue
			}
			failures = 0
		}
	}
}

func (s *Simulator) String() string {
	return "telemetry-simulator"
}
