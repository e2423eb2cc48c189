// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package plotter

import (
	"image/color"
	"math"

	"github.com/tomtom215/furrow/internal/canvas"
)

// ColorMap converts a metric reading to a paint color. Readings outside the
// map's range are clamped and reported.
type ColorMap interface {
	Color(v float64) (c color.RGBA, clamped bool)
}

// Palette holds the color map of every metric.
type Palette [canvas.MetricCount]ColorMap

// Discrete maps integer codes to fixed colors. Code i is Colors[i].
type Discrete struct {
	Labels []string
	Colors []color.RGBA
}

// Color implements ColorMap. Readings round to the nearest code.
func (d Discrete) Color(v float64) (color.RGBA, bool) {
	if len(d.Colors) == 0 {
		return color.RGBA{}, true
	}
	code := int(math.Round(v))
	switch {
	case math.IsNaN(v) || code < 0:
		return d.Colors[0], true
	case code >= len(d.Colors):
		return d.Colors[len(d.Colors)-1], true
	}
	return d.Colors[code], false
}

// Gradient sweeps the hue linearly from HueMin at Min to HueMax at Max.
type Gradient struct {
	Min, Max       float64
	HueMin, HueMax float64 // degrees
	Unit           string
}

// Color implements ColorMap.
func (g Gradient) Color(v float64) (color.RGBA, bool) {
	clamped := false
	if math.IsNaN(v) || v < g.Min {
		v, clamped = g.Min, true
	} else if v > g.Max {
		v, clamped = g.Max, true
	}

	t := 0.0
	if g.Max > g.Min {
		t = (v - g.Min) / (g.Max - g.Min)
	}
	return hsv(g.HueMin+t*(g.HueMax-g.HueMin), 0.85, 0.95), clamped
}

// hsv converts hue in degrees and saturation/value in [0, 1] to an opaque
// color.
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

// Singulation fault codes reported by the seed meter.
const (
	SingulationGood     = 0
	SingulationSkip     = 1
	SingulationMultiple = 2
	SingulationBlocked  = 3
)

// Ranges configures the continuous color maps.
type Ranges struct {
	DownforceMin, DownforceMax     float64
	RideQualityMin, RideQualityMax float64
}

// DefaultRanges covers typical row-unit load cells and ride quality in
// percent.
func DefaultRanges() Ranges {
	return Ranges{
		DownforceMin:   0,
		DownforceMax:   400,
		RideQualityMin: 0,
		RideQualityMax: 100,
	}
}

// NewPalette builds the palette for the tracked metrics.
func NewPalette(r Ranges) Palette {
	var p Palette
	p[canvas.Singulation] = Discrete{
		Labels: []string{"good", "skip", "multiple", "blocked"},
		Colors: []color.RGBA{
			SingulationGood:     {R: 0x2e, G: 0xb8, B: 0x4b, A: 0xff},
			SingulationSkip:     {R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
			SingulationMultiple: {R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
			SingulationBlocked:  {R: 0x7c, G: 0x3a, B: 0xed, A: 0xff},
		},
	}
	// Light load reads red, target load green, heavy load blue.
	p[canvas.Downforce] = Gradient{Min: r.DownforceMin, Max: r.DownforceMax, HueMin: 0, HueMax: 240, Unit: "lbf"}
	p[canvas.RideQuality] = Gradient{Min: r.RideQualityMin, Max: r.RideQualityMax, HueMin: 0, HueMax: 120, Unit: "%"}
	return p
}

// DefaultPalette is NewPalette(DefaultRanges()).
func DefaultPalette() Palette {
	return NewPalette(DefaultRanges())
}
