// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package api

import (
	"fmt"
	"image/color"

	"github.com/tomtom215/furrow/internal/canvas"
	"github.com/tomtom215/furrow/internal/plotter"
)

// gradientStops is the number of samples taken along a gradient.
const gradientStops = 5

// Legend describes how one metric is colored.
type Legend struct {
	Metric  canvas.Metric `json:"metric"`
	Kind    string        `json:"kind"` // "discrete" or "gradient"
	Unit    string        `json:"unit,omitempty"`
	Min     *float64      `json:"min,omitempty"`
	Max     *float64      `json:"max,omitempty"`
	Entries []LegendEntry `json:"entries"`
}

// LegendEntry is one swatch.
type LegendEntry struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

func buildLegend(p plotter.Palette) ([]Legend, error) {
	out := make([]Legend, 0, len(p))
	for _, m := range canvas.Metrics() {
		switch cm := p[m].(type) {
		case plotter.Discrete:
			l := Legend{Metric: m, Kind: "discrete", Entries: make([]LegendEntry, len(cm.Colors))}
			for i, c := range cm.Colors {
				label := fmt.Sprintf("%d", i)
				if i < len(cm.Labels) {
					label = cm.Labels[i]
				}
				l.Entries[i] = LegendEntry{Label: label, Value: float64(i), Color: hexColor(c)}
			}
			out = append(out, l)
		case plotter.Gradient:
			lo, hi := cm.Min, cm.Max
			l := Legend{Metric: m, Kind: "gradient", Unit: cm.Unit, Min: &lo, Max: &hi, Entries: make([]LegendEntry, gradientStops)}
			for i := range l.Entries {
				v := lo + (hi-lo)*float64(i)/float64(gradientStops-1)
				c, _ := cm.Color(v)
				l.Entries[i] = LegendEntry{Value: v, Color: hexColor(c)}
			}
			out = append(out, l)
		case nil:
			return nil, fmt.Errorf("no color map for %s", m)
		default:
			return nil, fmt.Errorf("unsupported color map %T for %s", cm, m)
		}
	}
	return out, nil
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
