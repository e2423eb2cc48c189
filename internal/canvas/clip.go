// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package canvas

import (
	"seehuhn.de/go/geom/vec"
)

// Quad is a row segment in canvas pixel space. Corners are ordered around
// the perimeter.
type Quad [4]vec.Vec2

// clipEdge is one half-plane of the clip rectangle.
type clipEdge struct {
	inside    func(p vec.Vec2) bool
	intersect func(a, b vec.Vec2) vec.Vec2
}

// clipToRect clips a polygon to [0, w] x [0, h] with Sutherland-Hodgman.
// The result is empty when the polygon lies entirely outside.
func clipToRect(poly []vec.Vec2, w, h float64) []vec.Vec2 {
	edges := [4]clipEdge{
		{
			inside:    func(p vec.Vec2) bool { return p.X >= 0 },
			intersect: func(a, b vec.Vec2) vec.Vec2 { return lerpAtX(a, b, 0) },
		},
		{
			inside:    func(p vec.Vec2) bool { return p.X <= w },
			intersect: func(a, b vec.Vec2) vec.Vec2 { return lerpAtX(a, b, w) },
		},
		{
			inside:    func(p vec.Vec2) bool { return p.Y >= 0 },
			intersect: func(a, b vec.Vec2) vec.Vec2 { return lerpAtY(a, b, 0) },
		},
		{
			inside:    func(p vec.Vec2) bool { return p.Y <= h },
			intersect: func(a, b vec.Vec2) vec.Vec2 { return lerpAtY(a, b, h) },
		},
	}

	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make([]vec.Vec2, 0, len(in)+2)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.intersect(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.intersect(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func lerpAtX(a, b vec.Vec2, x float64) vec.Vec2 {
	t := (x - a.X) / (b.X - a.X)
	return vec.Vec2{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func lerpAtY(a, b vec.Vec2, y float64) vec.Vec2 {
	t := (y - a.Y) / (b.Y - a.Y)
	return vec.Vec2{X: a.X + t*(b.X-a.X), Y: y}
}
