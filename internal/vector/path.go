/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package vector

// Path commands shared by every export backend.

import "math"

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Transform returns a copy of p with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	if m == Identity {
		return Path{Cmds: append([]PathCmd(nil), p.Cmds...)}
	}
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i] = c
		for j := 0; j < pointCount(c.Op); j++ {
			q := m.Apply(Pt{c.Data[2*j], c.Data[2*j+1]})
			out.Cmds[i].Data[2*j], out.Cmds[i].Data[2*j+1] = q.X, q.Y
		}
	}
	return out
}

func pointCount(op PathOp) int {
	switch op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	case Close:
		return 0
	}
	return 0
}

// Polygon flattens the first subpath into a point list, subdividing each curve
// into segs straight pieces.
func (p Path) Polygon(segs int) []Pt {
	if segs < 1 {
		segs = 1
	}
	var pts []Pt
	cur := Pt{}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			if len(pts) > 0 {
				return pts
			}
			cur = Pt{c.Data[0], c.Data[1]}
			pts = append(pts, cur)
		case LineTo:
			cur = Pt{c.Data[0], c.Data[1]}
			pts = append(pts, cur)
		case QuadTo:
			c1, end := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}
			for i := 1; i <= segs; i++ {
				t := float64(i) / float64(segs)
				u := 1 - t
				pts = append(pts, Pt{
					X: u*u*cur.X + 2*u*t*c1.X + t*t*end.X,
					Y: u*u*cur.Y + 2*u*t*c1.Y + t*t*end.Y,
				})
			}
			cur = end
		case CubicTo:
			c1, c2, end := Pt{c.Data[0], c.Data[1]}, Pt{c.Data[2], c.Data[3]}, Pt{c.Data[4], c.Data[5]}
			for i := 1; i <= segs; i++ {
				t := float64(i) / float64(segs)
				u := 1 - t
				pts = append(pts, Pt{
					X: u*u*u*cur.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*end.X,
					Y: u*u*u*cur.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*end.Y,
				})
			}
			cur = end
		case Close:
			return pts
		}
	}
	return pts
}

// Contains reports whether pt lies inside the flattened path (even-odd).
func (p Path) Contains(pt Pt) bool {
	poly := p.Polygon(8)
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

// Bounds returns an axis-aligned bounding box considering control points,
// which is enough for layout and hit pre-checks.
func (p Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range p.Cmds {
		for j := 0; j < pointCount(c.Op); j++ {
			x, y := c.Data[2*j], c.Data[2*j+1]
			minX, minY = math.Min(minX, x), math.Min(minY, y)
			maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
