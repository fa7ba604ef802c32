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

import (
	"math"

	"panelcanvas/internal/domain"
)

// CornerRadius is the radius used for rectangles and squares when the canvas
// has rounded corners enabled.
const CornerRadius = 8

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

// Outline returns the closed outline of a shape filling r. Circles are
// centered in r with a diameter of min(w, h). radius only affects rectangles
// and squares.
func Outline(kind domain.ShapeKind, r Rect, radius float64) Path {
	var p Path
	switch kind {
	case domain.Rectangle, domain.Square:
		roundedRect(&p, r, radius)
	case domain.Circle:
		c := r.Center()
		ellipse(&p, c, math.Min(r.W, r.H)/2)
	case domain.Triangle:
		p.MoveTo(r.X+r.W/2, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H)
		p.LineTo(r.X, r.Y+r.H)
		p.Close()
	case domain.Diamond:
		p.MoveTo(r.X+r.W/2, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H/2)
		p.LineTo(r.X+r.W/2, r.Y+r.H)
		p.LineTo(r.X, r.Y+r.H/2)
		p.Close()
	case domain.Hexagon:
		p.MoveTo(r.X+r.W/2, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H/4)
		p.LineTo(r.X+r.W, r.Y+3*r.H/4)
		p.LineTo(r.X+r.W/2, r.Y+r.H)
		p.LineTo(r.X, r.Y+3*r.H/4)
		p.LineTo(r.X, r.Y+r.H/4)
		p.Close()
	default:
		roundedRect(&p, r, 0)
	}
	return p
}

// PanelOutline is the outline of a panel in canvas space, inset by inset and
// rotated about the panel center.
func PanelOutline(pn domain.Panel, rounded bool, inset float64) Path {
	r := R(pn.X, pn.Y, pn.Width, pn.Height)
	radius := 0.0
	if rounded {
		radius = math.Max(0, CornerRadius-inset)
	}
	return Outline(pn.Shape, r.Inset(inset), radius).Transform(RotateAbout(r.Center(), pn.Rotation))
}

func roundedRect(p *Path, r Rect, radius float64) {
	radius = math.Min(radius, math.Min(r.W, r.H)/2)
	if radius <= 0 {
		p.MoveTo(r.X, r.Y)
		p.LineTo(r.X+r.W, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H)
		p.LineTo(r.X, r.Y+r.H)
		p.Close()
		return
	}
	k := radius * kappa
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	p.MoveTo(x0+radius, y0)
	p.LineTo(x1-radius, y0)
	p.CubicTo(x1-radius+k, y0, x1, y0+radius-k, x1, y0+radius)
	p.LineTo(x1, y1-radius)
	p.CubicTo(x1, y1-radius+k, x1-radius+k, y1, x1-radius, y1)
	p.LineTo(x0+radius, y1)
	p.CubicTo(x0+radius-k, y1, x0, y1-radius+k, x0, y1-radius)
	p.LineTo(x0, y0+radius)
	p.CubicTo(x0, y0+radius-k, x0+radius-k, y0, x0+radius, y0)
	p.Close()
}

func ellipse(p *Path, c Pt, rad float64) {
	k := rad * kappa
	p.MoveTo(c.X+rad, c.Y)
	p.CubicTo(c.X+rad, c.Y+k, c.X+k, c.Y+rad, c.X, c.Y+rad)
	p.CubicTo(c.X-k, c.Y+rad, c.X-rad, c.Y+k, c.X-rad, c.Y)
	p.CubicTo(c.X-rad, c.Y-k, c.X-k, c.Y-rad, c.X, c.Y-rad)
	p.CubicTo(c.X+k, c.Y-rad, c.X+rad, c.Y-k, c.X+rad, c.Y)
	p.Close()
}
