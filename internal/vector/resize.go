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
	"fmt"
	"math"
)

// Handle names one of the eight resize grips around a panel.
type Handle uint8

const (
	HandleN Handle = iota + 1
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

var handleNames = map[Handle]string{
	HandleN: "n", HandleS: "s", HandleE: "e", HandleW: "w",
	HandleNE: "ne", HandleNW: "nw", HandleSE: "se", HandleSW: "sw",
}

func (h Handle) String() string {
	if s, ok := handleNames[h]; ok {
		return s
	}
	return fmt.Sprintf("handle(%d)", uint8(h))
}

// ParseHandle maps a compass name to a Handle.
func ParseHandle(s string) (Handle, error) {
	for h, name := range handleNames {
		if name == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown resize handle %q", s)
}

// Left reports whether the handle moves the left edge.
func (h Handle) Left() bool { return h == HandleW || h == HandleNW || h == HandleSW }

// Top reports whether the handle moves the top edge.
func (h Handle) Top() bool { return h == HandleN || h == HandleNW || h == HandleNE }

func (h Handle) horizontal() bool { return h != HandleN && h != HandleS }
func (h Handle) vertical() bool   { return h != HandleE && h != HandleW }

// ResizeConstraints bound the outcome of a resize gesture. A zero canvas
// dimension means that axis is unbounded.
type ResizeConstraints struct {
	MinSize float64
	Uniform bool
	CanvasW float64
	CanvasH float64
}

// Resize computes the geometry of a panel being dragged by handle from its
// start rect by the pointer delta (dx, dy). Edges opposite the handle stay
// fixed unless the canvas edge forces otherwise. A non-finite delta counts
// as no movement on that axis.
func Resize(start Rect, handle Handle, dx, dy float64, c ResizeConstraints) Rect {
	dx, dy = finiteOr(dx, 0), finiteOr(dy, 0)
	right, bottom := start.X+start.W, start.Y+start.H
	w, h := start.W, start.H
	if handle.horizontal() {
		if handle.Left() {
			w -= dx
		} else {
			w += dx
		}
	}
	if handle.vertical() {
		if handle.Top() {
			h -= dy
		} else {
			h += dy
		}
	}

	w = math.Max(c.MinSize, w)
	h = math.Max(c.MinSize, h)
	if c.Uniform {
		s := math.Min(w, h)
		w, h = s, s
	}

	x, y := start.X, start.Y
	if handle.Left() {
		x = right - w
		if x < 0 {
			x, w = 0, right
		}
	}
	if handle.Top() {
		y = bottom - h
		if y < 0 {
			y, h = 0, bottom
		}
	}

	if c.CanvasW > 0 {
		w = math.Min(w, c.CanvasW-x)
	}
	if c.CanvasH > 0 {
		h = math.Min(h, c.CanvasH-y)
	}

	if c.Uniform && w != h {
		s := math.Min(w, h)
		if handle.Left() {
			x = right - s
		}
		if handle.Top() {
			y = bottom - s
		}
		w, h = s, s
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
