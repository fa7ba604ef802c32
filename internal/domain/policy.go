/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"
	"strconv"
	"strings"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min, Max float64
}

// Clamp returns v limited to r. NaN passes through unchanged; callers decide
// what a missing value means for their field.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Policy holds the bounds every stored numeric value is coerced into.
type Policy struct {
	PanelWidth   Range
	PanelHeight  Range
	BorderWidth  Range
	FontSize     Range
	CanvasWidth  Range
	CanvasHeight Range
	// MinSize is the smallest side a resize gesture may produce.
	MinSize float64
}

// DefaultPolicy returns the stock editor limits.
func DefaultPolicy() Policy {
	return Policy{
		PanelWidth:   Range{50, 1280},
		PanelHeight:  Range{50, 720},
		BorderWidth:  Range{0, 100},
		FontSize:     Range{8, 100},
		CanvasWidth:  Range{200, 1280},
		CanvasHeight: Range{200, 720},
		MinSize:      50,
	}
}

// Coerce maps v into r, substituting fallback when v is NaN or infinite.
func Coerce(v, fallback float64, r Range) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	return r.Clamp(v)
}

// Width, Height and the other helpers apply the policy to a single field
// given the value currently stored.

func (p Policy) Width(v, current float64) float64  { return Coerce(v, current, p.PanelWidth) }
func (p Policy) Height(v, current float64) float64 { return Coerce(v, current, p.PanelHeight) }

// BorderWidthOf falls back to 1 rather than the current value, matching how
// a cleared border field behaves in the editor.
func (p Policy) BorderWidthOf(v float64) float64 {
	return Coerce(v, DefaultBorderWidth, p.BorderWidth)
}

func (p Policy) FontSizeOf(v, current float64) float64 {
	if current == 0 {
		current = DefaultFontSize
	}
	return Coerce(v, current, p.FontSize)
}

// UniformSide returns the single side length used for circles. Either input
// may be NaN meaning "not supplied"; when both are NaN current is kept.
func (p Policy) UniformSide(w, h, current float64) float64 {
	side := Range{Min: math.Max(p.PanelWidth.Min, p.PanelHeight.Min), Max: math.Min(p.PanelWidth.Max, p.PanelHeight.Max)}
	okW := !math.IsNaN(w) && !math.IsInf(w, 0)
	okH := !math.IsNaN(h) && !math.IsInf(h, 0)
	switch {
	case okW && okH:
		return math.Min(side.Clamp(w), side.Clamp(h))
	case okW:
		return side.Clamp(w)
	case okH:
		return side.Clamp(h)
	}
	return side.Clamp(current)
}

// CanvasSize clamps a requested canvas size. ok is false when either side is
// not a finite number, in which case the request should be ignored.
func (p Policy) CanvasSize(w, h float64) (cw, ch float64, ok bool) {
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return 0, 0, false
	}
	return p.CanvasWidth.Clamp(w), p.CanvasHeight.Clamp(h), true
}

// ParseInput converts text from a numeric form field. Empty or malformed
// input yields NaN.
func ParseInput(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
