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

// Snapping of a dragged panel against its siblings and the canvas frame.
// Deterministic so that scripted moves replay identically.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance in canvas units at which snapping
	// occurs. Zero disables snapping.
	Threshold float64
	Edges     bool
	Centers   bool
}

// GuideLine describes an alignment found while snapping. Orientation is
// "vertical" or "horizontal"; Kind is "edge" or "center".
type GuideLine struct {
	Orientation string  `json:"orientation"`
	Kind        string  `json:"kind"`
	Position    float64 `json:"position"`
}

// Snap moves r by at most Threshold on each axis so that one of its edges or
// its center lines up with an anchor. X and Y snap independently.
func Snap(r Rect, anchors []Rect, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 || (!opts.Edges && !opts.Centers) {
		return r, nil
	}
	bx := candidate{dist: math.Inf(1)}
	by := candidate{dist: math.Inf(1)}

	for _, a := range anchors {
		if opts.Edges {
			for _, m := range [2]float64{r.X, r.X + r.W} {
				for _, t := range [2]float64{a.X, a.X + a.W} {
					bx.consider(m-t, t, "edge", opts.Threshold)
				}
			}
			for _, m := range [2]float64{r.Y, r.Y + r.H} {
				for _, t := range [2]float64{a.Y, a.Y + a.H} {
					by.consider(m-t, t, "edge", opts.Threshold)
				}
			}
		}
		if opts.Centers {
			bx.consider(r.X+r.W/2-(a.X+a.W/2), a.X+a.W/2, "center", opts.Threshold)
			by.consider(r.Y+r.H/2-(a.Y+a.H/2), a.Y+a.H/2, "center", opts.Threshold)
		}
	}

	var guides []GuideLine
	if bx.found {
		r.X = FloatRound(r.X-bx.delta, 3)
		guides = append(guides, GuideLine{Orientation: "vertical", Kind: bx.kind, Position: FloatRound(bx.pos, 3)})
	}
	if by.found {
		r.Y = FloatRound(r.Y-by.delta, 3)
		guides = append(guides, GuideLine{Orientation: "horizontal", Kind: by.kind, Position: FloatRound(by.pos, 3)})
	}
	return r, guides
}

type candidate struct {
	found bool
	dist  float64
	delta float64
	pos   float64
	kind  string
}

// consider keeps the closest delta within threshold; ties go to the first seen.
func (c *candidate) consider(delta, pos float64, kind string, threshold float64) {
	d := math.Abs(delta)
	if d > threshold || d >= c.dist {
		return
	}
	*c = candidate{found: true, dist: d, delta: delta, pos: pos, kind: kind}
}
