/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import "log/slog"

// SetCanvasSize resizes the canvas within the policy bounds and captures
// immediately. Non-numeric input is ignored and reported as false.
func (s *Session) SetCanvasSize(w, h float64) bool {
	cw, ch, ok := s.opts.Policy.CanvasSize(w, h)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Canvas.Width, s.doc.Canvas.Height = cw, ch
	s.captureLocked("canvas_size")
	s.log.Debug("canvas resized", slog.Float64("width", cw), slog.Float64("height", ch))
	return true
}

// SetCanvasColors updates the background and foreground colors. An empty or
// unparseable value keeps the current color.
func (s *Session) SetCanvasColors(bg, fg string) {
	s.mu.Lock()
	s.doc.Canvas.BgColor = normalizeOptional(bg, s.doc.Canvas.BgColor)
	s.doc.Canvas.FgColor = normalizeOptional(fg, s.doc.Canvas.FgColor)
	s.mu.Unlock()
	s.canvas.Schedule(s.deferred("canvas_colors"))
}

func (s *Session) SetRoundedCorners(on bool) {
	s.mu.Lock()
	s.doc.Canvas.RoundedCorners = on
	s.mu.Unlock()
	s.canvas.Schedule(s.deferred("canvas_rounded"))
}

func (s *Session) SetShowGrid(on bool) {
	s.mu.Lock()
	s.doc.Canvas.ShowGrid = on
	s.mu.Unlock()
	s.canvas.Schedule(s.deferred("canvas_grid"))
}
