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

import (
	"log/slog"

	"panelcanvas/internal/domain"
)

// Offset applied to pasted panels so they do not cover their source.
const pasteOffset = 20

// Copy puts the selected panel on the clipboard.
func (s *Session) Copy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(s.selected)
	if i < 0 {
		return false
	}
	p := s.doc.Panels[i]
	s.clipboard = &p
	return true
}

// Cut moves the selected panel to the clipboard and captures the removal.
func (s *Session) Cut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(s.selected)
	if i < 0 {
		return false
	}
	p := s.doc.Panels[i]
	s.clipboard = &p
	s.doc.Panels = append(s.doc.Panels[:i:i], s.doc.Panels[i+1:]...)
	s.selected = ""
	s.captureLocked("cut")
	return true
}

// Paste inserts a copy of the clipboard panel with a fresh id, offset from
// the original (kept inside the canvas) and stacked on top. The new panel becomes the selection.
func (s *Session) Paste() (domain.Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clipboard == nil {
		return domain.Panel{}, false
	}
	p := *s.clipboard
	p.ID = s.opts.NewID()
	p.X = clampSpan(p.X+pasteOffset, p.Width, s.doc.Canvas.Width)
	p.Y = clampSpan(p.Y+pasteOffset, p.Height, s.doc.Canvas.Height)
	p.ZIndex = 1
	if m, ok := s.doc.MaxZIndex(); ok {
		p.ZIndex = m + 1
	}
	s.doc.Panels = append(s.doc.Panels, p)
	s.selected = p.ID
	s.captureLocked("paste")
	s.log.Debug("pasted", slog.String("id", p.ID))
	return p, true
}

// normalizeOptional treats an empty value as "not supplied".
func normalizeOptional(v, current string) string {
	if v == "" {
		return current
	}
	return domain.NormalizeColor(v, current)
}
