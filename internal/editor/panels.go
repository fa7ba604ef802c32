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
	"fmt"
	"log/slog"
	"math"

	"panelcanvas/internal/domain"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/vector"
)

// Properties is a partial panel update. Nil fields are left unchanged.
type Properties struct {
	Width          *float64               `json:"width,omitempty"`
	Height         *float64               `json:"height,omitempty"`
	BgColor        *string                `json:"bgColor,omitempty"`
	BorderColor    *string                `json:"borderColor,omitempty"`
	BorderWidth    *float64               `json:"borderWidth,omitempty"`
	Text           *string                `json:"text,omitempty"`
	TextColor      *string                `json:"textColor,omitempty"`
	FontSize       *float64               `json:"fontSize,omitempty"`
	FontWeight     *domain.FontWeight     `json:"fontWeight,omitempty"`
	FontStyle      *domain.FontStyle      `json:"fontStyle,omitempty"`
	TextDecoration *domain.TextDecoration `json:"textDecoration,omitempty"`
	Rotation       *float64               `json:"rotation,omitempty"`
}

// AddPanel creates a panel of the given shape centered in the viewport and
// stacked above every existing panel.
func (s *Session) AddPanel(shape domain.ShapeKind) (domain.Panel, error) {
	if !shape.Valid() {
		return domain.Panel{}, fmt.Errorf("add panel: %w", domain.ErrUnknownShape)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := shape.DefaultSize()
	if shape == domain.Rectangle {
		w, h = s.opts.RectangleWidth, s.opts.RectangleHeight
	}
	vp := s.opts.Viewport
	x := clampSpan(vp.X+(vp.W-w)/2, w, s.doc.Canvas.Width)
	y := clampSpan(vp.Y+(vp.H-h)/2, h, s.doc.Canvas.Height)

	z := 1
	if m, ok := s.doc.MaxZIndex(); ok {
		z = m + 1
	}
	p := domain.Panel{
		ID:          s.opts.NewID(),
		X:           x,
		Y:           y,
		Width:       w,
		Height:      h,
		ZIndex:      z,
		BgColor:     domain.DefaultPanelBg,
		BorderColor: domain.DefaultPanelBorder,
		BorderWidth: domain.DefaultBorderWidth,
		Shape:       shape,
	}
	s.doc.Panels = append(s.doc.Panels, p)
	s.captureLocked("add_panel")
	applog.WithOperation(s.log, "add_panel").Debug("panel added", slog.String("id", p.ID), slog.String("shape", shape.String()))
	return p, nil
}

// RemovePanel deletes the panel with id and reports whether it existed. The
// capture happens either way; an unchanged document is deduplicated by the log.
func (s *Session) RemovePanel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i >= 0 {
		s.doc.Panels = append(s.doc.Panels[:i:i], s.doc.Panels[i+1:]...)
	}
	if s.selected == id {
		s.selected = ""
	}
	s.captureLocked("remove_panel")
	return i >= 0
}

// ClearPanels removes every panel.
func (s *Session) ClearPanels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Panels = []domain.Panel{}
	s.selected = ""
	s.captureLocked("clear_panels")
}

// UpdatePanelText changes the text shown in a panel without touching history.
// CommitText records the result once editing ends.
func (s *Session) UpdatePanelText(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i < 0 {
		return fmt.Errorf("update text %q: %w", id, ErrPanelNotFound)
	}
	s.doc.Panels[i].Text = text
	return nil
}

func (s *Session) CommitText(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Find(id) < 0 {
		return fmt.Errorf("commit text %q: %w", id, ErrPanelNotFound)
	}
	s.captureLocked("commit_text")
	return nil
}

// UpdatePanelProperties patches a panel. Numeric values are coerced into the
// session policy; unusable colors and enum values leave the field unchanged.
// When z is set the stacking change is applied first. The live document
// changes immediately while the history capture is debounced.
func (s *Session) UpdatePanelProperties(id string, props Properties, z *ZAction) (domain.Panel, error) {
	s.mu.Lock()
	i := s.doc.Find(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Panel{}, fmt.Errorf("update properties %q: %w", id, ErrPanelNotFound)
	}
	if z != nil && len(s.doc.Panels) > 1 {
		s.doc.Panels = ReorderPanelsByZIndex(s.doc.Panels, id, *z)
		i = s.doc.Find(id)
	}
	p := &s.doc.Panels[i]
	s.applyLocked(p, props)
	out := *p
	s.mu.Unlock()

	s.props.Schedule(s.deferred("update_properties"))
	return out, nil
}

func (s *Session) applyLocked(p *domain.Panel, props Properties) {
	pol := s.opts.Policy
	if props.Width != nil || props.Height != nil {
		w, h := deref(props.Width), deref(props.Height)
		if p.Shape.Uniform() {
			side := pol.UniformSide(w, h, p.Width)
			p.Width, p.Height = side, side
		} else {
			p.Width = pol.Width(w, p.Width)
			p.Height = pol.Height(h, p.Height)
		}
	}
	if props.BgColor != nil {
		p.BgColor = domain.NormalizeColor(*props.BgColor, p.BgColor)
	}
	if props.BorderColor != nil {
		p.BorderColor = domain.NormalizeColor(*props.BorderColor, p.BorderColor)
	}
	if props.BorderWidth != nil {
		p.BorderWidth = pol.BorderWidthOf(*props.BorderWidth)
	}
	if props.Text != nil {
		p.Text = *props.Text
	}
	if props.TextColor != nil {
		p.TextColor = domain.NormalizeColor(*props.TextColor, p.TextColor)
	}
	if props.FontSize != nil {
		p.FontSize = pol.FontSizeOf(*props.FontSize, p.FontSize)
	}
	if props.FontWeight != nil && props.FontWeight.Valid() {
		p.FontWeight = *props.FontWeight
	}
	if props.FontStyle != nil && props.FontStyle.Valid() {
		p.FontStyle = *props.FontStyle
	}
	if props.TextDecoration != nil && props.TextDecoration.Valid() {
		p.TextDecoration = *props.TextDecoration
	}
	if props.Rotation != nil && !math.IsNaN(*props.Rotation) && !math.IsInf(*props.Rotation, 0) {
		p.Rotation = math.Mod(*props.Rotation, 360)
	}
}

// MovePanel places a panel at (x, y), kept inside the canvas. With snapping
// enabled the position first aligns to nearby panels and the canvas frame.
func (s *Session) MovePanel(id string, x, y float64) (domain.Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i < 0 {
		return domain.Panel{}, fmt.Errorf("move %q: %w", id, ErrPanelNotFound)
	}
	p := &s.doc.Panels[i]
	x, y = finite(x, p.X), finite(y, p.Y)
	if s.opts.Snap.Threshold > 0 {
		anchors := []vector.Rect{vector.R(0, 0, s.doc.Canvas.Width, s.doc.Canvas.Height)}
		for _, o := range s.doc.Panels {
			if o.ID != id {
				anchors = append(anchors, vector.R(o.X, o.Y, o.Width, o.Height))
			}
		}
		r, _ := vector.Snap(vector.R(x, y, p.Width, p.Height), anchors, s.opts.Snap)
		x, y = r.X, r.Y
	}
	p.X = clampSpan(x, p.Width, s.doc.Canvas.Width)
	p.Y = clampSpan(y, p.Height, s.doc.Canvas.Height)
	out := *p
	s.captureLocked("move_panel")
	return out, nil
}

// ResizePreview applies the geometry of an in-progress resize gesture without
// recording history.
func (s *Session) ResizePreview(id string, h vector.Handle, start vector.Rect, dx, dy float64) (domain.Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i < 0 {
		return domain.Panel{}, fmt.Errorf("resize %q: %w", id, ErrPanelNotFound)
	}
	p := &s.doc.Panels[i]
	r := vector.Resize(start, h, dx, dy, vector.ResizeConstraints{
		MinSize: s.opts.Policy.MinSize,
		Uniform: p.Shape.Uniform(),
		CanvasW: s.doc.Canvas.Width,
		CanvasH: s.doc.Canvas.Height,
	})
	p.X, p.Y, p.Width, p.Height = r.X, r.Y, r.W, r.H
	return *p, nil
}

// ResizeCommit stores the final geometry of a resize gesture and captures it.
// The geometry is clamped again so direct callers get the same guarantees as
// the gesture path.
func (s *Session) ResizeCommit(id string, r vector.Rect) (domain.Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i < 0 {
		return domain.Panel{}, fmt.Errorf("resize %q: %w", id, ErrPanelNotFound)
	}
	p := &s.doc.Panels[i]
	pol := s.opts.Policy
	cw, ch := s.doc.Canvas.Width, s.doc.Canvas.Height
	w, h := pol.Width(r.W, finite(p.Width, pol.PanelWidth.Min)), pol.Height(r.H, finite(p.Height, pol.PanelHeight.Min))
	w, h = math.Min(w, cw), math.Min(h, ch)
	if p.Shape.Uniform() {
		side := math.Min(w, h)
		w, h = side, side
	}
	x, y := finite(r.X, finite(p.X, 0)), finite(r.Y, finite(p.Y, 0))
	p.X, p.Y = clampSpan(x, w, cw), clampSpan(y, h, ch)
	p.Width, p.Height = w, h
	out := *p
	s.captureLocked("resize_commit")
	return out, nil
}

// ResizeGesture tracks one drag of a resize handle from its starting geometry.
type ResizeGesture struct {
	s      *Session
	id     string
	handle vector.Handle
	start  vector.Rect
	last   vector.Rect
}

// BeginResize snapshots the panel geometry a gesture starts from.
func (s *Session) BeginResize(id string, h vector.Handle) (*ResizeGesture, error) {
	p, ok := s.Panel(id)
	if !ok {
		return nil, fmt.Errorf("resize %q: %w", id, ErrPanelNotFound)
	}
	r := vector.R(p.X, p.Y, p.Width, p.Height)
	return &ResizeGesture{s: s, id: id, handle: h, start: r, last: r}, nil
}

// Update moves the pointer to (dx, dy) relative to where the gesture began.
func (g *ResizeGesture) Update(dx, dy float64) (domain.Panel, error) {
	p, err := g.s.ResizePreview(g.id, g.handle, g.start, dx, dy)
	if err != nil {
		return p, err
	}
	g.last = vector.R(p.X, p.Y, p.Width, p.Height)
	return p, nil
}

// End commits the last previewed geometry.
func (g *ResizeGesture) End() (domain.Panel, error) {
	return g.s.ResizeCommit(g.id, g.last)
}

// PanelAt returns the topmost panel whose outline contains (x, y).
func (s *Session) PanelAt(x, y float64) (domain.Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		hit   domain.Panel
		found bool
	)
	pt := vector.Pt{X: x, Y: y}
	for _, p := range s.doc.Panels {
		if found && p.ZIndex < hit.ZIndex {
			continue
		}
		if vector.PanelOutline(p, s.doc.Canvas.RoundedCorners, 0).Contains(pt) {
			hit, found = p, true
		}
	}
	return hit, found
}

// clampSpan keeps [v, v+size] inside [0, limit] where possible, preferring
// the origin when the span is larger than the limit.
// finite returns v, or fallback when v is NaN or infinite.
func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clampSpan(v, size, limit float64) float64 {
	if limit > 0 && v+size > limit {
		v = limit - size
	}
	if v < 0 {
		v = 0
	}
	return v
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
