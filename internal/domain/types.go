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

// This file defines the core data model: panels placed on a canvas and the
// document that bundles both. A Document is a plain value; Clone produces a
// copy that shares nothing with the original so history snapshots never alias
// live panels.

import (
	"errors"
	"fmt"
)

// ShapeKind is the closed set of panel shapes. The zero value is invalid.
type ShapeKind uint8

const (
	Rectangle ShapeKind = iota + 1
	Square
	Circle
	Triangle
	Diamond
	Hexagon
)

var shapeNames = [...]string{
	Rectangle: "rectangle",
	Square:    "square",
	Circle:    "circle",
	Triangle:  "triangle",
	Diamond:   "diamond",
	Hexagon:   "hexagon",
}

// Shapes lists every valid shape in declaration order.
func Shapes() []ShapeKind {
	return []ShapeKind{Rectangle, Square, Circle, Triangle, Diamond, Hexagon}
}

// ErrUnknownShape is returned when parsing a shape name that is not in the closed set.
var ErrUnknownShape = errors.New("unknown shape")

func (k ShapeKind) Valid() bool { return k >= Rectangle && k <= Hexagon }

func (k ShapeKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("shape(%d)", uint8(k))
	}
	return shapeNames[k]
}

// ParseShape maps a shape name to its ShapeKind.
func ParseShape(s string) (ShapeKind, error) {
	for _, k := range Shapes() {
		if shapeNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

func (k ShapeKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, uint8(k))
	}
	return []byte(shapeNames[k]), nil
}

func (k *ShapeKind) UnmarshalText(b []byte) error {
	v, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Uniform reports whether the shape keeps width == height at all times.
func (k ShapeKind) Uniform() bool {
	switch k {
	case Circle:
		return true
	case Rectangle, Square, Triangle, Diamond, Hexagon:
		return false
	}
	return false
}

// DefaultSize is the size a freshly added panel of this shape gets.
func (k ShapeKind) DefaultSize() (w, h float64) {
	switch k {
	case Rectangle:
		return 266, 200
	case Square, Circle, Triangle, Diamond, Hexagon:
		return 200, 200
	}
	return 200, 200
}

// Text styling enums. Empty values mean the renderer default (normal / none).
type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

func (w FontWeight) Valid() bool { return w == WeightNormal || w == WeightBold }

type FontStyle string

const (
	StyleNormal FontStyle = "normal"
	StyleItalic FontStyle = "italic"
)

func (s FontStyle) Valid() bool { return s == StyleNormal || s == StyleItalic }

type TextDecoration string

const (
	DecorationNone      TextDecoration = "none"
	DecorationUnderline TextDecoration = "underline"
)

func (d TextDecoration) Valid() bool { return d == DecorationNone || d == DecorationUnderline }

// Panel is a single placeable shape. All fields are values, so copying a
// Panel copies it completely.
type Panel struct {
	ID             string         `json:"id"`
	X              float64        `json:"x"`
	Y              float64        `json:"y"`
	Width          float64        `json:"width"`
	Height         float64        `json:"height"`
	ZIndex         int            `json:"zIndex"`
	BgColor        string         `json:"bgColor"`
	BorderColor    string         `json:"borderColor"`
	Shape          ShapeKind      `json:"shape"`
	Text           string         `json:"text,omitempty"`
	FontSize       float64        `json:"fontSize,omitempty"`
	BorderWidth    float64        `json:"borderWidth,omitempty"`
	TextColor      string         `json:"textColor,omitempty"`
	FontWeight     FontWeight     `json:"fontWeight,omitempty"`
	FontStyle      FontStyle      `json:"fontStyle,omitempty"`
	TextDecoration TextDecoration `json:"textDecoration,omitempty"`
	Rotation       float64        `json:"rotation,omitempty"`
}

// Default panel styling.
const (
	DefaultPanelBg     = "#ffffff"
	DefaultPanelBorder = "#D4D4D4"
	DefaultBorderWidth = 1
	DefaultFontSize    = 16
	DefaultTextColor   = "#000000"
)

// CanvasState holds the global canvas settings.
type CanvasState struct {
	Width          float64
	Height         float64
	BgColor        string
	FgColor        string
	RoundedCorners bool
	ShowGrid       bool
}

// DefaultCanvas returns the canvas a fresh session starts with.
func DefaultCanvas() CanvasState {
	return CanvasState{Width: 1280, Height: 720, BgColor: "#ffffff", FgColor: "#000000", RoundedCorners: true}
}

// Document is the unit of export/import and of history snapshotting.
type Document struct {
	Panels []Panel
	Canvas CanvasState
}

// NewDocument returns an empty document on the given canvas.
func NewDocument(c CanvasState) Document {
	return Document{Panels: []Panel{}, Canvas: c}
}

// Clone returns a deep copy of d. The panel slice is never nil.
func (d Document) Clone() Document {
	out := Document{Panels: make([]Panel, len(d.Panels)), Canvas: d.Canvas}
	copy(out.Panels, d.Panels)
	return out
}

// Equal reports structural equality. A nil and an empty panel list are equal.
func (d Document) Equal(o Document) bool {
	if d.Canvas != o.Canvas || len(d.Panels) != len(o.Panels) {
		return false
	}
	for i := range d.Panels {
		if d.Panels[i] != o.Panels[i] {
			return false
		}
	}
	return true
}

// Find returns the index of the panel with id, or -1.
func (d Document) Find(id string) int {
	for i := range d.Panels {
		if d.Panels[i].ID == id {
			return i
		}
	}
	return -1
}

// MaxZIndex returns the highest zIndex in use and false when there are no panels.
func (d Document) MaxZIndex() (int, bool) {
	if len(d.Panels) == 0 {
		return 0, false
	}
	m := d.Panels[0].ZIndex
	for _, p := range d.Panels[1:] {
		if p.ZIndex > m {
			m = p.ZIndex
		}
	}
	return m, true
}

// Validate checks structural invariants that a loaded document must satisfy:
// non-empty unique ids and known shapes.
func (d Document) Validate() error {
	seen := make(map[string]struct{}, len(d.Panels))
	for i, p := range d.Panels {
		if p.ID == "" {
			return fmt.Errorf("panel %d: empty id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("panel %d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.Shape.Valid() {
			return fmt.Errorf("panel %q: %w", p.ID, ErrUnknownShape)
		}
	}
	return nil
}
