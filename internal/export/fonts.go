/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"panelcanvas/internal/domain"
)

// FontLibrary maps the four panel font variants to parsed OpenType fonts and
// caches sized faces. The Go fonts are used unless a variant is replaced.
// Faces keep glyph caches, so drawing with them is serialized through drawMu.
type FontLibrary struct {
	drawMu sync.Mutex
	mu     sync.Mutex
	fonts  map[fontKey]*opentype.Font
	faces  map[faceKey]font.Face
}

type fontKey struct {
	bold   bool
	italic bool
}

type faceKey struct {
	fontKey
	size float64
}

// Font file names looked up by LoadDir.
var fontFiles = map[fontKey]string{
	{false, false}: "regular.ttf",
	{true, false}:  "bold.ttf",
	{false, true}:  "italic.ttf",
	{true, true}:   "bolditalic.ttf",
}

// NewFontLibrary parses the embedded Go fonts.
func NewFontLibrary() (*FontLibrary, error) {
	fl := &FontLibrary{fonts: make(map[fontKey]*opentype.Font), faces: make(map[faceKey]font.Face)}
	builtin := map[fontKey][]byte{
		{false, false}: goregular.TTF,
		{true, false}:  gobold.TTF,
		{false, true}:  goitalic.TTF,
		{true, true}:   gobolditalic.TTF,
	}
	for k, data := range builtin {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin font: %w", err)
		}
		fl.fonts[k] = f
	}
	return fl, nil
}

var (
	defaultFontsOnce sync.Once
	defaultFonts     *FontLibrary
	defaultFontsErr  error
)

// DefaultFonts returns a shared library holding only the Go fonts.
func DefaultFonts() (*FontLibrary, error) {
	defaultFontsOnce.Do(func() { defaultFonts, defaultFontsErr = NewFontLibrary() })
	return defaultFonts, defaultFontsErr
}

// LoadTTF replaces one variant with the font file at path.
func (fl *FontLibrary) LoadTTF(bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	k := fontKey{bold: bold, italic: italic}
	fl.fonts[k] = f
	for fk, face := range fl.faces {
		if fk.fontKey == k {
			_ = face.Close()
			delete(fl.faces, fk)
		}
	}
	return nil
}

// LoadDir loads regular.ttf, bold.ttf, italic.ttf and bolditalic.ttf from dir.
// Missing files keep the Go font for that variant.
func (fl *FontLibrary) LoadDir(dir string) error {
	for k, name := range fontFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := fl.LoadTTF(k.bold, k.italic, p); err != nil {
			return err
		}
	}
	return nil
}

// Face returns a face for the panel's weight and style at size pixels.
func (fl *FontLibrary) Face(w domain.FontWeight, s domain.FontStyle, size float64) (font.Face, error) {
	k := faceKey{fontKey: fontKey{bold: w == domain.WeightBold, italic: s == domain.StyleItalic}, size: math.Round(size*100) / 100}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if f, ok := fl.faces[k]; ok {
		return f, nil
	}
	otf := fl.fonts[k.fontKey]
	if otf == nil {
		otf = fl.fonts[fontKey{}]
	}
	if otf == nil {
		return nil, fmt.Errorf("no font for %s/%s", w, s)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: k.size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	fl.faces[k] = face
	return face, nil
}
