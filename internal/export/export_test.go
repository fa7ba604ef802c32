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
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/vector"
)

func plainCanvas(w, h float64) domain.CanvasState {
	return domain.CanvasState{Width: w, Height: h, BgColor: "#ffffff", FgColor: "#000000"}
}

func redPanel(id string, z int, x, y float64) domain.Panel {
	return domain.Panel{
		ID: id, X: x, Y: y, Width: 100, Height: 60, ZIndex: z,
		BgColor: "#ff0000", BorderColor: "#0000ff", BorderWidth: 2, Shape: domain.Rectangle,
	}
}

func near(got color.RGBA, want color.RGBA) bool {
	d := func(a, b uint8) bool { return a+2 >= b && b+2 >= a }
	return d(got.R, want.R) && d(got.G, want.G) && d(got.B, want.B) && d(got.A, want.A)
}

var (
	opaqueWhite = color.RGBA{255, 255, 255, 255}
	opaqueRed   = color.RGBA{255, 0, 0, 255}
	opaqueBlue  = color.RGBA{0, 0, 255, 255}
)

func TestRenderPNGScalesCanvas(t *testing.T) {
	doc := domain.NewDocument(domain.DefaultCanvas())
	img, err := RenderPNG(doc, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2560 || b.Dy() != 1440 {
		t.Fatalf("default scale: got %v", b)
	}
	img, err = RenderPNG(doc, PNGOptions{Scale: 0.5})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("half scale: got %v", b)
	}
}

func TestRenderPNGRejectsEmptyCanvas(t *testing.T) {
	if _, err := RenderPNG(domain.NewDocument(plainCanvas(0, 100)), PNGOptions{}); err == nil {
		t.Fatalf("expected error for zero width canvas")
	}
}

func TestRenderPNGRoundedFrame(t *testing.T) {
	c := plainCanvas(200, 100)
	c.RoundedCorners = true
	img, err := RenderPNG(domain.NewDocument(c), PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if a := img.RGBAAt(0, 0).A; a != 0 {
		t.Fatalf("corner should be transparent, alpha=%d", a)
	}
	if got := img.RGBAAt(100, 50); !near(got, opaqueWhite) {
		t.Fatalf("center should be canvas bg, got %v", got)
	}
	c.RoundedCorners = false
	img, _ = RenderPNG(domain.NewDocument(c), PNGOptions{Scale: 1})
	if got := img.RGBAAt(0, 0); !near(got, opaqueWhite) {
		t.Fatalf("square corner should be bg, got %v", got)
	}
}

func TestRenderPNGPanelFillAndBorder(t *testing.T) {
	doc := domain.NewDocument(plainCanvas(200, 100))
	doc.Panels = []domain.Panel{redPanel("a", 1, 20, 20)}
	img, err := RenderPNG(doc, PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.RGBAAt(70, 50); !near(got, opaqueRed) {
		t.Fatalf("fill: got %v", got)
	}
	if got := img.RGBAAt(20, 50); !near(got, opaqueBlue) {
		t.Fatalf("border: got %v", got)
	}
	if got := img.RGBAAt(10, 50); !near(got, opaqueWhite) {
		t.Fatalf("outside: got %v", got)
	}
}

func TestRenderPNGPaintsByZIndex(t *testing.T) {
	doc := domain.NewDocument(plainCanvas(200, 100))
	top := redPanel("top", 2, 40, 20)
	top.BgColor = "#00ff00"
	doc.Panels = []domain.Panel{top, redPanel("under", 1, 20, 20)}
	img, err := RenderPNG(doc, PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := img.RGBAAt(80, 50); !near(got, color.RGBA{0, 255, 0, 255}) {
		t.Fatalf("higher zIndex should be on top, got %v", got)
	}
}

func TestRenderPNGGrid(t *testing.T) {
	c := plainCanvas(100, 100)
	c.ShowGrid = true
	img, err := RenderPNG(domain.NewDocument(c), PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	line := img.RGBAAt(GridSpacing, 10)
	if line.R == 255 || line.R < 150 {
		t.Fatalf("grid line should be a light gray, got %v", line)
	}
	if got := img.RGBAAt(10, 10); !near(got, opaqueWhite) {
		t.Fatalf("cell interior should be bg, got %v", got)
	}
}

func TestRenderPNGText(t *testing.T) {
	doc := domain.NewDocument(plainCanvas(200, 100))
	p := redPanel("a", 1, 20, 20)
	p.BgColor = "#ffffff"
	doc.Panels = []domain.Panel{p}
	blank, err := RenderPNG(doc, PNGOptions{Scale: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, variant := range []func(*domain.Panel){
		func(p *domain.Panel) {},
		func(p *domain.Panel) { p.FontWeight, p.FontStyle = domain.WeightBold, domain.StyleItalic },
		func(p *domain.Panel) { p.TextDecoration = domain.DecorationUnderline },
		func(p *domain.Panel) { p.Rotation = 30 },
	} {
		q := p
		q.Text = "Hi"
		variant(&q)
		doc.Panels = []domain.Panel{q}
		img, err := RenderPNG(doc, PNGOptions{Scale: 1})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if bytes.Equal(img.Pix, blank.Pix) {
			t.Fatalf("text %+v left no ink", q)
		}
	}
}

func TestRenderPNGRotatedPanelOffCanvas(t *testing.T) {
	doc := domain.NewDocument(plainCanvas(200, 100))
	p := redPanel("a", 1, 0, 0)
	p.Rotation = 45
	doc.Panels = []domain.Panel{p}
	if _, err := RenderPNG(doc, PNGOptions{Scale: 1}); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestWritePNGEncodes(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, domain.NewDocument(plainCanvas(50, 40)), PNGOptions{Scale: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 40 {
		t.Fatalf("size: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestClipPolygon(t *testing.T) {
	sq := []vector.Pt{{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}}
	got := clipPolygon(sq, 100, 100)
	if len(got) < 3 {
		t.Fatalf("partially visible polygon lost: %v", got)
	}
	for _, p := range got {
		if p.X < 0 || p.Y < 0 || p.X > 100 || p.Y > 100 {
			t.Fatalf("point outside clip: %v", p)
		}
	}
	away := []vector.Pt{{X: 200, Y: 200}, {X: 210, Y: 200}, {X: 210, Y: 210}}
	if got := clipPolygon(away, 100, 100); len(got) != 0 {
		t.Fatalf("invisible polygon should clip away, got %v", got)
	}
}

func TestFontLibraryCachesFaces(t *testing.T) {
	fl, err := NewFontLibrary()
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	a, err := fl.Face(domain.WeightBold, domain.StyleNormal, 24)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	b, _ := fl.Face(domain.WeightBold, domain.StyleNormal, 24)
	if a != b {
		t.Fatalf("expected cached face")
	}
	if err := fl.LoadDir(t.TempDir()); err != nil {
		t.Fatalf("empty font dir should be fine: %v", err)
	}
}

func TestWriteSVG(t *testing.T) {
	c := plainCanvas(200, 100)
	c.ShowGrid = true
	c.RoundedCorners = true
	doc := domain.NewDocument(c)
	p := redPanel("a\"1", 1, 20, 20)
	p.Text = "a<b"
	p.Rotation = 15
	p.BgColor = "rgba(255, 0, 0, 0.5)"
	p.FontWeight = domain.WeightBold
	doc.Panels = []domain.Panel{p}
	var buf bytes.Buffer
	if err := WriteSVG(&buf, doc); err != nil {
		t.Fatalf("svg: %v", err)
	}
	s := buf.String()
	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`viewBox="0 0 200 100"`,
		`rx="12"`,
		`fill="url(#grid)"`,
		`id="a&quot;1"`,
		`fill="#ff0000" fill-opacity="0.`,
		`stroke="#0000ff" stroke-width="2"`,
		`a&lt;b`,
		`font-weight="bold"`,
		`transform="rotate(15 70 50)"`,
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %q:\n%s", want, s)
		}
	}
}

func TestWritePDF(t *testing.T) {
	c := plainCanvas(200, 100)
	c.ShowGrid = true
	doc := domain.NewDocument(c)
	p := redPanel("a", 1, 20, 20)
	p.Text = "Grüße"
	p.TextDecoration = domain.DecorationUnderline
	p.Rotation = 10
	circle := redPanel("b", 2, 100, 20)
	circle.Shape = domain.Circle
	doc.Panels = []domain.Panel{p, circle}
	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if err := WritePDF(&bytes.Buffer{}, domain.NewDocument(plainCanvas(0, 0))); err == nil {
		t.Fatalf("expected error for empty canvas")
	}
}

func TestByZIndexIsStable(t *testing.T) {
	in := []domain.Panel{{ID: "b", ZIndex: 2}, {ID: "a", ZIndex: 1}, {ID: "c", ZIndex: 2}}
	got := byZIndex(in)
	if got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("order: %v", got)
	}
	if in[0].ID != "b" {
		t.Fatalf("input reordered")
	}
}
