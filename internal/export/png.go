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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/vector"
)

const (
	// DefaultPNGScale renders two pixels per canvas unit.
	DefaultPNGScale = 2
	// CanvasCornerRadius rounds the canvas frame when rounded corners are on.
	CanvasCornerRadius = 12
	// GridSpacing is the grid cell size in canvas units.
	GridSpacing = 20
	gridAlpha   = 0.25
	curveSegs   = 16
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.NRGBA{A: 255}
	gray  = color.NRGBA{R: 0xD4, G: 0xD4, B: 0xD4, A: 255}
)

// PNGOptions controls raster export.
type PNGOptions struct {
	// Scale is pixels per canvas unit; zero selects DefaultPNGScale.
	Scale float64
	// Fonts resolves panel fonts; nil uses the Go fonts.
	Fonts *FontLibrary
}

func (o PNGOptions) scale() float64 {
	if o.Scale <= 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return DefaultPNGScale
	}
	return o.Scale
}

// WritePNG renders doc and encodes it to w.
func WritePNG(w io.Writer, doc domain.Document, opts PNGOptions) error {
	img, err := RenderPNG(doc, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// RenderPNG rasterizes doc at opts.Scale. The image is canvas size times
// scale; pixels outside a rounded canvas frame stay transparent.
func RenderPNG(doc domain.Document, opts PNGOptions) (*image.RGBA, error) {
	scale := opts.scale()
	c := doc.Canvas
	w, h := int(math.Round(c.Width*scale)), int(math.Round(c.Height*scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render png: empty canvas %gx%g", c.Width, c.Height)
	}
	fonts := opts.Fonts
	if fonts == nil {
		var err error
		if fonts, err = DefaultFonts(); err != nil {
			return nil, err
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rz := newRasterizer(img, scale)
	frame := canvasFrame(c)
	rz.fill(frame, domain.RGBA(c.BgColor, white))
	if c.ShowGrid {
		drawGrid(img, rz.mask(frame), c, scale)
	}

	fonts.drawMu.Lock()
	defer fonts.drawMu.Unlock()
	for _, p := range byZIndex(doc.Panels) {
		drawPanel(rz, p, c.RoundedCorners)
		if err := drawText(img, fonts, p, scale); err != nil {
			return nil, fmt.Errorf("render png: panel %s: %w", p.ID, err)
		}
	}
	return img, nil
}

func canvasFrame(c domain.CanvasState) vector.Path {
	radius := 0.0
	if c.RoundedCorners {
		radius = CanvasCornerRadius
	}
	return vector.Outline(domain.Rectangle, vector.R(0, 0, c.Width, c.Height), radius)
}

// byZIndex returns a copy of panels in paint order. Ties keep document order.
func byZIndex(panels []domain.Panel) []domain.Panel {
	out := append([]domain.Panel(nil), panels...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func drawPanel(rz *rasterizer, p domain.Panel, rounded bool) {
	bg := domain.RGBA(p.BgColor, white)
	bw := math.Max(0, p.BorderWidth)
	if bw == 0 {
		rz.fill(vector.PanelOutline(p, rounded, 0), bg)
		return
	}
	rz.fill(vector.PanelOutline(p, rounded, 0), domain.RGBA(p.BorderColor, gray))
	rz.fill(vector.PanelOutline(p, rounded, bw), bg)
}

func drawGrid(dst *image.RGBA, mask image.Image, c domain.CanvasState, scale float64) {
	src := image.NewUniform(fade(domain.RGBA(c.FgColor, black), gridAlpha))
	lw := int(math.Max(1, math.Round(scale)))
	b := dst.Bounds()
	for x := 0.0; x <= c.Width; x += GridSpacing {
		px := int(math.Round(x * scale))
		r := image.Rect(px, 0, px+lw, b.Dy()).Intersect(b)
		draw.DrawMask(dst, r, src, image.Point{}, mask, r.Min, draw.Over)
	}
	for y := 0.0; y <= c.Height; y += GridSpacing {
		py := int(math.Round(y * scale))
		r := image.Rect(0, py, b.Dx(), py+lw).Intersect(b)
		draw.DrawMask(dst, r, src, image.Point{}, mask, r.Min, draw.Over)
	}
}

// drawText centers the panel text on the panel. Rotated panels get their
// text rendered upright into a scratch image and transformed onto dst.
func drawText(dst *image.RGBA, fonts *FontLibrary, p domain.Panel, scale float64) error {
	if strings.TrimSpace(p.Text) == "" {
		return nil
	}
	size := p.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize
	}
	face, err := fonts.Face(p.FontWeight, p.FontStyle, size*scale)
	if err != nil {
		return err
	}
	col := domain.RGBA(p.TextColor, black)
	lines := strings.Split(p.Text, "\n")
	m := face.Metrics()
	lh, asc := m.Height.Ceil(), m.Ascent.Ceil()
	widths := make([]fixed.Int26_6, len(lines))
	var maxW fixed.Int26_6
	for i, ln := range lines {
		widths[i] = font.MeasureString(face, ln)
		if widths[i] > maxW {
			maxW = widths[i]
		}
	}
	thick := int(math.Max(1, math.Round(size*scale/16)))
	bw, bh := maxW.Ceil()+2, lh*len(lines)+2*thick

	block := image.NewRGBA(image.Rect(0, 0, bw, bh))
	d := font.Drawer{Dst: block, Src: image.NewUniform(col), Face: face}
	for i, ln := range lines {
		x := (fixed.I(bw) - widths[i]) / 2
		base := i*lh + asc
		d.Dot = fixed.Point26_6{X: x, Y: fixed.I(base)}
		d.DrawString(ln)
		if p.TextDecoration == domain.DecorationUnderline {
			ul := image.Rect(x.Floor(), base+thick, (x + widths[i]).Ceil(), base+2*thick)
			draw.Draw(block, ul, d.Src, image.Point{}, draw.Over)
		}
	}

	c := vector.R(p.X, p.Y, p.Width, p.Height).Center()
	c.X, c.Y = c.X*scale, c.Y*scale
	if p.Rotation == 0 {
		at := image.Pt(int(math.Round(c.X-float64(bw)/2)), int(math.Round(c.Y-float64(bh)/2)))
		draw.Draw(dst, block.Bounds().Add(at), block, image.Point{}, draw.Over)
		return nil
	}
	m2 := vector.RotateAbout(c, p.Rotation).Mul(vector.Translate(c.X-float64(bw)/2, c.Y-float64(bh)/2))
	s2d := f64.Aff3{m2.A, m2.C, m2.E, m2.B, m2.D, m2.F}
	draw.BiLinear.Transform(dst, s2d, block, block.Bounds(), draw.Over, nil)
	return nil
}

// rasterizer fills flattened outlines in pixel space with x/image/vector.
type rasterizer struct {
	dst   *image.RGBA
	z     *xvector.Rasterizer
	scale float64
}

func newRasterizer(dst *image.RGBA, scale float64) *rasterizer {
	b := dst.Bounds()
	return &rasterizer{dst: dst, z: xvector.NewRasterizer(b.Dx(), b.Dy()), scale: scale}
}

// load flattens p into pixel space, clipped to the image, and reports whether
// anything is left to draw.
func (rz *rasterizer) load(p vector.Path) bool {
	b := rz.dst.Bounds()
	pts := p.Transform(vector.Scale(rz.scale, rz.scale)).Polygon(curveSegs)
	pts = clipPolygon(pts, float64(b.Dx()), float64(b.Dy()))
	if len(pts) < 3 {
		return false
	}
	rz.z.Reset(b.Dx(), b.Dy())
	rz.z.DrawOp = draw.Over
	rz.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, pt := range pts[1:] {
		rz.z.LineTo(float32(pt.X), float32(pt.Y))
	}
	rz.z.ClosePath()
	return true
}

func (rz *rasterizer) fill(p vector.Path, c color.NRGBA) {
	if c.A == 0 || !rz.load(p) {
		return
	}
	rz.z.Draw(rz.dst, rz.dst.Bounds(), image.NewUniform(c), image.Point{})
}

// mask returns the coverage of p as an alpha image.
func (rz *rasterizer) mask(p vector.Path) *image.Alpha {
	b := rz.dst.Bounds()
	a := image.NewAlpha(b)
	if rz.load(p) {
		rz.z.DrawOp = draw.Src
		rz.z.Draw(a, b, image.Opaque, image.Point{})
	}
	return a
}

// clipPolygon clips pts to [0,w]x[0,h] (Sutherland-Hodgman).
func clipPolygon(pts []vector.Pt, w, h float64) []vector.Pt {
	edges := []struct {
		inside func(vector.Pt) bool
		cross  func(a, b vector.Pt) vector.Pt
	}{
		{func(p vector.Pt) bool { return p.X >= 0 }, func(a, b vector.Pt) vector.Pt { return lerpX(a, b, 0) }},
		{func(p vector.Pt) bool { return p.X <= w }, func(a, b vector.Pt) vector.Pt { return lerpX(a, b, w) }},
		{func(p vector.Pt) bool { return p.Y >= 0 }, func(a, b vector.Pt) vector.Pt { return lerpY(a, b, 0) }},
		{func(p vector.Pt) bool { return p.Y <= h }, func(a, b vector.Pt) vector.Pt { return lerpY(a, b, h) }},
	}
	out := pts
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = make([]vector.Pt, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func lerpX(a, b vector.Pt, x float64) vector.Pt {
	t := (x - a.X) / (b.X - a.X)
	return vector.Pt{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

func lerpY(a, b vector.Pt, y float64) vector.Pt {
	t := (y - a.Y) / (b.Y - a.Y)
	return vector.Pt{X: a.X + t*(b.X-a.X), Y: y}
}
