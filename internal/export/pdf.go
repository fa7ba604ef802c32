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
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/vector"
	"panelcanvas/internal/version"
)

// WritePDF writes doc as a single-page PDF sized to the canvas, one point per
// canvas unit. Text uses the built-in Helvetica faces, so nothing is embedded.
func WritePDF(w io.Writer, doc domain.Document) error {
	c := doc.Canvas
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("render pdf: empty canvas %gx%g", c.Width, c.Height)
	}
	// Use points for 1:1 mapping from model to PDF
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: c.Width, Ht: c.Height},
	})
	pdf.SetCreator("panelcanvas "+version.String(), false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	radius := 0.0
	if c.RoundedCorners {
		radius = CanvasCornerRadius
	}
	pdf.ClipRoundedRect(0, 0, c.Width, c.Height, radius, false)
	setFillColor(pdf, domain.RGBA(c.BgColor, white))
	pdf.Rect(0, 0, c.Width, c.Height, "F")
	if c.ShowGrid {
		fg := domain.RGBA(c.FgColor, black)
		setDrawColor(pdf, fg)
		pdf.SetAlpha(gridAlpha*float64(fg.A)/255, "Normal")
		pdf.SetLineWidth(1)
		for x := 0.0; x <= c.Width; x += GridSpacing {
			pdf.Line(x, 0, x, c.Height)
		}
		for y := 0.0; y <= c.Height; y += GridSpacing {
			pdf.Line(0, y, c.Width, y)
		}
		pdf.SetAlpha(1, "Normal")
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, p := range byZIndex(doc.Panels) {
		bw := math.Max(0, p.BorderWidth)
		bg := domain.RGBA(p.BgColor, white)
		setFillColor(pdf, bg)
		style := "F"
		if bw > 0 {
			setDrawColor(pdf, domain.RGBA(p.BorderColor, gray))
			pdf.SetLineWidth(bw)
			style = "FD"
		}
		pdf.SetAlpha(float64(bg.A)/255, "Normal")
		drawPDFPath(pdf, vector.PanelOutline(p, c.RoundedCorners, bw/2), style)
		pdf.SetAlpha(1, "Normal")
		writePDFText(pdf, tr, p)
	}
	pdf.ClipEnd()

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPDFPath(pdf *gofpdf.Fpdf, p vector.Path, style string) {
	for _, cmd := range p.Cmds {
		d := cmd.Data
		switch cmd.Op {
		case vector.MoveTo:
			pdf.MoveTo(d[0], d[1])
		case vector.LineTo:
			pdf.LineTo(d[0], d[1])
		case vector.QuadTo:
			pdf.CurveTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			pdf.CurveBezierCubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			pdf.ClosePath()
		}
	}
	pdf.DrawPath(style)
}

func writePDFText(pdf *gofpdf.Fpdf, tr func(string) string, p domain.Panel) {
	if strings.TrimSpace(p.Text) == "" {
		return
	}
	size := p.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize
	}
	style := ""
	if p.FontWeight == domain.WeightBold {
		style += "B"
	}
	if p.FontStyle == domain.StyleItalic {
		style += "I"
	}
	if p.TextDecoration == domain.DecorationUnderline {
		style += "U"
	}
	pdf.SetFont("Helvetica", style, size)
	tc := domain.RGBA(p.TextColor, black)
	pdf.SetTextColor(int(tc.R), int(tc.G), int(tc.B))

	c := vector.R(p.X, p.Y, p.Width, p.Height).Center()
	if p.Rotation != 0 {
		pdf.TransformBegin()
		// gofpdf rotates counter-clockwise
		pdf.TransformRotate(-p.Rotation, c.X, c.Y)
	}
	lines := strings.Split(p.Text, "\n")
	lh := size * 1.2
	top := c.Y - lh*float64(len(lines))/2
	for i, ln := range lines {
		s := tr(ln)
		pdf.Text(c.X-pdf.GetStringWidth(s)/2, top+lh*float64(i)+lh*0.8, s)
	}
	if p.Rotation != 0 {
		pdf.TransformEnd()
	}
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.NRGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
