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
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/vector"
)

// WriteSVG writes doc as a standalone SVG in canvas units. Panel borders are
// stroked along the outline inset by half the border width, so the stroke
// stays inside the panel bounds like the raster output.
func WriteSVG(w io.Writer, doc domain.Document) error {
	c := doc.Canvas
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", c.Width, c.Height, c.Width, c.Height)
	radius := 0.0
	if c.RoundedCorners {
		radius = CanvasCornerRadius
	}
	wf("  <defs><clipPath id=\"canvas\"><rect width=\"%g\" height=\"%g\" rx=\"%g\"/></clipPath>", c.Width, c.Height, radius)
	if c.ShowGrid {
		wf("<pattern id=\"grid\" width=\"%d\" height=\"%d\" patternUnits=\"userSpaceOnUse\"><path d=\"M %d 0 L 0 0 0 %d\" fill=\"none\" %s stroke-width=\"1\"/></pattern>",
			GridSpacing, GridSpacing, GridSpacing, GridSpacing, paint("stroke", fade(domain.RGBA(c.FgColor, black), gridAlpha)))
	}
	wf("</defs>\n")
	wf("  <g clip-path=\"url(#canvas)\">\n")
	wf("    <rect width=\"%g\" height=\"%g\" %s/>\n", c.Width, c.Height, paint("fill", domain.RGBA(c.BgColor, white)))
	if c.ShowGrid {
		wf("    <rect width=\"%g\" height=\"%g\" fill=\"url(#grid)\"/>\n", c.Width, c.Height)
	}

	for _, p := range byZIndex(doc.Panels) {
		bw := math.Max(0, p.BorderWidth)
		out := vector.PanelOutline(p, c.RoundedCorners, bw/2)
		stroke := "stroke=\"none\""
		if bw > 0 {
			stroke = fmt.Sprintf("%s stroke-width=\"%g\"", paint("stroke", domain.RGBA(p.BorderColor, gray)), bw)
		}
		wf("    <path id=\"%s\" d=\"%s\" %s %s/>\n", escAttr(p.ID), pathData(out), paint("fill", domain.RGBA(p.BgColor, white)), stroke)
		writeSVGText(wf, p)
	}
	wf("  </g>\n")
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeSVGText(wf func(string, ...any), p domain.Panel) {
	if strings.TrimSpace(p.Text) == "" {
		return
	}
	size := p.FontSize
	if size <= 0 {
		size = domain.DefaultFontSize
	}
	c := vector.R(p.X, p.Y, p.Width, p.Height).Center()
	lines := strings.Split(p.Text, "\n")
	attrs := fmt.Sprintf("font-family=\"Go, Helvetica, Arial, sans-serif\" font-size=\"%g\" text-anchor=\"middle\" %s", size, paint("fill", domain.RGBA(p.TextColor, black)))
	if p.FontWeight == domain.WeightBold {
		attrs += " font-weight=\"bold\""
	}
	if p.FontStyle == domain.StyleItalic {
		attrs += " font-style=\"italic\""
	}
	if p.TextDecoration == domain.DecorationUnderline {
		attrs += " text-decoration=\"underline\""
	}
	if p.Rotation != 0 {
		attrs += fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", p.Rotation, c.X, c.Y)
	}
	lh := size * 1.2
	top := c.Y - lh*float64(len(lines))/2
	wf("    <text %s>", attrs)
	for i, ln := range lines {
		// baseline sits roughly 0.8 of a line below the line top
		wf("<tspan x=\"%g\" y=\"%g\">%s</tspan>", c.X, vector.FloatRound(top+lh*float64(i)+lh*0.8, 3), escText(ln))
	}
	wf("</text>\n")
}

// pathData renders p as SVG path commands.
func pathData(p vector.Path) string {
	var sb strings.Builder
	for i, cmd := range p.Cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		d := cmd.Data
		r := func(v float64) float64 { return vector.FloatRound(v, 3) }
		switch cmd.Op {
		case vector.MoveTo:
			fmt.Fprintf(&sb, "M %g %g", r(d[0]), r(d[1]))
		case vector.LineTo:
			fmt.Fprintf(&sb, "L %g %g", r(d[0]), r(d[1]))
		case vector.QuadTo:
			fmt.Fprintf(&sb, "Q %g %g %g %g", r(d[0]), r(d[1]), r(d[2]), r(d[3]))
		case vector.CubicTo:
			fmt.Fprintf(&sb, "C %g %g %g %g %g %g", r(d[0]), r(d[1]), r(d[2]), r(d[3]), r(d[4]), r(d[5]))
		case vector.Close:
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// paint renders a fill or stroke attribute pair; SVG 1.1 has no alpha colors.
func paint(attr string, c color.NRGBA) string {
	s := fmt.Sprintf("%s=\"#%02x%02x%02x\"", attr, c.R, c.G, c.B)
	if c.A < 255 {
		s += fmt.Sprintf(" %s-opacity=\"%g\"", attr, vector.FloatRound(float64(c.A)/255, 3))
	}
	return s
}

func fade(c color.NRGBA, f float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * f))
	return c
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
