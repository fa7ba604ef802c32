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

import (
	"image/color"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// ValidColor reports whether s is a CSS color string.
func ValidColor(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := csscolorparser.Parse(s)
	return err == nil
}

// NormalizeColor returns s when it parses as a CSS color and current otherwise.
// The original spelling is kept so exported documents round-trip untouched.
func NormalizeColor(s, current string) string {
	if ValidColor(s) {
		return s
	}
	return current
}

// RGBA resolves a CSS color to a non-premultiplied color. Unparseable input
// resolves to fallback.
func RGBA(s string, fallback color.NRGBA) color.NRGBA {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return fallback
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
