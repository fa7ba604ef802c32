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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/storage"
)

// Format names an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatPNG, FormatSVG, FormatPDF, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Options bundles renderer settings for Write and WriteFile.
type Options struct {
	PNG PNGOptions
}

// Write renders doc to w in format f.
func Write(w io.Writer, doc domain.Document, f Format, opts Options) error {
	switch f {
	case FormatPNG:
		return WritePNG(w, doc, opts.PNG)
	case FormatSVG:
		return WriteSVG(w, doc)
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatJSON:
		return storage.EncodeDocument(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// WriteFile renders doc into path via a temp file and rename, so readers never
// observe a half-written export. An empty f is derived from the extension.
func WriteFile(path string, doc domain.Document, f Format, opts Options) (err error) {
	if f == "" {
		if f, err = FormatFromPath(path); err != nil {
			return err
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err := Write(tmp, doc, f, opts); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
