/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"panelcanvas/internal/domain"
)

// ErrInvalidDocument matches every error produced while decoding a document.
var ErrInvalidDocument = errors.New("invalid document")

// ImportError reports why a serialized document was rejected.
type ImportError struct {
	// Problems lists schema violations or the decode failure.
	Problems []string
	Err      error
}

func (e *ImportError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("invalid document: %v", e.Err)
	}
	return "invalid document: " + strings.Join(e.Problems, "; ")
}

func (e *ImportError) Unwrap() error { return e.Err }

func (e *ImportError) Is(target error) bool { return target == ErrInvalidDocument }

//go:embed document.schema.json
var documentSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func documentSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchemaJSON))
	})
	return schema, schemaErr
}

// wireDocument is the persisted JSON layout; canvas settings are flattened
// next to the panel list.
type wireDocument struct {
	Panels         []domain.Panel `json:"panels"`
	CanvasWidth    float64        `json:"canvasWidth"`
	CanvasHeight   float64        `json:"canvasHeight"`
	CanvasBgColor  string         `json:"canvasBgColor"`
	CanvasFgColor  string         `json:"canvasFgColor"`
	RoundedCorners bool           `json:"roundedCorners"`
	ShowGrid       bool           `json:"showGrid"`
}

// EncodeDocument writes doc as indented JSON.
func EncodeDocument(w io.Writer, doc domain.Document) error {
	b, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// MarshalDocument returns the persisted JSON form of doc with a trailing newline.
func MarshalDocument(doc domain.Document) ([]byte, error) {
	wd := wireDocument{
		Panels:         doc.Panels,
		CanvasWidth:    doc.Canvas.Width,
		CanvasHeight:   doc.Canvas.Height,
		CanvasBgColor:  doc.Canvas.BgColor,
		CanvasFgColor:  doc.Canvas.FgColor,
		RoundedCorners: doc.Canvas.RoundedCorners,
		ShowGrid:       doc.Canvas.ShowGrid,
	}
	if wd.Panels == nil {
		wd.Panels = []domain.Panel{}
	}
	for _, p := range wd.Panels {
		if !finite(p.X, p.Y, p.Width, p.Height, p.FontSize, p.BorderWidth, p.Rotation) {
			return nil, fmt.Errorf("marshal document: panel %q has a non-finite number", p.ID)
		}
	}
	b, err := json.MarshalIndent(wd, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeDocument reads a serialized document, validates it against the
// embedded schema and checks cross-panel invariants. Failures are *ImportError.
func DecodeDocument(r io.Reader) (domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, &ImportError{Err: fmt.Errorf("read: %w", err)}
	}
	return UnmarshalDocument(data)
}

func UnmarshalDocument(data []byte) (domain.Document, error) {
	if !json.Valid(data) {
		return domain.Document{}, &ImportError{Problems: []string{"not valid JSON"}, Err: ErrInvalidDocument}
	}
	sch, err := documentSchema()
	if err != nil {
		return domain.Document{}, fmt.Errorf("load document schema: %w", err)
	}
	res, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Document{}, &ImportError{Err: err}
	}
	if !res.Valid() {
		ie := &ImportError{Err: ErrInvalidDocument}
		for _, e := range res.Errors() {
			ie.Problems = append(ie.Problems, e.String())
		}
		return domain.Document{}, ie
	}
	var wd wireDocument
	if err := json.Unmarshal(data, &wd); err != nil {
		return domain.Document{}, &ImportError{Err: err}
	}
	doc := domain.Document{
		Panels: wd.Panels,
		Canvas: domain.CanvasState{
			Width:          wd.CanvasWidth,
			Height:         wd.CanvasHeight,
			BgColor:        wd.CanvasBgColor,
			FgColor:        wd.CanvasFgColor,
			RoundedCorners: wd.RoundedCorners,
			ShowGrid:       wd.ShowGrid,
		},
	}
	if doc.Panels == nil {
		doc.Panels = []domain.Panel{}
	}
	if err := doc.Validate(); err != nil {
		return domain.Document{}, &ImportError{Problems: []string{err.Error()}, Err: err}
	}
	return doc, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
