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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"panelcanvas/internal/domain"
)

func sampleDocument() domain.Document {
	d := domain.NewDocument(domain.DefaultCanvas())
	d.Canvas.ShowGrid = true
	d.Panels = append(d.Panels,
		domain.Panel{ID: "a", X: 10, Y: 20, Width: 266, Height: 200, ZIndex: 0, BgColor: "#ffffff", BorderColor: "#D4D4D4", BorderWidth: 1, Shape: domain.Rectangle},
		domain.Panel{ID: "b", X: 300, Y: 40, Width: 120, Height: 120, ZIndex: 1, BgColor: "tomato", BorderColor: "#000", Shape: domain.Circle,
			Text: "Hi", FontSize: 24, TextColor: "#222", FontWeight: domain.WeightBold, FontStyle: domain.StyleItalic,
			TextDecoration: domain.DecorationUnderline, Rotation: 12.5},
	)
	return d
}

func TestDocumentRoundTrip(t *testing.T) {
	want := sampleDocument()
	var buf bytes.Buffer
	if err := EncodeDocument(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDocument(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestEncodedLayout(t *testing.T) {
	b, err := MarshalDocument(domain.NewDocument(domain.DefaultCanvas()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"panels", "canvasWidth", "canvasHeight", "canvasBgColor", "canvasFgColor", "roundedCorners", "showGrid"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %s in %s", k, b)
		}
	}
	if !strings.Contains(string(b), "\"panels\": []") {
		t.Fatalf("empty panel list should encode as []: %s", b)
	}
	if !strings.HasPrefix(string(b), "{\n  \"") {
		t.Fatalf("expected two-space indentation: %q", b[:8])
	}
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"syntax":        `{"panels": [`,
		"not object":    `[1,2]`,
		"missing field": `{"panels": [], "canvasWidth": 100}`,
		"bad shape": `{"panels":[{"id":"a","x":0,"y":0,"width":1,"height":1,"zIndex":0,"bgColor":"#fff","borderColor":"#000","shape":"star"}],
			"canvasWidth":1280,"canvasHeight":720,"canvasBgColor":"#fff","canvasFgColor":"#000","roundedCorners":true,"showGrid":false}`,
		"bad weight": `{"panels":[{"id":"a","x":0,"y":0,"width":1,"height":1,"zIndex":0,"bgColor":"#fff","borderColor":"#000","shape":"square","fontWeight":"black"}],
			"canvasWidth":1280,"canvasHeight":720,"canvasBgColor":"#fff","canvasFgColor":"#000","roundedCorners":true,"showGrid":false}`,
		"duplicate id": `{"panels":[
			{"id":"a","x":0,"y":0,"width":1,"height":1,"zIndex":0,"bgColor":"#fff","borderColor":"#000","shape":"square"},
			{"id":"a","x":0,"y":0,"width":1,"height":1,"zIndex":1,"bgColor":"#fff","borderColor":"#000","shape":"circle"}],
			"canvasWidth":1280,"canvasHeight":720,"canvasBgColor":"#fff","canvasFgColor":"#000","roundedCorners":true,"showGrid":false}`,
	}
	for name, in := range cases {
		_, err := DecodeDocument(strings.NewReader(in))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("%s: error should match ErrInvalidDocument: %v", name, err)
		}
		var ie *ImportError
		if !errors.As(err, &ie) {
			t.Fatalf("%s: expected *ImportError, got %T", name, err)
		}
	}
}

func TestSchemaViolationsAreListed(t *testing.T) {
	_, err := UnmarshalDocument([]byte(`{"panels":[{"id":"a"}]}`))
	var ie *ImportError
	if !errors.As(err, &ie) || len(ie.Problems) < 2 {
		t.Fatalf("expected several problems, got %v", err)
	}
}

func TestMarshalRejectsNonFinite(t *testing.T) {
	d := sampleDocument()
	d.Panels[0].X = domain.ParseInput("nan?")
	if _, err := MarshalDocument(d); err == nil {
		t.Fatalf("NaN coordinate should not marshal")
	}
}
