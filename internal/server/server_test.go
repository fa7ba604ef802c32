/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	applog "panelcanvas/internal/log"
)

type fixture struct {
	t  *testing.T
	s  *editor.Session
	ts *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	s := editor.NewSession(editor.Options{
		Debounce: time.Hour,
		NewID: func() string {
			n++
			return fmt.Sprintf("p%d", n)
		},
		Logger: applog.Discard(),
	})
	ts := httptest.NewServer(New(s, applog.Discard()))
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return &fixture{t: t, s: s, ts: ts}
}

// do sends body (marshalled unless it is a string) and decodes a JSON reply into out.
func (f *fixture) do(method, path string, body any, out any) int {
	f.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			f.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	if err != nil {
		f.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		f.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			f.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestAddUndoRedo(t *testing.T) {
	f := newFixture(t)
	var p domain.Panel
	if code := f.do("POST", "/api/panels", map[string]string{"shape": "circle"}, &p); code != http.StatusCreated {
		t.Fatalf("add: %d", code)
	}
	if p.ID != "p1" || p.Shape != domain.Circle || p.ZIndex != 1 {
		t.Fatalf("added: %+v", p)
	}
	var h editor.HistoryState
	f.do("GET", "/api/history", nil, &h)
	if h.Length != 2 || h.Index != 1 || !h.CanUndo {
		t.Fatalf("history after add: %+v", h)
	}
	var res historyResult
	f.do("POST", "/api/undo", nil, &res)
	if !res.Applied || res.Index != 0 || !res.CanRedo {
		t.Fatalf("undo: %+v", res)
	}
	if n := len(f.s.Document().Panels); n != 0 {
		t.Fatalf("undo left %d panels", n)
	}
	f.do("POST", "/api/undo", nil, &res)
	if res.Applied {
		t.Fatalf("undo at start should not apply")
	}
	f.do("POST", "/api/redo", nil, &res)
	if !res.Applied || len(f.s.Document().Panels) != 1 {
		t.Fatalf("redo: %+v", res)
	}
}

func TestPanelMutations(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/panels", map[string]string{"shape": "rectangle"}, nil)
	f.do("POST", "/api/panels", map[string]string{"shape": "square"}, nil)

	var p domain.Panel
	code := f.do("PATCH", "/api/panels/p1", map[string]any{"bgColor": "#ff0000", "borderWidth": 500, "zAction": "bringToFront"}, &p)
	if code != http.StatusOK || p.BgColor != "#ff0000" || p.BorderWidth != 100 || p.ZIndex != 2 {
		t.Fatalf("patch: %d %+v", code, p)
	}
	if code := f.do("POST", "/api/panels/p2/move", map[string]float64{"x": 5, "y": 6}, &p); code != http.StatusOK || p.X != 5 || p.Y != 6 {
		t.Fatalf("move: %d %+v", code, p)
	}
	if code := f.do("POST", "/api/panels/p2/resize", map[string]any{"handle": "se", "dx": 40, "dy": 10}, &p); code != http.StatusOK || p.Width != 240 || p.Height != 210 {
		t.Fatalf("resize gesture: %d %+v", code, p)
	}
	if code := f.do("POST", "/api/panels/p2/resize", map[string]float64{"width": 10}, &p); code != http.StatusOK || p.Width != 50 {
		t.Fatalf("resize commit: %d %+v", code, p)
	}
	if code := f.do("PUT", "/api/panels/p2/text", map[string]any{"text": "hi", "commit": true}, &p); code != http.StatusOK || p.Text != "hi" {
		t.Fatalf("text: %d %+v", code, p)
	}
	if code := f.do("GET", "/api/panels/at?x=10&y=10", nil, &p); code != http.StatusOK || p.ID != "p2" {
		t.Fatalf("panel at: %d %+v", code, p)
	}
	if code := f.do("DELETE", "/api/panels/p2", nil, nil); code != http.StatusNoContent {
		t.Fatalf("remove: %d", code)
	}
	if code := f.do("DELETE", "/api/panels", nil, nil); code != http.StatusNoContent || len(f.s.Document().Panels) != 0 {
		t.Fatalf("clear: %d", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t)
	var e errorBody
	cases := []struct {
		method, path string
		body         any
		want         int
	}{
		{"PATCH", "/api/panels/nope", map[string]any{"width": 100}, http.StatusNotFound},
		{"POST", "/api/panels/nope/move", map[string]float64{"x": 1}, http.StatusNotFound},
		{"PUT", "/api/panels/nope/text", map[string]any{"text": "x"}, http.StatusNotFound},
		{"GET", "/api/panels/nope", nil, http.StatusNotFound},
		{"POST", "/api/panels", "{", http.StatusBadRequest},
		{"POST", "/api/panels", map[string]string{"shape": "blob"}, http.StatusUnprocessableEntity},
		{"POST", "/api/panels", map[string]string{"colour": "red"}, http.StatusBadRequest},
		{"PATCH", "/api/canvas", map[string]string{"width": "wide"}, http.StatusBadRequest},
		{"PUT", "/api/document", `{"panels": 3}`, http.StatusUnprocessableEntity},
		{"GET", "/api/panels/at?x=a", nil, http.StatusBadRequest},
		{"POST", "/api/clipboard/copy", nil, http.StatusConflict},
	}
	for _, c := range cases {
		e = errorBody{}
		if code := f.do(c.method, c.path, c.body, &e); code != c.want || e.Error == "" {
			t.Fatalf("%s %s: got %d %+v, want %d", c.method, c.path, code, e, c.want)
		}
	}
	if code := f.do("DELETE", "/api/panels/nope", nil, nil); code != http.StatusNoContent {
		t.Fatalf("remove of unknown id should stay idempotent, got %d", code)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/panels", map[string]string{"shape": "hexagon"}, nil)
	var raw map[string]any
	if code := f.do("GET", "/api/document", nil, &raw); code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}
	if raw["canvasWidth"].(float64) != 1280 || len(raw["panels"].([]any)) != 1 {
		t.Fatalf("document: %v", raw)
	}
	raw["canvasBgColor"] = "#123456"
	if code := f.do("PUT", "/api/document", raw, nil); code != http.StatusOK {
		t.Fatalf("put: %d", code)
	}
	if f.s.Document().Canvas.BgColor != "#123456" {
		t.Fatalf("import not applied")
	}
}

func TestCanvasPatch(t *testing.T) {
	f := newFixture(t)
	var c canvasPatch
	code := f.do("PATCH", "/api/canvas", map[string]any{"width": 800, "bgColor": "#000000", "showGrid": true}, &c)
	if code != http.StatusOK || *c.Width != 800 || *c.Height != 720 || *c.BgColor != "#000000" || !*c.ShowGrid {
		t.Fatalf("canvas: %d %+v", code, c)
	}
}

func TestClipboardRoutes(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/panels", map[string]string{"shape": "diamond"}, nil)
	if code := f.do("POST", "/api/select", map[string]string{"id": "p1"}, nil); code != http.StatusNoContent {
		t.Fatalf("select: %d", code)
	}
	if code := f.do("POST", "/api/clipboard/copy", nil, nil); code != http.StatusNoContent {
		t.Fatalf("copy: %d", code)
	}
	var p domain.Panel
	if code := f.do("POST", "/api/clipboard/paste", nil, &p); code != http.StatusCreated || p.ID != "p2" {
		t.Fatalf("paste: %d %+v", code, p)
	}
}

func TestExportRoutes(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/api/panels", map[string]string{"shape": "triangle"}, nil)

	resp, err := http.Get(f.ts.URL + "/api/export.png?scale=0.25")
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil || cfg.Width != 320 || cfg.Height != 180 {
		t.Fatalf("png: %+v %v", cfg, err)
	}

	resp2, err := http.Get(f.ts.URL + "/api/export.svg")
	if err != nil {
		t.Fatalf("svg: %v", err)
	}
	defer resp2.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp2.Body)
	if resp2.StatusCode != http.StatusOK || resp2.Header.Get("Content-Type") != "image/svg+xml" || !strings.Contains(body.String(), "<path") {
		t.Fatalf("svg: %d %q %s", resp2.StatusCode, resp2.Header.Get("Content-Type"), body.String())
	}

	var e errorBody
	if code := f.do("GET", "/api/export.png?scale=-1", nil, &e); code != http.StatusBadRequest {
		t.Fatalf("bad scale: %d", code)
	}
}
