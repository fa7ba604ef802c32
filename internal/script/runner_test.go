/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/storage"
)

func newSession(t *testing.T) *editor.Session {
	t.Helper()
	n := 0
	s := editor.NewSession(editor.Options{
		// Captures only happen through the flush after each command.
		Debounce: time.Hour,
		NewID: func() string {
			n++
			return fmt.Sprintf("p%d", n)
		},
		Logger: applog.Discard(),
	})
	t.Cleanup(s.Close)
	return s
}

func mustParse(t *testing.T, in string) Script {
	t.Helper()
	sc, errs := Parse(in)
	if len(errs) != 0 {
		t.Fatalf("parse: %v", errs)
	}
	return sc
}

func TestRunReplaysLayout(t *testing.T) {
	s := newSession(t)
	sc := mustParse(t, `
add rectangle
add circle
set $1 bgColor=#ff0000 text="Hello there" width=300
set $2 width=500 height=120
z $1 bringToFront
move $2 10 20
resize $1 se 50 50
text $2 "Hi"
canvas size 1000 600
canvas colors #eeeeee #111111
canvas grid on
select $1
copy
paste
undo
redo
remove $3
`)
	res := Run(context.Background(), s, sc, RunOptions{Logger: applog.Discard()})
	if !res.OK() || res.Executed != len(sc.Commands) {
		t.Fatalf("run: executed %d/%d, errors %v", res.Executed, len(sc.Commands), res.Errors)
	}
	if strings.Join(res.Refs, ",") != "p1,p2,p3" {
		t.Fatalf("refs: %v", res.Refs)
	}
	doc := s.Document()
	if len(doc.Panels) != 2 {
		t.Fatalf("panels: %+v", doc.Panels)
	}
	p1, _ := s.Panel("p1")
	if p1.BgColor != "#ff0000" || p1.Text != "Hello there" || p1.ZIndex != 2 {
		t.Fatalf("p1: %+v", p1)
	}
	if p1.Width != 350 || p1.Height != 250 {
		t.Fatalf("p1 resize: %vx%v", p1.Width, p1.Height)
	}
	p2, _ := s.Panel("p2")
	if p2.Width != 120 || p2.Height != 120 || p2.Text != "Hi" {
		t.Fatalf("p2: %+v", p2)
	}
	c := doc.Canvas
	if c.Width != 1000 || c.Height != 600 || c.BgColor != "#eeeeee" || !c.ShowGrid {
		t.Fatalf("canvas: %+v", c)
	}
	// one entry per document-changing command plus the initial state
	if h := s.History(); h.Length != 14 || h.CanRedo {
		t.Fatalf("history: %+v", h)
	}
}

func TestRunReportsFailuresAndContinues(t *testing.T) {
	s := newSession(t)
	sc := mustParse(t, `undo
move $1 0 0
add square
move nope 1 2
copy
move $1 5 5`)
	res := Run(context.Background(), s, sc, RunOptions{Logger: applog.Discard()})
	if res.Executed != 2 || len(res.Errors) != 4 {
		t.Fatalf("executed %d, errors %v", res.Executed, res.Errors)
	}
	for i, line := range []int{1, 2, 4, 5} {
		if res.Errors[i].Line != line {
			t.Fatalf("error %d on line %d, want %d", i, res.Errors[i].Line, line)
		}
	}
	if p, _ := s.Panel("p1"); p.X != 5 || p.Y != 5 {
		t.Fatalf("last move not applied: %+v", p)
	}
}

func TestRunStopOnError(t *testing.T) {
	s := newSession(t)
	res := Run(context.Background(), s, mustParse(t, "redo\nadd circle"), RunOptions{StopOnError: true, Logger: applog.Discard()})
	if res.Executed != 0 || len(res.Errors) != 1 || len(s.Document().Panels) != 0 {
		t.Fatalf("should stop at first error: %+v", res)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Run(ctx, s, mustParse(t, "add circle"), RunOptions{Logger: applog.Discard()})
	if res.Executed != 0 || len(res.Errors) != 1 {
		t.Fatalf("cancelled run: %+v", res)
	}
}

func TestRunImportRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	doc := domain.NewDocument(domain.DefaultCanvas())
	doc.Panels = []domain.Panel{{ID: "x", X: 1, Y: 2, Width: 60, Height: 60, ZIndex: 1, BgColor: "#fff", BorderColor: "#000", Shape: domain.Square}}
	if err := storage.SaveFile(filepath.Join(dir, "in.json"), doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	s := newSession(t)
	res := Run(context.Background(), s, mustParse(t, "import in.json\nmove x 100 100\nimport missing.json"), RunOptions{BaseDir: dir, Logger: applog.Discard()})
	if res.Executed != 2 || len(res.Errors) != 1 || res.Errors[0].Line != 3 {
		t.Fatalf("import run: %+v", res)
	}
	if p, ok := s.Panel("x"); !ok || p.X != 100 {
		t.Fatalf("imported panel: %+v %v", p, ok)
	}
}

func TestRunResizeWithNaNDeltaKeepsDocumentExportable(t *testing.T) {
	s := newSession(t)
	res := Run(context.Background(), s, mustParse(t, "add square\nresize $1 se NaN 0\n"), RunOptions{Logger: applog.Discard()})
	if !res.OK() {
		t.Fatalf("errors: %v", res.Errors)
	}
	p, _ := s.Panel("p1")
	if p.Width != 200 || p.Height != 200 {
		t.Fatalf("panel: %+v", p)
	}
	var buf strings.Builder
	if err := s.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
}
