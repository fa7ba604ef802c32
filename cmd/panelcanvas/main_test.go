/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"panelcanvas/internal/config"
	"panelcanvas/internal/storage"
)

func TestLoopback(t *testing.T) {
	cases := map[string]string{
		":7420":          "127.0.0.1:7420",
		"127.0.0.1:80":   "127.0.0.1:80",
		"localhost:9000": "localhost:9000",
		"[::1]:9000":     "[::1]:9000",
	}
	for in, want := range cases {
		got, err := loopback(in)
		if err != nil || got != want {
			t.Fatalf("loopback(%q) = %q, %v", in, got, err)
		}
	}
	for _, bad := range []string{"0.0.0.0:80", "example.com:80", "nope"} {
		if _, err := loopback(bad); err == nil {
			t.Fatalf("loopback(%q) should fail", bad)
		}
	}
}

func TestRunUsageErrors(t *testing.T) {
	cfg := config.Defaults()
	for _, args := range [][]string{{"frobnicate"}, {"render", "a.json"}, {"new"}, {"serve", "a", "b"}} {
		if err := run(cfg, args); !errors.Is(err, errUsage) {
			t.Fatalf("run(%v) = %v, want usage error", args, err)
		}
	}
}

func TestNewReplayRender(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	base := filepath.Join(dir, "base.json")
	if err := run(cfg, []string{"new", base, "800", "600"}); err != nil {
		t.Fatalf("new: %v", err)
	}
	sc := filepath.Join(dir, "edit.pcs")
	if err := os.WriteFile(sc, []byte("add circle\nset $1 bgColor=#ff0000\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	out := filepath.Join(dir, "out.json")
	if err := run(cfg, []string{"replay", sc, out, base}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	doc, err := storage.OpenFile(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if doc.Canvas.Width != 800 || len(doc.Panels) != 1 || doc.Panels[0].BgColor != "#ff0000" {
		t.Fatalf("replayed document: %+v", doc)
	}
	if err := run(cfg, []string{"render", out, filepath.Join(dir, "out.svg")}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := run(cfg, []string{"validate", out}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
