/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigPath, filepath.Join(dir, "config.yaml"))
	return dir
}

func TestDefaultsWhenNoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 50 || cfg.Editor.DebounceMs != 500 {
		t.Fatalf("unexpected editor defaults: %#v", cfg.Editor)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 || !cfg.Canvas.RoundedCorners {
		t.Fatalf("unexpected canvas defaults: %#v", cfg.Canvas)
	}
}

func TestFileValuesAreMerged(t *testing.T) {
	dir := isolate(t)
	yaml := "editor:\n  rectangle_height: 180\n  debounce_ms: 250\ncanvas:\n  show_grid: true\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.RectangleHeight != 180 {
		t.Fatalf("RectangleHeight = %v, want 180", cfg.Editor.RectangleHeight)
	}
	if got := cfg.Editor.Debounce(); got != 250*time.Millisecond {
		t.Fatalf("Debounce() = %v, want 250ms", got)
	}
	if !cfg.Canvas.ShowGrid {
		t.Fatalf("ShowGrid expected true from file")
	}
	// rounded_corners absent from the file keeps its default
	if !cfg.Canvas.RoundedCorners {
		t.Fatalf("RoundedCorners should keep default true")
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("editor: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error for malformed yaml")
	}
	if cfg.Editor.HistoryDepth != 50 {
		t.Fatalf("expected defaults after parse error, got %#v", cfg.Editor)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Export.PNGScale = 3
	cfg.Server.Addr = "127.0.0.1:9999"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Export.PNGScale != 3 || got.Server.Addr != "127.0.0.1:9999" {
		t.Fatalf("saved values not loaded back: %#v", got)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pnc.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pnc.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryDepth, "20")
	t.Setenv(EnvRectangleHeight, "180")
	t.Setenv(EnvLibraryPath, "/tmp/lib.sqlite")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogSource, "1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 20 || cfg.Editor.RectangleHeight != 180 {
		t.Fatalf("editor env overrides not applied: %#v", cfg.Editor)
	}
	if cfg.Library.Path != "/tmp/lib.sqlite" {
		t.Fatalf("library override not applied: %q", cfg.Library.Path)
	}
	if cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestInvalidEnvNumbersAreIgnored(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDebounceMs, "soon")
	t.Setenv(EnvPNGScale, "-1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.DebounceMs != 500 || cfg.Export.PNGScale != 2 {
		t.Fatalf("invalid env values should be ignored: %#v %#v", cfg.Editor, cfg.Export)
	}
}
