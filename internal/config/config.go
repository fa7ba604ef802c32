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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type EditorConfig struct {
	HistoryDepth int `yaml:"history_depth"`
	DebounceMs   int `yaml:"debounce_ms"`
	// RectangleHeight is the default height of a new rectangle panel (200 or 180 in older layouts).
	RectangleWidth  float64 `yaml:"rectangle_width"`
	RectangleHeight float64 `yaml:"rectangle_height"`
	// SnapThreshold enables edge and center snapping on move; 0 turns it off.
	SnapThreshold float64 `yaml:"snap_threshold"`
}

type CanvasConfig struct {
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	BgColor        string  `yaml:"bg_color"`
	FgColor        string  `yaml:"fg_color"`
	RoundedCorners bool    `yaml:"rounded_corners"`
	ShowGrid       bool    `yaml:"show_grid"`
}

type ExportConfig struct {
	PNGScale float64 `yaml:"png_scale"`
	// FontDir optionally holds regular/bold/italic/bolditalic .ttf files replacing the Go fonts.
	FontDir string `yaml:"font_dir"`
}

type LibraryConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Export        ExportConfig  `yaml:"export"`
	Library       LibraryConfig `yaml:"library"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{HistoryDepth: 50, DebounceMs: 500, RectangleWidth: 266, RectangleHeight: 200},
		Canvas:        CanvasConfig{Width: 1280, Height: 720, BgColor: "#ffffff", FgColor: "#000000", RoundedCorners: true, ShowGrid: false},
		Export:        ExportConfig{PNGScale: 2},
		Library:       LibraryConfig{Path: ""},
		Server:        ServerConfig{Addr: "127.0.0.1:7420"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvHistoryDepth    = "PNC_HISTORY_DEPTH"
	EnvDebounceMs      = "PNC_DEBOUNCE_MS"
	EnvRectangleHeight = "PNC_RECTANGLE_HEIGHT"
	EnvPNGScale        = "PNC_PNG_SCALE"
	EnvFontDir         = "PNC_FONT_DIR"
	EnvLibraryPath     = "PNC_LIBRARY"
	EnvServerAddr      = "PNC_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PNC_LOG_LEVEL"
	EnvLogFormat = "PNC_LOG_FORMAT"
	EnvLogSource = "PNC_LOG_SOURCE"
	EnvLogFile   = "PNC_LOG_FILE"
	// EnvConfigPath points Load at an explicit file instead of the per-user one.
	EnvConfigPath = "PNC_CONFIG"
)

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PanelCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PanelCanvas")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "panelcanvas")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "panelcanvas")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path, honoring PNC_CONFIG.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env overrides are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		// Unmarshal over the defaults so keys absent from the file keep their default value.
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			parseErr = err
		}
	}
	applyEnvOverrides(&cfg)
	if cfg.Library.Path == "" {
		if dir, err := ConfigDir(); err == nil {
			cfg.Library.Path = filepath.Join(dir, "library.sqlite")
		}
	}
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if src.Editor.HistoryDepth > 0 {
		dst.Editor.HistoryDepth = src.Editor.HistoryDepth
	}
	if src.Editor.DebounceMs > 0 {
		dst.Editor.DebounceMs = src.Editor.DebounceMs
	}
	if src.Editor.RectangleWidth > 0 {
		dst.Editor.RectangleWidth = src.Editor.RectangleWidth
	}
	if src.Editor.RectangleHeight > 0 {
		dst.Editor.RectangleHeight = src.Editor.RectangleHeight
	}
	if src.Editor.SnapThreshold > 0 {
		dst.Editor.SnapThreshold = src.Editor.SnapThreshold
	}
	// canvas
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if strings.TrimSpace(src.Canvas.BgColor) != "" {
		dst.Canvas.BgColor = strings.TrimSpace(src.Canvas.BgColor)
	}
	if strings.TrimSpace(src.Canvas.FgColor) != "" {
		dst.Canvas.FgColor = strings.TrimSpace(src.Canvas.FgColor)
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Canvas.RoundedCorners = src.Canvas.RoundedCorners
	dst.Canvas.ShowGrid = src.Canvas.ShowGrid
	// export
	if src.Export.PNGScale > 0 {
		dst.Export.PNGScale = src.Export.PNGScale
	}
	if strings.TrimSpace(src.Export.FontDir) != "" {
		dst.Export.FontDir = strings.TrimSpace(src.Export.FontDir)
	}
	if strings.TrimSpace(src.Library.Path) != "" {
		dst.Library.Path = strings.TrimSpace(src.Library.Path)
	}
	if strings.TrimSpace(src.Server.Addr) != "" {
		dst.Server.Addr = strings.TrimSpace(src.Server.Addr)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDebounceMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.DebounceMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvRectangleHeight)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Editor.RectangleHeight = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPNGScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.PNGScale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontDir)); v != "" {
		cfg.Export.FontDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryPath)); v != "" {
		cfg.Library.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// Debounce returns the editor debounce window as a duration.
func (e EditorConfig) Debounce() time.Duration {
	if e.DebounceMs <= 0 {
		return time.Duration(Defaults().Editor.DebounceMs) * time.Millisecond
	}
	return time.Duration(e.DebounceMs) * time.Millisecond
}
