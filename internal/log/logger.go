/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log sets up the process-wide slog logger for panelcanvas.
//
// Console output is either a compact single-line format or JSON. A rotating
// JSON file sink (lumberjack) can be added next to it. Loggers obtained via
// WithComponent carry a component attribute, which the line format prints as
// a bracketed prefix so editor, storage, export and server output stay apart.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"panelcanvas/internal/version"
)

// Options controls Init. FromEnv reads them from PNC_LOG_LEVEL,
// PNC_LOG_FORMAT (console|json|off), PNC_LOG_SOURCE and PNC_LOG_FILE.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	// File enables a rotated JSON log at this path.
	File string
	// Rotation limits for File; zero picks 10 MB, 3 backups, 28 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console replaces os.Stderr.
	Console io.Writer
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	level   = new(slog.LevelVar)
)

// L returns the process logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init builds the logger from opts and installs it as slog.Default.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))
	hopts := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	var sinks []slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "off", "none":
	case "json":
		sinks = append(sinks, slog.NewJSONHandler(console, hopts))
	default:
		sinks = append(sinks, newLineHandler(console, hopts))
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		sinks = append(sinks, slog.NewJSONHandler(rotating(path, opts), hopts))
	}

	var h slog.Handler
	switch len(sinks) {
	case 0:
		h = discardHandler{}
	case 1:
		h = sinks[0]
	default:
		h = fanout(sinks)
	}
	l := slog.New(requestHandler{next: h}).With(
		slog.String("app", "panelcanvas"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
}

func rotating(path string, opts Options) *lj.Logger {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
		Compress:   true,
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// SetLevel changes the level of the installed logger without rebuilding it.
func SetLevel(s string) { level.Set(parseLevel(s)) }

// FromEnv reads Options from the PNC_LOG_* variables.
func FromEnv() Options {
	src := strings.ToLower(strings.TrimSpace(os.Getenv("PNC_LOG_SOURCE")))
	return Options{
		Level:     getenv("PNC_LOG_LEVEL", "info"),
		Format:    getenv("PNC_LOG_FORMAT", "console"),
		AddSource: src == "1" || src == "true" || src == "yes",
		File:      os.Getenv("PNC_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns the process logger tagged with a component name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(componentKey, name)) }

// WithOperation tags l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that is never enabled.
func Discard() *slog.Logger { return slog.New(discardHandler{}) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type requestIDKey struct{}

// ContextWithRequestID tags ctx so records logged through it carry a
// request_id attribute.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// requestHandler copies the request id from the context onto each record.
type requestHandler struct{ next slog.Handler }

func (h requestHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h requestHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok {
			r.AddAttrs(slog.String("request_id", id))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h requestHandler) WithAttrs(as []slog.Attr) slog.Handler {
	return requestHandler{next: h.next.WithAttrs(as)}
}

func (h requestHandler) WithGroup(name string) slog.Handler {
	return requestHandler{next: h.next.WithGroup(name)}
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(as []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(as)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
