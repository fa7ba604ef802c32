/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor owns the live document of one editing session together with
// its undo history, selection, clipboard and the debounce slots that coalesce
// rapid edits into single history entries.
package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"panelcanvas/internal/domain"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/storage"
	"panelcanvas/internal/undo"
	"panelcanvas/internal/vector"
)

// ErrPanelNotFound is returned by operations addressing an id that is not in
// the live document.
var ErrPanelNotFound = errors.New("panel not found")

// DefaultDebounce is the quiet period before a burst of edits is captured.
const DefaultDebounce = 500 * time.Millisecond

// Options configure a Session. Zero values select the stock defaults.
type Options struct {
	Policy          domain.Policy
	HistoryDepth    int
	Debounce        time.Duration
	RectangleWidth  float64
	RectangleHeight float64
	Canvas          domain.CanvasState
	// Viewport is the visible part of the canvas new panels are centered in.
	Viewport vector.Rect
	Snap     vector.SnapOptions
	NewID    func() string
	Logger   *slog.Logger
}

// HistoryState is the undo/redo availability reported to callers.
type HistoryState struct {
	Length  int  `json:"length"`
	Index   int  `json:"index"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// Session is safe for concurrent use. Debounced captures run on timer
// goroutines and take the same lock as every operation.
type Session struct {
	mu        sync.Mutex
	doc       domain.Document
	hist      *undo.History
	selected  string
	clipboard *domain.Panel
	opts      Options
	props     *Debouncer
	canvas    *Debouncer
	log       *slog.Logger
}

// NewSession starts a session on an empty document and records it as the
// first history entry.
func NewSession(opts Options) *Session {
	if opts.Policy == (domain.Policy{}) {
		opts.Policy = domain.DefaultPolicy()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.RectangleWidth <= 0 || opts.RectangleHeight <= 0 {
		opts.RectangleWidth, opts.RectangleHeight = domain.Rectangle.DefaultSize()
	}
	if opts.Canvas.Width <= 0 || opts.Canvas.Height <= 0 {
		def := domain.DefaultCanvas()
		if opts.Canvas.BgColor == "" {
			opts.Canvas = def
		} else {
			opts.Canvas.Width, opts.Canvas.Height = def.Width, def.Height
		}
	}
	if w, h, ok := opts.Policy.CanvasSize(opts.Canvas.Width, opts.Canvas.Height); ok {
		opts.Canvas.Width, opts.Canvas.Height = w, h
	} else {
		def := domain.DefaultCanvas()
		opts.Canvas.Width, opts.Canvas.Height = def.Width, def.Height
	}
	if opts.Viewport.W <= 0 || opts.Viewport.H <= 0 {
		opts.Viewport = vector.R(0, 0, opts.Canvas.Width, opts.Canvas.Height)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("editor")
	}
	s := &Session{
		doc:    domain.NewDocument(opts.Canvas),
		hist:   undo.New(undo.Config{MaxDepth: opts.HistoryDepth}),
		opts:   opts,
		props:  NewDebouncer(opts.Debounce),
		canvas: NewDebouncer(opts.Debounce),
		log:    opts.Logger,
	}
	s.hist.Capture(s.doc)
	return s
}

// Document returns a copy of the live document.
func (s *Session) Document() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Panel returns a copy of the panel with id.
func (s *Session) Panel(id string) (domain.Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Find(id)
	if i < 0 {
		return domain.Panel{}, false
	}
	return s.doc.Panels[i], true
}

func (s *Session) History() HistoryState {
	st := s.hist.Stats()
	return HistoryState{
		Length:  st.Length,
		Index:   st.Index,
		CanUndo: st.Index > 0,
		CanRedo: st.Index >= 0 && st.Index < st.Length-1,
	}
}

// HistoryStats exposes the raw counters of the underlying log.
func (s *Session) HistoryStats() undo.Stats { return s.hist.Stats() }

// Select marks id as the selected panel. An empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.doc.Find(id) < 0 {
		return fmt.Errorf("select %q: %w", id, ErrPanelNotFound)
	}
	s.selected = id
	return nil
}

// Selected returns the selected panel id.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// captureLocked records the live document now. Pending debounced captures are
// dropped since this snapshot already contains their edits.
func (s *Session) captureLocked(op string) {
	s.props.Cancel()
	s.canvas.Cancel()
	s.recordLocked(op)
}

func (s *Session) recordLocked(op string) {
	added := s.hist.Capture(s.doc)
	st := s.hist.Stats()
	applog.WithOperation(s.log, op).Debug("capture",
		slog.Bool("added", added), slog.Int("len", st.Length), slog.Int("index", st.Index))
}

// deferred returns the func a debounce slot runs once the burst settles.
func (s *Session) deferred(op string) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.recordLocked(op)
	}
}

// Flush runs pending debounced captures immediately. It must not be called
// while holding the session lock.
func (s *Session) Flush() {
	s.props.Flush()
	s.canvas.Flush()
}

// Pending reports whether a debounced capture is waiting.
func (s *Session) Pending() bool { return s.props.Pending() || s.canvas.Pending() }

// Undo steps the history back and replaces the live document with the entry
// under the cursor. Pending edits are captured first so they can be undone.
func (s *Session) Undo() bool {
	s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.doc = doc
	s.selected = ""
	s.log.Info("undo", slog.Int("index", s.hist.Index()))
	return true
}

func (s *Session) Redo() bool {
	s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.doc = doc
	s.selected = ""
	s.log.Info("redo", slog.Int("index", s.hist.Index()))
	return true
}

// Import replaces the live document with one decoded from r. On any error the
// live document is left as it was.
func (s *Session) Import(r io.Reader) error {
	doc, err := storage.DecodeDocument(r)
	if err != nil {
		s.log.Warn("import rejected", slog.Any("err", err))
		return err
	}
	return s.Load(doc)
}

// Load replaces the live document with doc and captures it.
func (s *Session) Load(doc domain.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	s.Flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.selected = ""
	s.captureLocked("import")
	s.log.Info("document loaded", slog.Int("panels", len(s.doc.Panels)))
	return nil
}

// Export writes the live document in the persisted JSON format.
func (s *Session) Export(w io.Writer) error {
	return storage.EncodeDocument(w, s.Document())
}

// Reset discards the document and its history and starts over empty.
func (s *Session) Reset() {
	s.props.Cancel()
	s.canvas.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = domain.NewDocument(s.opts.Canvas)
	s.selected = ""
	s.clipboard = nil
	s.hist.Reset(s.doc)
}

// Close cancels pending timers without capturing. The session must not be
// edited afterwards.
func (s *Session) Close() {
	s.props.Stop()
	s.canvas.Stop()
}
