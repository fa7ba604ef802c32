/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"panelcanvas/internal/domain"
)

// DefaultMaxDepth is the number of snapshots kept when Config leaves it unset.
// It is also the ceiling for any configured depth.
const DefaultMaxDepth = 50

// Snapshot is an immutable copy of a document at the moment it was captured.
type Snapshot struct {
	Doc domain.Document
	TS  time.Time
}

// Config controls depth caps.
type Config struct {
	// MaxDepth bounds the log; the oldest entry is evicted first. Values
	// outside 1..DefaultMaxDepth are replaced by DefaultMaxDepth.
	MaxDepth int
	// Now overrides the clock used to stamp snapshots (tests).
	Now func() time.Time
}

// Stats summarizes the log for diagnostics.
type Stats struct {
	Length   int
	Index    int
	Captured int // accepted captures since creation or Reset
	Dropped  int // captures rejected as duplicates
	Evicted  int
}

// History is a bounded, linear snapshot log with a cursor. Capturing while the
// cursor is behind the tail discards every later entry. It is safe for
// concurrent use.
type History struct {
	cfg     Config
	mu      sync.Mutex
	entries []Snapshot
	index   int
	stats   Stats
}

func New(cfg Config) *History {
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > DefaultMaxDepth {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &History{cfg: cfg, index: -1}
}

// Capture records doc as the newest entry and moves the cursor to it. A doc
// equal to the entry at the cursor is dropped. It reports whether the log changed.
func (h *History) Capture(doc domain.Document) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= 0 && h.entries[h.index].Doc.Equal(doc) {
		h.stats.Dropped++
		return false
	}
	// Any new change invalidates redo.
	clear(h.entries[h.index+1:])
	h.entries = append(h.entries[:h.index+1], Snapshot{Doc: doc.Clone(), TS: h.cfg.Now()})
	h.index = len(h.entries) - 1
	h.stats.Captured++
	if over := len(h.entries) - h.cfg.MaxDepth; over > 0 {
		for i := 0; i < over; i++ {
			h.entries[i] = Snapshot{}
		}
		h.entries = append([]Snapshot{}, h.entries[over:]...)
		h.index -= over
		h.stats.Evicted += over
	}
	return true
}

// Undo moves the cursor back and returns the document now under it.
func (h *History) Undo() (domain.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return domain.Document{}, false
	}
	h.index--
	return h.entries[h.index].Doc.Clone(), true
}

// Redo moves the cursor forward and returns the document now under it.
func (h *History) Redo() (domain.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 || h.index >= len(h.entries)-1 {
		return domain.Document{}, false
	}
	h.index++
	return h.entries[h.index].Doc.Clone(), true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index >= 0 && h.index < len(h.entries)-1
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the cursor position, or -1 for an empty log.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// At returns a copy of entry i.
func (h *History) At(i int) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.entries) {
		return Snapshot{}, false
	}
	s := h.entries[i]
	s.Doc = s.Doc.Clone()
	return s, true
}

// Reset replaces the whole log with a single entry holding doc.
func (h *History) Reset(doc domain.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []Snapshot{{Doc: doc.Clone(), TS: h.cfg.Now()}}
	h.index = 0
	h.stats = Stats{Captured: 1}
}

func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.Length = len(h.entries)
	s.Index = h.index
	return s
}
