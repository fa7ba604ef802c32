/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"sync"
	"time"
)

// Debouncer is a single-slot cancellable timer: scheduling replaces any call
// that has not fired yet, so a burst results in one call after the quiet period.
type Debouncer struct {
	delay time.Duration

	run sync.Mutex // held while the scheduled func executes

	mu      sync.Mutex
	timer   *time.Timer
	fn      func()
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges for fn to run after the delay, superseding any pending call.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	g := d.gen
	d.fn = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(g) })
}

func (d *Debouncer) fire(g uint64) {
	d.run.Lock()
	defer d.run.Unlock()
	fn := d.take(func() bool { return d.gen == g })
	if fn != nil {
		fn()
	}
}

// take removes and returns the pending func when ok holds.
func (d *Debouncer) take(ok func() bool) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fn == nil || !ok() {
		return nil
	}
	fn := d.fn
	d.fn = nil
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}

// Flush runs the pending call now, on the caller's goroutine. It waits for a
// call that is already executing and reports whether anything ran.
func (d *Debouncer) Flush() bool {
	d.run.Lock()
	defer d.run.Unlock()
	fn := d.take(func() bool { return true })
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending call without running it.
func (d *Debouncer) Cancel() {
	d.take(func() bool { return true })
}

// Pending reports whether a call is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

// Stop cancels the pending call and ignores every later Schedule.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Cancel()
}
