/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "panelcanvas/internal/log"
	"panelcanvas/internal/storage"
)

// DefaultWatchSettle is how long Watch waits for a burst of events to end.
const DefaultWatchSettle = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Render Options
	Settle time.Duration
	// OnRender, if set, observes the outcome of every render attempt.
	OnRender func(err error)
	Logger   *slog.Logger
}

// Watch renders in to out once, then again whenever in changes, until ctx is
// done. The parent directory is watched so rename-based saves are seen.
// Documents that fail to decode are logged and leave out untouched.
func Watch(ctx context.Context, in, out string, f Format, opts WatchOptions) error {
	if f == "" {
		var err error
		if f, err = FormatFromPath(out); err != nil {
			return err
		}
	}
	src, err := filepath.Abs(in)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", in, err)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultWatchSettle
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("export")
	}
	l = applog.WithOperation(l, "watch").With(slog.String("in", src), slog.String("out", out))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(src)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(src), err)
	}

	render := func() {
		err := renderFile(src, out, f, opts.Render)
		if err != nil {
			l.Warn("render skipped", slog.Any("err", err))
		} else {
			l.Info("rendered")
		}
		if opts.OnRender != nil {
			opts.OnRender(err)
		}
	}
	render()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != src || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fire = time.After(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warn("watcher error", slog.Any("err", err))
		case <-fire:
			fire = nil
			render()
		}
	}
}

func renderFile(in, out string, f Format, opts Options) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	doc, err := storage.UnmarshalDocument(data)
	if err != nil {
		return err
	}
	return WriteFile(out, doc, f, opts)
}
