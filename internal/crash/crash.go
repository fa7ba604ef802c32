/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a fatal panic into a crash report plus a rescue copy of
// the document that was being edited.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"panelcanvas/internal/domain"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/storage"
	"panelcanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// reportDir is where reports and rescue files go.
var reportDir = os.TempDir

// Recover captures a panic, logs it with a stacktrace, writes a crash report
// and, when doc is non-nil, a rescue export of the live document next to it.
// The rescue file is a regular document that the import path accepts.
//
// Usage: defer crash.Recover(session.Document)
func Recover(doc func() domain.Document) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	stamp := time.Now().Format("20060102-150405.000")
	reportPath, err := writeReport(stamp, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if doc != nil {
		if path, err := writeRescue(stamp, doc); err != nil {
			l.Error("rescue export failed", slog.Any("err", err))
		} else {
			l.Info("rescue export written", slog.String("path", path))
			_, _ = fmt.Fprintf(os.Stderr, "Your layout was saved to: %s\n", path)
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	// Exit with a non-zero code to indicate failure in CLI context.
	exitFn(2)
}

func writeReport(stamp string, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(reportDir(), fmt.Sprintf("panelcanvas-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "panelcanvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := writeSynced(path, buf.Bytes()); err != nil {
		return path, err
	}
	return path, nil
}

// writeRescue exports the document. doc runs under its own recover, since the
// state it reads may be what caused the panic.
func writeRescue(stamp string, doc func() domain.Document) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read document: %v", r)
		}
	}()
	data, err := storage.MarshalDocument(doc())
	if err != nil {
		return "", err
	}
	path = filepath.Join(reportDir(), fmt.Sprintf("panelcanvas-rescue-%s.json", stamp))
	return path, writeSynced(path, data)
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	return f.Close()
}
