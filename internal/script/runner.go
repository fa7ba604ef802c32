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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"panelcanvas/internal/editor"
	applog "panelcanvas/internal/log"
)

// RunOptions configures Run.
type RunOptions struct {
	// BaseDir resolves relative import paths; empty means the working directory.
	BaseDir string
	// StopOnError aborts at the first failing command.
	StopOnError bool
	Logger      *slog.Logger
}

// Result summarizes a run.
type Result struct {
	Executed int
	Errors   []Error
	// Refs lists the ids of panels added or pasted by the script, in order;
	// $N resolves to Refs[N-1].
	Refs []string
}

// OK reports whether every command succeeded.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Run executes sc against s. Pending debounced captures are flushed after
// every command, so each command that changes the document forms its own
// history entry. Failing commands are recorded and skipped.
func Run(ctx context.Context, s *editor.Session, sc Script, opts RunOptions) Result {
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("script")
	}
	var res Result
	for _, c := range sc.Commands {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, Error{Line: c.Line, Message: err.Error()})
			break
		}
		err := exec(s, c, &res, opts)
		s.Flush()
		if err != nil {
			l.Debug("command failed", slog.Int("line", c.Line), slog.String("cmd", c.Op.String()), slog.Any("err", err))
			res.Errors = append(res.Errors, Error{Line: c.Line, Message: err.Error()})
			if opts.StopOnError {
				break
			}
			continue
		}
		res.Executed++
		l.Debug("command done", slog.Int("line", c.Line), slog.String("cmd", c.Op.String()))
	}
	h := s.History()
	l.Info("script finished", slog.Int("executed", res.Executed), slog.Int("errors", len(res.Errors)), slog.Int("history", h.Length))
	return res
}

var errNoSelection = errors.New("nothing selected")

func exec(s *editor.Session, c Command, res *Result, opts RunOptions) error {
	var id string
	if c.Ref != "" {
		var err error
		if id, err = resolve(c.Ref, res.Refs); err != nil {
			return err
		}
	}
	switch c.Op {
	case OpAdd:
		p, err := s.AddPanel(c.Shape)
		if err != nil {
			return err
		}
		res.Refs = append(res.Refs, p.ID)
	case OpSelect:
		return s.Select(id)
	case OpMove:
		_, err := s.MovePanel(id, c.X, c.Y)
		return err
	case OpResize:
		g, err := s.BeginResize(id, c.Handle)
		if err != nil {
			return err
		}
		if _, err := g.Update(c.X, c.Y); err != nil {
			return err
		}
		_, err = g.End()
		return err
	case OpSet:
		var z *editor.ZAction
		if c.Z != 0 {
			z = &c.Z
		}
		_, err := s.UpdatePanelProperties(id, c.Props, z)
		return err
	case OpZ:
		z := c.Z
		_, err := s.UpdatePanelProperties(id, editor.Properties{}, &z)
		return err
	case OpText:
		if err := s.UpdatePanelText(id, c.Text); err != nil {
			return err
		}
		return s.CommitText(id)
	case OpRemove:
		if !s.RemovePanel(id) {
			return fmt.Errorf("remove %q: %w", id, editor.ErrPanelNotFound)
		}
	case OpClear:
		s.ClearPanels()
	case OpCanvasSize:
		if !s.SetCanvasSize(c.X, c.Y) {
			return fmt.Errorf("canvas size %gx%g rejected", c.X, c.Y)
		}
	case OpCanvasColors:
		s.SetCanvasColors(c.Colors[0], c.Colors[1])
	case OpCanvasGrid:
		s.SetShowGrid(c.On)
	case OpCanvasRounded:
		s.SetRoundedCorners(c.On)
	case OpCopy:
		if !s.Copy() {
			return errNoSelection
		}
	case OpCut:
		if !s.Cut() {
			return errNoSelection
		}
	case OpPaste:
		p, ok := s.Paste()
		if !ok {
			return errors.New("clipboard is empty")
		}
		res.Refs = append(res.Refs, p.ID)
	case OpUndo:
		if !s.Undo() {
			return errors.New("nothing to undo")
		}
	case OpRedo:
		if !s.Redo() {
			return errors.New("nothing to redo")
		}
	case OpImport:
		return importFile(s, c.Text, opts.BaseDir)
	default:
		return fmt.Errorf("unsupported command %v", c.Op)
	}
	return nil
}

func importFile(s *editor.Session, path, base string) error {
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.Import(f)
}

// resolve maps "$N" to the Nth script-created panel; anything else is an id.
func resolve(ref string, refs []string) (string, error) {
	if !strings.HasPrefix(ref, "$") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	if err != nil || n < 1 {
		return "", fmt.Errorf("bad panel reference %q", ref)
	}
	if n > len(refs) {
		return "", fmt.Errorf("panel reference %s: only %d panels created so far", ref, len(refs))
	}
	return refs[n-1], nil
}
