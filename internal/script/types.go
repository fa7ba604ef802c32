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
	"fmt"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	"panelcanvas/internal/vector"
)

// Script is a parsed edit script: one command per non-blank, non-comment line.
type Script struct {
	Commands []Command
}

// Op identifies a script command.
type Op int

const (
	OpUnknown Op = iota
	OpAdd
	OpSelect
	OpMove
	OpResize
	OpSet
	OpZ
	OpText
	OpRemove
	OpClear
	OpCanvasSize
	OpCanvasColors
	OpCanvasGrid
	OpCanvasRounded
	OpCut
	OpCopy
	OpPaste
	OpUndo
	OpRedo
	OpImport
)

var opNames = map[Op]string{
	OpAdd: "add", OpSelect: "select", OpMove: "move", OpResize: "resize", OpSet: "set",
	OpZ: "z", OpText: "text", OpRemove: "remove", OpClear: "clear",
	OpCanvasSize: "canvas size", OpCanvasColors: "canvas colors", OpCanvasGrid: "canvas grid",
	OpCanvasRounded: "canvas rounded", OpCut: "cut", OpCopy: "copy", OpPaste: "paste",
	OpUndo: "undo", OpRedo: "redo", OpImport: "import",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Command is one parsed line. Only the fields relevant to Op are set.
//
// Ref is either "$N" (the Nth panel added or pasted by the running script,
// 1-based) or a literal panel id.
type Command struct {
	Line   int
	Op     Op
	Ref    string
	Shape  domain.ShapeKind
	X, Y   float64 // move target, resize delta or canvas size
	Handle vector.Handle
	Props  editor.Properties
	Z      editor.ZAction
	Text   string // panel text, import path
	Colors [2]string
	On     bool
}

// Error represents a parse or run error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
