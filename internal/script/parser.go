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
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	"panelcanvas/internal/vector"
)

// A token is a bare word or a double-quoted Go string, optionally prefixed
// (key="a b").
var reToken = regexp.MustCompile(`[^\s"]*"(?:[^"\\]|\\.)*"|[^\s"]+`)

type token struct {
	text string
	col  int
}

// Parse parses an edit script. Blank lines and lines starting with '#' or ';'
// are skipped. Every other line is one command:
//
//	add <shape>
//	select|remove <ref>
//	move <ref> <x> <y>
//	resize <ref> <handle> <dx> <dy>
//	set <ref> key=value...
//	z <ref> <action>
//	text <ref> "..."
//	canvas size <w> <h> | colors <bg> <fg> | grid on|off | rounded on|off
//	clear | cut | copy | paste | undo | redo
//	import <path>
//
// Lines that fail to parse are reported and left out of the Script.
func Parse(input string) (Script, []Error) {
	s := Script{Commands: []Command{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		toks, err := tokenize(line)
		if err != nil {
			err.Line = lineNo
			errs = append(errs, *err)
			continue
		}
		cmd, err := parseCommand(toks)
		if err != nil {
			err.Line = lineNo
			errs = append(errs, *err)
			continue
		}
		cmd.Line = lineNo
		s.Commands = append(s.Commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo + 1, Message: err.Error()})
	}
	return s, errs
}

func tokenize(line string) ([]token, *Error) {
	var toks []token
	pos := 0
	for _, m := range reToken.FindAllStringIndex(line, -1) {
		if gap := line[pos:m[0]]; strings.TrimSpace(gap) != "" {
			return nil, &Error{Column: pos + strings.Index(gap, strings.TrimSpace(gap)) + 1, Message: "unterminated quote"}
		}
		raw := line[m[0]:m[1]]
		text := raw
		if q := strings.IndexByte(raw, '"'); q >= 0 {
			v, err := strconv.Unquote(raw[q:])
			if err != nil {
				return nil, &Error{Column: m[0] + q + 1, Message: fmt.Sprintf("bad quoted string: %v", err)}
			}
			text = raw[:q] + v
		}
		toks = append(toks, token{text: text, col: m[0] + 1})
		pos = m[1]
	}
	if rest := line[pos:]; strings.TrimSpace(rest) != "" {
		return nil, &Error{Column: pos + strings.Index(rest, strings.TrimSpace(rest)) + 1, Message: "unterminated quote"}
	}
	return toks, nil
}

func parseCommand(toks []token) (Command, *Error) {
	verb, args := strings.ToLower(toks[0].text), toks[1:]
	fail := func(t token, format string, a ...any) (Command, *Error) {
		return Command{}, &Error{Column: t.col, Message: fmt.Sprintf(format, a...)}
	}
	arity := func(n int, usage string) *Error {
		if len(args) != n {
			return &Error{Column: toks[0].col, Message: "usage: " + usage}
		}
		return nil
	}

	var c Command
	switch verb {
	case "add":
		if err := arity(1, "add <shape>"); err != nil {
			return c, err
		}
		k, err := domain.ParseShape(strings.ToLower(args[0].text))
		if err != nil {
			return fail(args[0], "%v", err)
		}
		c.Op, c.Shape = OpAdd, k
	case "select", "remove":
		if err := arity(1, verb+" <ref>"); err != nil {
			return c, err
		}
		c.Op = OpSelect
		if verb == "remove" {
			c.Op = OpRemove
		}
		c.Ref = args[0].text
	case "move":
		if err := arity(3, "move <ref> <x> <y>"); err != nil {
			return c, err
		}
		x, y, err := numbers(args[1], args[2])
		if err != nil {
			return c, err
		}
		c.Op, c.Ref, c.X, c.Y = OpMove, args[0].text, x, y
	case "resize":
		if err := arity(4, "resize <ref> <handle> <dx> <dy>"); err != nil {
			return c, err
		}
		h, herr := vector.ParseHandle(strings.ToLower(args[1].text))
		if herr != nil {
			return fail(args[1], "%v", herr)
		}
		dx, dy, err := numbers(args[2], args[3])
		if err != nil {
			return c, err
		}
		c.Op, c.Ref, c.Handle, c.X, c.Y = OpResize, args[0].text, h, dx, dy
	case "set":
		if len(args) < 2 {
			return fail(toks[0], "usage: set <ref> key=value...")
		}
		c.Op, c.Ref = OpSet, args[0].text
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv.text, "=")
			if !ok || k == "" {
				return fail(kv, "expected key=value, got %q", kv.text)
			}
			if err := setProperty(&c, k, v); err != nil {
				return fail(kv, "%v", err)
			}
		}
	case "z":
		if err := arity(2, "z <ref> <action>"); err != nil {
			return c, err
		}
		a, err := editor.ParseZAction(args[1].text)
		if err != nil {
			return fail(args[1], "%v", err)
		}
		c.Op, c.Ref, c.Z = OpZ, args[0].text, a
	case "text":
		if len(args) < 1 {
			return fail(toks[0], "usage: text <ref> \"...\"")
		}
		words := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			words = append(words, a.text)
		}
		c.Op, c.Ref, c.Text = OpText, args[0].text, strings.Join(words, " ")
	case "clear", "cut", "copy", "paste", "undo", "redo":
		if err := arity(0, verb); err != nil {
			return c, err
		}
		c.Op = map[string]Op{"clear": OpClear, "cut": OpCut, "copy": OpCopy, "paste": OpPaste, "undo": OpUndo, "redo": OpRedo}[verb]
	case "import":
		if err := arity(1, "import <path>"); err != nil {
			return c, err
		}
		c.Op, c.Text = OpImport, args[0].text
	case "canvas":
		return parseCanvas(toks[0], args)
	default:
		return fail(toks[0], "unknown command %q", toks[0].text)
	}
	return c, nil
}

func parseCanvas(verb token, args []token) (Command, *Error) {
	var c Command
	if len(args) == 0 {
		return c, &Error{Column: verb.col, Message: "usage: canvas size|colors|grid|rounded ..."}
	}
	sub, rest := strings.ToLower(args[0].text), args[1:]
	if (sub == "grid" || sub == "rounded") && len(rest) == 1 {
		on, err := onOff(rest[0])
		if err != nil {
			return c, err
		}
		c.Op, c.On = OpCanvasGrid, on
		if sub == "rounded" {
			c.Op = OpCanvasRounded
		}
		return c, nil
	}
	if len(rest) != 2 {
		return c, &Error{Column: args[0].col, Message: fmt.Sprintf("usage: canvas %s <a> <b>", sub)}
	}
	switch sub {
	case "size":
		w, h, err := numbers(rest[0], rest[1])
		if err != nil {
			return c, err
		}
		c.Op, c.X, c.Y = OpCanvasSize, w, h
	case "colors":
		c.Op, c.Colors = OpCanvasColors, [2]string{rest[0].text, rest[1].text}
	default:
		return c, &Error{Column: args[0].col, Message: fmt.Sprintf("unknown canvas setting %q", args[0].text)}
	}
	return c, nil
}

func numbers(a, b token) (float64, float64, *Error) {
	x, err := strconv.ParseFloat(a.text, 64)
	if err != nil {
		return 0, 0, &Error{Column: a.col, Message: fmt.Sprintf("not a number: %q", a.text)}
	}
	y, err := strconv.ParseFloat(b.text, 64)
	if err != nil {
		return 0, 0, &Error{Column: b.col, Message: fmt.Sprintf("not a number: %q", b.text)}
	}
	return x, y, nil
}

func onOff(t token) (bool, *Error) {
	switch strings.ToLower(t.text) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, &Error{Column: t.col, Message: fmt.Sprintf("expected on|off, got %q", t.text)}
}

// setProperty maps one key=value pair onto the command. Numbers go through
// the same input coercion as the editor, so "width=" keeps the current width.
func setProperty(c *Command, key, val string) error {
	num := func() *float64 { v := domain.ParseInput(val); return &v }
	str := func() *string { return &val }
	p := &c.Props
	switch strings.ToLower(key) {
	case "width":
		p.Width = num()
	case "height":
		p.Height = num()
	case "bgcolor":
		p.BgColor = str()
	case "bordercolor":
		p.BorderColor = str()
	case "borderwidth":
		p.BorderWidth = num()
	case "text":
		p.Text = str()
	case "textcolor":
		p.TextColor = str()
	case "fontsize":
		p.FontSize = num()
	case "rotation":
		p.Rotation = num()
	case "fontweight":
		w := domain.FontWeight(val)
		if !w.Valid() {
			return fmt.Errorf("fontWeight must be normal or bold, got %q", val)
		}
		p.FontWeight = &w
	case "fontstyle":
		s := domain.FontStyle(val)
		if !s.Valid() {
			return fmt.Errorf("fontStyle must be normal or italic, got %q", val)
		}
		p.FontStyle = &s
	case "textdecoration":
		d := domain.TextDecoration(val)
		if !d.Valid() {
			return fmt.Errorf("textDecoration must be none or underline, got %q", val)
		}
		p.TextDecoration = &d
	case "z", "zaction":
		a, err := editor.ParseZAction(val)
		if err != nil {
			return err
		}
		c.Z = a
	default:
		return fmt.Errorf("unknown property %q", key)
	}
	return nil
}
