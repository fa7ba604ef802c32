/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"panelcanvas/internal/config"
	"panelcanvas/internal/crash"
	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/vector"
	"panelcanvas/internal/version"
)

// errUsage marks argument errors; they exit with status 2 after the usage text.
var errUsage = errors.New("usage")

// live is the session a crash rescue exports, when one is running.
var live *editor.Session

func usage() {
	fmt.Println("panelcanvas: panel layout editor core")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  panelcanvas version|-v|--version               Show version")
	fmt.Println("  panelcanvas new <file.json> [<width> <height>]   Create an empty layout")
	fmt.Println("  panelcanvas info <file.json>                     Print canvas and panels")
	fmt.Println("  panelcanvas validate <file.json>                 Check a layout against the document schema")
	fmt.Println("  panelcanvas render <file.json> <out> [<scale>]   Export to .png, .svg, .pdf or .json")
	fmt.Println("  panelcanvas watch <file.json> <out>              Re-render <out> whenever the layout changes")
	fmt.Println("  panelcanvas replay <script> <out> [<base.json>]  Run an edit script and export the result")
	fmt.Println("  panelcanvas library save <name> <file.json>      Store a layout in the local library")
	fmt.Println("  panelcanvas library load <name> <file.json>      Write a stored layout to a file")
	fmt.Println("  panelcanvas library list|search <query>|delete <name>")
	fmt.Println("  panelcanvas serve [<addr>]                       Serve a session API on localhost")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not fully loaded, using defaults", slog.Any("err", cfgErr))
	}
	defer crash.Recover(liveDocument)

	args := os.Args[1:]
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if err := run(cfg, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(err)
			usage()
			os.Exit(2)
		}
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(cfg config.AppConfig, args []string) error {
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
		return nil
	case "new":
		return cmdNew(cfg, args[1:])
	case "info":
		return cmdInfo(args[1:])
	case "validate":
		return cmdValidate(args[1:])
	case "render":
		return cmdRender(cfg, args[1:])
	case "watch":
		return cmdWatch(cfg, args[1:])
	case "replay":
		return cmdReplay(cfg, args[1:])
	case "library":
		return cmdLibrary(cfg, args[1:])
	case "serve":
		return cmdServe(cfg, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func liveDocument() domain.Document {
	if live == nil {
		return domain.NewDocument(domain.DefaultCanvas())
	}
	return live.Document()
}

func canvasFromConfig(c config.CanvasConfig) domain.CanvasState {
	return domain.CanvasState{
		Width:          c.Width,
		Height:         c.Height,
		BgColor:        c.BgColor,
		FgColor:        c.FgColor,
		RoundedCorners: c.RoundedCorners,
		ShowGrid:       c.ShowGrid,
	}
}

func newSession(cfg config.AppConfig) *editor.Session {
	s := editor.NewSession(editor.Options{
		HistoryDepth:    cfg.Editor.HistoryDepth,
		Debounce:        cfg.Editor.Debounce(),
		RectangleWidth:  cfg.Editor.RectangleWidth,
		RectangleHeight: cfg.Editor.RectangleHeight,
		Canvas:          canvasFromConfig(cfg.Canvas),
		Snap:            vector.SnapOptions{Threshold: cfg.Editor.SnapThreshold, Edges: true, Centers: true},
	})
	live = s
	return s
}
