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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"panelcanvas/internal/config"
	"panelcanvas/internal/domain"
	"panelcanvas/internal/export"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/script"
	"panelcanvas/internal/server"
	"panelcanvas/internal/storage"
)

func cmdNew(cfg config.AppConfig, args []string) error {
	if len(args) != 1 && len(args) != 3 {
		return fmt.Errorf("%w: new <file.json> [<width> <height>]", errUsage)
	}
	c := canvasFromConfig(cfg.Canvas)
	if len(args) == 3 {
		w, h, ok := domain.DefaultPolicy().CanvasSize(domain.ParseInput(args[1]), domain.ParseInput(args[2]))
		if !ok {
			return fmt.Errorf("invalid canvas size %s x %s", args[1], args[2])
		}
		c.Width, c.Height = w, h
	}
	if err := storage.SaveFile(args[0], domain.NewDocument(c)); err != nil {
		return err
	}
	fmt.Printf("Created %s (%gx%g)\n", args[0], c.Width, c.Height)
	return nil
}

func cmdInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: info <file.json>", errUsage)
	}
	doc, err := storage.OpenFile(args[0])
	if err != nil {
		return err
	}
	c := doc.Canvas
	fmt.Printf("Canvas: %gx%g bg=%s fg=%s rounded=%t grid=%t\n", c.Width, c.Height, c.BgColor, c.FgColor, c.RoundedCorners, c.ShowGrid)
	fmt.Printf("Panels: %d\n", len(doc.Panels))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Z\tID\tSHAPE\tX\tY\tW\tH\tTEXT")
	for _, p := range doc.Panels {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%g\t%g\t%g\t%q\n", p.ZIndex, p.ID, p.Shape, p.X, p.Y, p.Width, p.Height, p.Text)
	}
	return tw.Flush()
}

func cmdValidate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: validate <file.json>", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if _, err := storage.UnmarshalDocument(data); err != nil {
		var ie *storage.ImportError
		if errors.As(err, &ie) {
			for _, p := range ie.Problems {
				fmt.Println("  -", p)
			}
		}
		return err
	}
	fmt.Println("OK")
	return nil
}

func exportOptions(cfg config.AppConfig) (export.Options, error) {
	opts := export.Options{PNG: export.PNGOptions{Scale: cfg.Export.PNGScale}}
	if cfg.Export.FontDir != "" {
		fl, err := export.NewFontLibrary()
		if err != nil {
			return opts, err
		}
		if err := fl.LoadDir(cfg.Export.FontDir); err != nil {
			return opts, err
		}
		opts.PNG.Fonts = fl
	}
	return opts, nil
}

func cmdRender(cfg config.AppConfig, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return fmt.Errorf("%w: render <file.json> <out> [<scale>]", errUsage)
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}
	if len(args) == 3 {
		sc, err := strconv.ParseFloat(args[2], 64)
		if err != nil || sc <= 0 {
			return fmt.Errorf("invalid scale %q", args[2])
		}
		opts.PNG.Scale = sc
	}
	doc, err := storage.OpenFile(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteFile(args[1], doc, "", opts); err != nil {
		return err
	}
	fmt.Println("Wrote", args[1])
	return nil
}

func cmdWatch(cfg config.AppConfig, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: watch <file.json> <out>", errUsage)
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("Watching %s, press Ctrl+C to stop\n", args[0])
	return export.Watch(ctx, args[0], args[1], "", export.WatchOptions{Render: opts})
}

func cmdReplay(cfg config.AppConfig, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return fmt.Errorf("%w: replay <script> <out> [<base.json>]", errUsage)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	sc, perrs := script.Parse(string(src))
	for _, e := range perrs {
		fmt.Printf("%s: %v\n", args[0], e)
	}
	if len(perrs) > 0 {
		return fmt.Errorf("%d parse errors", len(perrs))
	}

	s := newSession(cfg)
	defer s.Close()
	if len(args) == 3 {
		doc, err := storage.OpenFile(args[2])
		if err != nil {
			return err
		}
		if err := s.Load(doc); err != nil {
			return err
		}
	}
	res := script.Run(context.Background(), s, sc, script.RunOptions{BaseDir: filepath.Dir(args[0])})
	for _, e := range res.Errors {
		fmt.Printf("%s: %v\n", args[0], e)
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}
	if err := export.WriteFile(args[1], s.Document(), "", opts); err != nil {
		return err
	}
	h := s.History()
	fmt.Printf("Ran %d commands (%d failed), history %d entries; wrote %s\n", res.Executed, len(res.Errors), h.Length, args[1])
	if !res.OK() {
		return fmt.Errorf("%d commands failed", len(res.Errors))
	}
	return nil
}

func cmdLibrary(cfg config.AppConfig, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: library save|load|list|search|delete", errUsage)
	}
	ctx := context.Background()
	lib, err := storage.OpenLibrary(ctx, cfg.Library.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()

	switch sub, rest := args[0], args[1:]; sub {
	case "save":
		if len(rest) != 2 {
			return fmt.Errorf("%w: library save <name> <file.json>", errUsage)
		}
		doc, err := storage.OpenFile(rest[1])
		if err != nil {
			return err
		}
		if err := lib.Put(ctx, rest[0], doc); err != nil {
			return err
		}
		fmt.Printf("Saved %q (%d panels)\n", rest[0], len(doc.Panels))
	case "load":
		if len(rest) != 2 {
			return fmt.Errorf("%w: library load <name> <file.json>", errUsage)
		}
		doc, err := lib.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		if err := storage.SaveFile(rest[1], doc); err != nil {
			return err
		}
		fmt.Printf("Wrote %q to %s\n", rest[0], rest[1])
	case "list", "search":
		var infos []storage.LayoutInfo
		if sub == "list" {
			infos, err = lib.List(ctx)
		} else {
			if len(rest) != 1 {
				return fmt.Errorf("%w: library search <query>", errUsage)
			}
			infos, err = lib.Search(ctx, rest[0], 20)
		}
		if err != nil {
			return err
		}
		printLayouts(infos)
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("%w: library delete <name>", errUsage)
		}
		if err := lib.Delete(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", rest[0])
	default:
		return fmt.Errorf("%w: unknown library command %q", errUsage, sub)
	}
	return nil
}

func printLayouts(infos []storage.LayoutInfo) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tPANELS\tUPDATED\tMATCH")
	for _, in := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", in.Name, in.Panels, in.UpdatedAt.Local().Format(time.DateTime), in.Snippet)
	}
	_ = tw.Flush()
}

func cmdServe(cfg config.AppConfig, args []string) error {
	addr := cfg.Server.Addr
	if len(args) == 1 {
		addr = args[0]
	} else if len(args) > 1 {
		return fmt.Errorf("%w: serve [<addr>]", errUsage)
	}
	addr, err := loopback(addr)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}
	s := newSession(cfg)
	defer s.Close()

	l := applog.WithComponent("server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(s, l, server.WithPNG(opts.PNG)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("listening", slog.String("addr", addr))
	fmt.Printf("Serving on http://%s/api/document\n", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	l.Info("stopped", slog.Int("history", s.History().Length))
	return nil
}

// loopback forces addr onto a loopback interface; the session API has no auth.
func loopback(addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return "", fmt.Errorf("refusing to listen on non-loopback address %q", addr)
	}
	return net.JoinHostPort(host, port), nil
}
