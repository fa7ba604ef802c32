/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes one editor session over a small JSON HTTP API meant
// for localhost tooling. It keeps no state of its own.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"panelcanvas/internal/editor"
	"panelcanvas/internal/export"
	applog "panelcanvas/internal/log"
	"panelcanvas/internal/storage"
)

// maxBody caps request bodies; documents are small.
const maxBody = 8 << 20

type handler struct {
	s   *editor.Session
	log *slog.Logger
	png export.PNGOptions
}

// Option customizes the handler.
type Option func(*handler)

// WithPNG sets the options used by the PNG export route.
func WithPNG(o export.PNGOptions) Option { return func(h *handler) { h.png = o } }

// New returns the router serving s. A nil logger uses the "server" component logger.
func New(s *editor.Session, logger *slog.Logger, opts ...Option) http.Handler {
	if logger == nil {
		logger = applog.WithComponent("server")
	}
	h := &handler{s: s, log: logger}
	for _, o := range opts {
		o(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/document", h.getDocument)
		r.Put("/document", h.putDocument)
		r.Get("/history", h.getHistory)
		r.Post("/undo", h.undo)
		r.Post("/redo", h.redo)
		r.Patch("/canvas", h.patchCanvas)
		r.Post("/select", h.selectPanel)
		r.Post("/clipboard/{action}", h.clipboard)
		for _, f := range []export.Format{export.FormatPNG, export.FormatSVG, export.FormatPDF, export.FormatJSON} {
			r.Get("/export."+string(f), h.exportDocument(f))
		}

		r.Route("/panels", func(r chi.Router) {
			r.Post("/", h.addPanel)
			r.Delete("/", h.clearPanels)
			r.Get("/at", h.panelAt)
			r.Get("/{id}", h.getPanel)
			r.Patch("/{id}", h.patchPanel)
			r.Delete("/{id}", h.removePanel)
			r.Post("/{id}/move", h.movePanel)
			r.Post("/{id}/resize", h.resizePanel)
			r.Put("/{id}/text", h.putText)
		})
	})
	return r
}

// requestLogger writes one line per request with its status and duration.
func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(applog.ContextWithRequestID(r.Context(), middleware.GetReqID(r.Context())))
		next.ServeHTTP(ww, r)
		h.log.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	var ie *storage.ImportError
	if errors.As(err, &ie) {
		body.Problems = ie.Problems
	}
	writeJSON(w, status, body)
}

// writeEditorError maps editor and storage errors onto statuses.
func writeEditorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrPanelNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrInvalidDocument):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return false
	}
	return true
}
