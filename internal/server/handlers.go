/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"panelcanvas/internal/domain"
	"panelcanvas/internal/editor"
	"panelcanvas/internal/export"
	"panelcanvas/internal/vector"
)

func (h *handler) getDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.s.Export(w); err != nil {
		h.log.Error("export document", slog.Any("err", err))
	}
}

func (h *handler) putDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.s.Import(http.MaxBytesReader(w, r.Body, maxBody)); err != nil {
		writeEditorError(w, err)
		return
	}
	h.getDocument(w, r)
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.s.History())
}

type historyResult struct {
	Applied bool `json:"applied"`
	editor.HistoryState
}

func (h *handler) undo(w http.ResponseWriter, r *http.Request) {
	ok := h.s.Undo()
	writeJSON(w, http.StatusOK, historyResult{Applied: ok, HistoryState: h.s.History()})
}

func (h *handler) redo(w http.ResponseWriter, r *http.Request) {
	ok := h.s.Redo()
	writeJSON(w, http.StatusOK, historyResult{Applied: ok, HistoryState: h.s.History()})
}

// canvasPatch is both the PATCH body and the response, which has every field set.
type canvasPatch struct {
	Width          *float64 `json:"width,omitempty"`
	Height         *float64 `json:"height,omitempty"`
	BgColor        *string  `json:"bgColor,omitempty"`
	FgColor        *string  `json:"fgColor,omitempty"`
	RoundedCorners *bool    `json:"roundedCorners,omitempty"`
	ShowGrid       *bool    `json:"showGrid,omitempty"`
}

func (h *handler) patchCanvas(w http.ResponseWriter, r *http.Request) {
	var req canvasPatch
	if !decode(w, r, &req) {
		return
	}
	if req.Width != nil || req.Height != nil {
		cur := h.s.Document().Canvas
		wd, ht := cur.Width, cur.Height
		if req.Width != nil {
			wd = *req.Width
		}
		if req.Height != nil {
			ht = *req.Height
		}
		if !h.s.SetCanvasSize(wd, ht) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Errorf("canvas size %gx%g rejected", wd, ht))
			return
		}
	}
	if req.BgColor != nil || req.FgColor != nil {
		h.s.SetCanvasColors(deref(req.BgColor), deref(req.FgColor))
	}
	if req.RoundedCorners != nil {
		h.s.SetRoundedCorners(*req.RoundedCorners)
	}
	if req.ShowGrid != nil {
		h.s.SetShowGrid(*req.ShowGrid)
	}
	c := h.s.Document().Canvas
	writeJSON(w, http.StatusOK, canvasPatch{
		Width: &c.Width, Height: &c.Height, BgColor: &c.BgColor, FgColor: &c.FgColor,
		RoundedCorners: &c.RoundedCorners, ShowGrid: &c.ShowGrid,
	})
}

func (h *handler) selectPanel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := h.s.Select(req.ID); err != nil {
		writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clipboard(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "copy":
		if !h.s.Copy() {
			writeError(w, http.StatusConflict, errors.New("nothing selected"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "cut":
		if !h.s.Cut() {
			writeError(w, http.StatusConflict, errors.New("nothing selected"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "paste":
		p, ok := h.s.Paste()
		if !ok {
			writeError(w, http.StatusConflict, errors.New("clipboard is empty"))
			return
		}
		writeJSON(w, http.StatusCreated, p)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown clipboard action %q", chi.URLParam(r, "action")))
	}
}

func (h *handler) exportDocument(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := export.Options{PNG: h.png}
		if raw := r.URL.Query().Get("scale"); raw != "" {
			sc, err := strconv.ParseFloat(raw, 64)
			if err != nil || sc <= 0 || sc > 8 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("scale must be in (0, 8], got %q", raw))
				return
			}
			opts.PNG.Scale = sc
		}
		var buf bytes.Buffer
		if err := export.Write(&buf, h.s.Document(), f, opts); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *handler) addPanel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shape string `json:"shape"`
	}
	if !decode(w, r, &req) {
		return
	}
	k, err := domain.ParseShape(strings.ToLower(strings.TrimSpace(req.Shape)))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	p, err := h.s.AddPanel(k)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *handler) clearPanels(w http.ResponseWriter, r *http.Request) {
	h.s.ClearPanels()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) panelAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, errors.New("x and y query parameters are required"))
		return
	}
	p, ok := h.s.PanelAt(x, y)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no panel at %g,%g", x, y))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) getPanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.s.Panel(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("panel %q: %w", id, editor.ErrPanelNotFound))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type propertiesPatch struct {
	editor.Properties
	ZAction *editor.ZAction `json:"zAction,omitempty"`
}

func (h *handler) patchPanel(w http.ResponseWriter, r *http.Request) {
	var req propertiesPatch
	if !decode(w, r, &req) {
		return
	}
	p, err := h.s.UpdatePanelProperties(chi.URLParam(r, "id"), req.Properties, req.ZAction)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// removePanel answers 204 whether or not the panel existed.
func (h *handler) removePanel(w http.ResponseWriter, r *http.Request) {
	h.s.RemovePanel(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) movePanel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.s.MovePanel(chi.URLParam(r, "id"), req.X, req.Y)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// resizeRequest is either a final rectangle or a handle drag (handle, dx, dy)
// replayed as a complete gesture.
type resizeRequest struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Handle string   `json:"handle,omitempty"`
	DX     float64  `json:"dx,omitempty"`
	DY     float64  `json:"dy,omitempty"`
}

func (h *handler) resizePanel(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.Handle != "" {
		hd, err := vector.ParseHandle(strings.ToLower(req.Handle))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		g, err := h.s.BeginResize(id, hd)
		if err != nil {
			writeEditorError(w, err)
			return
		}
		if _, err := g.Update(req.DX, req.DY); err != nil {
			writeEditorError(w, err)
			return
		}
		p, err := g.End()
		if err != nil {
			writeEditorError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}
	cur, ok := h.s.Panel(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("panel %q: %w", id, editor.ErrPanelNotFound))
		return
	}
	rect := vector.R(orDefault(req.X, cur.X), orDefault(req.Y, cur.Y), orDefault(req.Width, cur.Width), orDefault(req.Height, cur.Height))
	p, err := h.s.ResizeCommit(id, rect)
	if err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) putText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Commit bool   `json:"commit"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.s.UpdatePanelText(id, req.Text); err != nil {
		writeEditorError(w, err)
		return
	}
	if req.Commit {
		if err := h.s.CommitText(id); err != nil {
			writeEditorError(w, err)
			return
		}
	}
	p, _ := h.s.Panel(id)
	writeJSON(w, http.StatusOK, p)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
