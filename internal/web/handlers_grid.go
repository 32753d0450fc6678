package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/rrhh/internal/grid"
)

// gridAction is the payload of a grid mutation, posted as JSON by API
// clients or as form fields by the pages.
type gridAction struct {
	Key      string            `json:"key"`
	Value    string            `json:"value"`
	Filters  map[string]string `json:"filters"`
	Term     string            `json:"term"`
	Column   string            `json:"column"`
	Dir      string            `json:"dir"`
	ID       int64             `json:"id"`
	Selected *bool             `json:"selected"`
	View     string            `json:"view"`
}

// gridActionFromForm reads an action from posted form values. Filter
// inputs are named filtro_<key>.
func gridActionFromForm(r *http.Request) (gridAction, error) {
	if err := r.ParseForm(); err != nil {
		return gridAction{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	a := gridAction{
		Key:    r.PostForm.Get("key"),
		Value:  r.PostForm.Get("value"),
		Term:   r.PostForm.Get("term"),
		Column: r.PostForm.Get("column"),
		Dir:    r.PostForm.Get("dir"),
		View:   r.PostForm.Get("view"),
	}
	if v := r.PostForm.Get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return gridAction{}, fmt.Errorf("%w: id %q", errBadRequest, v)
		}
		a.ID = id
	}
	if v, ok := r.PostForm["selected"]; ok && len(v) > 0 {
		on := parseBool(v[len(v)-1], true)
		a.Selected = &on
	}
	for name, vals := range r.PostForm {
		if key, ok := strings.CutPrefix(name, "filtro_"); ok && len(vals) > 0 {
			if a.Filters == nil {
				a.Filters = make(map[string]string)
			}
			a.Filters[key] = vals[len(vals)-1]
		}
	}
	return a, nil
}

// gridActionFromJSON decodes an API action body. An empty body is allowed
// for actions without arguments.
func (s *Server) gridActionFromJSON(w http.ResponseWriter, r *http.Request) (gridAction, error) {
	var a gridAction
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return gridAction{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return a, nil
}

// applyGridAction runs one named mutation against g.
func (s *Server) applyGridAction(ctx context.Context, g *grid.Grid, action string, a gridAction) error {
	switch action {
	case "reload":
		return s.loadGrid(ctx, g)
	case "filter":
		if a.Filters != nil {
			return g.SetFilters(grid.Filters(a.Filters))
		}
		return g.SetFilter(a.Key, a.Value)
	case "search":
		g.SetSearch(a.Term)
		return nil
	case "sort":
		if a.Dir != "" {
			st, err := grid.ParseSort(a.Column, a.Dir)
			if err != nil {
				return err
			}
			g.SetSort(st)
			return nil
		}
		_, err := g.ToggleSort(a.Column)
		return err
	case "select":
		if a.ID <= 0 {
			return fmt.Errorf("%w: select needs a record id", errBadRequest)
		}
		if a.Selected != nil {
			g.SetSelected(a.ID, *a.Selected)
		} else {
			g.Toggle(a.ID)
		}
		return nil
	case "select-all":
		on := true
		if a.Selected != nil {
			on = *a.Selected
		}
		g.SelectAllVisible(on)
		return nil
	case "view":
		v, err := grid.ParseView(a.View)
		if err != nil {
			return err
		}
		return g.SetView(v)
	}
	return fmt.Errorf("%w: %q", errUnknownAction, action)
}

// loadGrid fetches a fresh snapshot into g. A load superseded by a newer
// one is not an error for the caller.
func (s *Server) loadGrid(ctx context.Context, g *grid.Grid) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Grid.LoadTimeout)
	defer cancel()

	start := time.Now()
	err := g.Load(ctx, s.service.FetchRaw)
	result := "ok"
	switch {
	case errors.Is(err, grid.ErrStaleLoad):
		result, err = "stale", nil
	case err != nil:
		result = "error"
	}
	gridLoadDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return err
}

// sessionGrid returns the grid for the current session and page, loading
// it on first use. A failed first load still returns the grid; its
// snapshot carries the message.
func (s *Server) sessionGrid(r *http.Request, page string) (*grid.Grid, error) {
	g, created, ok := s.grids.get(sessionOf(r).SessionID, page)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownPage, page)
	}
	if created {
		if err := s.loadGrid(r.Context(), g); err != nil {
			reqLogger(r).Warn("grid load failed", "page", page, "error", err)
		}
	}
	return g, nil
}

// exportGrid renders the export into memory so a failure can still be
// reported with a proper status, then sends it as an attachment.
func (s *Server) exportGrid(w http.ResponseWriter, r *http.Request, g *grid.Grid) error {
	q := r.URL.Query()
	mode, err := grid.ParseMode(q.Get("mode"))
	if err != nil {
		return err
	}
	format, err := grid.ParseFormat(q.Get("format"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := g.Export(&buf, mode, format)
	if err != nil {
		return err
	}

	name := grid.FileName(mode, format, s.service.Now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		reqLogger(r).Warn("export write failed", "file", name, "error", err)
		return nil
	}

	exportsTotal.WithLabelValues(string(mode), string(format)).Inc()
	exportRowsTotal.Add(float64(n))
	s.service.LogExport(r.Context(), string(mode), string(format), n)
	reqLogger(r).Info("export sent", "file", name, "rows", n)
	return nil
}

// --- API ---

func (s *Server) handleGridSnapshot(w http.ResponseWriter, r *http.Request) {
	g, err := s.sessionGrid(r, chi.URLParam(r, "page"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, g.Snapshot())
}

func (s *Server) handleGridAction(w http.ResponseWriter, r *http.Request) {
	g, err := s.sessionGrid(r, chi.URLParam(r, "page"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.gridActionFromJSON(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.applyGridAction(r.Context(), g, chi.URLParam(r, "action"), a); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, g.Snapshot())
}

func (s *Server) handleGridExport(w http.ResponseWriter, r *http.Request) {
	g, err := s.sessionGrid(r, chi.URLParam(r, "page"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.exportGrid(w, r, g); err != nil {
		s.respondError(w, r, err)
	}
}
