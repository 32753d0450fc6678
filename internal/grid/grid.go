// Package grid is the tabular engine behind the dashboard and management
// pages: partition, filter, sort, selection and export over a normalized
// employee snapshot.
//
// A Grid holds the state of one page for one session. Every mutation
// recomputes the visible rows from the partition source set; nothing is
// composed incrementally, so clearing a filter always restores the rows it
// hid.
//
//	g := grid.New(layout)
//	if err := g.Load(ctx, svc.FetchRaw); err != nil {
//	    // g.Snapshot().Error explains the empty table
//	}
//	g.SetFilter("cargo", "analista")
//	g.ToggleSort("salario")
//	g.SelectAllVisible(true)
//	n, err := g.Export(w, grid.ModeCurrent, grid.FormatCSV)
package grid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/rrhh/internal/core"
)

var (
	// ErrStaleLoad is returned by Load when a newer load started first.
	ErrStaleLoad = errors.New("stale load discarded")
	// ErrUnknownColumn is returned for a column key outside the catalog.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidView is returned for an unrecognized partition name.
	ErrInvalidView = errors.New("invalid view")
)

// View is the partition the filters run over.
type View string

const (
	ViewAll        View = "all"
	ViewActive     View = "active"
	ViewHistorical View = "historical"
)

// ParseView accepts the English names and the Spanish labels of the toggle.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return ViewAll, nil
	case "active", "activos":
		return ViewActive, nil
	case "historical", "historico", "histórico", "retirados":
		return ViewHistorical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
}

// Partition returns the records belonging to v, in source order.
func Partition(recs []core.Record, v View) []core.Record {
	if v == ViewAll || v == "" {
		return append([]core.Record(nil), recs...)
	}
	out := make([]core.Record, 0, len(recs))
	for _, r := range recs {
		if (v == ViewHistorical) == r.IsHistorical() {
			out = append(out, r)
		}
	}
	return out
}

// Stats are the dashboard counters over the full record set.
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Historical int `json:"historical"`
}

// ComputeStats counts records per partition.
func ComputeStats(recs []core.Record) Stats {
	s := Stats{Total: len(recs)}
	for _, r := range recs {
		if r.IsHistorical() {
			s.Historical++
		} else {
			s.Active++
		}
	}
	return s
}

// FetchFunc retrieves a raw snapshot from the record store.
type FetchFunc func(ctx context.Context) ([]core.RawRecord, error)

// Option configures a Grid.
type Option func(*Grid)

// WithClock sets the clock used to derive ages on load.
func WithClock(now func() time.Time) Option {
	return func(g *Grid) { g.now = now }
}

// Grid is the state container for one page of one session.
// It is safe for concurrent use.
type Grid struct {
	mu     sync.Mutex
	layout Layout
	now    func() time.Time

	generation uint64
	loading    bool
	loadErr    string
	loadedAt   time.Time

	records []core.Record
	view    View
	filters Filters
	search  string
	sort    SortState
	sel     *Selection

	visible []core.Record
}

// New creates an empty grid for layout.
func New(layout Layout, opts ...Option) *Grid {
	g := &Grid{
		layout:  layout,
		now:     time.Now,
		view:    ViewAll,
		filters: make(Filters),
		sel:     NewSelection(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout returns the grid's column layout.
func (g *Grid) Layout() Layout {
	return g.layout
}

// BeginLoad starts a load and returns its generation. Only the most recent
// generation may complete.
func (g *Grid) BeginLoad() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.loading = true
	return g.generation
}

// CompleteLoad applies the result of load gen. It returns false and
// changes nothing when a newer load has started since. On error the
// record set is cleared and the message kept for display.
func (g *Grid) CompleteLoad(gen uint64, raws []core.RawRecord, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return false
	}

	g.loading = false
	g.loadedAt = g.now()
	if err != nil {
		g.records = nil
		g.loadErr = "No se pudieron cargar los datos. " + core.FormatUserError(err)
		g.sel.Clear()
		g.recompute()
		return true
	}

	g.records = core.NormalizeAll(raws, g.now())
	g.loadErr = ""

	keep := make(map[int64]struct{}, len(g.records))
	for _, r := range g.records {
		keep[r.ID] = struct{}{}
	}
	g.sel.Retain(keep)
	g.recompute()
	return true
}

// Load fetches and applies a snapshot. A result superseded by a newer
// load is dropped and ErrStaleLoad returned.
func (g *Grid) Load(ctx context.Context, fetch FetchFunc) error {
	gen := g.BeginLoad()
	raws, err := fetch(ctx)
	if !g.CompleteLoad(gen, raws, err) {
		return ErrStaleLoad
	}
	return err
}

// SetFilter sets or clears the query for one column.
func (g *Grid) SetFilter(key, query string) error {
	if _, ok := core.LookupField(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if query == "" {
		delete(g.filters, key)
	} else {
		g.filters[key] = query
	}
	g.recompute()
	return nil
}

// SetFilters replaces every column filter at once.
func (g *Grid) SetFilters(f Filters) error {
	next := make(Filters, len(f))
	for key, q := range f {
		if _, ok := core.LookupField(key); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
		if q != "" {
			next[key] = q
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filters = next
	g.recompute()
	return nil
}

// SetSearch sets the global search term over the layout's search columns.
func (g *Grid) SetSearch(term string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.search = term
	g.recompute()
}

// ToggleSort advances the sort cycle for column.
func (g *Grid) ToggleSort(column string) (SortState, error) {
	if _, ok := core.LookupField(column); !ok {
		return SortState{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sort = g.sort.Toggle(column)
	g.recompute()
	return g.sort, nil
}

// SetSort sets the sort state directly.
func (g *Grid) SetSort(s SortState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sort = s
	g.recompute()
}

// Toggle flips the selection of one id and returns its new state.
func (g *Grid) Toggle(id int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sel.Toggle(id)
}

// SetSelected selects or deselects one id.
func (g *Grid) SetSelected(id int64, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sel.Set(id, on)
}

// SelectAllVisible selects or deselects the visible rows only.
func (g *Grid) SelectAllVisible(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sel.SetAll(visibleIDs(g.visible), on)
}

// SetView switches the partition. Switching clears the selection.
func (g *Grid) SetView(v View) error {
	switch v {
	case ViewAll, ViewActive, ViewHistorical:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidView, v)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if v != g.view {
		g.view = v
		g.sel.Clear()
	}
	g.recompute()
	return nil
}

// Replace swaps in the stored copy of rec after a successful write, or
// appends it when the id is new.
func (g *Grid) Replace(rec core.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.records {
		if g.records[i].ID == rec.ID {
			g.records[i] = rec
			g.recompute()
			return
		}
	}
	g.records = append(g.records, rec)
	g.recompute()
}

// Remove drops a deleted record and its selection.
func (g *Grid) Remove(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.records[:0]
	for _, r := range g.records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	g.records = out
	g.sel.Set(id, false)
	g.recompute()
}

// Record returns the loaded copy of one employee.
func (g *Grid) Record(id int64) (core.Record, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.records {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}

// recompute rebuilds the visible rows. Caller holds mu.
func (g *Grid) recompute() {
	rows := Partition(g.records, g.view)
	rows = Filter(rows, g.filters)
	rows = Search(rows, g.search, g.layout.Search)
	g.visible = Sort(rows, g.sort)
}

func visibleIDs(recs []core.Record) []int64 {
	ids := make([]int64, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

// Snapshot is a consistent, render-ready copy of the grid state.
type Snapshot struct {
	Layout     string          `json:"layout"`
	Columns    []Column        `json:"columns"`
	Rows       []core.Record   `json:"rows"`
	Total      int             `json:"total"`
	Visible    int             `json:"visible"`
	Stats      Stats           `json:"stats"`
	View       View            `json:"view"`
	Filters    Filters         `json:"filters"`
	Search     string          `json:"search"`
	Sort       SortState       `json:"sort"`
	Selected   []int64         `json:"selected"`
	SelectAll  TriState        `json:"selectAll"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
	Generation uint64          `json:"generation"`
	LoadedAt   time.Time       `json:"loadedAt"`
	selected   map[int64]bool
}

// IsSelected reports whether id was selected when the snapshot was taken.
func (s Snapshot) IsSelected(id int64) bool {
	return s.selected[id]
}

// Summary is the line shown under the table.
func (s Snapshot) Summary() string {
	if s.Error != "" {
		return s.Error
	}
	return fmt.Sprintf("Mostrando %d de %d empleados registrados. Seleccionados: %d.", s.Visible, s.Total, len(s.Selected))
}

// Snapshot returns a copy of the current state.
func (g *Grid) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	filters := make(Filters, len(g.filters))
	for k, v := range g.filters {
		filters[k] = v
	}
	ids := g.sel.IDs()
	selected := make(map[int64]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	return Snapshot{
		Layout:     g.layout.Name,
		Columns:    g.layout.Columns,
		Rows:       append([]core.Record(nil), g.visible...),
		Total:      len(g.records),
		Visible:    len(g.visible),
		Stats:      ComputeStats(g.records),
		View:       g.view,
		Filters:    filters,
		Search:     g.search,
		Sort:       g.sort,
		Selected:   ids,
		SelectAll:  g.sel.State(visibleIDs(g.visible)),
		Loading:    g.loading,
		Error:      g.loadErr,
		Generation: g.generation,
		LoadedAt:   g.loadedAt,
		selected:   selected,
	}
}

// ExportRecords returns the records for mode: everything for ModeAll; for
// ModeCurrent the selected records in source order, or the visible rows
// when nothing is selected.
func (g *Grid) ExportRecords(mode Mode) []core.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	if mode == ModeAll {
		return append([]core.Record(nil), g.records...)
	}
	if g.sel.Len() == 0 {
		return append([]core.Record(nil), g.visible...)
	}
	out := make([]core.Record, 0, g.sel.Len())
	for _, r := range g.records {
		if g.sel.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// Export writes the records for mode in format using the layout columns.
// It returns the number of rows written.
func (g *Grid) Export(w io.Writer, mode Mode, format Format) (int, error) {
	recs := g.ExportRecords(mode)
	if len(recs) == 0 {
		return 0, ErrNothingToSend
	}
	if err := Write(w, format, g.layout.Columns, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}
