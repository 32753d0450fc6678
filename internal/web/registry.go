package web

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JonMunkholm/rrhh/internal/grid"
)

// Pages backed by a grid, mapped to their column layout.
var pageLayouts = map[string]string{
	"dashboard": "dashboard",
	"empleados": "empleados",
}

// gridRegistry holds one grid per session and page. Entries expire with
// the session lifetime and the least recently used are evicted first.
type gridRegistry struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *grid.Grid]
	layouts map[string]grid.Layout
	opts    []grid.Option
}

func newGridRegistry(size int, ttl time.Duration, layouts map[string]grid.Layout, opts ...grid.Option) *gridRegistry {
	if size <= 0 {
		size = 500
	}
	r := &gridRegistry{layouts: layouts, opts: opts}
	r.cache = expirable.NewLRU[string, *grid.Grid](size, func(string, *grid.Grid) {
		gridSessions.Dec()
	}, ttl)
	return r
}

func gridKey(sid, page string) string {
	return sid + "/" + page
}

// get returns the grid for sid and page, creating an empty one on first
// use. created reports whether the caller should load it.
func (r *gridRegistry) get(sid, page string) (g *grid.Grid, created bool, ok bool) {
	layoutName, ok := pageLayouts[page]
	if !ok {
		return nil, false, false
	}
	layout, ok := r.layouts[layoutName]
	if !ok {
		return nil, false, false
	}

	key := gridKey(sid, page)
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, found := r.cache.Get(key); found {
		return g, false, true
	}
	g = grid.New(layout, r.opts...)
	r.cache.Add(key, g)
	gridSessions.Inc()
	return g, true, true
}

// each calls fn for every live grid of sid.
func (r *gridRegistry) each(sid string, fn func(*grid.Grid)) {
	for page := range pageLayouts {
		if g, ok := r.cache.Peek(gridKey(sid, page)); ok {
			fn(g)
		}
	}
}

// drop forgets every grid of sid.
func (r *gridRegistry) drop(sid string) {
	for page := range pageLayouts {
		r.cache.Remove(gridKey(sid, page))
	}
}

func (r *gridRegistry) len() int {
	return r.cache.Len()
}
