package grid

import (
	"strings"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// Filters maps a column key to a free-text query.
type Filters map[string]string

// Active returns the non-empty queries, lower-cased. Queries match as
// typed, spaces included.
func (f Filters) Active() Filters {
	out := make(Filters, len(f))
	for key, q := range f {
		if q != "" {
			out[key] = strings.ToLower(q)
		}
	}
	return out
}

// Filter returns the records whose column text contains every non-empty
// query, case-insensitively. The result is a new slice in source order.
func Filter(src []core.Record, filters Filters) []core.Record {
	active := filters.Active()
	out := make([]core.Record, 0, len(src))
	for _, rec := range src {
		if matchesAll(rec, active) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesAll(rec core.Record, active Filters) bool {
	for key, q := range active {
		if !strings.Contains(strings.ToLower(rec.Text(key)), q) {
			return false
		}
	}
	return true
}

// Search keeps records where term appears in the space-joined text of the
// given columns. A blank term keeps everything.
func Search(src []core.Record, term string, keys []string) []core.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(keys) == 0 {
		return append([]core.Record(nil), src...)
	}

	out := make([]core.Record, 0, len(src))
	parts := make([]string, len(keys))
	for _, rec := range src {
		for i, key := range keys {
			parts[i] = rec.Text(key)
		}
		if strings.Contains(strings.ToLower(strings.Join(parts, " ")), term) {
			out = append(out, rec)
		}
	}
	return out
}
