package grid

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// Direction is a sort direction; DirNone means unsorted.
type Direction int

const (
	DirNone Direction = iota
	DirAsc
	DirDesc
)

func (d Direction) String() string {
	switch d {
	case DirAsc:
		return "asc"
	case DirDesc:
		return "desc"
	default:
		return ""
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SortState is the current sort column and direction.
// The zero value is unsorted.
type SortState struct {
	Column string    `json:"column,omitempty"`
	Dir    Direction `json:"dir"`
}

// Sorted reports whether a column is active.
func (s SortState) Sorted() bool {
	return s.Dir != DirNone && s.Column != ""
}

// Toggle advances the cycle for column: another column or unsorted goes
// to ascending, ascending goes to descending, descending goes to unsorted.
func (s SortState) Toggle(column string) SortState {
	if !s.Sorted() || s.Column != column {
		return SortState{Column: column, Dir: DirAsc}
	}
	if s.Dir == DirAsc {
		return SortState{Column: column, Dir: DirDesc}
	}
	return SortState{}
}

// ParseSort builds a state from query-style values.
func ParseSort(column, dir string) (SortState, error) {
	if column == "" {
		return SortState{}, nil
	}
	if _, ok := core.LookupField(column); !ok {
		return SortState{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return SortState{Column: column, Dir: DirAsc}, nil
	case "desc":
		return SortState{Column: column, Dir: DirDesc}, nil
	case "none":
		return SortState{}, nil
	}
	return SortState{}, fmt.Errorf("invalid sort direction %q", dir)
}

// Sort returns a stably sorted copy of recs. Unsorted state keeps order.
func Sort(recs []core.Record, state SortState) []core.Record {
	out := slices.Clone(recs)
	if !state.Sorted() {
		return out
	}
	cmpFn := comparator(state.Column)
	sign := 1
	if state.Dir == DirDesc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b core.Record) int {
		return sign * cmpFn(a, b)
	})
	return out
}

// comparator picks date, numeric or text comparison from the field catalog.
func comparator(key string) func(a, b core.Record) int {
	field, _ := core.LookupField(key)
	switch field.Type {
	case core.FieldDate:
		return func(a, b core.Record) int {
			return compareDates(a, b, key)
		}
	case core.FieldNumeric, core.FieldBool:
		return func(a, b core.Record) int {
			return cmp.Compare(numberKey(a, key), numberKey(b, key))
		}
	default:
		return func(a, b core.Record) int {
			return strings.Compare(strings.ToLower(a.Text(key)), strings.ToLower(b.Text(key)))
		}
	}
}

// numberKey treats values that do not coerce as negative infinity.
func numberKey(r core.Record, key string) float64 {
	if n, ok := r.NumberOf(key); ok {
		return n
	}
	return math.Inf(-1)
}

// epoch is the sort key of a missing or unparseable date.
var epoch = time.Unix(0, 0).UTC()

// compareDates sorts missing or unparseable dates as 1970-01-01.
func compareDates(a, b core.Record, key string) int {
	return dateKey(a, key).Compare(dateKey(b, key))
}

func dateKey(r core.Record, key string) time.Time {
	if t, ok := r.DateOf(key); ok {
		return t
	}
	return epoch
}
