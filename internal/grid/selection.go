package grid

import "slices"

// TriState is the select-all control state over the visible rows.
type TriState int

const (
	Unchecked TriState = iota
	Checked
	Indeterminate
)

func (s TriState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

func (s TriState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Selection is a set of record ids, independent of any view.
// It is not safe for concurrent use; Grid guards it.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Has reports whether id is selected.
func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Set selects or deselects id.
func (s *Selection) Set(id int64, on bool) {
	if on {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

// Toggle flips id and returns the new state.
func (s *Selection) Toggle(id int64) bool {
	on := !s.Has(id)
	s.Set(id, on)
	return on
}

// SetAll selects or deselects every visible id. Ids outside visible are
// left as they are.
func (s *Selection) SetAll(visible []int64, on bool) {
	for _, id := range visible {
		s.Set(id, on)
	}
}

// State computes the select-all indicator for the visible ids.
func (s *Selection) State(visible []int64) TriState {
	if len(visible) == 0 {
		return Unchecked
	}
	n := 0
	for _, id := range visible {
		if s.Has(id) {
			n++
		}
	}
	switch n {
	case 0:
		return Unchecked
	case len(visible):
		return Checked
	default:
		return Indeterminate
	}
}

// Retain drops ids not present in keep.
func (s *Selection) Retain(keep map[int64]struct{}) {
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
