package grid

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/rrhh/internal/core"
)

//go:embed columns.yaml
var columnsYAML []byte

// Formatter names accepted in layouts.
const (
	FormatText     = ""
	FormatCurrency = "currency"
	FormatDate     = "date"
	FormatAge      = "age"
	FormatStatus   = "status"
)

// ErrUnknownLayout is returned for a layout name that is not configured.
var ErrUnknownLayout = errors.New("unknown layout")

// Column is one configured table and export column.
type Column struct {
	Key    string `yaml:"key" json:"key"`
	Label  string `yaml:"label" json:"label"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Filter bool   `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// Render returns the display value of the column for rec.
func (c Column) Render(rec core.Record) string {
	switch c.Format {
	case FormatCurrency:
		if rec.Salario == nil {
			return ""
		}
		return core.FormatCOP(*rec.Salario)
	case FormatDate:
		raw := rec.Text(c.Key)
		if t, ok := core.ParseDate(raw); ok {
			return t.Format(core.DateLayout)
		}
		return raw
	case FormatAge:
		if rec.Edad == nil {
			return ""
		}
		return strconv.Itoa(*rec.Edad)
	case FormatStatus:
		return rec.Status()
	default:
		return rec.Text(c.Key)
	}
}

// Layout is an ordered column configuration for one page.
type Layout struct {
	Name    string   `yaml:"-" json:"name"`
	Title   string   `yaml:"title" json:"title"`
	Columns []Column `yaml:"columns" json:"columns"`
	Search  []string `yaml:"search,omitempty" json:"search,omitempty"`
}

// HasSearch reports whether the layout offers a global search box.
func (l Layout) HasSearch() bool {
	return len(l.Search) > 0
}

type layoutFile struct {
	Layouts map[string]Layout `yaml:"layouts"`
}

// ParseLayouts decodes and validates a layouts document. Every column and
// search key must exist in the field catalog.
func ParseLayouts(data []byte) (map[string]Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	if len(f.Layouts) == 0 {
		return nil, errors.New("parse layouts: no layouts defined")
	}

	var errs []error
	for name, l := range f.Layouts {
		l.Name = name
		f.Layouts[name] = l

		if len(l.Columns) == 0 {
			errs = append(errs, fmt.Errorf("layout %s: no columns", name))
		}
		seen := make(map[string]bool, len(l.Columns))
		for _, c := range l.Columns {
			if _, ok := core.LookupField(c.Key); !ok {
				errs = append(errs, fmt.Errorf("layout %s: unknown column %q", name, c.Key))
			}
			if seen[c.Key] {
				errs = append(errs, fmt.Errorf("layout %s: duplicate column %q", name, c.Key))
			}
			seen[c.Key] = true
			switch c.Format {
			case FormatText, FormatCurrency, FormatDate, FormatAge, FormatStatus:
			default:
				errs = append(errs, fmt.Errorf("layout %s: column %s: unknown format %q", name, c.Key, c.Format))
			}
		}
		for _, key := range l.Search {
			if _, ok := core.LookupField(key); !ok {
				errs = append(errs, fmt.Errorf("layout %s: unknown search column %q", name, key))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f.Layouts, nil
}

var defaultLayouts = sync.OnceValues(func() (map[string]Layout, error) {
	return ParseLayouts(columnsYAML)
})

// DefaultLayouts returns the embedded layouts.
func DefaultLayouts() (map[string]Layout, error) {
	return defaultLayouts()
}

// LayoutByName returns an embedded layout.
func LayoutByName(name string) (Layout, error) {
	layouts, err := DefaultLayouts()
	if err != nil {
		return Layout{}, err
	}
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w: %s", ErrUnknownLayout, name)
	}
	return l, nil
}

// LayoutNames lists the embedded layout names, sorted.
func LayoutNames() []string {
	layouts, err := DefaultLayouts()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
