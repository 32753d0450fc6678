package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
	"github.com/JonMunkholm/rrhh/internal/store"
)

var (
	exportLayout string
	exportFormat string
	exportView   string
	exportFilter []string
	exportSearch string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export employee records to csv, xls or xlsx",
	Long: `Loads every employee record, applies the grid layout, view, filters
and search, and writes the result.

--out may be a file path, a directory (the standard file name is used)
or "-" for stdout. Filters are key=value pairs, for example
--filtro cargo=analista --filtro sexo=F.`,
	Example: `  rrhhctl export --formato xlsx --out ./exports
  rrhhctl export --layout completo --vista retirados --formato csv --out -`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportLayout, "layout", "completo",
		"Column layout ("+strings.Join(grid.LayoutNames(), ", ")+")")
	exportCmd.Flags().StringVar(&exportFormat, "formato", "xls", "File format: csv, xls or xlsx")
	exportCmd.Flags().StringVar(&exportView, "vista", "todos", "Partition: todos, activos or retirados")
	exportCmd.Flags().StringArrayVar(&exportFilter, "filtro", nil, "Column filter key=value (repeatable)")
	exportCmd.Flags().StringVar(&exportSearch, "buscar", "", "Free-text search term")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output file, directory, or - for stdout")
}

// exportOptions is the parsed form of the export flags.
type exportOptions struct {
	layout  grid.Layout
	format  grid.Format
	view    grid.View
	filters grid.Filters
	search  string
}

func parseExportOptions(layout, format, view string, filters []string, search string) (exportOptions, error) {
	var opts exportOptions
	var err error
	if opts.layout, err = grid.LayoutByName(layout); err != nil {
		return opts, err
	}
	if opts.format, err = grid.ParseFormat(format); err != nil {
		return opts, err
	}
	if opts.view, err = grid.ParseView(view); err != nil {
		return opts, err
	}
	opts.filters = grid.Filters{}
	for _, kv := range filters {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return opts, fmt.Errorf("filter %q: want key=value", kv)
		}
		opts.filters[strings.TrimSpace(key)] = value
	}
	opts.search = search
	return opts, nil
}

// exportRecords builds a grid from fetch and writes the current view to w.
func exportRecords(ctx context.Context, w io.Writer, fetch grid.FetchFunc, opts exportOptions) (int, error) {
	g := grid.New(opts.layout)
	if err := g.Load(ctx, fetch); err != nil {
		return 0, err
	}
	if err := g.SetView(opts.view); err != nil {
		return 0, err
	}
	if err := g.SetFilters(opts.filters); err != nil {
		return 0, err
	}
	if opts.search != "" {
		g.SetSearch(opts.search)
	}
	return g.Export(w, grid.ModeCurrent, opts.format)
}

// outputPath resolves --out. A directory gets the standard file name.
func outputPath(out string, name string) string {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := parseExportOptions(exportLayout, exportFormat, exportView, exportFilter, exportSearch)
	if err != nil {
		return err
	}

	return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
		service := core.NewService(store.NewPostgres(pool))

		var buf bytes.Buffer
		rows, err := exportRecords(ctx, &buf, service.FetchRaw, opts)
		if err != nil {
			return err
		}

		mode := grid.ModeAll
		if opts.view != grid.ViewAll || len(opts.filters.Active()) > 0 || opts.search != "" {
			mode = grid.ModeCurrent
		}
		service.LogExport(ctx, string(mode), string(opts.format), rows)

		if exportOut == "-" {
			_, err := buf.WriteTo(cmd.OutOrStdout())
			return err
		}
		path := outputPath(exportOut, grid.FileName(mode, opts.format, service.Now()))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		logger.Info("export written", "file", path, "rows", rows, "format", opts.format)
		return nil
	})
}
