package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/importer"
	"github.com/JonMunkholm/rrhh/internal/store"
)

var importFailures string

var importCmd = &cobra.Command{
	Use:   "import <archivo>",
	Short: "Create employees from a csv or xlsx file",
	Long: `Reads a spreadsheet whose header names the employee fields (keys such
as fecha_afiliacion or labels such as "Fecha Afiliación"), and creates
one employee per row.

Day-first dates (15/01/2020) and grouped amounts ($ 2.500.000) are
accepted. Rejected rows are written next to the input as
"<archivo> - fallidos.csv" with the reason in the first column.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFailures, "fallidos", "", "Path for rejected rows (default next to the input)")
	rootCmd.AddCommand(importCmd)
}

// failuresPath returns where rejected rows are written for input.
func failuresPath(input, override string) string {
	if override != "" {
		return override
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+" - fallidos.csv")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	rows, err := importer.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
		service := core.NewService(store.NewPostgres(pool))

		res, err := importer.Import(ctx, service, rows, service.Now())
		logger.Info("import finished",
			"file", filepath.Base(path),
			"created", res.Created,
			"failed", res.FailedCount(),
			"empty", res.Empty,
		)
		if res.FailedCount() > 0 {
			out := failuresPath(path, importFailures)
			f, ferr := os.Create(out)
			if ferr != nil {
				return fmt.Errorf("write failures: %w", ferr)
			}
			defer f.Close()
			if ferr := res.WriteFailures(f); ferr != nil {
				return ferr
			}
			logger.Warn("rejected rows written", "file", out, "rows", res.FailedCount())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d creados, %d rechazados\n", res.Created, res.FailedCount())
		return nil
	})
}
