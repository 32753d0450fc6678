package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
)

func fetchFixed(raws ...core.RawRecord) grid.FetchFunc {
	return func(context.Context) ([]core.RawRecord, error) {
		return raws, nil
	}
}

func TestParseExportOptions(t *testing.T) {
	opts, err := parseExportOptions("completo", "csv", "retirados", []string{"cargo=analista", " sexo =F"}, "ana")
	require.NoError(t, err)
	assert.Equal(t, grid.FormatCSV, opts.format)
	assert.Equal(t, grid.ViewHistorical, opts.view)
	assert.Equal(t, grid.Filters{"cargo": "analista", "sexo": "F"}, opts.filters)
	assert.Equal(t, "ana", opts.search)

	_, err = parseExportOptions("nope", "csv", "todos", nil, "")
	assert.ErrorIs(t, err, grid.ErrUnknownLayout)

	_, err = parseExportOptions("completo", "pdf", "todos", nil, "")
	assert.ErrorIs(t, err, grid.ErrInvalidFormat)

	_, err = parseExportOptions("completo", "csv", "ayer", nil, "")
	assert.ErrorIs(t, err, grid.ErrInvalidView)

	_, err = parseExportOptions("completo", "csv", "todos", []string{"cargo"}, "")
	assert.ErrorContains(t, err, "key=value")
}

func TestExportRecords(t *testing.T) {
	fetch := fetchFixed(
		core.RawRecord{"id": 1, "nombre": "Ana", "cargo": "Analista"},
		core.RawRecord{"id": 2, "nombre": "Beto", "cargo": "Auxiliar", "fecha_retiro": "2023-01-31"},
		core.RawRecord{"id": 3, "nombre": "Caro", "cargo": "Analista senior"},
	)

	t.Run("filtered active view", func(t *testing.T) {
		opts, err := parseExportOptions("completo", "csv", "activos", []string{"cargo=analista"}, "")
		require.NoError(t, err)

		var buf bytes.Buffer
		rows, err := exportRecords(context.Background(), &buf, fetch, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, rows)

		records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff"))).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3, "header plus two rows")
	})

	t.Run("nothing matches", func(t *testing.T) {
		opts, err := parseExportOptions("completo", "csv", "todos", nil, "zzz")
		require.NoError(t, err)

		_, err = exportRecords(context.Background(), &bytes.Buffer{}, fetch, opts)
		assert.ErrorIs(t, err, grid.ErrNothingToSend)
	})

	t.Run("unknown filter column", func(t *testing.T) {
		opts, err := parseExportOptions("completo", "csv", "todos", []string{"color=azul"}, "")
		require.NoError(t, err)

		_, err = exportRecords(context.Background(), &bytes.Buffer{}, fetch, opts)
		assert.ErrorIs(t, err, grid.ErrUnknownColumn)
	})

	t.Run("fetch failure", func(t *testing.T) {
		opts, err := parseExportOptions("completo", "xlsx", "todos", nil, "")
		require.NoError(t, err)

		boom := errors.New("connection refused")
		failing := func(context.Context) ([]core.RawRecord, error) { return nil, boom }
		_, err = exportRecords(context.Background(), &bytes.Buffer{}, failing, opts)
		assert.ErrorIs(t, err, boom)
	})
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "x.csv"), outputPath(dir, "x.csv"))

	file := filepath.Join(dir, "salida.csv")
	assert.Equal(t, file, outputPath(file, "x.csv"))
}

func TestNewUser(t *testing.T) {
	nombre, correo, hash, err := newUser("  Laura  ", " RRHH@Empresa.com ", "secreta123")
	require.NoError(t, err)
	assert.Equal(t, "Laura", nombre)
	assert.Equal(t, "rrhh@empresa.com", correo)
	assert.True(t, core.CheckPassword(hash, "secreta123"))

	_, _, _, err = newUser("", "a@b.co", "secreta123")
	assert.ErrorContains(t, err, "nombre")

	_, _, _, err = newUser("Laura", "no-es-correo", "secreta123")
	assert.ErrorContains(t, err, "correo")

	_, _, _, err = newUser("Laura", "a@b.co", "corta")
	assert.ErrorContains(t, err, "8 characters")
}

func TestReadPassword(t *testing.T) {
	t.Setenv("RRHH_PASSWORD", "")
	userPassword = ""
	t.Cleanup(func() { userPassword = "" })

	p, err := readPassword(strings.NewReader("desde-stdin\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "desde-stdin", p)

	t.Setenv("RRHH_PASSWORD", "desde-env")
	p, err = readPassword(strings.NewReader("ignorada\n"))
	require.NoError(t, err)
	assert.Equal(t, "desde-env", p)

	userPassword = "desde-flag"
	p, err = readPassword(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "desde-flag", p)
}

func TestRootCommand_Tree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "export", "import", "user"} {
		assert.True(t, names[want], "missing %s command", want)
	}

	add, _, err := rootCmd.Find([]string{"user", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", add.Name())
}

func TestRootCommand_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { envFile = ".env" })

	err := rootCmd.PersistentPreRunE(migrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	_, statErr := os.Stat(envFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFailuresPath(t *testing.T) {
	assert.Equal(t, filepath.Join("datos", "nomina - fallidos.csv"), failuresPath(filepath.Join("datos", "nomina.xlsx"), ""))
	assert.Equal(t, "otro.csv", failuresPath("nomina.csv", "otro.csv"))
}
