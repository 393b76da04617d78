// Package tables loads input datasets from Parquet, CSV and XLSX files into
// model.Table values with normalized column names.
package tables

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
)

// ErrEmpty is returned for files or sheets without a header row.
var ErrEmpty = errors.New("empty file")

// Extensions lists the supported file types in lookup order.
var Extensions = []string{".parquet", ".csv", ".xlsx"}

// Read loads one file, choosing the reader by extension.
func Read(path, name string) (*model.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ReadParquet(path, name)
	case ".csv", ".txt":
		return ReadCSV(path, name)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, name)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
}

// Load reads every source in paths (source name -> file). Unknown source
// names are rejected. A file that cannot be read does not stop the load: its
// source gets a model.Failed table carrying the read error.
func Load(paths map[string]string) (model.Tables, error) {
	names := make([]string, 0, len(paths))
	for name := range paths {
		if _, ok := model.SourceByName(name); !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(model.Tables, len(paths))
	for _, name := range names {
		t, err := Read(paths[name], name)
		if err != nil {
			t = model.Failed(name, paths[name], err)
		}
		out[name] = t
	}
	return out, nil
}

// Discover finds <source><ext> files in dir, first matching extension wins.
// Sources without a file are simply absent from the result.
func Discover(dir string) (map[string]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	paths := make(map[string]string)
	for _, name := range model.SourceNames() {
		for _, ext := range Extensions {
			p := filepath.Join(dir, name+ext)
			if _, err := os.Stat(p); err == nil {
				paths[name] = p
				break
			}
		}
	}
	return paths, nil
}

// Check reports which required columns a table lacks.
func Check(t *model.Table) []string {
	src, ok := model.SourceByName(t.Name)
	if !ok {
		return nil
	}
	return t.Missing(src.Required)
}

func build(name string, header []string, rows [][]string) *model.Table {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = normalize.ColumnName(h)
	}
	for i, r := range rows {
		if len(r) > len(cols) {
			rows[i] = r[:len(cols)]
		}
		for j := range rows[i] {
			rows[i][j] = strings.TrimSpace(rows[i][j])
		}
	}
	return model.NewTable(name, cols, rows)
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
