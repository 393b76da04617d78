package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/rxmargin/internal/model"
)

// WriteParquet writes one <source>.parquet file per source into dir and
// returns source name -> path.
func (s *Set) WriteParquet(dir string) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fixture dir: %w", err)
	}
	paths := make(map[string]string, len(model.AllSources))
	steps := []struct {
		source string
		write  func(string) error
	}{
		{model.SourceCatalog, func(p string) error { return writeRows(p, s.Catalog) }},
		{model.SourceCrosswalk, func(p string) error { return writeRows(p, s.Crosswalk) }},
		{model.SourceBenchmark, func(p string) error { return writeRows(p, s.Benchmark) }},
		{model.SourceStats, func(p string) error { return writeRows(p, s.Stats) }},
		{model.SourceDosing, func(p string) error { return writeRows(p, s.Dosing) }},
		{model.SourceRegulatory, func(p string) error { return writeRows(p, s.Regulatory) }},
	}
	for _, st := range steps {
		p := filepath.Join(dir, st.source+".parquet")
		if err := st.write(p); err != nil {
			return nil, fmt.Errorf("write %s: %w", st.source, err)
		}
		paths[st.source] = p
	}
	return paths, nil
}

func writeRows[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := goparquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Close()
}
