package tables

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
)

// ParquetFile wraps an open Parquet file whose columns are read as text.
type ParquetFile struct {
	file *os.File
	pf   *parquet.File
}

// OpenParquet opens a Parquet file for reading.
func OpenParquet(path string) (*ParquetFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &ParquetFile{file: f, pf: pf}, nil
}

// NumRows returns the total number of rows in the file.
func (p *ParquetFile) NumRows() int64 {
	return p.pf.NumRows()
}

// Columns returns the normalized leaf column names in schema order.
func (p *ParquetFile) Columns() []string {
	paths := p.pf.Schema().Columns()
	cols := make([]string, len(paths))
	for i, path := range paths {
		cols[i] = normalize.ColumnName(strings.Join(path, "_"))
	}
	return cols
}

// ReadTable reads every row group into a Table. Null values become blank
// cells.
func (p *ParquetFile) ReadTable(name string) (*model.Table, error) {
	cols := p.Columns()
	out := make([][]string, 0, p.NumRows())
	buf := make([]parquet.Row, 256)

	for _, rg := range p.pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec := make([]string, len(cols))
				for _, v := range row {
					if c := v.Column(); c >= 0 && c < len(rec) && !v.IsNull() {
						rec[c] = valueString(v)
					}
				}
				out = append(out, rec)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close row group: %w", err)
		}
	}

	t := model.NewTable(name, cols, out)
	t.Origin = p.file.Name()
	return t, nil
}

// Close releases all resources.
func (p *ParquetFile) Close() error {
	return p.file.Close()
}

// valueString copies byte-array values out of the reader's buffers.
func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

// ReadParquet loads one Parquet file as a Table.
func ReadParquet(path, name string) (*model.Table, error) {
	p, err := OpenParquet(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ReadTable(name)
}
