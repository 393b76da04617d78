package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gyeh/rxmargin/internal/model"
)

// ReadCSV loads a delimited text file with a header row.
func ReadCSV(path, name string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	t, err := readCSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Origin = path
	return t, nil
}

func readCSV(r io.Reader, name string) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return build(name, header, rows), nil
}
