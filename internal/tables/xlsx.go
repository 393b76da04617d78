package tables

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/rxmargin/internal/model"
)

// ReadXLSX loads the sheet named after the source when present, otherwise
// the first sheet. The first row is the header.
func ReadXLSX(path, name string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if s == name {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", path, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, ErrEmpty)
	}

	var data [][]string
	for _, r := range rows[1:] {
		if !blank(r) {
			data = append(data, r)
		}
	}
	t := build(name, rows[0], data)
	t.Origin = path
	return t, nil
}
