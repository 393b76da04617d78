package model

// Table is a named tabular dataset as handed over by a loader.
// Column names are already normalized (lowercase, snake_case); every row has
// len(Columns) cells, blank for missing values.
type Table struct {
	Name    string
	Origin  string // file path, or "memory" for in-process tables
	Columns []string
	Rows    [][]string
	Err     error // set when the file could not be read; the table is then empty
}

// Tables maps source name to its table. Absent sources are simply not keys.
type Tables map[string]*Table

// NewTable builds a Table, padding short rows so every row is rectangular.
func NewTable(name string, columns []string, rows [][]string) *Table {
	for i, r := range rows {
		if len(r) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, r)
			rows[i] = padded
		}
	}
	return &Table{Name: name, Origin: "memory", Columns: columns, Rows: rows}
}

// Failed builds the placeholder for a source whose file could not be read.
// Reconciliation reports it as a validation failure for that source only.
func Failed(name, origin string, err error) *Table {
	return &Table{Name: name, Origin: origin, Err: err}
}

// Index returns column name -> position.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

// Missing returns the subset of cols not present in the table, in order.
func (t *Table) Missing(cols []string) []string {
	idx := t.Index()
	var missing []string
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell reads column col of row i, or "" when the column is absent.
func (t *Table) Cell(idx map[string]int, i int, col string) string {
	j, ok := idx[col]
	if !ok || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}
