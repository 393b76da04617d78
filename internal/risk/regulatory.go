package risk

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
)

// RegulatoryEntry is one name on the price-control list.
type RegulatoryEntry struct {
	Name string
	Year int
}

// RegulatoryList is an immutable snapshot of the price-control list. Build one
// with NewRegulatoryList; Reload returns a new snapshot.
type RegulatoryList struct {
	entries []RegulatoryEntry // normalized names, longest first
	byName  map[string]RegulatoryEntry
}

// NewRegulatoryList normalizes and indexes entries. When a name appears more
// than once the earliest effective year is kept.
func NewRegulatoryList(entries []RegulatoryEntry) *RegulatoryList {
	l := &RegulatoryList{byName: make(map[string]RegulatoryEntry, len(entries))}
	for _, e := range entries {
		n := normalize.Name(e.Name)
		if n == "" {
			continue
		}
		if prev, ok := l.byName[n]; ok && prev.Year <= e.Year {
			continue
		}
		l.byName[n] = RegulatoryEntry{Name: n, Year: e.Year}
	}
	for _, e := range l.byName {
		l.entries = append(l.entries, e)
	}
	sort.Slice(l.entries, func(i, j int) bool {
		a, b := l.entries[i], l.entries[j]
		if len(a.Name) != len(b.Name) {
			return len(a.Name) > len(b.Name)
		}
		return a.Name < b.Name
	})
	return l
}

// Reload returns a fresh snapshot; the receiver is unchanged.
func (l *RegulatoryList) Reload(entries []RegulatoryEntry) *RegulatoryList {
	return NewRegulatoryList(entries)
}

// Len returns the number of distinct names.
func (l *RegulatoryList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of the normalized entries, longest name first.
func (l *RegulatoryList) Entries() []RegulatoryEntry {
	if l == nil {
		return nil
	}
	return append([]RegulatoryEntry(nil), l.entries...)
}

// ListFromTable builds a list from a regulatory_list table. Rows with a blank
// name or an unparseable year are skipped and described in the returned notes.
func ListFromTable(t *model.Table) (*RegulatoryList, []string, error) {
	src, _ := model.SourceByName(model.SourceRegulatory)
	if missing := t.Missing(src.Required); len(missing) > 0 {
		return nil, nil, fmt.Errorf("regulatory list missing columns %s", strings.Join(missing, ", "))
	}
	idx := t.Index()
	var (
		entries []RegulatoryEntry
		notes   []string
	)
	for i := range t.Rows {
		name := strings.TrimSpace(t.Cell(idx, i, "name"))
		rawYear := strings.TrimSpace(t.Cell(idx, i, "effective_year"))
		year, err := strconv.Atoi(rawYear)
		switch {
		case name == "":
			notes = append(notes, fmt.Sprintf("row %d: blank name", i+1))
		case err != nil:
			notes = append(notes, fmt.Sprintf("row %d: effective_year %q is not a year", i+1, rawYear))
		default:
			entries = append(entries, RegulatoryEntry{Name: name, Year: year})
		}
	}
	return NewRegulatoryList(entries), notes, nil
}
