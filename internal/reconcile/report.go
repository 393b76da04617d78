package reconcile

import (
	"fmt"
	"strings"
)

// ValidationError reports a source that could not be reconciled at all:
// absent, empty, or missing required columns. Other sources are unaffected.
type ValidationError struct {
	Source   string
	Missing  []string
	RowCount int
	Reason   string
	Err      error // read failure behind Reason, if any
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("source %s: missing required columns %s (%d rows affected)",
			e.Source, strings.Join(e.Missing, ", "), e.RowCount)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SourceStats is the per-source line of the reconciliation report. Match
// counts are products (catalog codes) that received a value from the source.
type SourceStats struct {
	Source        string  `json:"source"`
	Label         string  `json:"label"`
	Available     bool    `json:"available"`
	Rows          int     `json:"rows"`
	Accepted      int     `json:"accepted"`
	Rejected      int     `json:"rejected"`
	Orphaned      int     `json:"orphaned"` // valid rows whose code is not in the catalog
	DuplicateKeys int     `json:"duplicate_keys"`
	DuplicateRows int     `json:"duplicate_rows"` // rows not selected
	Matched       int     `json:"matched"`
	FuzzyMatched  int     `json:"fuzzy_matched,omitempty"`
	MatchRate     float64 `json:"match_rate"` // Matched / catalog products
}

// Reject is a source row that could not be used.
type Reject struct {
	Source string `json:"source"`
	Row    int    `json:"row"` // 1-based data row
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// DuplicateGroup records how one duplicated key was resolved.
type DuplicateGroup struct {
	Source   string `json:"source"`
	Key      string `json:"key"`
	Policy   Policy `json:"policy"`
	Rows     []int  `json:"rows"`
	Selected int    `json:"selected"`
}

// NameMatch records a dosing join decided by similarity rather than equality,
// whether accepted (fuzzy match) or rejected (near miss).
type NameMatch struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Report is the structured outcome of one reconciliation.
type Report struct {
	Products           int                `json:"products"`
	Sources            []SourceStats      `json:"sources"`
	Validation         []*ValidationError `json:"validation,omitempty"`
	Rejects            []Reject           `json:"rejects,omitempty"`
	Orphans            []Reject           `json:"orphans,omitempty"`
	Duplicates         []DuplicateGroup   `json:"duplicates,omitempty"`
	FuzzyMatches       []NameMatch        `json:"fuzzy_matches,omitempty"`
	NearMisses         []NameMatch        `json:"near_misses,omitempty"`
	UnmatchedReference []string           `json:"unmatched_reference,omitempty"`
	RegulatoryNotes    []string           `json:"regulatory_notes,omitempty"`
}

// Partial reports whether any source failed validation.
func (r *Report) Partial() bool { return len(r.Validation) > 0 }

// Stats returns the line for one source.
func (r *Report) Stats(source string) (SourceStats, bool) {
	for _, s := range r.Sources {
		if s.Source == source {
			return s, true
		}
	}
	return SourceStats{}, false
}

// ValidationFor returns the validation failure for a source, if any.
func (r *Report) ValidationFor(source string) *ValidationError {
	for _, v := range r.Validation {
		if v.Source == source {
			return v
		}
	}
	return nil
}

func (r *Report) stats(source string) *SourceStats {
	for i := range r.Sources {
		if r.Sources[i].Source == source {
			return &r.Sources[i]
		}
	}
	return nil
}

// orphan records rows keyed by a code the catalog does not carry. They are
// neither accepted nor rejected.
func (r *Report) orphan(source, code string, rows []int) {
	for _, row := range rows {
		r.Orphans = append(r.Orphans, Reject{Source: source, Row: row, Value: code, Reason: "code not in catalog"})
	}
	if s := r.stats(source); s != nil {
		s.Orphaned += len(rows)
	}
}

func (r *Report) reject(source string, row int, value, reason string) {
	r.Rejects = append(r.Rejects, Reject{Source: source, Row: row, Value: value, Reason: reason})
	if s := r.stats(source); s != nil {
		s.Rejected++
	}
}
