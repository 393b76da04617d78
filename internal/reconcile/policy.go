package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy names a duplicate-key resolution rule. Each source has exactly one.
type Policy string

const (
	// PolicyChannelThenCost (catalog): contract attribute rank in
	// Options.ChannelPriority (unlisted last), then lowest cost (missing
	// last), then earliest row.
	PolicyChannelThenCost Policy = "channel-then-cost"
	// PolicyBenchmarkedThenCode (crosswalk): a billing code that has a
	// benchmark price, then smallest billing code, then earliest row.
	PolicyBenchmarkedThenCode Policy = "benchmarked-then-code"
	// PolicyLatestThenLowest (benchmark): latest effective date (undated
	// last), then lowest price, then earliest row.
	PolicyLatestThenLowest Policy = "latest-then-lowest"
	// PolicyLatestThenHighest (statistics): latest effective date, then
	// highest discount, then earliest row.
	PolicyLatestThenHighest Policy = "latest-then-highest"
	// PolicyFirstListed (dosing reference): earliest row.
	PolicyFirstListed Policy = "first-listed"
)

// pick returns the index of the best element. better(a, b) reports whether a
// strictly beats b; ties keep the earlier element, so input order is the
// final tie-break.
func pick[T any](rows []T, better func(a, b T) bool) int {
	best := 0
	for i := 1; i < len(rows); i++ {
		if better(rows[i], rows[best]) {
			best = i
		}
	}
	return best
}

// channelRank maps contract attributes to priority; unlisted attributes rank
// after every listed one.
type channelRank map[string]int

func newChannelRank(priority []string) channelRank {
	r := make(channelRank, len(priority))
	for i, p := range priority {
		k := normalizeAttr(p)
		if _, dup := r[k]; !dup {
			r[k] = i
		}
	}
	return r
}

func (r channelRank) of(attr string) int {
	if i, ok := r[normalizeAttr(attr)]; ok {
		return i
	}
	return len(r)
}

// lowerNull orders present values ascending with missing values last.
func lowerNull(a, b decimal.NullDecimal) (less, decided bool) {
	switch {
	case a.Valid && !b.Valid:
		return true, true
	case !a.Valid && b.Valid:
		return false, true
	case a.Valid && b.Valid && !a.Decimal.Equal(b.Decimal):
		return a.Decimal.LessThan(b.Decimal), true
	}
	return false, false
}

// later orders dates descending with undated values last.
func later(a, b *time.Time) (less, decided bool) {
	switch {
	case a != nil && b == nil:
		return true, true
	case a == nil && b != nil:
		return false, true
	case a != nil && b != nil && !a.Equal(*b):
		return a.After(*b), true
	}
	return false, false
}
