// Package risk attaches the regulatory price-control flag and the statutory
// floor-price flag to reconciled products.
package risk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/similarity"
)

// FloorDiscountPct is the cumulative discount percentage at or above which a
// product is treated as floor-priced.
const FloorDiscountPct = 95

// FloorThreshold returns FloorDiscountPct as a decimal.
func FloorThreshold() decimal.Decimal { return decimal.NewFromInt(FloorDiscountPct) }

var ErrInvalidParams = errors.New("invalid risk parameters")

// DefaultFuzzyThreshold is the minimum similarity for a fuzzy regulatory match.
const DefaultFuzzyThreshold = 90.0

// minContainedName guards the reverse substring check against very short names.
const minContainedName = 4

// Match kinds reported on model.RegulatoryFlag.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
	MatchFuzzy     = "fuzzy"
)

type Params struct {
	FloorThreshold decimal.Decimal
	FuzzyThreshold float64
	Scorer         similarity.Scorer
}

func DefaultParams() Params {
	return Params{
		FloorThreshold: FloorThreshold(),
		FuzzyThreshold: DefaultFuzzyThreshold,
		Scorer:         similarity.Default,
	}
}

// Validate checks that the floor threshold is a percentage in (0, 100] and
// the fuzzy threshold a score in [0, 100].
func (p Params) Validate() error {
	if !p.FloorThreshold.IsPositive() || p.FloorThreshold.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: floor threshold %s outside (0,100]", ErrInvalidParams, p.FloorThreshold)
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > 100 {
		return fmt.Errorf("%w: fuzzy threshold %g outside [0,100]", ErrInvalidParams, p.FuzzyThreshold)
	}
	return nil
}

// Classify computes both flags for p. The flags are independent; neither
// removes the product from any result set.
func Classify(p *model.Product, list *RegulatoryList, params Params) model.RiskFlags {
	return model.RiskFlags{
		Regulatory: Regulatory(p.NameNorm, list, params),
		Floor:      Floor(p.DiscountPct, params.FloorThreshold),
	}
}

// Regulatory matches a normalized product name against the list: exact name,
// then substring (longest entry wins), then fuzzy score at or above threshold.
func Regulatory(name string, list *RegulatoryList, params Params) model.RegulatoryFlag {
	low := model.RegulatoryFlag{Level: model.RiskLow}
	if name == "" || list.Len() == 0 {
		return low
	}

	if e, ok := list.byName[name]; ok {
		return flagged(name, e, MatchExact, 100)
	}

	for _, e := range list.entries {
		if strings.Contains(name, e.Name) || (len(name) >= minContainedName && strings.Contains(e.Name, name)) {
			return flagged(name, e, MatchSubstring, 100)
		}
	}

	scorer := params.Scorer
	if scorer == nil {
		scorer = similarity.Default
	}
	var (
		best      RegulatoryEntry
		bestScore float64
	)
	for _, e := range list.entries {
		s := scorer.Score(name, e.Name)
		if s > bestScore || (s == bestScore && s > 0 && e.Name < best.Name) {
			best, bestScore = e, s
		}
	}
	if bestScore >= params.FuzzyThreshold && bestScore > 0 {
		return flagged(name, best, MatchFuzzy, bestScore)
	}
	return low
}

func flagged(name string, e RegulatoryEntry, kind string, score float64) model.RegulatoryFlag {
	var warning string
	if kind == MatchExact {
		warning = fmt.Sprintf("High risk / regulatory %d: %s is subject to government price negotiation; margins may drop sharply from %d.",
			e.Year, name, e.Year)
	} else {
		warning = fmt.Sprintf("High risk / regulatory %d: %s appears to match %s, which is subject to government price negotiation.",
			e.Year, name, e.Name)
	}
	return model.RegulatoryFlag{
		Flagged:   true,
		Entry:     e.Name,
		Year:      e.Year,
		MatchKind: kind,
		Score:     score,
		Level:     model.RiskHigh,
		Warning:   warning,
	}
}

// Floor flags a discount at or above threshold, which callers obtain from
// validated Params. Missing discount data never flags.
func Floor(discount decimal.NullDecimal, threshold decimal.Decimal) model.FloorFlag {
	f := model.FloorFlag{DiscountPct: discount, Threshold: threshold}
	if discount.Valid && discount.Decimal.GreaterThanOrEqual(threshold) {
		f.Flagged = true
		f.Warning = fmt.Sprintf("Floor price alert: cumulative discount is %s%%; excluded from top opportunities.",
			discount.Decimal.StringFixed(1))
	}
	return f
}
