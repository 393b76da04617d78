package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FacetStatus records how a secondary source contributed to a product.
type FacetStatus string

const (
	FacetMatched     FacetStatus = "matched"
	FacetFuzzy       FacetStatus = "fuzzy"       // matched by name similarity
	FacetUnmatched   FacetStatus = "unmatched"   // source loaded, no row for this product
	FacetUnavailable FacetStatus = "unavailable" // source absent or failed validation
)

// Completeness carries per-facet markers for one reconciled product.
type Completeness struct {
	Crosswalk FacetStatus `json:"crosswalk"`
	Benchmark FacetStatus `json:"benchmark"`
	Stats     FacetStatus `json:"stats"`
	Dosing    FacetStatus `json:"dosing"`
}

// Complete reports whether every facet matched (exactly or by name).
func (c Completeness) Complete() bool {
	ok := func(s FacetStatus) bool { return s == FacetMatched || s == FacetFuzzy }
	return ok(c.Crosswalk) && ok(c.Benchmark) && ok(c.Stats) && ok(c.Dosing)
}

// PricingFact is one observed value for a code in one source. Duplicates are
// kept; reconciliation marks exactly one fact per code/source as Selected.
type PricingFact struct {
	Code      string          `json:"code"`
	Source    string          `json:"source"`
	Field     string          `json:"field"`
	Value     decimal.Decimal `json:"value"`
	HasValue  bool            `json:"has_value"`
	Attribute string          `json:"attribute,omitempty"` // contract attribute or billing code
	Effective *time.Time      `json:"effective,omitempty"`
	SourceRow int             `json:"source_row"` // 1-based data row in the source table
	Selected  bool            `json:"selected"`
	Policy    string          `json:"policy"`
}

// BillingMapping links a product code to a billing code.
type BillingMapping struct {
	Code             string          `json:"code"`
	BillingCode      string          `json:"billing_code"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

// DosingProfile describes fills in the first year versus steady state.
type DosingProfile struct {
	Name        string          `json:"name"`
	Year1Fills  decimal.Decimal `json:"year1_fills"`
	SteadyFills decimal.Decimal `json:"steady_fills"`
}

// Product is the reconciled record for one canonical code. It is built once
// per data load and never mutated afterwards.
type Product struct {
	Code              string
	RawCode           string
	Name              string
	NameNorm          string
	Category          string
	ContractAttribute string

	Cost            decimal.NullDecimal
	BenchmarkPriceA decimal.NullDecimal

	Billing         *BillingMapping
	BenchmarkPriceB decimal.NullDecimal

	DiscountPct decimal.NullDecimal

	Dosing      *DosingProfile
	DosingScore float64 // similarity score when Completeness.Dosing is FacetFuzzy

	Completeness Completeness
	Issues       []string // per-row parse notes (e.g. unparseable cost)
}
