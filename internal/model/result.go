package model

import (
	"github.com/shopspring/decimal"
)

// Pathway identifies a reimbursement pathway.
type Pathway string

const (
	PathwayNone Pathway = ""
	PathwayP1   Pathway = "P1" // list-price based
	PathwayP2   Pathway = "P2" // billing-based, payer class 1
	PathwayP3   Pathway = "P3" // billing-based, payer class 2
)

// AllPathways lists pathways in canonical order.
var AllPathways = []Pathway{PathwayP1, PathwayP2, PathwayP3}

// Label returns a human-readable pathway name.
func (p Pathway) Label() string {
	switch p {
	case PathwayP1:
		return "list-price"
	case PathwayP2:
		return "billing (payer class 1)"
	case PathwayP3:
		return "billing (payer class 2)"
	default:
		return "none"
	}
}

// PathwayMargins holds the per-pathway margins. An invalid NullDecimal means
// the pathway is undefined for the product, which is distinct from zero.
type PathwayMargins struct {
	P1Gross decimal.NullDecimal `json:"p1_gross"`
	P1      decimal.NullDecimal `json:"p1"`
	P2      decimal.NullDecimal `json:"p2"`
	P3      decimal.NullDecimal `json:"p3"`
}

// Get returns the margin for one pathway.
func (m PathwayMargins) Get(p Pathway) decimal.NullDecimal {
	switch p {
	case PathwayP1:
		return m.P1
	case PathwayP2:
		return m.P2
	case PathwayP3:
		return m.P3
	}
	return decimal.NullDecimal{}
}

// Status qualifies a recommendation.
type Status string

const (
	StatusOK Status = "ok"
	// StatusNoPathwayAvailable means only the list-price pathway exists. It is
	// a legitimate result, not a fault.
	StatusNoPathwayAvailable Status = "no_billing_pathway"
	StatusNoMargin           Status = "no_margin"
)

// Recommendation is the resolver output for one product.
type Recommendation struct {
	Pathway  Pathway             `json:"pathway"`
	Margin   decimal.NullDecimal `json:"margin"`
	Delta    decimal.Decimal     `json:"delta"`
	DeltaPct decimal.NullDecimal `json:"delta_pct"` // null when second-best is absent or zero
	Status   Status              `json:"status"`
}

// DosingProjection is the loading-dose revenue view for one product.
type DosingProjection struct {
	Applicable    bool                `json:"applicable"`
	Profile       string              `json:"profile,omitempty"`
	PerFill       decimal.Decimal     `json:"per_fill"`
	Year1Revenue  decimal.Decimal     `json:"year1_revenue"`
	SteadyRevenue decimal.Decimal     `json:"steady_revenue"`
	Delta         decimal.Decimal     `json:"delta"`
	DeltaPct      decimal.NullDecimal `json:"delta_pct"` // null when steady revenue is zero
}

// RiskLevel grades regulatory exposure.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskHigh RiskLevel = "HIGH"
)

// RegulatoryFlag marks products on the regulatory price-control list.
type RegulatoryFlag struct {
	Flagged   bool      `json:"flagged"`
	Entry     string    `json:"entry,omitempty"`
	Year      int       `json:"year,omitempty"`
	MatchKind string    `json:"match_kind,omitempty"` // exact, substring, fuzzy
	Score     float64   `json:"score,omitempty"`
	Level     RiskLevel `json:"level"`
	Warning   string    `json:"warning,omitempty"`
}

// FloorFlag marks products whose historical discount implies a statutory floor price.
type FloorFlag struct {
	Flagged     bool                `json:"flagged"`
	DiscountPct decimal.NullDecimal `json:"discount_pct"`
	Threshold   decimal.Decimal     `json:"threshold"`
	Warning     string              `json:"warning,omitempty"`
}

// RiskFlags groups the two independent risk flags.
type RiskFlags struct {
	Regulatory RegulatoryFlag `json:"regulatory"`
	Floor      FloorFlag      `json:"floor"`
}

// ProductError is a per-product failure marker; the batch keeps going.
type ProductError struct {
	Kind    string `json:"kind"` // missing_cost, invalid_price
	Message string `json:"message"`
}

// ProductResult is the per-product output handed to the presentation layer.
type ProductResult struct {
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Margins        PathwayMargins   `json:"margins"`
	Recommendation Recommendation   `json:"recommendation"`
	Dosing         DosingProjection `json:"dosing"`
	Risk           RiskFlags        `json:"risk"`
	Completeness   Completeness     `json:"completeness"`
	Error          *ProductError    `json:"error,omitempty"`
}

// Display rounds an amount half-up (away from zero) to cents. Use it only for
// presentation; comparisons must use the unrounded value.
func Display(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// DisplayNull renders a nullable amount, "n/a" when undefined.
func DisplayNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return Display(d.Decimal)
}
