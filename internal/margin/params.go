package margin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Default tunables. They seed DefaultParams; the engine only ever reads the
// values passed to it.
var (
	DefaultCaptureRate      = decimal.RequireFromString("0.45")
	DefaultCategoryFactor   = decimal.RequireFromString("0.85")
	DefaultMultiplierPayer1 = decimal.RequireFromString("1.06")
	DefaultMultiplierPayer2 = decimal.RequireFromString("1.15")
)

// CategoryTable is an immutable category -> factor lookup. Keys are matched
// case-insensitively. Use Reload to obtain an updated snapshot.
type CategoryTable struct {
	factors  map[string]decimal.Decimal
	fallback decimal.Decimal
}

// NewCategoryTable builds a snapshot. fallback applies to unlisted categories.
func NewCategoryTable(factors map[string]decimal.Decimal, fallback decimal.Decimal) (*CategoryTable, error) {
	t := &CategoryTable{factors: make(map[string]decimal.Decimal, len(factors)), fallback: fallback}
	if fallback.IsNegative() {
		return nil, fmt.Errorf("%w: negative default category factor %s", ErrInvalidParams, fallback)
	}
	for k, v := range factors {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: negative category factor %s for %q", ErrInvalidParams, v, k)
		}
		t.factors[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return t, nil
}

// Reload returns a fresh snapshot with the given factors; the receiver is untouched.
func (t *CategoryTable) Reload(factors map[string]decimal.Decimal) (*CategoryTable, error) {
	return NewCategoryTable(factors, t.Fallback())
}

// Factor returns the factor for a category, or the fallback.
func (t *CategoryTable) Factor(category string) decimal.Decimal {
	if t == nil {
		return DefaultCategoryFactor
	}
	if f, ok := t.factors[strings.ToUpper(strings.TrimSpace(category))]; ok {
		return f
	}
	return t.fallback
}

// Fallback returns the factor used for unlisted categories.
func (t *CategoryTable) Fallback() decimal.Decimal {
	if t == nil {
		return DefaultCategoryFactor
	}
	return t.fallback
}

// Entries returns the listed factors sorted by category, for fingerprints and reports.
func (t *CategoryTable) Entries() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.factors))
	for k, v := range t.factors {
		out = append(out, k+"="+v.String())
	}
	sort.Strings(out)
	return out
}

// Params are the injected tunables for one computation.
type Params struct {
	CaptureRate decimal.Decimal
	Categories  *CategoryTable
	Multiplier1 decimal.Decimal // payer class 1 (P2)
	Multiplier2 decimal.Decimal // payer class 2 (P3)
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	cats, _ := NewCategoryTable(nil, DefaultCategoryFactor)
	return Params{
		CaptureRate: DefaultCaptureRate,
		Categories:  cats,
		Multiplier1: DefaultMultiplierPayer1,
		Multiplier2: DefaultMultiplierPayer2,
	}
}

// WithCaptureRate returns a copy of p with a different capture rate.
func (p Params) WithCaptureRate(r decimal.Decimal) Params {
	p.CaptureRate = r
	return p
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.CaptureRate.IsNegative() || p.CaptureRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: capture rate %s outside [0,1]", ErrInvalidParams, p.CaptureRate)
	}
	if p.Multiplier1.IsNegative() || p.Multiplier2.IsNegative() {
		return fmt.Errorf("%w: negative payer multiplier", ErrInvalidParams)
	}
	return nil
}

// Fields flattens the parameters for fingerprinting.
func (p Params) Fields() map[string]string {
	return map[string]string{
		"capture_rate":     p.CaptureRate.String(),
		"category_default": p.Categories.Fallback().String(),
		"category_table":   strings.Join(p.Categories.Entries(), ","),
		"multiplier_1":     p.Multiplier1.String(),
		"multiplier_2":     p.Multiplier2.String(),
	}
}
