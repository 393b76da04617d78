// Package margin computes per-pathway margins for a reconciled product.
//
// Formulas (all exact decimal arithmetic, no rounding):
//
//	P1 gross = benchmark_price_a × category_factor(category) − cost
//	P1 net   = P1 gross × capture_rate
//	P2       = benchmark_price_b × multiplier_1 × conversion_factor − cost
//	P3       = benchmark_price_b × multiplier_2 × conversion_factor − cost
//
// P2 and P3 are undefined (invalid NullDecimal) when the product has no
// billing mapping or no billing benchmark price.
package margin

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

var (
	ErrMissingCost   = errors.New("missing cost")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidParams = errors.New("invalid margin parameters")
)

// Error kinds reported on ProductResult.Error.
const (
	KindMissingCost  = "missing_cost"
	KindInvalidPrice = "invalid_price"
)

// Kind maps a Compute error to its ProductError kind.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMissingCost):
		return KindMissingCost
	case errors.Is(err, ErrInvalidPrice):
		return KindInvalidPrice
	default:
		return "error"
	}
}

// Compute returns all pathway margins for p. A missing cost fails the whole
// computation; negative cost or benchmark prices are rejected.
func Compute(p *model.Product, params Params) (model.PathwayMargins, error) {
	var m model.PathwayMargins

	if !p.Cost.Valid {
		return m, fmt.Errorf("%w: product %s", ErrMissingCost, p.Code)
	}
	cost := p.Cost.Decimal
	if cost.IsNegative() {
		return m, fmt.Errorf("%w: product %s cost %s", ErrInvalidPrice, p.Code, cost)
	}
	if p.BenchmarkPriceA.Valid && p.BenchmarkPriceA.Decimal.IsNegative() {
		return m, fmt.Errorf("%w: product %s benchmark_price_a %s", ErrInvalidPrice, p.Code, p.BenchmarkPriceA.Decimal)
	}
	if p.BenchmarkPriceB.Valid && p.BenchmarkPriceB.Decimal.IsNegative() {
		return m, fmt.Errorf("%w: product %s benchmark_price_b %s", ErrInvalidPrice, p.Code, p.BenchmarkPriceB.Decimal)
	}
	if p.Billing != nil && p.Billing.ConversionFactor.IsNegative() {
		return m, fmt.Errorf("%w: product %s conversion_factor %s", ErrInvalidPrice, p.Code, p.Billing.ConversionFactor)
	}

	if p.BenchmarkPriceA.Valid {
		gross := p.BenchmarkPriceA.Decimal.Mul(params.Categories.Factor(p.Category)).Sub(cost)
		m.P1Gross = valid(gross)
		m.P1 = valid(gross.Mul(params.CaptureRate))
	}

	if p.Billing != nil && p.BenchmarkPriceB.Valid {
		m.P2 = valid(billingMargin(p.BenchmarkPriceB.Decimal, params.Multiplier1, p.Billing.ConversionFactor, cost))
		m.P3 = valid(billingMargin(p.BenchmarkPriceB.Decimal, params.Multiplier2, p.Billing.ConversionFactor, cost))
	}

	return m, nil
}

// NetListMargin is the P1 net margin for a given capture rate; used by sweeps.
func NetListMargin(p *model.Product, params Params, captureRate decimal.Decimal) (decimal.NullDecimal, error) {
	m, err := Compute(p, params.WithCaptureRate(captureRate))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return m.P1, nil
}

func billingMargin(benchmark, multiplier, conversion, cost decimal.Decimal) decimal.Decimal {
	return benchmark.Mul(multiplier).Mul(conversion).Sub(cost)
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
