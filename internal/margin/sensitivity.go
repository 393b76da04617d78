package margin

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/recommend"
)

// DefaultSweepRates are the capture rates shown in a sensitivity table.
var DefaultSweepRates = []decimal.Decimal{
	decimal.RequireFromString("0.40"),
	decimal.RequireFromString("0.45"),
	decimal.RequireFromString("0.60"),
	decimal.RequireFromString("0.80"),
	decimal.RequireFromString("1.00"),
}

// SensitivityPoint is one row of a capture-rate sweep.
type SensitivityPoint struct {
	CaptureRate decimal.Decimal
	Margins     model.PathwayMargins
	Recommended model.Pathway
}

// Sensitivity recomputes margins at each capture rate. Billing margins do not
// depend on the capture rate, so only P1 and the recommendation move.
func Sensitivity(p *model.Product, params Params, rates []decimal.Decimal) ([]SensitivityPoint, error) {
	if len(rates) == 0 {
		rates = DefaultSweepRates
	}
	out := make([]SensitivityPoint, 0, len(rates))
	for _, r := range rates {
		pp := params.WithCaptureRate(r)
		if err := pp.Validate(); err != nil {
			return nil, err
		}
		m, err := Compute(p, pp)
		if err != nil {
			return nil, err
		}
		out = append(out, SensitivityPoint{
			CaptureRate: r,
			Margins:     m,
			Recommended: recommend.Resolve(m).Pathway,
		})
	}
	return out, nil
}

// CrossoverCaptureRate returns the capture rate at which the P1 net margin
// equals the best billing margin. Below it a billing pathway pays more.
// It is undefined when there is no billing pathway, when P1 gross is not
// positive, or when the crossover falls outside [0, 1].
func CrossoverCaptureRate(m model.PathwayMargins) decimal.NullDecimal {
	if !m.P1Gross.Valid || !m.P1Gross.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	var best decimal.NullDecimal
	for _, b := range []decimal.NullDecimal{m.P2, m.P3} {
		if b.Valid && (!best.Valid || b.Decimal.GreaterThan(best.Decimal)) {
			best = b
		}
	}
	if !best.Valid {
		return decimal.NullDecimal{}
	}
	r := best.Decimal.Div(m.P1Gross.Decimal)
	if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NullDecimal{}
	}
	return valid(r)
}
