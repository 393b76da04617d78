// Package dosing projects first-year versus steady-state revenue for products
// with a loading-dose schedule.
package dosing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

// DefaultComplianceRate is the share of first-year fills actually dispensed.
var DefaultComplianceRate = decimal.RequireFromString("0.90")

type Params struct {
	ComplianceRate decimal.Decimal
}

func DefaultParams() Params {
	return Params{ComplianceRate: DefaultComplianceRate}
}

func (p Params) Validate() error {
	if p.ComplianceRate.IsNegative() || p.ComplianceRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("compliance rate %s outside [0,1]", p.ComplianceRate)
	}
	return nil
}

// Project computes revenue for one fill margin. A nil profile is the normal
// not-applicable state. DeltaPct is null when steady revenue is zero.
func Project(profile *model.DosingProfile, perFill decimal.Decimal, params Params) model.DosingProjection {
	if profile == nil {
		return model.DosingProjection{}
	}
	year1 := profile.Year1Fills.Mul(params.ComplianceRate).Mul(perFill)
	steady := profile.SteadyFills.Mul(perFill)
	delta := year1.Sub(steady)

	out := model.DosingProjection{
		Applicable:    true,
		Profile:       profile.Name,
		PerFill:       perFill,
		Year1Revenue:  year1,
		SteadyRevenue: steady,
		Delta:         delta,
	}
	if !steady.IsZero() {
		out.DeltaPct = decimal.NullDecimal{Decimal: delta.Div(steady), Valid: true}
	}
	return out
}
