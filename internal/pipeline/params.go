package pipeline

import (
	"fmt"

	"github.com/gyeh/rxmargin/internal/dosing"
	"github.com/gyeh/rxmargin/internal/margin"
	"github.com/gyeh/rxmargin/internal/normalize"
	"github.com/gyeh/rxmargin/internal/risk"
)

// Params is the full parameter set for one batch computation.
type Params struct {
	Margin  margin.Params
	Dosing  dosing.Params
	Risk    risk.Params
	Workers int // 0 means GOMAXPROCS; not part of the fingerprint
}

func DefaultParams() Params {
	return Params{
		Margin: margin.DefaultParams(),
		Dosing: dosing.DefaultParams(),
		Risk:   risk.DefaultParams(),
	}
}

func (p Params) Validate() error {
	if err := p.Margin.Validate(); err != nil {
		return err
	}
	if err := p.Dosing.Validate(); err != nil {
		return err
	}
	if err := p.Risk.Validate(); err != nil {
		return err
	}
	if p.Workers < 0 {
		return fmt.Errorf("negative worker count %d", p.Workers)
	}
	return nil
}

// Fields flattens the fingerprinted parameters.
func (p Params) Fields() map[string]string {
	fields := p.Margin.Fields()
	fields["compliance_rate"] = p.Dosing.ComplianceRate.String()
	fields["floor_threshold"] = p.Risk.FloorThreshold.String()
	fields["regulatory_fuzzy_threshold"] = fmt.Sprintf("%g", p.Risk.FuzzyThreshold)
	fields["regulatory_scorer"] = fmt.Sprintf("%T", p.Risk.Scorer)
	return fields
}

// Fingerprint identifies the parameter set for caching. Equal parameter
// values always give equal fingerprints.
func (p Params) Fingerprint() string {
	return normalize.Fingerprint(p.Fields())
}
