package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/margin"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/recommend"
)

// Detail is the single-product drill-down: the reconciled record, its
// provenance, the computed result and the what-if views around it.
type Detail struct {
	Product     *model.Product
	Provenance  []model.PricingFact
	Result      model.ProductResult
	Sensitivity []margin.SensitivityPoint
	Crossover   decimal.NullDecimal // capture rate where P1 meets the best billing margin
	ByPayer     map[model.Pathway]model.Recommendation
}

// Detail evaluates one product. rates defaults to margin.DefaultSweepRates.
func (e *Engine) Detail(code string, params Params, rates []decimal.Decimal) (*Detail, error) {
	if err := params.Validate(); err != nil {
		return nil, &PipelineError{Phase: "params", Err: err}
	}
	ds := e.Dataset()
	if ds == nil {
		return nil, &PipelineError{Phase: "detail", Err: ErrNotLoaded}
	}
	p, ok := ds.Product(code)
	if !ok {
		return nil, &PipelineError{Phase: "detail", Err: fmt.Errorf("%w: %s", ErrUnknownProduct, code)}
	}

	d := &Detail{
		Product:    p,
		Provenance: ds.Provenance(p.Code),
		Result:     Evaluate(p, ds.Regulatory, params),
	}
	if d.Result.Error != nil {
		return d, nil
	}

	sens, err := margin.Sensitivity(p, params.Margin, rates)
	if err != nil {
		return nil, &PipelineError{Phase: "detail", Err: err}
	}
	d.Sensitivity = sens
	d.Crossover = margin.CrossoverCaptureRate(d.Result.Margins)

	if d.Result.Margins.P2.Valid || d.Result.Margins.P3.Valid {
		d.ByPayer = map[model.Pathway]model.Recommendation{
			model.PathwayP2: recommend.ResolveAmong(d.Result.Margins, model.PathwayP1, model.PathwayP2),
			model.PathwayP3: recommend.ResolveAmong(d.Result.Margins, model.PathwayP1, model.PathwayP3),
		}
	}
	return d, nil
}
