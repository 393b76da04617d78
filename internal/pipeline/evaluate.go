package pipeline

import (
	"github.com/gyeh/rxmargin/internal/dosing"
	"github.com/gyeh/rxmargin/internal/margin"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/recommend"
	"github.com/gyeh/rxmargin/internal/risk"
)

// Evaluate computes the full result for one product. It has no side effects
// and reads only its arguments. Margin failures become a per-product error;
// risk flags are still attached.
func Evaluate(p *model.Product, list *risk.RegulatoryList, params Params) model.ProductResult {
	res := model.ProductResult{
		Code:         p.Code,
		Name:         p.Name,
		Category:     p.Category,
		Completeness: p.Completeness,
		Risk:         risk.Classify(p, list, params.Risk),
	}

	m, err := margin.Compute(p, params.Margin)
	if err != nil {
		res.Error = &model.ProductError{Kind: margin.Kind(err), Message: err.Error()}
		res.Recommendation = model.Recommendation{Status: model.StatusNoMargin}
		return res
	}
	res.Margins = m
	res.Recommendation = recommend.Resolve(m)
	if res.Recommendation.Margin.Valid {
		res.Dosing = dosing.Project(p.Dosing, res.Recommendation.Margin.Decimal, params.Dosing)
	}
	return res
}
