package recommend

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

// RankKey selects the value a top-opportunity view is ordered by.
type RankKey string

const (
	ByMargin RankKey = "margin" // recommended pathway margin
	ByDelta  RankKey = "delta"  // gap to the second-best pathway
)

// View is a ranked slice of results plus what was held back and why.
type View struct {
	Items          []model.ProductResult
	ExcludedFloor  int
	ExcludedErrors int
	ExcludedNoData int
}

// TopOpportunities ranks results by key, descending, using unrounded values;
// equal values fall back to code order. Floor-flagged products are excluded
// whatever their margin, as are products with errors or no computable margin.
// The input slice is not modified. limit <= 0 keeps everything.
func TopOpportunities(results []model.ProductResult, key RankKey, limit int) View {
	var v View
	items := make([]model.ProductResult, 0, len(results))
	for _, r := range results {
		switch {
		case r.Error != nil:
			v.ExcludedErrors++
		case r.Recommendation.Pathway == model.PathwayNone:
			v.ExcludedNoData++
		case r.Risk.Floor.Flagged:
			v.ExcludedFloor++
		default:
			items = append(items, r)
		}
	}

	value := func(r model.ProductResult) decimal.Decimal {
		if key == ByDelta {
			return r.Recommendation.Delta
		}
		return r.Recommendation.Margin.Decimal
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := value(items[i]), value(items[j])
		if c := a.Cmp(b); c != 0 {
			return c > 0
		}
		return items[i].Code < items[j].Code
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	v.Items = items
	return v
}
