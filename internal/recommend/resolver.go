// Package recommend picks the best pathway per product and builds the
// top-opportunity view.
package recommend

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

// TieBreakOrder decides between pathways whose margins are exactly equal:
// the earlier pathway wins. The list-price pathway comes first because it
// needs no billing infrastructure; payer class 1 precedes payer class 2.
var TieBreakOrder = []model.Pathway{model.PathwayP1, model.PathwayP2, model.PathwayP3}

type candidate struct {
	pathway model.Pathway
	margin  decimal.Decimal
}

// Resolve recommends the pathway with the largest available margin. Delta is
// measured against the second-best available margin and is never negative.
func Resolve(m model.PathwayMargins) model.Recommendation {
	return ResolveAmong(m, TieBreakOrder...)
}

// ResolveAmong is Resolve restricted to the given pathways, e.g. comparing the
// list-price pathway against a single payer class.
func ResolveAmong(m model.PathwayMargins, allowed ...model.Pathway) model.Recommendation {
	allow := make(map[model.Pathway]bool, len(allowed))
	for _, p := range allowed {
		allow[p] = true
	}

	var cands []candidate
	for _, p := range TieBreakOrder {
		if v := m.Get(p); allow[p] && v.Valid {
			cands = append(cands, candidate{pathway: p, margin: v.Decimal})
		}
	}

	status := model.StatusOK
	if !m.P2.Valid && !m.P3.Valid {
		status = model.StatusNoPathwayAvailable
	}
	if len(cands) == 0 {
		return model.Recommendation{Pathway: model.PathwayNone, Status: model.StatusNoMargin}
	}

	// Stable sort keeps TieBreakOrder among equal margins.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].margin.GreaterThan(cands[j].margin)
	})

	best := cands[0]
	rec := model.Recommendation{
		Pathway: best.pathway,
		Margin:  decimal.NullDecimal{Decimal: best.margin, Valid: true},
		Delta:   decimal.Zero,
		Status:  status,
	}
	if len(cands) > 1 {
		second := cands[1].margin
		rec.Delta = best.margin.Sub(second)
		if !second.IsZero() {
			rec.DeltaPct = decimal.NullDecimal{Decimal: rec.Delta.Div(second.Abs()), Valid: true}
		}
	}
	return rec
}
