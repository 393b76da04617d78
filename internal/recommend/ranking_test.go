package recommend

import (
	"testing"

	"github.com/gyeh/rxmargin/internal/model"
)

func result(code, p1, p2 string, floor bool) model.ProductResult {
	m := model.PathwayMargins{P1: nd(p1)}
	if p2 != "" {
		m.P2 = nd(p2)
	}
	return model.ProductResult{
		Code:           code,
		Margins:        m,
		Recommendation: Resolve(m),
		Risk:           model.RiskFlags{Floor: model.FloorFlag{Flagged: floor}},
	}
}

func TestTopOpportunities_ExcludesFloorFlagged(t *testing.T) {
	results := []model.ProductResult{
		result("A", "100", "", false),
		result("B", "99999", "", true), // single highest raw margin
		result("C", "500", "200", false),
		{Code: "D", Error: &model.ProductError{Kind: "missing_cost"}},
		{Code: "E", Recommendation: model.Recommendation{Status: model.StatusNoMargin}},
	}

	v := TopOpportunities(results, ByMargin, 0)
	if len(v.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(v.Items))
	}
	for _, r := range v.Items {
		if r.Code == "B" {
			t.Fatal("floor-flagged product ranked")
		}
	}
	if v.Items[0].Code != "C" || v.Items[1].Code != "A" {
		t.Errorf("order = %s,%s; want C,A", v.Items[0].Code, v.Items[1].Code)
	}
	if v.ExcludedFloor != 1 || v.ExcludedErrors != 1 || v.ExcludedNoData != 1 {
		t.Errorf("exclusions = %+v", v)
	}
}

func TestTopOpportunities_ByDeltaAndLimit(t *testing.T) {
	results := []model.ProductResult{
		result("A", "100", "90", false),  // delta 10
		result("B", "300", "100", false), // delta 200
		result("C", "50", "40", false),   // delta 10, ties A by code
	}
	v := TopOpportunities(results, ByDelta, 2)
	if len(v.Items) != 2 {
		t.Fatalf("got %d items", len(v.Items))
	}
	if v.Items[0].Code != "B" || v.Items[1].Code != "A" {
		t.Errorf("order = %s,%s; want B,A", v.Items[0].Code, v.Items[1].Code)
	}
	if results[0].Code != "A" || results[1].Code != "B" {
		t.Error("input reordered")
	}
}
