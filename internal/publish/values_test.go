package publish

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/pipeline"
)

func TestValues_ColumnAlignment(t *testing.T) {
	run := &pipeline.Run{ID: uuid.New()}
	r := &model.ProductResult{
		Code: "00074433902",
		Name: "ADALIMUMAB",
		Margins: model.PathwayMargins{
			P1: decimal.NewNullDecimal(decimal.RequireFromString("2418.75")),
		},
		Recommendation: model.Recommendation{
			Pathway: model.PathwayP1,
			Margin:  decimal.NewNullDecimal(decimal.RequireFromString("2418.75")),
			Delta:   decimal.RequireFromString("2418.75"),
			Status:  model.StatusNoPathwayAvailable,
		},
		Error: &model.ProductError{Kind: "missing_cost"},
	}
	vals := Values(run, r)
	cols := Columns()
	if len(vals) != len(cols) {
		t.Fatalf("values = %d, columns = %d", len(vals), len(cols))
	}
	at := func(name string) any {
		for i, c := range cols {
			if c == name {
				return vals[i]
			}
		}
		t.Fatalf("no column %s", name)
		return nil
	}

	if got := at("run_id"); got != run.ID {
		t.Errorf("run_id = %v", got)
	}
	p1 := at("p1_margin").(pgtype.Numeric)
	if !p1.Valid || p1.Int.Int64() != 241875 || p1.Exp != -2 {
		t.Errorf("p1_margin = %+v", p1)
	}
	if p2 := at("p2_margin").(pgtype.Numeric); p2.Valid {
		t.Error("undefined P2 written as a value")
	}
	if got := at("status"); got != "no_billing_pathway" {
		t.Errorf("status = %v", got)
	}
	if kind := at("error_kind").(*string); kind == nil || *kind != "missing_cost" {
		t.Errorf("error_kind = %v", kind)
	}
	if entry := at("regulatory_entry").(*string); entry != nil {
		t.Errorf("regulatory_entry = %q for unflagged product", *entry)
	}
	if profile := at("dosing_profile").(*string); profile != nil {
		t.Error("dosing profile written for non-applicable product")
	}
}
