package dosing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProject(t *testing.T) {
	profile := &model.DosingProfile{Name: "HUMIRA", Year1Fills: d("15"), SteadyFills: d("13")}

	got := Project(profile, d("100"), DefaultParams())
	if !got.Applicable || got.Profile != "HUMIRA" {
		t.Fatalf("unexpected projection %+v", got)
	}
	// 15 * 0.90 * 100 = 1350; 13 * 100 = 1300
	if !got.Year1Revenue.Equal(d("1350")) {
		t.Errorf("year1 = %s, want 1350", got.Year1Revenue)
	}
	if !got.SteadyRevenue.Equal(d("1300")) {
		t.Errorf("steady = %s, want 1300", got.SteadyRevenue)
	}
	if !got.Delta.Equal(d("50")) {
		t.Errorf("delta = %s, want 50", got.Delta)
	}
	if !got.DeltaPct.Valid {
		t.Fatal("delta pct should be defined")
	}
	if diff := got.DeltaPct.Decimal.Sub(d("0.0384615384615385")).Abs(); diff.GreaterThan(d("0.0000000001")) {
		t.Errorf("delta pct = %s", got.DeltaPct.Decimal)
	}
}

func TestProject_ZeroSteadyRevenue(t *testing.T) {
	tests := []struct {
		name    string
		profile *model.DosingProfile
		perFill string
	}{
		{"zero steady fills", &model.DosingProfile{Name: "X", Year1Fills: d("12"), SteadyFills: d("0")}, "80"},
		{"zero per-fill margin", &model.DosingProfile{Name: "X", Year1Fills: d("12"), SteadyFills: d("10")}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.profile, d(tt.perFill), DefaultParams())
			if !got.Applicable {
				t.Fatal("projection should be applicable")
			}
			if got.DeltaPct.Valid {
				t.Errorf("delta pct = %s, want null", got.DeltaPct.Decimal)
			}
		})
	}
}

func TestProject_NoProfile(t *testing.T) {
	got := Project(nil, d("100"), DefaultParams())
	if got.Applicable {
		t.Error("nil profile should not be applicable")
	}
	if !got.Year1Revenue.IsZero() || got.DeltaPct.Valid {
		t.Errorf("unexpected values %+v", got)
	}
}

func TestProject_NegativeMargin(t *testing.T) {
	profile := &model.DosingProfile{Name: "X", Year1Fills: d("10"), SteadyFills: d("10")}
	got := Project(profile, d("-20"), Params{ComplianceRate: d("1")})
	if !got.Delta.IsZero() {
		t.Errorf("delta = %s, want 0", got.Delta)
	}
	if !got.SteadyRevenue.Equal(d("-200")) {
		t.Errorf("steady = %s", got.SteadyRevenue)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (Params{ComplianceRate: d("1.5")}).Validate(); err == nil {
		t.Error("expected error for compliance 1.5")
	}
}
