package recommend

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NullDecimal{Decimal: d(s), Valid: true} }

func TestResolve_PicksLargest(t *testing.T) {
	tests := []struct {
		name      string
		m         model.PathwayMargins
		want      model.Pathway
		wantDelta string
		wantPct   string // "" means null
		status    model.Status
	}{
		{
			name:      "list price only",
			m:         model.PathwayMargins{P1: nd("2418.75")},
			want:      model.PathwayP1,
			wantDelta: "0",
			status:    model.StatusNoPathwayAvailable,
		},
		{
			name:      "billing wins",
			m:         model.PathwayMargins{P1: nd("2418.75"), P2: nd("5786"), P3: nd("6290")},
			want:      model.PathwayP3,
			wantDelta: "504",
			wantPct:   "0.0871068095402696", // 504 / 5786
			status:    model.StatusOK,
		},
		{
			name:      "list price wins",
			m:         model.PathwayMargins{P1: nd("900"), P2: nd("100"), P3: nd("200")},
			want:      model.PathwayP1,
			wantDelta: "700",
			wantPct:   "3.5",
			status:    model.StatusOK,
		},
		{
			name:      "second best zero gives null pct",
			m:         model.PathwayMargins{P1: nd("0"), P2: nd("10"), P3: nd("-5")},
			want:      model.PathwayP2,
			wantDelta: "10",
			status:    model.StatusOK,
		},
		{
			name:      "negative margins still ranked",
			m:         model.PathwayMargins{P1: nd("-10"), P2: nd("-40"), P3: nd("-20")},
			want:      model.PathwayP1,
			wantDelta: "10",
			wantPct:   "0.5",
			status:    model.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.m)
			if got.Pathway != tt.want {
				t.Errorf("pathway = %s, want %s", got.Pathway, tt.want)
			}
			if !got.Delta.Equal(d(tt.wantDelta)) {
				t.Errorf("delta = %s, want %s", got.Delta, tt.wantDelta)
			}
			if got.Delta.IsNegative() {
				t.Errorf("negative delta %s", got.Delta)
			}
			if got.Status != tt.status {
				t.Errorf("status = %s, want %s", got.Status, tt.status)
			}
			switch {
			case tt.wantPct == "" && got.DeltaPct.Valid:
				t.Errorf("delta pct = %s, want null", got.DeltaPct.Decimal)
			case tt.wantPct != "" && !got.DeltaPct.Valid:
				t.Errorf("delta pct null, want %s", tt.wantPct)
			case tt.wantPct != "" && got.DeltaPct.Decimal.Sub(d(tt.wantPct)).Abs().GreaterThan(d("0.000000001")):
				t.Errorf("delta pct = %s, want %s", got.DeltaPct.Decimal, tt.wantPct)
			}
		})
	}
}

func TestResolve_AlwaysLargestAndNonNegativeDelta(t *testing.T) {
	values := []string{"-100", "-0.01", "0", "0.01", "99.99", "100", "5786", "6290"}
	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				m := model.PathwayMargins{P1: nd(a), P2: nd(b), P3: nd(c)}
				rec := Resolve(m)
				max := d(a)
				for _, v := range []string{b, c} {
					if d(v).GreaterThan(max) {
						max = d(v)
					}
				}
				if !rec.Margin.Decimal.Equal(max) {
					t.Fatalf("%s/%s/%s: recommended margin %s, max %s", a, b, c, rec.Margin.Decimal, max)
				}
				if !m.Get(rec.Pathway).Decimal.Equal(max) {
					t.Fatalf("%s/%s/%s: pathway %s does not hold the max", a, b, c, rec.Pathway)
				}
				if rec.Delta.IsNegative() {
					t.Fatalf("%s/%s/%s: negative delta", a, b, c)
				}
			}
		}
	}
}

func TestResolve_TieBreakOrder(t *testing.T) {
	tests := []struct {
		m    model.PathwayMargins
		want model.Pathway
	}{
		{model.PathwayMargins{P1: nd("100"), P2: nd("100"), P3: nd("100")}, model.PathwayP1},
		{model.PathwayMargins{P1: nd("50"), P2: nd("100"), P3: nd("100.00")}, model.PathwayP2},
		{model.PathwayMargins{P1: nd("100"), P3: nd("100")}, model.PathwayP1},
	}
	for _, tt := range tests {
		got := Resolve(tt.m)
		if got.Pathway != tt.want {
			t.Errorf("tie: got %s, want %s", got.Pathway, tt.want)
		}
		if !got.Delta.IsZero() {
			t.Errorf("tie delta = %s, want 0", got.Delta)
		}
	}
}

func TestResolve_UsesUnroundedValues(t *testing.T) {
	// Both display as 100.00; the unrounded comparison must still pick P2.
	m := model.PathwayMargins{P1: nd("100.004"), P2: nd("100.0049")}
	if got := Resolve(m); got.Pathway != model.PathwayP2 {
		t.Errorf("got %s, want P2", got.Pathway)
	}
}

func TestResolve_NoMargin(t *testing.T) {
	got := Resolve(model.PathwayMargins{})
	if got.Pathway != model.PathwayNone || got.Status != model.StatusNoMargin {
		t.Errorf("got %+v", got)
	}
	if got.Margin.Valid {
		t.Error("margin should be null")
	}
}

func TestResolveAmong_PayerRestricted(t *testing.T) {
	m := model.PathwayMargins{P1: nd("1000"), P2: nd("1200"), P3: nd("1500")}
	got := ResolveAmong(m, model.PathwayP1, model.PathwayP2)
	if got.Pathway != model.PathwayP2 {
		t.Errorf("got %s, want P2", got.Pathway)
	}
	if !got.Delta.Equal(d("200")) {
		t.Errorf("delta = %s, want 200", got.Delta)
	}
}
