package margin

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NullDecimal{Decimal: d(s), Valid: true} }

func referenceProduct() *model.Product {
	return &model.Product{
		Code:            "00074433902",
		Name:            "ADALIMUMAB 40MG/0.8ML",
		Category:        "SPECIALTY",
		Cost:            nd("150.00"),
		BenchmarkPriceA: nd("6500.00"),
		Billing:         &model.BillingMapping{Code: "00074433902", BillingCode: "J0135", ConversionFactor: d("2")},
		BenchmarkPriceB: nd("2800.00"),
	}
}

func TestCompute_ReferenceValues(t *testing.T) {
	m, err := Compute(referenceProduct(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	checks := []struct {
		name string
		got  decimal.NullDecimal
		want string
	}{
		{"P1 gross", m.P1Gross, "5375"},
		{"P1", m.P1, "2418.75"},
		{"P2", m.P2, "5786.00"},
		{"P3", m.P3, "6290.00"},
	}
	for _, c := range checks {
		if !c.got.Valid {
			t.Errorf("%s undefined", c.name)
			continue
		}
		if !c.got.Decimal.Equal(d(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got.Decimal, c.want)
		}
	}
	if got := model.Display(m.P2.Decimal); got != "5786.00" {
		t.Errorf("display P2 = %q", got)
	}
}

func TestCompute_CaptureRateProportional(t *testing.T) {
	p := referenceProduct()
	full, err := NetListMargin(p, DefaultParams(), decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("NetListMargin: %v", err)
	}
	for _, r := range []string{"0", "0.1", "0.333", "0.45", "0.5", "0.8", "1"} {
		got, err := NetListMargin(p, DefaultParams(), d(r))
		if err != nil {
			t.Fatalf("rate %s: %v", r, err)
		}
		want := full.Decimal.Mul(d(r))
		if !got.Decimal.Equal(want) {
			t.Errorf("rate %s: net = %s, want %s", r, got.Decimal, want)
		}
	}
}

func TestCompute_MissingCost(t *testing.T) {
	p := referenceProduct()
	p.Cost = decimal.NullDecimal{}
	_, err := Compute(p, DefaultParams())
	if !errors.Is(err, ErrMissingCost) {
		t.Fatalf("err = %v, want ErrMissingCost", err)
	}
	if Kind(err) != KindMissingCost {
		t.Errorf("kind = %q", Kind(err))
	}
}

func TestCompute_ZeroCostIsValid(t *testing.T) {
	p := referenceProduct()
	p.Cost = nd("0")
	m, err := Compute(p, DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !m.P1Gross.Decimal.Equal(d("5525")) {
		t.Errorf("P1 gross = %s, want 5525", m.P1Gross.Decimal)
	}
}

func TestCompute_InvalidPrice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Product)
	}{
		{"negative cost", func(p *model.Product) { p.Cost = nd("-1") }},
		{"negative benchmark a", func(p *model.Product) { p.BenchmarkPriceA = nd("-0.01") }},
		{"negative benchmark b", func(p *model.Product) { p.BenchmarkPriceB = nd("-5") }},
		{"negative conversion", func(p *model.Product) { p.Billing.ConversionFactor = d("-2") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := referenceProduct()
			tt.mutate(p)
			_, err := Compute(p, DefaultParams())
			if !errors.Is(err, ErrInvalidPrice) {
				t.Fatalf("err = %v, want ErrInvalidPrice", err)
			}
			if Kind(err) != KindInvalidPrice {
				t.Errorf("kind = %q", Kind(err))
			}
		})
	}
}

func TestCompute_BillingUndefined(t *testing.T) {
	t.Run("no mapping", func(t *testing.T) {
		p := referenceProduct()
		p.Billing = nil
		m, err := Compute(p, DefaultParams())
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if m.P2.Valid || m.P3.Valid {
			t.Errorf("P2/P3 should be undefined, got %+v", m)
		}
		if !m.P1.Valid {
			t.Error("P1 should still be defined")
		}
	})
	t.Run("no benchmark b", func(t *testing.T) {
		p := referenceProduct()
		p.BenchmarkPriceB = decimal.NullDecimal{}
		m, err := Compute(p, DefaultParams())
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if m.P2.Valid || m.P3.Valid {
			t.Error("P2/P3 should be undefined")
		}
	})
	t.Run("no benchmark a", func(t *testing.T) {
		p := referenceProduct()
		p.BenchmarkPriceA = decimal.NullDecimal{}
		m, err := Compute(p, DefaultParams())
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if m.P1.Valid || m.P1Gross.Valid {
			t.Error("P1 should be undefined")
		}
		if !m.P2.Valid {
			t.Error("P2 should be defined")
		}
	})
}

func TestCategoryTable(t *testing.T) {
	base, err := NewCategoryTable(map[string]decimal.Decimal{"brand": d("0.80")}, DefaultCategoryFactor)
	if err != nil {
		t.Fatalf("NewCategoryTable: %v", err)
	}
	if got := base.Factor(" Brand "); !got.Equal(d("0.80")) {
		t.Errorf("brand factor = %s", got)
	}
	if got := base.Factor("generic"); !got.Equal(d("0.85")) {
		t.Errorf("fallback factor = %s", got)
	}

	next, err := base.Reload(map[string]decimal.Decimal{"BRAND": d("0.70")})
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := next.Factor("BRAND"); !got.Equal(d("0.70")) {
		t.Errorf("reloaded factor = %s", got)
	}
	if got := base.Factor("BRAND"); !got.Equal(d("0.80")) {
		t.Errorf("original snapshot changed to %s", got)
	}

	if _, err := NewCategoryTable(map[string]decimal.Decimal{"X": d("-1")}, DefaultCategoryFactor); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("negative factor err = %v", err)
	}

	var nilTable *CategoryTable
	if got := nilTable.Factor("ANY"); !got.Equal(DefaultCategoryFactor) {
		t.Errorf("nil table factor = %s", got)
	}
}

func TestCompute_CategoryFactorApplied(t *testing.T) {
	cats, err := NewCategoryTable(map[string]decimal.Decimal{"SPECIALTY": d("0.80")}, DefaultCategoryFactor)
	if err != nil {
		t.Fatal(err)
	}
	params := DefaultParams()
	params.Categories = cats
	m, err := Compute(referenceProduct(), params)
	if err != nil {
		t.Fatal(err)
	}
	// 6500 * 0.80 - 150 = 5050
	if !m.P1Gross.Decimal.Equal(d("5050")) {
		t.Errorf("P1 gross = %s, want 5050", m.P1Gross.Decimal)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	for _, r := range []string{"-0.01", "1.01"} {
		if err := DefaultParams().WithCaptureRate(d(r)).Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("rate %s: err = %v", r, err)
		}
	}
	p := DefaultParams()
	p.Multiplier2 = d("-1")
	if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("negative multiplier: err = %v", err)
	}
}

func TestSensitivity(t *testing.T) {
	p := referenceProduct()
	p.Billing = nil
	points, err := Sensitivity(p, DefaultParams(), nil)
	if err != nil {
		t.Fatalf("Sensitivity: %v", err)
	}
	if len(points) != len(DefaultSweepRates) {
		t.Fatalf("got %d points", len(points))
	}
	for _, pt := range points {
		want := d("5375").Mul(pt.CaptureRate)
		if !pt.Margins.P1.Decimal.Equal(want) {
			t.Errorf("rate %s: P1 = %s, want %s", pt.CaptureRate, pt.Margins.P1.Decimal, want)
		}
		if pt.Recommended != model.PathwayP1 {
			t.Errorf("rate %s: recommended %s", pt.CaptureRate, pt.Recommended)
		}
	}

	if _, err := Sensitivity(p, DefaultParams(), []decimal.Decimal{d("2")}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("out of range rate: err = %v", err)
	}
}

func TestCrossoverCaptureRate(t *testing.T) {
	tests := []struct {
		name string
		m    model.PathwayMargins
		want string // "" means undefined
	}{
		{"within range", model.PathwayMargins{P1Gross: nd("1000"), P2: nd("300"), P3: nd("400")}, "0.4"},
		{"billing beats full capture", model.PathwayMargins{P1Gross: nd("1000"), P2: nd("1500")}, ""},
		{"no billing", model.PathwayMargins{P1Gross: nd("1000")}, ""},
		{"non-positive gross", model.PathwayMargins{P1Gross: nd("0"), P2: nd("10")}, ""},
		{"negative billing", model.PathwayMargins{P1Gross: nd("1000"), P2: nd("-10")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrossoverCaptureRate(tt.m)
			if tt.want == "" {
				if got.Valid {
					t.Errorf("got %s, want undefined", got.Decimal)
				}
				return
			}
			if !got.Valid || !got.Decimal.Equal(d(tt.want)) {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestParamsFieldsStable(t *testing.T) {
	a := DefaultParams().Fields()
	b := DefaultParams().Fields()
	for k, v := range a {
		if b[k] != v {
			t.Errorf("field %s differs: %q vs %q", k, v, b[k])
		}
	}
	c := DefaultParams().WithCaptureRate(d("0.5")).Fields()
	if c["capture_rate"] == a["capture_rate"] {
		t.Error("capture rate change not reflected in fields")
	}
}
