// Package fixture generates a deterministic synthetic input set covering
// every source: oral and infusible products, duplicate catalog keys, a
// minority of billable codes, floor-priced products, loading-dose profiles
// and regulatory names.
package fixture

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
)

// Config controls the generated set. Zero values take defaults.
type Config struct {
	Products int    // distinct catalog codes
	Seed     uint64 // PRNG seed for prices
}

const (
	DefaultProducts = 500

	// Structural rates are fixed by index so tests can rely on them.
	billableEvery  = 20 // 3 of every 20 codes are billable (15%)
	billablePer    = 3
	duplicateEvery = 8  // every 8th code appears twice (12.5%)
	floorEvery     = 40 // one in 40 codes is floor priced
	statsEvery     = 5  // one in 5 codes has no statistics row
)

// Catalog rows carry the parquet layout used by WriteParquet.
type CatalogRow struct {
	Code              string `parquet:"code"`
	Name              string `parquet:"name"`
	Cost              string `parquet:"cost"`
	BenchmarkPriceA   string `parquet:"benchmark_price_a"`
	Category          string `parquet:"category"`
	ContractAttribute string `parquet:"contract_attribute"`
}

type CrosswalkRow struct {
	Code             string `parquet:"code"`
	BillingCode      string `parquet:"billing_code"`
	ConversionFactor string `parquet:"conversion_factor"`
}

type BenchmarkRow struct {
	BillingCode     string `parquet:"billing_code"`
	BenchmarkPriceB string `parquet:"benchmark_price_b"`
	EffectiveDate   string `parquet:"effective_date"`
}

type StatsRow struct {
	Code                  string `parquet:"code"`
	CumulativeDiscountPct string `parquet:"cumulative_discount_pct"`
	EffectiveDate         string `parquet:"effective_date"`
}

type DosingRow struct {
	Name        string `parquet:"name"`
	Year1Fills  string `parquet:"year1_fills"`
	SteadyFills string `parquet:"steady_fills"`
}

type RegulatoryRow struct {
	Name          string `parquet:"name"`
	EffectiveYear string `parquet:"effective_year"`
}

// Set is one generated input set.
type Set struct {
	Catalog    []CatalogRow
	Crosswalk  []CrosswalkRow
	Benchmark  []BenchmarkRow
	Stats      []StatsRow
	Dosing     []DosingRow
	Regulatory []RegulatoryRow

	// Expectations derived while generating.
	Products       int
	Billable       int
	DuplicateCodes int
	FloorCodes     []string // canonical codes with discount >= 95
}

type drug struct {
	base      string
	infusible bool
	category  string
}

var drugs = []drug{
	{"ATORVASTATIN", false, "GENERIC"},
	{"METFORMIN", false, "GENERIC"},
	{"LISINOPRIL", false, "GENERIC"},
	{"ELIQUIS", false, "BRAND"},
	{"JARDIANCE", false, "BRAND"},
	{"XARELTO", false, "BRAND"},
	{"OZEMPIC", false, "BRAND"},
	{"HUMIRA", false, "SPECIALTY"},
	{"COSENTYX", false, "SPECIALTY"},
	{"STELARA", false, "SPECIALTY"},
	{"ENBREL", false, "SPECIALTY"},
	{"KEYTRUDA", true, "SPECIALTY"},
	{"OPDIVO", true, "SPECIALTY"},
	{"REMICADE", true, "SPECIALTY"},
	{"ENTYVIO", true, "SPECIALTY"},
	{"OCREVUS", true, "SPECIALTY"},
}

var strengths = []int{5, 10, 20, 40, 50, 100, 150, 200, 300, 500}

// Generate builds a Set. The same Config always yields the same Set.
func Generate(cfg Config) *Set {
	if cfg.Products <= 0 {
		cfg.Products = DefaultProducts
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	s := &Set{Products: cfg.Products}

	billingSeq := 0
	for i := 0; i < cfg.Products; i++ {
		d := drugs[i%len(drugs)]
		if i%billableEvery < billablePer {
			d = drugs[len(drugs)-1-(i%5)] // infusible
		}
		digits := fmt.Sprintf("%011d", 10000000000+int64(i)*7919)
		raw := digits[:5] + "-" + digits[5:9] + "-" + digits[9:]
		name := fmt.Sprintf("%s %dMG", d.base, strengths[i%len(strengths)])

		cost := cents(rng, 500, 500000)
		priceA := cost.Mul(decimal.NewFromFloat(1.2 + rng.Float64()*1.8)).Round(2)

		s.Catalog = append(s.Catalog, CatalogRow{
			Code:              raw,
			Name:              name,
			Cost:              "$" + cost.StringFixed(2),
			BenchmarkPriceA:   priceA.StringFixed(2),
			Category:          d.category,
			ContractAttribute: "340B",
		})
		if i%duplicateEvery == 0 {
			s.DuplicateCodes++
			s.Catalog = append(s.Catalog, CatalogRow{
				Code:              digits,
				Name:              name,
				Cost:              cost.Sub(decimal.NewFromInt(1)).StringFixed(2),
				BenchmarkPriceA:   priceA.StringFixed(2),
				Category:          d.category,
				ContractAttribute: "WAC",
			})
		}

		if i%billableEvery < billablePer {
			s.Billable++
			billingSeq++
			bc := fmt.Sprintf("J%04d", 9000+billingSeq)
			s.Crosswalk = append(s.Crosswalk, CrosswalkRow{
				Code:             raw,
				BillingCode:      bc,
				ConversionFactor: fmt.Sprintf("%d", 1+rng.IntN(10)),
			})
			priceB := cost.Div(decimal.NewFromInt(2)).Mul(decimal.NewFromFloat(0.8 + rng.Float64())).Round(3)
			s.Benchmark = append(s.Benchmark, BenchmarkRow{BillingCode: bc, BenchmarkPriceB: priceB.String(), EffectiveDate: "2025Q2"})
			if billingSeq%4 == 0 {
				s.Benchmark = append(s.Benchmark, BenchmarkRow{BillingCode: bc, BenchmarkPriceB: priceB.Add(decimal.NewFromInt(3)).String(), EffectiveDate: "2025Q3"})
			}
		}

		switch {
		case i%floorEvery == 7:
			s.Stats = append(s.Stats, StatsRow{Code: raw, CumulativeDiscountPct: fmt.Sprintf("%d%%", 95+rng.IntN(5)), EffectiveDate: "2025-06-30"})
			s.FloorCodes = append(s.FloorCodes, digits)
		case i%statsEvery != 4:
			s.Stats = append(s.Stats, StatsRow{Code: raw, CumulativeDiscountPct: fmt.Sprintf("%.1f", 10+rng.Float64()*80), EffectiveDate: "2025-06-30"})
		}
	}

	// One unusable catalog row; it is rejected, not a product.
	s.Catalog = append(s.Catalog, CatalogRow{Code: "N/A", Name: "UNKNOWN", Cost: "1.00", BenchmarkPriceA: "2.00", Category: "GENERIC", ContractAttribute: "WAC"})
	// Crosswalk noise for a code the catalog does not carry.
	s.Crosswalk = append(s.Crosswalk, CrosswalkRow{Code: "99999-9999-99", BillingCode: "J9999", ConversionFactor: "1"})

	s.Dosing = []DosingRow{
		{Name: "Humira", Year1Fills: "15", SteadyFills: "13"},
		{Name: "Cosentyx", Year1Fills: "17", SteadyFills: "12"},
		{Name: "Stelara 45MG", Year1Fills: "6", SteadyFills: "5"},
		{Name: "Enbrel", Year1Fills: "14", SteadyFills: "12"},
		{Name: "Skyrizi", Year1Fills: "6", SteadyFills: "4"},
	}
	s.Regulatory = []RegulatoryRow{
		{Name: "Eliquis", EffectiveYear: "2026"},
		{Name: "Jardiance", EffectiveYear: "2026"},
		{Name: "Xarelto", EffectiveYear: "2026"},
		{Name: "Stelara", EffectiveYear: "2026"},
		{Name: "Enbrel", EffectiveYear: "2026"},
		{Name: "Ozempic", EffectiveYear: "2027"},
	}
	return s
}

func cents(rng *rand.Rand, lo, hi int64) decimal.Decimal {
	return decimal.New(lo+rng.Int64N(hi-lo), -2)
}

// Tables converts the set to loader output.
func (s *Set) Tables() model.Tables {
	t := model.Tables{}
	t[model.SourceCatalog] = table(model.SourceCatalog, []string{"code", "name", "cost", "benchmark_price_a", "category", "contract_attribute"}, s.Catalog,
		func(r CatalogRow) []string {
			return []string{r.Code, r.Name, r.Cost, r.BenchmarkPriceA, r.Category, r.ContractAttribute}
		})
	t[model.SourceCrosswalk] = table(model.SourceCrosswalk, []string{"code", "billing_code", "conversion_factor"}, s.Crosswalk,
		func(r CrosswalkRow) []string { return []string{r.Code, r.BillingCode, r.ConversionFactor} })
	t[model.SourceBenchmark] = table(model.SourceBenchmark, []string{"billing_code", "benchmark_price_b", "effective_date"}, s.Benchmark,
		func(r BenchmarkRow) []string { return []string{r.BillingCode, r.BenchmarkPriceB, r.EffectiveDate} })
	t[model.SourceStats] = table(model.SourceStats, []string{"code", "cumulative_discount_pct", "effective_date"}, s.Stats,
		func(r StatsRow) []string { return []string{r.Code, r.CumulativeDiscountPct, r.EffectiveDate} })
	t[model.SourceDosing] = table(model.SourceDosing, []string{"name", "year1_fills", "steady_fills"}, s.Dosing,
		func(r DosingRow) []string { return []string{r.Name, r.Year1Fills, r.SteadyFills} })
	t[model.SourceRegulatory] = table(model.SourceRegulatory, []string{"name", "effective_year"}, s.Regulatory,
		func(r RegulatoryRow) []string { return []string{r.Name, r.EffectiveYear} })
	return t
}

func table[T any](name string, cols []string, rows []T, rec func(T) []string) *model.Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = rec(r)
	}
	return model.NewTable(name, cols, out)
}
