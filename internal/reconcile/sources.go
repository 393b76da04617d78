package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
)

type catalogRow struct {
	row      int
	raw      string
	code     string
	name     string
	category string
	attr     string
	cost     decimal.NullDecimal
	priceA   decimal.NullDecimal
	issues   []string
}

type benchmarkRow struct {
	row       int
	billing   string
	price     decimal.Decimal
	effective *time.Time
}

type crosswalkRow struct {
	row     int
	code    string
	billing string
	factor  decimal.Decimal
}

type statsRow struct {
	row       int
	code      string
	discount  decimal.Decimal
	effective *time.Time
}

func normalizeAttr(v string) string { return strings.ToUpper(strings.TrimSpace(v)) }

// amount parses an optional money cell. Unparseable text becomes a null value
// plus a note on the row, never a zero.
func amount(issues *[]string, field, v string) decimal.NullDecimal {
	d, ok, err := normalize.Money(v)
	if err != nil {
		*issues = append(*issues, fmt.Sprintf("%s: unparseable value %q", field, v))
		return decimal.NullDecimal{}
	}
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func effective(v string) *time.Time {
	if t, ok := normalize.EffectiveDate(v); ok {
		return &t
	}
	return nil
}

// catalog reads the primary table and resolves duplicate codes.
func (r *reconciler) catalog(t *model.Table) {
	idx := t.Index()
	groups := make(map[string][]catalogRow)
	var order []string
	for i := range t.Rows {
		raw := t.Cell(idx, i, "code")
		code, err := normalize.NDC(raw)
		if err != nil {
			r.rep.reject(model.SourceCatalog, i+1, raw, err.Error())
			continue
		}
		cr := catalogRow{
			row:      i + 1,
			raw:      raw,
			code:     code,
			name:     strings.TrimSpace(t.Cell(idx, i, "name")),
			category: strings.TrimSpace(t.Cell(idx, i, "category")),
			attr:     strings.TrimSpace(t.Cell(idx, i, "contract_attribute")),
		}
		cr.cost = amount(&cr.issues, "cost", t.Cell(idx, i, "cost"))
		cr.priceA = amount(&cr.issues, "benchmark_price_a", t.Cell(idx, i, "benchmark_price_a"))
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], cr)
	}

	rank := newChannelRank(r.opts.ChannelPriority)
	better := func(a, b catalogRow) bool {
		if ra, rb := rank.of(a.attr), rank.of(b.attr); ra != rb {
			return ra < rb
		}
		less, _ := lowerNull(a.cost, b.cost)
		return less
	}

	st := r.rep.stats(model.SourceCatalog)
	for _, code := range order {
		rows := groups[code]
		best := pick(rows, better)
		sel := rows[best]
		st.Accepted += len(rows)

		p := &model.Product{
			Code:              code,
			RawCode:           sel.raw,
			Name:              sel.name,
			NameNorm:          normalize.Name(sel.name),
			Category:          sel.category,
			ContractAttribute: sel.attr,
			Cost:              sel.cost,
			BenchmarkPriceA:   sel.priceA,
			Issues:            sel.issues,
		}
		r.products[code] = p
		r.order = append(r.order, code)

		for i, cr := range rows {
			r.ds.facts[code] = append(r.ds.facts[code], model.PricingFact{
				Code:      code,
				Source:    model.SourceCatalog,
				Field:     "cost",
				Value:     cr.cost.Decimal,
				HasValue:  cr.cost.Valid,
				Attribute: cr.attr,
				SourceRow: cr.row,
				Selected:  i == best,
				Policy:    string(PolicyChannelThenCost),
			})
		}
		if len(rows) > 1 {
			r.duplicate(model.SourceCatalog, code, PolicyChannelThenCost, rowNums(rows, func(c catalogRow) int { return c.row }), sel.row)
		}
	}
}

// benchmark reads billing benchmark prices keyed by billing code.
func (r *reconciler) benchmark(t *model.Table) map[string]benchmarkRow {
	idx := t.Index()
	groups := make(map[string][]benchmarkRow)
	var order []string
	for i := range t.Rows {
		billing := normalize.BillingCode(t.Cell(idx, i, "billing_code"))
		if billing == "" {
			r.rep.reject(model.SourceBenchmark, i+1, t.Cell(idx, i, "billing_code"), "blank billing_code")
			continue
		}
		raw := t.Cell(idx, i, "benchmark_price_b")
		price, ok, err := normalize.Money(raw)
		if err != nil || !ok {
			r.rep.reject(model.SourceBenchmark, i+1, raw, "missing or unparseable benchmark_price_b")
			continue
		}
		if _, seen := groups[billing]; !seen {
			order = append(order, billing)
		}
		groups[billing] = append(groups[billing], benchmarkRow{
			row:       i + 1,
			billing:   billing,
			price:     price,
			effective: effective(t.Cell(idx, i, "effective_date")),
		})
	}

	better := func(a, b benchmarkRow) bool {
		if less, ok := later(a.effective, b.effective); ok {
			return less
		}
		return a.price.LessThan(b.price)
	}

	out := make(map[string]benchmarkRow, len(groups))
	st := r.rep.stats(model.SourceBenchmark)
	for _, billing := range order {
		rows := groups[billing]
		best := pick(rows, better)
		out[billing] = rows[best]
		st.Accepted += len(rows)
		for i, br := range rows {
			r.ds.billingFacts[billing] = append(r.ds.billingFacts[billing], model.PricingFact{
				Code:      billing,
				Source:    model.SourceBenchmark,
				Field:     "benchmark_price_b",
				Value:     br.price,
				HasValue:  true,
				Attribute: billing,
				Effective: br.effective,
				SourceRow: br.row,
				Selected:  i == best,
				Policy:    string(PolicyLatestThenLowest),
			})
		}
		if len(rows) > 1 {
			r.duplicate(model.SourceBenchmark, billing, PolicyLatestThenLowest, rowNums(rows, func(b benchmarkRow) int { return b.row }), rows[best].row)
		}
	}
	return out
}

// crosswalk attaches billing mappings and, through them, benchmark prices.
func (r *reconciler) crosswalk(t *model.Table, benchmarks map[string]benchmarkRow) {
	idx := t.Index()
	groups := make(map[string][]crosswalkRow)
	var order []string
	for i := range t.Rows {
		raw := t.Cell(idx, i, "code")
		code, err := normalize.NDC(raw)
		if err != nil {
			r.rep.reject(model.SourceCrosswalk, i+1, raw, err.Error())
			continue
		}
		billing := normalize.BillingCode(t.Cell(idx, i, "billing_code"))
		if billing == "" {
			r.rep.reject(model.SourceCrosswalk, i+1, t.Cell(idx, i, "billing_code"), "blank billing_code")
			continue
		}
		rawFactor := t.Cell(idx, i, "conversion_factor")
		factor, ok, err := normalize.Money(rawFactor)
		if err != nil || !ok {
			r.rep.reject(model.SourceCrosswalk, i+1, rawFactor, "missing or unparseable conversion_factor")
			continue
		}
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], crosswalkRow{row: i + 1, code: code, billing: billing, factor: factor})
	}

	better := func(a, b crosswalkRow) bool {
		_, ha := benchmarks[a.billing]
		_, hb := benchmarks[b.billing]
		if ha != hb {
			return ha
		}
		return a.billing < b.billing
	}

	st := r.rep.stats(model.SourceCrosswalk)
	for _, code := range order {
		rows := groups[code]
		best := pick(rows, better)
		sel := rows[best]

		p, ok := r.products[code]
		if !ok {
			r.rep.orphan(model.SourceCrosswalk, code, rowNums(rows, func(c crosswalkRow) int { return c.row }))
			continue
		}
		st.Accepted += len(rows)
		p.Billing = &model.BillingMapping{Code: code, BillingCode: sel.billing, ConversionFactor: sel.factor}
		if bm, ok := benchmarks[sel.billing]; ok {
			p.BenchmarkPriceB = decimal.NullDecimal{Decimal: bm.price, Valid: true}
		}
		for i, cw := range rows {
			r.ds.facts[code] = append(r.ds.facts[code], model.PricingFact{
				Code:      code,
				Source:    model.SourceCrosswalk,
				Field:     "conversion_factor",
				Value:     cw.factor,
				HasValue:  true,
				Attribute: cw.billing,
				SourceRow: cw.row,
				Selected:  i == best,
				Policy:    string(PolicyBenchmarkedThenCode),
			})
		}
		if len(rows) > 1 {
			r.duplicate(model.SourceCrosswalk, code, PolicyBenchmarkedThenCode, rowNums(rows, func(c crosswalkRow) int { return c.row }), sel.row)
		}
	}
}

// stats attaches the historical cumulative discount percentage.
func (r *reconciler) stats(t *model.Table) {
	idx := t.Index()
	groups := make(map[string][]statsRow)
	var order []string
	for i := range t.Rows {
		raw := t.Cell(idx, i, "code")
		code, err := normalize.NDC(raw)
		if err != nil {
			r.rep.reject(model.SourceStats, i+1, raw, err.Error())
			continue
		}
		rawPct := t.Cell(idx, i, "cumulative_discount_pct")
		pct, ok, err := normalize.Percent(rawPct)
		if err != nil || !ok {
			r.rep.reject(model.SourceStats, i+1, rawPct, "missing or unparseable cumulative_discount_pct")
			continue
		}
		if _, seen := groups[code]; !seen {
			order = append(order, code)
		}
		groups[code] = append(groups[code], statsRow{
			row:       i + 1,
			code:      code,
			discount:  pct,
			effective: effective(t.Cell(idx, i, "effective_date")),
		})
	}

	better := func(a, b statsRow) bool {
		if less, ok := later(a.effective, b.effective); ok {
			return less
		}
		return a.discount.GreaterThan(b.discount)
	}

	st := r.rep.stats(model.SourceStats)
	for _, code := range order {
		rows := groups[code]
		best := pick(rows, better)

		p, ok := r.products[code]
		if !ok {
			r.rep.orphan(model.SourceStats, code, rowNums(rows, func(s statsRow) int { return s.row }))
			continue
		}
		st.Accepted += len(rows)
		p.DiscountPct = decimal.NullDecimal{Decimal: rows[best].discount, Valid: true}
		for i, sr := range rows {
			r.ds.facts[code] = append(r.ds.facts[code], model.PricingFact{
				Code:      code,
				Source:    model.SourceStats,
				Field:     "cumulative_discount_pct",
				Value:     sr.discount,
				HasValue:  true,
				Effective: sr.effective,
				SourceRow: sr.row,
				Selected:  i == best,
				Policy:    string(PolicyLatestThenHighest),
			})
		}
		if len(rows) > 1 {
			r.duplicate(model.SourceStats, code, PolicyLatestThenHighest, rowNums(rows, func(s statsRow) int { return s.row }), rows[best].row)
		}
	}
}

func rowNums[T any](rows []T, row func(T) int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = row(r)
	}
	return out
}
