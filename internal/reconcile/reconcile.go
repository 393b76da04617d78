// Package reconcile joins the input tables into one record per canonical
// product code.
//
// The catalog is the left side of every join: each catalog row with a valid
// code yields a product even when no other source mentions it. Duplicate keys
// in any source are resolved by that source's Policy and the losing rows are
// kept as provenance. A source that fails validation is skipped and reported;
// only a catalog failure stops reconciliation.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
	"github.com/gyeh/rxmargin/internal/risk"
	"github.com/gyeh/rxmargin/internal/similarity"
)

// ErrCatalogUnusable means no product set could be built.
var ErrCatalogUnusable = errors.New("catalog unusable")

// DefaultFuzzyThreshold is the minimum dosing-name similarity accepted.
const DefaultFuzzyThreshold = 80.0

// auditWarnLimit caps duplicate-key audit lines logged at warn level; the
// rest go to debug.
const auditWarnLimit = 20

// DefaultChannelPriority ranks contract attributes for catalog duplicates.
var DefaultChannelPriority = []string{"340B", "GPO", "WAC"}

// Options tune reconciliation.
type Options struct {
	ChannelPriority []string
	FuzzyThreshold  float64
	Scorer          similarity.Scorer
}

func DefaultOptions() Options {
	return Options{
		ChannelPriority: DefaultChannelPriority,
		FuzzyThreshold:  DefaultFuzzyThreshold,
		Scorer:          similarity.Default,
	}
}

func (o Options) withDefaults() Options {
	if o.ChannelPriority == nil {
		o.ChannelPriority = DefaultChannelPriority
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if o.Scorer == nil {
		o.Scorer = similarity.Default
	}
	return o
}

// Dataset is the immutable result of one reconciliation.
type Dataset struct {
	Products   []*model.Product // sorted by code
	Regulatory *risk.RegulatoryList
	Version    string

	byCode       map[string]*model.Product
	facts        map[string][]model.PricingFact
	billingFacts map[string][]model.PricingFact
}

// Len returns the number of products.
func (d *Dataset) Len() int { return len(d.Products) }

// Product looks up a product by raw or canonical code.
func (d *Dataset) Product(code string) (*model.Product, bool) {
	c, err := normalize.NDC(code)
	if err != nil {
		return nil, false
	}
	p, ok := d.byCode[c]
	return p, ok
}

// Provenance returns every fact observed for a code, selected and discarded,
// including the benchmark facts behind its selected billing code.
func (d *Dataset) Provenance(code string) []model.PricingFact {
	c, err := normalize.NDC(code)
	if err != nil {
		return nil
	}
	out := append([]model.PricingFact(nil), d.facts[c]...)
	if p, ok := d.byCode[c]; ok && p.Billing != nil {
		out = append(out, d.billingFacts[p.Billing.BillingCode]...)
	}
	return out
}

type reconciler struct {
	opts     Options
	log      zerolog.Logger
	rep      *Report
	ds       *Dataset
	products map[string]*model.Product
	order    []string
	audited  int
}

// Reconcile builds a Dataset and Report from the given tables. The error is
// non-nil only when the catalog is unusable; every other source failure is
// recorded in Report.Validation and the affected facets are marked
// unavailable.
func Reconcile(tables model.Tables, opts Options, log zerolog.Logger) (*Dataset, *Report, error) {
	r := &reconciler{
		opts: opts.withDefaults(),
		log:  log,
		rep:  &Report{},
		ds: &Dataset{
			facts:        make(map[string][]model.PricingFact),
			billingFacts: make(map[string][]model.PricingFact),
		},
		products: make(map[string]*model.Product),
	}

	avail := make(map[string]bool, len(model.AllSources))
	for _, src := range model.AllSources {
		t := tables[src.Name]
		st := SourceStats{Source: src.Name, Label: src.Label, Rows: t.Len()}
		if verr := validate(src, t); verr != nil {
			r.rep.Validation = append(r.rep.Validation, verr)
			log.Warn().
				Str("source", src.Name).
				Strs("missing", verr.Missing).
				Int("rows", verr.RowCount).
				Msg(verr.Error())
		} else {
			st.Available = true
			avail[src.Name] = true
		}
		r.rep.Sources = append(r.rep.Sources, st)
	}

	if !avail[model.SourceCatalog] {
		return nil, r.rep, fmt.Errorf("%w: %w", ErrCatalogUnusable, r.rep.ValidationFor(model.SourceCatalog))
	}

	r.catalog(tables[model.SourceCatalog])
	if len(r.products) == 0 {
		return nil, r.rep, fmt.Errorf("%w: no row has a valid code", ErrCatalogUnusable)
	}

	benchmarks := map[string]benchmarkRow{}
	if avail[model.SourceBenchmark] {
		benchmarks = r.benchmark(tables[model.SourceBenchmark])
	}
	if avail[model.SourceCrosswalk] {
		r.crosswalk(tables[model.SourceCrosswalk], benchmarks)
	}
	if avail[model.SourceStats] {
		r.stats(tables[model.SourceStats])
	}
	if avail[model.SourceDosing] {
		r.dosing(tables[model.SourceDosing])
	}

	r.ds.Regulatory = risk.NewRegulatoryList(nil)
	if avail[model.SourceRegulatory] {
		list, notes, err := risk.ListFromTable(tables[model.SourceRegulatory])
		if err != nil {
			return nil, r.rep, err
		}
		r.ds.Regulatory = list
		r.rep.RegulatoryNotes = notes
		st := r.rep.stats(model.SourceRegulatory)
		st.Accepted = st.Rows - len(notes)
		st.Rejected = len(notes)
	}

	r.finish(avail)
	r.ds.Version = normalize.DatasetVersion(tables)

	for _, st := range r.rep.Sources {
		log.Info().
			Str("source", st.Source).
			Bool("available", st.Available).
			Int("rows", st.Rows).
			Int("rejected", st.Rejected).
			Int("duplicate_keys", st.DuplicateKeys).
			Int("matched", st.Matched).
			Float64("match_rate", st.MatchRate).
			Msg("source reconciled")
	}
	log.Info().
		Int("products", len(r.ds.Products)).
		Int("duplicate_groups", len(r.rep.Duplicates)).
		Int("near_misses", len(r.rep.NearMisses)).
		Bool("partial", r.rep.Partial()).
		Str("dataset_version", r.ds.Version).
		Msg("reconciliation complete")

	return r.ds, r.rep, nil
}

func validate(src model.Source, t *model.Table) *ValidationError {
	if t == nil {
		return &ValidationError{Source: src.Name, Reason: "not provided"}
	}
	if t.Err != nil {
		return &ValidationError{Source: src.Name, Reason: "unreadable: " + t.Err.Error(), Err: t.Err}
	}
	if missing := t.Missing(src.Required); len(missing) > 0 {
		return &ValidationError{Source: src.Name, Missing: missing, RowCount: t.Len()}
	}
	if t.Len() == 0 {
		return &ValidationError{Source: src.Name, Reason: "no rows"}
	}
	return nil
}

// finish sets completeness markers, match statistics and product order.
func (r *reconciler) finish(avail map[string]bool) {
	var cw, bm, stt, dose, fuzzy int
	for _, code := range r.order {
		p := r.products[code]
		c := &p.Completeness

		c.Crosswalk = facet(avail[model.SourceCrosswalk], p.Billing != nil)
		c.Benchmark = facet(avail[model.SourceCrosswalk] && avail[model.SourceBenchmark], p.BenchmarkPriceB.Valid)
		c.Stats = facet(avail[model.SourceStats], p.DiscountPct.Valid)
		if c.Dosing == "" {
			c.Dosing = facet(avail[model.SourceDosing], false)
		}

		if p.Billing != nil {
			cw++
		}
		if p.BenchmarkPriceB.Valid {
			bm++
		}
		if p.DiscountPct.Valid {
			stt++
		}
		switch c.Dosing {
		case model.FacetMatched:
			dose++
		case model.FacetFuzzy:
			dose++
			fuzzy++
		}
	}

	n := len(r.order)
	r.rep.Products = n
	set := func(source string, matched int) {
		st := r.rep.stats(source)
		st.Matched = matched
		if n > 0 {
			st.MatchRate = float64(matched) / float64(n)
		}
	}
	set(model.SourceCatalog, n)
	set(model.SourceCrosswalk, cw)
	set(model.SourceBenchmark, bm)
	set(model.SourceStats, stt)
	set(model.SourceDosing, dose)
	r.rep.stats(model.SourceDosing).FuzzyMatched = fuzzy

	sort.Strings(r.order)
	r.ds.Products = make([]*model.Product, n)
	r.ds.byCode = r.products
	for i, code := range r.order {
		r.ds.Products[i] = r.products[code]
	}
}

func facet(available, matched bool) model.FacetStatus {
	switch {
	case !available:
		return model.FacetUnavailable
	case matched:
		return model.FacetMatched
	default:
		return model.FacetUnmatched
	}
}

// duplicate records and audits one resolved duplicate key.
func (r *reconciler) duplicate(source, key string, policy Policy, rows []int, selected int) {
	r.rep.Duplicates = append(r.rep.Duplicates, DuplicateGroup{
		Source: source, Key: key, Policy: policy, Rows: rows, Selected: selected,
	})
	st := r.rep.stats(source)
	st.DuplicateKeys++
	st.DuplicateRows += len(rows) - 1

	ev := r.log.Debug()
	if r.audited < auditWarnLimit {
		ev = r.log.Warn()
	}
	r.audited++
	ev.Str("source", source).
		Str("key", key).
		Str("policy", string(policy)).
		Ints("rows", rows).
		Int("selected_row", selected).
		Msg("ambiguous duplicate key resolved")
}
