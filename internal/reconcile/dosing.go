package reconcile

import (
	"sort"

	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/normalize"
)

// NearMissFloor is the lowest score still reported as a near miss.
const NearMissFloor = 50.0

type nameMatch struct {
	profile *model.DosingProfile
	score   float64
	exact   bool
}

// dosing loads the reference table and joins it to products by name: exact
// normalized name first, then the best similarity score at or above the
// configured threshold. Anything weaker is left unmatched.
func (r *reconciler) dosing(t *model.Table) {
	idx := t.Index()
	byName := make(map[string]*model.DosingProfile)
	rowsByName := make(map[string][]int)
	var names []string
	st := r.rep.stats(model.SourceDosing)

	for i := range t.Rows {
		rawName := t.Cell(idx, i, "name")
		name := normalize.Name(rawName)
		if name == "" {
			r.rep.reject(model.SourceDosing, i+1, rawName, "blank name")
			continue
		}
		y1, ok1, err1 := normalize.Money(t.Cell(idx, i, "year1_fills"))
		ss, ok2, err2 := normalize.Money(t.Cell(idx, i, "steady_fills"))
		if err1 != nil || err2 != nil || !ok1 || !ok2 || y1.IsNegative() || ss.IsNegative() {
			r.rep.reject(model.SourceDosing, i+1, rawName, "missing, unparseable or negative fill counts")
			continue
		}
		st.Accepted++
		rowsByName[name] = append(rowsByName[name], i+1)
		if _, dup := byName[name]; dup {
			continue
		}
		byName[name] = &model.DosingProfile{Name: name, Year1Fills: y1, SteadyFills: ss}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if rows := rowsByName[name]; len(rows) > 1 {
			r.duplicate(model.SourceDosing, name, PolicyFirstListed, rows, rows[0])
		}
	}

	used := make(map[string]bool, len(names))
	memo := make(map[string]nameMatch)
	for _, code := range r.order {
		p := r.products[code]
		if p.NameNorm == "" {
			continue
		}
		m, ok := memo[p.NameNorm]
		if !ok {
			m = r.bestProfile(p.NameNorm, byName, names)
			memo[p.NameNorm] = m
		}
		switch {
		case m.exact:
			p.Dosing = m.profile
			p.Completeness.Dosing = model.FacetMatched
			used[m.profile.Name] = true
		case m.profile != nil && m.score >= r.opts.FuzzyThreshold:
			p.Dosing = m.profile
			p.DosingScore = m.score
			p.Completeness.Dosing = model.FacetFuzzy
			used[m.profile.Name] = true
			r.rep.FuzzyMatches = append(r.rep.FuzzyMatches, NameMatch{Code: code, Name: p.NameNorm, Candidate: m.profile.Name, Score: m.score})
		case m.profile != nil && m.score >= NearMissFloor:
			r.rep.NearMisses = append(r.rep.NearMisses, NameMatch{Code: code, Name: p.NameNorm, Candidate: m.profile.Name, Score: m.score})
		}
	}

	for _, name := range names {
		if !used[name] {
			r.rep.UnmatchedReference = append(r.rep.UnmatchedReference, name)
		}
	}
}

// bestProfile scores every profile; equal scores go to the smaller name.
func (r *reconciler) bestProfile(name string, byName map[string]*model.DosingProfile, names []string) nameMatch {
	if p, ok := byName[name]; ok {
		return nameMatch{profile: p, score: 100, exact: true}
	}
	var best nameMatch
	for _, n := range names {
		s := r.opts.Scorer.Score(name, n)
		if s > best.score {
			best = nameMatch{profile: byName[n], score: s}
		}
	}
	return best
}
