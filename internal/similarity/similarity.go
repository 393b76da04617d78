// Package similarity scores how alike two product names are on a 0-100 scale.
// Reconciliation and risk matching depend only on the Scorer interface, so the
// algorithm can be swapped without touching join logic.
package similarity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer returns a similarity in [0, 100] for two already-normalized names.
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// Ratio is the normalized edit-distance similarity of the full strings.
type Ratio struct{}

func (Ratio) Score(a, b string) float64 { return ratio(a, b) }

// TokenSort compares names after sorting their words, so word order is ignored.
type TokenSort struct{}

func (TokenSort) Score(a, b string) float64 {
	return ratio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
}

// TokenSet compares the shared words against each side's remainder. A short
// reference name fully contained in a longer product description scores 100,
// which is what matching "COSENTYX" to "COSENTYX 150 MG/ML PEN" needs.
type TokenSet struct{}

func (TokenSet) Score(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var common, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(withA, withB)
	if sect != "" {
		if r := ratio(sect, withA); r > best {
			best = r
		}
		if r := ratio(sect, withB); r > best {
			best = r
		}
	}
	return best
}

// Default is the scorer used when none is configured.
var Default Scorer = TokenSet{}

// ByName returns a scorer by its configuration name.
func ByName(name string) (Scorer, bool) {
	switch strings.ToLower(name) {
	case "", "token_set":
		return TokenSet{}, true
	case "token_sort":
		return TokenSort{}, true
	case "ratio":
		return Ratio{}, true
	}
	return nil, false
}

func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

func sortedTokens(s string) []string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return toks
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}
