package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

var namePunct = regexp.MustCompile(`[^A-Z0-9/ ]`)

// Name uppercases, replaces punctuation with spaces, collapses whitespace,
// and trims the input. Slashes survive so strengths like "150 MG/ML" stay intact.
func Name(v string) string {
	s := strings.ToUpper(v)
	s = namePunct.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ColumnName lowercases a header and folds spaces and dashes to underscores,
// so "Benchmark Price A" and "benchmark-price-a" both become "benchmark_price_a".
func ColumnName(v string) string {
	s := strings.ToLower(strings.TrimSpace(v))
	s = multiSpace.ReplaceAllString(s, "_")
	return strings.ReplaceAll(s, "-", "_")
}
