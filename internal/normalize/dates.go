package normalize

import (
	"strings"
	"time"
)

// Date layouts seen in pricing files, including quarter-style "2025Q3".
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"20060102",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// EffectiveDate parses an effective-period string in one of the common
// layouts. Quarter labels ("2025Q3", "Q3 2025") map to the first day of the
// quarter. ok is false when the input is blank or unparseable.
func EffectiveDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := quarterStart(s); ok {
		return t, true
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func quarterStart(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	var year, q int
	switch {
	case len(s) == 6 && s[4] == 'Q':
		year, q = atoi(s[:4]), atoi(s[5:])
	case len(s) == 6 && s[0] == 'Q':
		q, year = atoi(s[1:2]), atoi(s[2:])
	default:
		return time.Time{}, false
	}
	if year <= 0 || q < 1 || q > 4 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC), true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
