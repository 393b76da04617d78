package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var moneyReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// Money parses a currency string such as "$1,234.50" into an exact decimal.
// ok is false for blank input; err is set when the text is not a number.
func Money(v string) (d decimal.Decimal, ok bool, err error) {
	s := moneyReplacer.Replace(strings.TrimSpace(v))
	if s == "" || strings.EqualFold(s, "N/A") || strings.EqualFold(s, "NA") {
		return decimal.Zero, false, nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse amount %q: %w", v, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, true, nil
}

// Percent parses "95", "95%" or "95.5 %" into a decimal percentage (95.5).
func Percent(v string) (decimal.Decimal, bool, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	return Money(s)
}
