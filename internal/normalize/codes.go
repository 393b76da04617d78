package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// NDCWidth is the fixed width of a canonical product code.
const NDCWidth = 11

// ErrInvalidIdentifier is returned when a raw identifier contains no digits.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var nonDigit = regexp.MustCompile(`[^0-9]`)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NDC canonicalizes a raw product identifier into an 11-digit string.
// Non-digits are stripped; longer results keep the rightmost 11 digits and
// shorter ones are left-padded with zeros.
func NDC(raw string) (string, error) {
	s := nonDigit.ReplaceAllString(raw, "")
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	if len(s) > NDCWidth {
		return s[len(s)-NDCWidth:], nil
	}
	if len(s) < NDCWidth {
		s = strings.Repeat("0", NDCWidth-len(s)) + s
	}
	return s, nil
}

// BillingCode trims whitespace, uppercases, and strips non-alphanumeric characters.
// Returns "" when nothing is left.
func BillingCode(v string) string {
	s := strings.ToUpper(strings.TrimSpace(v))
	return nonAlphanumeric.ReplaceAllString(s, "")
}
