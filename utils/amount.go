package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MonetaryToken matches currency figures as they appear in return PDFs:
// optional rupee prefix, international 3-digit or Indian 2-then-3 digit
// grouping, exactly two paise digits. Whitespace injected directly after
// a comma is tolerated because PDF text extraction splits grouped numbers
// that wrap across lines; the tolerance matches the `,\s+` repair in
// NormalizeAmount so every located token also normalizes.
var MonetaryToken = regexp.MustCompile(`(?:₹|Rs\.?\s?|INR\s?)?(?:\d{1,3}(?:,\s*\d{2,3})+|\d+)\.\d{2}`)

var (
	currencyPrefix = regexp.MustCompile(`^(?:₹|Rs\.?|INR)\s*`)
	commaSpace     = regexp.MustCompile(`,\s+`)
	monetaryShape  = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{2,3})+|\d+)\.\d{2}$`)
)

// ParseFailure reports a token that could not be interpreted as a monetary
// value. It is recovered locally and surfaced as a missing figure, never
// raised.
type ParseFailure struct {
	Token  string
	Reason string
}

func (f *ParseFailure) Error() string {
	return fmt.Sprintf("cannot parse %q as a monetary value: %s", f.Token, f.Reason)
}

// NormalizeAmount parses a locale-ambiguous monetary token into an exact
// decimal. The caller supplies the acceptance pattern that defines what
// counts as a monetary token in its context (pass nil to skip that check);
// the normalizer itself only requires a well-formed grouped number with
// exactly two fractional digits, so page numbers and section numbers never
// slip through as amounts.
func NormalizeAmount(token string, accept *regexp.Regexp) (decimal.Decimal, *ParseFailure) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, &ParseFailure{Token: token, Reason: "empty token"}
	}
	if accept != nil && !accept.MatchString(s) {
		return decimal.Zero, &ParseFailure{Token: token, Reason: "rejected by acceptance pattern"}
	}

	s = currencyPrefix.ReplaceAllString(s, "")
	s = commaSpace.ReplaceAllString(s, ",")

	if !monetaryShape.MatchString(s) {
		return decimal.Zero, &ParseFailure{Token: token, Reason: "not a grouped amount with two fractional digits"}
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, &ParseFailure{Token: token, Reason: err.Error()}
	}
	return d, nil
}
