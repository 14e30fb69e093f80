package utils

import (
	"regexp"
	"strings"
)

// GSTINPattern is the 15-character taxpayer identifier: two-digit state
// code, ten-character PAN, entity code, the literal default 'Z' and a
// trailing check character.
var GSTINPattern = regexp.MustCompile(`\d{2}[A-Z]{5}\d{4}[A-Z][0-9A-Z]Z[0-9A-Z]`)

var gstinExact = regexp.MustCompile(`^` + GSTINPattern.String() + `$`)

var gstinLabelled = regexp.MustCompile(`(?i)GSTIN[^0-9A-Z]{0,20}(` + GSTINPattern.String() + `)`)

// IsValidGSTIN reports whether s is a well-formed GSTIN.
func IsValidGSTIN(s string) bool {
	return gstinExact.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// FindGSTIN extracts the filer's GSTIN from document text, preferring an
// explicitly labelled occurrence over the first bare match.
func FindGSTIN(text string) string {
	t := strings.ToUpper(text)
	if m := gstinLabelled.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return GSTINPattern.FindString(t)
}
