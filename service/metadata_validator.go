package service

import (
	"fmt"
	"strings"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

// ValidateMetadata cross-checks taxpayer identity and filing period across
// the extracted documents before any rule runs. A document that fails is
// excluded from the reconciliation run and reported, never silently
// dropped.
func ValidateMetadata(sets []*dto.FigureSet, expectedGSTIN string, expectedPeriod dto.Period) []dto.ValidationResult {
	results := make([]dto.ValidationResult, 0, len(sets))
	want := strings.ToUpper(strings.TrimSpace(expectedGSTIN))

	for _, set := range sets {
		res := dto.ValidationResult{DocID: set.DocID, Accepted: true}

		switch {
		case set.GSTIN == "":
			res.Accepted = false
			res.Reason = fmt.Sprintf("no GSTIN could be extracted from %s", set.DocID)
		case set.GSTIN != want:
			res.Accepted = false
			res.Reason = fmt.Sprintf("GSTIN %s in %s does not match expected %s", set.GSTIN, set.DocID, want)
		case !set.Period.IsZero() && !periodsConsistent(expectedPeriod, set.Period):
			res.Accepted = false
			res.Reason = fmt.Sprintf("period %s in %s is outside expected period %s", set.Period, set.DocID, expectedPeriod)
		}

		results = append(results, res)
	}
	return results
}

// periodsConsistent matches a document period against the expected one.
// Financial-year documents are matched by year-range containment rather
// than exact string equality; monthly documents must fall inside an
// expected financial year or match an expected month exactly.
func periodsConsistent(expected, got dto.Period) bool {
	if expected.IsZero() || got.IsZero() {
		return false
	}
	return expected.Contains(got) || got.Contains(expected)
}
