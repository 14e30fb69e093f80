// Package gstr9 reads the text layer of a GSTR-9 annual return and
// produces the canonical figure set for that document.
package gstr9

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/auditstack/gst-return-scrutiny/dto"
	"github.com/auditstack/gst-return-scrutiny/utils"
)

const locateWindow = 6

// headOrder is the tax column order of the GSTR-9 form, which differs from
// the monthly return: central and state tax come before integrated tax.
var headOrder = []dto.TaxHead{
	dto.TaxHeadCentral, dto.TaxHeadState, dto.TaxHeadIntegrated, dto.TaxHeadCess,
}

type tableSpec struct {
	ref    string
	arity  int
	labels []*regexp.Regexp
}

var tables = []tableSpec{
	{
		// 4N closes table 4 with a taxable-value column ahead of the taxes.
		ref:   "4N",
		arity: 5,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)supplies\s+and\s+advances\s+on\s+which\s+tax\s+is\s+to\s+be\s+paid`),
			regexp.MustCompile(`(?i)\(N\)\s*supplies\s+and\s+advances`),
		},
	},
	{
		ref:   "6A",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)total\s+amount\s+of\s+input\s+tax\s+credit\s+availed\s+through\s+FORM\s+GSTR-?\s?3B`),
			regexp.MustCompile(`(?i)\(A\)\s*total\s+amount\s+of\s+input\s+tax\s+credit\s+availed`),
		},
	},
	{
		ref:   "6H",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ITC\s+reclaimed\s+which\s+was\s+reversed`),
		},
	},
}

// Parse extracts the figure set from the text layer of a GSTR-9 PDF. The
// financial year must be explicitly labelled in the document; it is never
// inferred from a month-year occurrence, so an annual return without the
// label yields figures with an unknown period and downstream rules report
// info instead of guessing a fiscal year.
func Parse(text, docID string, periodHint dto.Period) (*dto.FigureSet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document %s has no extractable text layer", docID)
	}

	set := dto.NewFigureSet(docID, dto.DocTypeGSTR9)
	set.GSTIN = utils.FindGSTIN(text)

	if p, ok := utils.FindFinancialYear(text); ok {
		set.Period = p
	} else if periodHint.IsFinancialYear() {
		set.Period = periodHint
		set.AddNote("financial year taken from caller hint %s; no label found in %s", periodHint, docID)
	} else {
		set.AddNote("financial year label not found in %s; period left unknown", docID)
	}

	for _, spec := range tables {
		row, err := utils.ExtractTaxRow(text, spec.labels, locateWindow, spec.arity)
		if err != nil {
			set.AddNote("table %s: %v", spec.ref, err)
			continue
		}
		values := row.Values[spec.arity-len(headOrder):]
		for i, head := range headOrder {
			set.Add(dto.Figure{
				TaxHead:    head,
				TableRef:   spec.ref,
				Period:     set.Period,
				Value:      values[i],
				Confidence: row.Confidence,
			})
		}
	}

	return set, nil
}
