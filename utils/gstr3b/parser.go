// Package gstr3b reads the text layer of a GSTR-3B monthly summary return
// and produces the canonical figure set for that document.
package gstr3b

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/auditstack/gst-return-scrutiny/dto"
	"github.com/auditstack/gst-return-scrutiny/utils"
)

// locateWindow is how many lines below a row label the amount run may
// appear; portal PDFs occasionally wrap a row across a few lines.
const locateWindow = 6

// headOrder is the fixed tax column order of the GSTR-3B form.
var headOrder = []dto.TaxHead{
	dto.TaxHeadIntegrated, dto.TaxHeadCentral, dto.TaxHeadState, dto.TaxHeadCess,
}

// tableSpec binds a logical table reference to the label variants used for
// it across filing-year versions of the form. Rows in table 3.1 carry a
// leading total-taxable-value column, so their arity is five with only the
// trailing four tax columns kept.
type tableSpec struct {
	ref    string
	arity  int
	labels []*regexp.Regexp
}

var tables = []tableSpec{
	{
		ref:   "3.1(a)",
		arity: 5,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)outward\s+taxable\s+supplies\s*\(other\s+than\s+zero`),
			regexp.MustCompile(`(?i)\(a\)\s*outward\s+taxable\s+supplies\b`),
		},
	},
	{
		ref:   "3.1(d)",
		arity: 5,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)inward\s+supplies\s*\(\s*liable\s+to\s+reverse\s+charge\s*\)`),
			regexp.MustCompile(`(?i)\(d\)\s*inward\s+supplies\s+liable\s+to\s+reverse\s+charge`),
		},
	},
	{
		ref:   "4A(1)",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)import\s+of\s+goods`),
		},
	},
	{
		ref:   "4A(2)",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)import\s+of\s+services`),
		},
	},
	{
		ref:   "4A(3)",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)inward\s+supplies\s+liable\s+to\s+reverse\s+charge\s*\(other\s+than\s+1\s*&\s*2`),
		},
	},
	{
		ref:   "4A(4)",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)inward\s+supplies\s+from\s+ISD`),
		},
	},
	{
		ref:   "4A(5)",
		arity: 4,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)all\s+other\s+ITC`),
		},
	},
}

// Parse extracts the figure set from the text layer of a GSTR-3B PDF. A
// missing table is recorded as a note and extraction continues; only a
// document with no usable text at all fails.
func Parse(text, docID string, periodHint dto.Period) (*dto.FigureSet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document %s has no extractable text layer", docID)
	}

	set := dto.NewFigureSet(docID, dto.DocTypeGSTR3B)
	set.GSTIN = utils.FindGSTIN(text)

	if p, ok := utils.FindMonthYear(text); ok {
		set.Period = p
	} else if !periodHint.IsZero() {
		set.Period = periodHint
		set.AddNote("return period taken from caller hint %s; no period label found in %s", periodHint, docID)
	} else {
		set.AddNote("return period could not be established for %s", docID)
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
