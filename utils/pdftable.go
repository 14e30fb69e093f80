package utils

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

// TaxRow is one extracted table row: the normalized amounts in column
// order plus the extraction confidence. When a row carries a leading
// taxable-value column the caller asks for the full arity and keeps the
// trailing tax-head columns.
type TaxRow struct {
	Values     []decimal.Decimal
	Confidence dto.Confidence
}

// ExtractTaxRow locates a labelled row in PDF text and normalizes its
// amounts. The label variants cover renames of the same logical row across
// filing-year versions of a form; the first variant that yields candidates
// wins. When several runs satisfy the shape inside the window, the first
// run directly following the label is used and the row is marked
// ambiguous rather than guessed at silently.
func ExtractTaxRow(text string, labels []*regexp.Regexp, window, arity int) (*TaxRow, error) {
	var lastErr error
	for _, label := range labels {
		runs, lf := LocateAmountRuns(text, label, window, arity)
		if lf != nil {
			lastErr = lf
			continue
		}

		row := &TaxRow{Confidence: dto.ConfidenceExact}
		if len(runs) > 1 {
			row.Confidence = dto.ConfidenceAmbiguous
		}
		for _, tok := range runs[0].Tokens {
			v, pf := NormalizeAmount(tok, MonetaryToken)
			if pf != nil {
				return nil, pf
			}
			row.Values = append(row.Values, v)
		}
		return row, nil
	}
	return nil, lastErr
}
