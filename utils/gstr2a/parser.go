// Package gstr2a reads a GSTR-2A auto-drafted inward supplies workbook and
// produces the canonical figure set for that document.
package gstr2a

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/auditstack/gst-return-scrutiny/dto"
	"github.com/auditstack/gst-return-scrutiny/utils"
)

// headerScanRows is how many leading rows are scanned for the header band.
const headerScanRows = 8

// sheetSpec describes one worksheet of interest: the logical table it
// feeds, the known sheet-name variants (matched case-insensitively, exact
// name first then substring) and the label of the counterparty column.
// Optional sheets are skipped without a note when the export lacks them.
type sheetSpec struct {
	tableRef    string
	names       []string
	supplierSub string
	optional    bool
}

// The CDNR spec precedes B2B so its sheet is claimed before the looser
// "b2b" substring match can swallow a "B2B-CDNR" worksheet.
var sheets = []sheetSpec{
	{tableRef: "B2B-CDNR", names: []string{"b2b-cdnr", "b2bcdnr", "cdnr"}, supplierSub: "gstin of supplier", optional: true},
	{tableRef: "B2B", names: []string{"b2b", "b2b invoices"}, supplierSub: "gstin of supplier"},
	{tableRef: "ISD", names: []string{"isd", "isd credits"}, supplierSub: "gstin of isd"},
}

var taxColumns = []struct {
	head dto.TaxHead
	spec utils.ColumnSpec
}{
	{dto.TaxHeadIntegrated, utils.ColumnSpec{Top: "tax amount", Sub: "integrated tax"}},
	{dto.TaxHeadCentral, utils.ColumnSpec{Top: "tax amount", Sub: "central tax"}},
	{dto.TaxHeadState, utils.ColumnSpec{Top: "tax amount", Sub: "state/ut tax"}},
	{dto.TaxHeadCess, utils.ColumnSpec{Top: "tax amount", Sub: "cess"}},
}

// Parse extracts the figure set from a GSTR-2A XLSX workbook. Worksheets
// are matched fuzzily against the allow-list; each sheet's multi-row
// header band is flattened to resolve the tax columns, and data rows are
// read until the sentinel Total row (authoritative when present) or a
// blank row, in which case the data rows are summed instead.
func Parse(data []byte, docID string, periodHint dto.Period) (*dto.FigureSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("document %s is not a readable workbook: %w", docID, err)
	}
	defer f.Close()

	set := dto.NewFigureSet(docID, dto.DocTypeGSTR2A)
	set.Period = periodHint

	names := f.GetSheetList()
	preamble := workbookPreamble(f, names)
	set.GSTIN = utils.FindGSTIN(preamble)
	if p, ok := utils.FindMonthYear(preamble); ok {
		set.Period = p
	}
	if set.Period.IsZero() {
		set.AddNote("return period could not be established for %s", docID)
	}

	claimed := make(map[string]bool, len(sheets))
	for _, spec := range sheets {
		sheet := matchSheet(names, spec.names, claimed)
		if sheet == "" {
			if !spec.optional {
				set.AddNote("sheet %s not found in %s (worksheets: %s)", spec.tableRef, docID, strings.Join(names, ", "))
			}
			continue
		}
		claimed[sheet] = true
		if err := readSheet(f, sheet, spec, set); err != nil {
			set.AddNote("sheet %s: %v", sheet, err)
		}
	}

	netCreditNotes(set)

	return set, nil
}

// netCreditNotes subtracts the credit/debit note amounts from the B2B
// credit so rules compare against the credit actually available, not the
// gross invoice figure.
func netCreditNotes(set *dto.FigureSet) {
	netted := false
	for _, head := range dto.AllTaxHeads() {
		cdnr, ok := set.Lookup(head, "B2B-CDNR")
		if !ok {
			continue
		}
		b2b, ok := set.Lookup(head, "B2B")
		if !ok {
			continue
		}
		set.Add(dto.Figure{
			TaxHead:    head,
			TableRef:   "B2B",
			Period:     b2b.Period,
			Value:      b2b.Value.Sub(cdnr.Value),
			Confidence: b2b.Confidence.Worst(cdnr.Confidence),
		})
		netted = true
	}
	if netted {
		set.AddNote("B2B credit netted against B2B-CDNR note amounts")
	}
}

// matchSheet resolves a worksheet by fuzzy name match: case-insensitive
// exact match against the allow-list first, then substring. Sheets already
// claimed by an earlier spec are not matched again.
func matchSheet(available, allowed []string, claimed map[string]bool) string {
	for _, want := range allowed {
		for _, name := range available {
			if !claimed[name] && strings.EqualFold(strings.TrimSpace(name), want) {
				return name
			}
		}
	}
	for _, want := range allowed {
		for _, name := range available {
			if !claimed[name] && strings.Contains(strings.ToLower(name), want) {
				return name
			}
		}
	}
	return ""
}

func readSheet(f *excelize.File, sheet string, spec sheetSpec, set *dto.FigureSet) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	headerRow := -1
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		for _, cell := range rows[i] {
			if strings.Contains(strings.ToLower(cell), "integrated tax") {
				headerRow = i
				break
			}
		}
		if headerRow >= 0 {
			break
		}
	}
	if headerRow < 0 {
		return fmt.Errorf("no header band within the first %d rows", headerScanRows)
	}

	// The row above the detected sub-header joins the band only when it
	// looks like a header itself; preamble rows (GSTIN, period) must not
	// be forward-filled into the column keys.
	band := rows[headerRow : headerRow+1]
	if headerRow > 0 && headerLike(rows[headerRow-1]) {
		band = rows[headerRow-1 : headerRow+1]
	}

	specs := make([]utils.ColumnSpec, 0, len(taxColumns)+1)
	for _, tc := range taxColumns {
		specs = append(specs, tc.spec)
	}
	supplierSpec := utils.ColumnSpec{Sub: spec.supplierSub}
	specs = append(specs, supplierSpec)

	columns, lf := utils.LocateColumns(band, specs)
	for _, tc := range taxColumns {
		if _, ok := columns[tc.spec]; !ok {
			return fmt.Errorf("tax columns unresolved: %v", lf)
		}
	}
	supplierCol, supplierOK := columns[supplierSpec]
	if !supplierOK {
		set.AddNote("sheet %s: column %q not found; supplier identifiers unavailable", sheet, spec.supplierSub)
	}

	sums := make(map[dto.TaxHead]decimal.Decimal)
	var totalRow []string
	rowsRead := 0
	for r := headerRow + 1; r < len(rows); r++ {
		row := rows[r]
		if blankRow(row) {
			break
		}
		if isTotalRow(row) {
			totalRow = row
			break
		}
		if supplierOK {
			if g := strings.ToUpper(strings.TrimSpace(cellAt(row, supplierCol))); utils.IsValidGSTIN(g) {
				set.Suppliers = append(set.Suppliers, g)
			}
		}
		for _, tc := range taxColumns {
			v, pf := cellAmount(cellAt(row, columns[tc.spec]))
			if pf != nil {
				set.AddNote("sheet %s row %d: %v", sheet, r+1, pf)
				continue
			}
			sums[tc.head] = sums[tc.head].Add(v)
		}
		rowsRead++
	}

	if totalRow == nil && rowsRead == 0 {
		return fmt.Errorf("no data rows below the header band")
	}

	// The Total row is the authoritative figure for the period when the
	// export carries one; otherwise the data rows are summed.
	confidence := dto.ConfidenceExact
	values := make(map[dto.TaxHead]decimal.Decimal, len(taxColumns))
	if totalRow != nil {
		for _, tc := range taxColumns {
			v, pf := cellAmount(cellAt(totalRow, columns[tc.spec]))
			if pf != nil {
				return fmt.Errorf("total row: %v", pf)
			}
			values[tc.head] = v
		}
	} else {
		confidence = dto.ConfidenceInferred
		for _, tc := range taxColumns {
			values[tc.head] = sums[tc.head]
		}
	}

	for _, tc := range taxColumns {
		set.Add(dto.Figure{
			TaxHead:    tc.head,
			TableRef:   spec.tableRef,
			Period:     set.Period,
			Value:      values[tc.head],
			Confidence: confidence,
		})
	}
	return nil
}

// workbookPreamble joins the first few rows of every sheet so document
// metadata (filer GSTIN, period) can be located by the usual label regexes.
func workbookPreamble(f *excelize.File, names []string) string {
	var b strings.Builder
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		for i := 0; i < len(rows) && i < headerScanRows; i++ {
			b.WriteString(strings.Join(rows[i], " "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// headerLike reports whether a row can belong to the header band: at
// least one label cell and no digits anywhere, which keeps preamble rows
// out of the flattened column keys.
func headerLike(row []string) bool {
	if blankRow(row) {
		return false
	}
	for _, c := range row {
		if strings.ContainsAny(c, "0123456789") {
			return false
		}
	}
	return true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isTotalRow(row []string) bool {
	for i := 0; i < len(row) && i < 3; i++ {
		if strings.Contains(strings.ToLower(row[i]), "total") {
			return true
		}
	}
	return false
}

// cellAmount normalizes a spreadsheet cell into an exact decimal. Exports
// drop trailing paise digits on whole figures, so the cell is padded to
// two fractional digits before the monetary normalization applies.
func cellAmount(cell string) (decimal.Decimal, *utils.ParseFailure) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return decimal.Zero, &utils.ParseFailure{Token: cell, Reason: "empty cell"}
	}
	if i := strings.IndexByte(s, '.'); i < 0 {
		s += ".00"
	} else if len(s)-i-1 == 1 {
		s += "0"
	}
	return utils.NormalizeAmount(s, nil)
}
