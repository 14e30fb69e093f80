package dto

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocTypeGSTR3B DocumentType = "gstr3b"
	DocTypeGSTR9  DocumentType = "gstr9"
	DocTypeGSTR2A DocumentType = "gstr2a"
)

// TaxHead is one of the four tax components tracked per figure.
type TaxHead string

const (
	TaxHeadIntegrated TaxHead = "integrated"
	TaxHeadCentral    TaxHead = "central"
	TaxHeadState      TaxHead = "state"
	TaxHeadCess       TaxHead = "cess"
)

// AllTaxHeads returns the heads in their fixed return-form column order.
func AllTaxHeads() []TaxHead {
	return []TaxHead{TaxHeadIntegrated, TaxHeadCentral, TaxHeadState, TaxHeadCess}
}

// Confidence grades how an individual figure was extracted.
type Confidence string

const (
	ConfidenceExact     Confidence = "exact"
	ConfidenceInferred  Confidence = "inferred"
	ConfidenceAmbiguous Confidence = "ambiguous"
)

// rank orders confidences from worst to best so sets of figures can be
// graded by their weakest member.
func (c Confidence) rank() int {
	switch c {
	case ConfidenceAmbiguous:
		return 0
	case ConfidenceInferred:
		return 1
	default:
		return 2
	}
}

// Worst returns the lower-graded of the two confidences.
func (c Confidence) Worst(other Confidence) Confidence {
	if other.rank() < c.rank() {
		return other
	}
	return c
}

// Period is a filing period: either a month+year or a financial year
// (April of FYStart through March of FYStart+1). A zero Period means the
// period could not be established.
type Period struct {
	Month   int `json:"month,omitempty"`
	Year    int `json:"year,omitempty"`
	FYStart int `json:"fy_start,omitempty"`
}

func (p Period) IsZero() bool {
	return p.Month == 0 && p.Year == 0 && p.FYStart == 0
}

func (p Period) IsFinancialYear() bool {
	return p.FYStart != 0
}

// Key is the canonical string form used to key figures and name periods in
// messages: "2023-05" for May 2023, "FY2022-23" for a financial year.
func (p Period) Key() string {
	if p.IsZero() {
		return "unknown"
	}
	if p.IsFinancialYear() {
		return fmt.Sprintf("FY%d-%02d", p.FYStart, (p.FYStart+1)%100)
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

func (p Period) String() string {
	return p.Key()
}

// Contains reports whether other falls inside p. A financial year contains
// the months April FYStart .. March FYStart+1 and itself; a monthly period
// contains only its exact month.
func (p Period) Contains(other Period) bool {
	if p.IsZero() || other.IsZero() {
		return false
	}
	if !p.IsFinancialYear() {
		return p.Month == other.Month && p.Year == other.Year
	}
	if other.IsFinancialYear() {
		return p.FYStart == other.FYStart
	}
	if other.Month >= 4 {
		return other.Year == p.FYStart
	}
	return other.Year == p.FYStart+1
}

// Figure is a single extracted numeric value.
type Figure struct {
	TaxHead     TaxHead         `json:"tax_head"`
	TableRef    string          `json:"table_ref"`
	Period      Period          `json:"period"`
	Value       decimal.Decimal `json:"value"`
	SourceDocID string          `json:"source_doc_id"`
	Confidence  Confidence      `json:"confidence"`
}

// FigureKey identifies a figure inside one document's FigureSet. The
// source document is implied by the owning set.
type FigureKey struct {
	TaxHead   TaxHead
	TableRef  string
	PeriodKey string
}

// FigureSet holds all figures extracted from one document plus the
// document-level metadata. It is assembled append-only by a reader and
// treated as read-only afterwards.
type FigureSet struct {
	DocID   string       `json:"doc_id"`
	DocType DocumentType `json:"doc_type"`
	GSTIN   string       `json:"gstin"`
	Period  Period       `json:"period"`

	// Figures is keyed by (tax head, table ref, period); Add overwrites on
	// re-extraction, it never appends a duplicate.
	Figures map[FigureKey]Figure `json:"-"`

	// Suppliers lists counterparty GSTINs seen in the document, for
	// set-presence rules.
	Suppliers []string `json:"suppliers,omitempty"`

	// Notes records document-level extraction problems (missing tables,
	// unparseable tokens) that downgrade to info findings instead of errors.
	Notes []string `json:"notes,omitempty"`
}

func NewFigureSet(docID string, docType DocumentType) *FigureSet {
	return &FigureSet{
		DocID:   docID,
		DocType: docType,
		Figures: make(map[FigureKey]Figure),
	}
}

// Add records a figure, overwriting any previous figure with the same key.
func (s *FigureSet) Add(f Figure) {
	f.SourceDocID = s.DocID
	s.Figures[FigureKey{TaxHead: f.TaxHead, TableRef: f.TableRef, PeriodKey: f.Period.Key()}] = f
}

// Lookup returns the figure for a tax head and table ref under the set's
// own period.
func (s *FigureSet) Lookup(head TaxHead, tableRef string) (Figure, bool) {
	f, ok := s.Figures[FigureKey{TaxHead: head, TableRef: tableRef, PeriodKey: s.Period.Key()}]
	return f, ok
}

// AddNote appends a document-level extraction note.
func (s *FigureSet) AddNote(format string, args ...any) {
	s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
}

// CaseState is the lifecycle state of a scrutiny proceeding.
type CaseState string

const (
	CaseInit      CaseState = "INIT"
	CaseReady     CaseState = "READY"
	CaseAnalyzed  CaseState = "ANALYZED"
	CaseFinalized CaseState = "FINALIZED"
)

// ValidationResult is the metadata verdict for one document.
type ValidationResult struct {
	DocID    string `json:"doc_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
