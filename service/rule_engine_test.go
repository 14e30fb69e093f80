package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

func figureSet(docID string, docType dto.DocumentType, period dto.Period) *dto.FigureSet {
	set := dto.NewFigureSet(docID, docType)
	set.GSTIN = "27AAPFU0939F1ZV"
	set.Period = period
	return set
}

func addRow(set *dto.FigureSet, tableRef string, conf dto.Confidence, amounts map[dto.TaxHead]string) {
	for head, amount := range amounts {
		set.Add(dto.Figure{
			TaxHead:    head,
			TableRef:   tableRef,
			Period:     set.Period,
			Value:      decimal.RequireFromString(amount),
			Confidence: conf,
		})
	}
}

func integratedOnly(amount string) map[dto.TaxHead]string {
	return map[dto.TaxHead]string{
		dto.TaxHeadIntegrated: amount,
		dto.TaxHeadCentral:    "0.00",
		dto.TaxHeadState:      "0.00",
		dto.TaxHeadCess:       "0.00",
	}
}

func TestEvaluateDifferenceEqualSidesOK(t *testing.T) {
	b3 := figureSet("3b", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(b3, "3.1(d)", dto.ConfidenceExact, integratedOnly("5000.00"))
	addRow(b3, "4A(3)", dto.ConfidenceExact, integratedOnly("5000.00"))

	rule := dto.Rule{
		ID:          "SOP-01",
		Description: "RCM liability must be matched by RCM credit",
		Kind:        dto.CompareDifference,
		Left:        dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(3)"},
		Right:       dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "3.1(d)"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{b3})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusOK, f.Status)
	assert.True(t, f.Shortfall.IsZero())
	assert.Equal(t, dto.ConfidenceExact, f.Confidence)
	assert.True(t, f.ComputedValues["left_integrated"].Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, f.ComputedValues["diff_integrated"].IsZero())
}

func TestEvaluatePeriodSeriesShortfall(t *testing.T) {
	// Two monthly credit statements accumulate to 2200 of available
	// credit against 2100 claimed, a 100 discrepancy across the series.
	may2a := figureSet("2a-may", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	addRow(may2a, "B2B", dto.ConfidenceExact, integratedOnly("1000.00"))
	jun2a := figureSet("2a-jun", dto.DocTypeGSTR2A, dto.Period{Month: 6, Year: 2023})
	addRow(jun2a, "B2B", dto.ConfidenceExact, integratedOnly("1200.00"))

	may3b := figureSet("3b-may", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(may3b, "4A(5)", dto.ConfidenceExact, integratedOnly("2100.00"))

	rule := dto.Rule{
		ID:           "SOP-02",
		Description:  "credit in the auto-drafted statement unreconciled with credit claimed",
		Kind:         dto.CompareDifference,
		Left:         dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"},
		Right:        dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(5)"},
		PeriodSeries: true,
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{may2a, jun2a, may3b})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusMismatch, f.Status)
	assert.Equal(t, "100", f.Shortfall.Truncate(0).String())
	assert.True(t, f.HeadShortfalls[dto.TaxHeadIntegrated].Equal(decimal.RequireFromString("100.00")))
	assert.Contains(t, f.StatusMsg, "periods covered: 2023-05, 2023-06")
}

func TestEvaluateDifferenceWithinTolerance(t *testing.T) {
	b3 := figureSet("3b", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(b3, "4A(5)", dto.ConfidenceExact, integratedOnly("1008.00"))
	a2 := figureSet("2a", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	addRow(a2, "B2B", dto.ConfidenceExact, integratedOnly("1000.00"))

	rule := dto.Rule{
		ID:        "SOP-02",
		Kind:      dto.CompareDifference,
		Left:      dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(5)"},
		Right:     dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"},
		Tolerance: decimal.RequireFromString("10.00"),
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{b3, a2})
	require.Len(t, findings, 1)
	assert.Equal(t, dto.StatusOK, findings[0].Status)
	assert.True(t, findings[0].Shortfall.IsZero())
}

func TestEvaluateMissingTableNamesIt(t *testing.T) {
	b3 := figureSet("3b-may", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(b3, "4A(5)", dto.ConfidenceExact, integratedOnly("1000.00"))
	// no 4A(4) figures anywhere

	rule := dto.Rule{
		ID:    "SOP-04",
		Kind:  dto.CompareDifference,
		Left:  dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(4)"},
		Right: dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "ISD"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{b3})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusInfo, f.Status)
	assert.True(t, f.Shortfall.IsZero())
	// the finding names exactly what was missing, including the document
	// that should have carried it
	assert.Contains(t, f.StatusMsg, "4A(4)")
	assert.Contains(t, f.StatusMsg, "3b-may")
	assert.Contains(t, f.StatusMsg, "no gstr2a document supplied")
}

func TestEvaluateAmbiguousConfidencePropagates(t *testing.T) {
	b3 := figureSet("3b", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(b3, "4A(4)", dto.ConfidenceAmbiguous, integratedOnly("1000.00"))
	a2 := figureSet("2a", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	addRow(a2, "ISD", dto.ConfidenceInferred, integratedOnly("1000.00"))

	rule := dto.Rule{
		ID:    "SOP-04",
		Kind:  dto.CompareDifference,
		Left:  dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(4)"},
		Right: dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "ISD"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{b3, a2})
	require.Len(t, findings, 1)

	f := findings[0]
	// values agree, but the weakest input confidence is carried through
	// instead of being upgraded by the match
	assert.Equal(t, dto.StatusOK, f.Status)
	assert.Equal(t, dto.ConfidenceAmbiguous, f.Confidence)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	b3 := figureSet("3b", dto.DocTypeGSTR3B, dto.Period{Month: 5, Year: 2023})
	addRow(b3, "4A(5)", dto.ConfidenceExact, integratedOnly("2100.00"))
	a2 := figureSet("2a", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	addRow(a2, "B2B", dto.ConfidenceExact, integratedOnly("1000.00"))

	rules := []dto.Rule{
		{ID: "SOP-02", Kind: dto.CompareDifference,
			Left:  dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(5)"},
			Right: dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"}},
		{ID: "SOP-01", Kind: dto.CompareDifference,
			Left:  dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "4A(3)"},
			Right: dto.FigureRef{DocType: dto.DocTypeGSTR3B, TableRef: "3.1(d)"}},
	}

	engine := NewRuleEngine(rules)
	first := engine.Evaluate([]*dto.FigureSet{b3, a2})
	second := engine.Evaluate([]*dto.FigureSet{b3, a2})

	assert.Equal(t, first, second)
	// output ordered by rule ID regardless of catalog order
	require.Len(t, first, 2)
	assert.Equal(t, "SOP-01", first[0].RuleID)
	assert.Equal(t, "SOP-02", first[1].RuleID)
}

func TestEvaluateRatio(t *testing.T) {
	g9 := figureSet("gstr9", dto.DocTypeGSTR9, dto.Period{FYStart: 2022})
	addRow(g9, "6H", dto.ConfidenceExact, integratedOnly("30.00"))
	addRow(g9, "6A", dto.ConfidenceExact, integratedOnly("200.00"))

	rule := dto.Rule{
		ID:          "SOP-06",
		Description: "reclaimed ITC is disproportionate to total ITC availed",
		Kind:        dto.CompareRatio,
		Left:        dto.FigureRef{DocType: dto.DocTypeGSTR9, TableRef: "6H"},
		Right:       dto.FigureRef{DocType: dto.DocTypeGSTR9, TableRef: "6A"},
		Tolerance:   decimal.RequireFromString("0.10"),
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{g9})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusMismatch, f.Status)
	assert.Equal(t, "0.15", f.ComputedValues["ratio"].String())
	assert.Equal(t, "0.05", f.Shortfall.String())
}

func TestEvaluateRatioZeroDenominator(t *testing.T) {
	g9 := figureSet("gstr9", dto.DocTypeGSTR9, dto.Period{FYStart: 2022})
	addRow(g9, "6H", dto.ConfidenceExact, integratedOnly("30.00"))
	addRow(g9, "6A", dto.ConfidenceExact, integratedOnly("0.00"))

	rule := dto.Rule{
		ID:    "SOP-06",
		Kind:  dto.CompareRatio,
		Left:  dto.FigureRef{DocType: dto.DocTypeGSTR9, TableRef: "6H"},
		Right: dto.FigureRef{DocType: dto.DocTypeGSTR9, TableRef: "6A"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{g9})
	require.Len(t, findings, 1)
	assert.Equal(t, dto.StatusInfo, findings[0].Status)
	assert.Contains(t, findings[0].StatusMsg, "ratio undefined")
}

func TestEvaluateSetPresence(t *testing.T) {
	a2 := figureSet("2a", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	a2.Suppliers = []string{"09AAACI1195H1ZK", "33AAACB2894G1ZL", "09AAACI1195H1ZK"}

	rule := dto.Rule{
		ID:            "SOP-05",
		Description:   "purchases from suppliers whose registration was cancelled",
		Kind:          dto.CompareSetPresence,
		Left:          dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"},
		ReferenceList: []string{"09aaaci1195h1zk"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{a2})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusMismatch, f.Status)
	// duplicate supplier rows collapse to one offender
	assert.Equal(t, "1", f.Shortfall.String())
	assert.Contains(t, f.StatusMsg, "09AAACI1195H1ZK")
	assert.NotContains(t, f.StatusMsg, "33AAACB2894G1ZL")
}

func TestEvaluateSetPresenceNoSupplierDataIsInfo(t *testing.T) {
	// The statement parsed but no supplier identifiers came out of it
	// (e.g. the supplier column was unreadable); that is reported, not
	// passed off as a clean result.
	a2 := figureSet("2a-may", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	addRow(a2, "B2B", dto.ConfidenceExact, integratedOnly("1000.00"))

	rule := dto.Rule{
		ID:            "SOP-05",
		Kind:          dto.CompareSetPresence,
		Left:          dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"},
		ReferenceList: []string{"09AAACI1195H1ZK"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{a2})
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, dto.StatusInfo, f.Status)
	assert.True(t, f.Shortfall.IsZero())
	assert.Contains(t, f.StatusMsg, "no supplier identifiers")
	assert.Contains(t, f.StatusMsg, "2a-may")
}

func TestEvaluateSetPresenceCleanList(t *testing.T) {
	a2 := figureSet("2a", dto.DocTypeGSTR2A, dto.Period{Month: 5, Year: 2023})
	a2.Suppliers = []string{"33AAACB2894G1ZL"}

	rule := dto.Rule{
		ID:            "SOP-05",
		Kind:          dto.CompareSetPresence,
		Left:          dto.FigureRef{DocType: dto.DocTypeGSTR2A, TableRef: "B2B"},
		ReferenceList: []string{"09AAACI1195H1ZK"},
	}

	findings := NewRuleEngine([]dto.Rule{rule}).Evaluate([]*dto.FigureSet{a2})
	require.Len(t, findings, 1)
	assert.Equal(t, dto.StatusOK, findings[0].Status)
}

func TestSummarize(t *testing.T) {
	findings := []dto.Finding{
		{RuleID: "SOP-01", Status: dto.StatusOK, Shortfall: decimal.Zero},
		{RuleID: "SOP-02", Status: dto.StatusMismatch,
			Shortfall: decimal.RequireFromString("100.00"),
			HeadShortfalls: map[dto.TaxHead]decimal.Decimal{
				dto.TaxHeadIntegrated: decimal.RequireFromString("100.00"),
			}},
		{RuleID: "SOP-04", Status: dto.StatusInfo, Shortfall: decimal.Zero},
	}

	summary := Summarize(findings)
	assert.Equal(t, 3, summary.RulesEvaluated)
	assert.Equal(t, 1, summary.MismatchCount)
	assert.Equal(t, 1, summary.InfoCount)
	assert.Equal(t, "100", summary.TotalShortfall.Truncate(0).String())
	assert.Equal(t, "100", summary.ShortfallByHead[dto.TaxHeadIntegrated].Truncate(0).String())
	// heads with no shortfall still report an explicit zero
	assert.True(t, summary.ShortfallByHead[dto.TaxHeadCess].IsZero())
}
