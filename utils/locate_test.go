package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateAmountRunsOnLabelLine(t *testing.T) {
	text := "3.1(a) Outward taxable supplies 5,00,000.00 45,000.00 22,500.00 22,500.00 0.00\n" +
		"3.1(b) Outward taxable supplies (zero rated) 0.00 0.00 0.00 0.00 0.00\n"

	label := regexp.MustCompile(`(?i)outward\s+taxable\s+supplies`)
	runs, lf := LocateAmountRuns(text, label, 6, 5)
	require.Nil(t, lf)
	// one candidate per label occurrence
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"5,00,000.00", "45,000.00", "22,500.00", "22,500.00", "0.00"}, runs[0].Tokens)
	assert.Equal(t, 0, runs[0].Line)
	assert.Equal(t, 1, runs[1].Line)
}

func TestLocateAmountRunsWithinWindow(t *testing.T) {
	text := "(4) Inward supplies from ISD\n" +
		"Integrated Central State Cess\n" +
		"12,000.00 0.00 0.00 0.00\n"

	label := regexp.MustCompile(`(?i)inward\s+supplies\s+from\s+ISD`)
	runs, lf := LocateAmountRuns(text, label, 6, 4)
	require.Nil(t, lf)
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].LabelLine)
	assert.Equal(t, 2, runs[0].Line)
	assert.Equal(t, []string{"12,000.00", "0.00", "0.00", "0.00"}, runs[0].Tokens)
}

func TestLocateAmountRunsSingleRunPerOccurrence(t *testing.T) {
	// Two amount rows after one label: only the nearest qualifies, the
	// second belongs to whatever row follows.
	text := "All other ITC\n" +
		"42,000.00 21,000.00 21,000.00 500.00\n" +
		"99,999.00 1.00 2.00 3.00\n"

	runs, lf := LocateAmountRuns(text, regexp.MustCompile(`(?i)all\s+other\s+ITC`), 6, 4)
	require.Nil(t, lf)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"42,000.00", "21,000.00", "21,000.00", "500.00"}, runs[0].Tokens)
}

func TestLocateAmountRunsLabelNotFound(t *testing.T) {
	_, lf := LocateAmountRuns("nothing relevant here", regexp.MustCompile(`import of goods`), 6, 4)
	require.NotNil(t, lf)
	assert.Contains(t, lf.Reason, "label not found")
}

func TestLocateAmountRunsNoTokensInWindow(t *testing.T) {
	text := "Import of goods\nno amounts anywhere near\n"
	_, lf := LocateAmountRuns(text, regexp.MustCompile(`(?i)import\s+of\s+goods`), 2, 4)
	require.NotNil(t, lf)
	assert.Contains(t, lf.Reason, "no run of 4 monetary tokens")
}

func TestLocateAmountRunsRepairsWrappedNumber(t *testing.T) {
	// The PDF text layer broke a grouped amount across two lines.
	text := "Import of goods 1,12,\n77,521.00 0.00 0.00 0.00\n"
	runs, lf := LocateAmountRuns(text, regexp.MustCompile(`(?i)import\s+of\s+goods`), 6, 4)
	require.Nil(t, lf)
	require.Len(t, runs, 1)
	assert.Equal(t, "1,12, 77,521.00", runs[0].Tokens[0])

	d, pf := NormalizeAmount(runs[0].Tokens[0], MonetaryToken)
	require.Nil(t, pf)
	assert.Equal(t, "11277521", d.Truncate(0).String())
}

func TestFlattenHeaderForwardFillsGroups(t *testing.T) {
	band := [][]string{
		{"GSTIN of supplier", "Invoice number", "Tax Amount", "", "", ""},
		{"", "", "Integrated Tax", "Central Tax", "State/UT Tax", "Cess"},
	}
	keys := FlattenHeader(band)
	assert.Equal(t, []string{
		"gstin of supplier",
		"invoice number",
		"tax amount|integrated tax",
		"tax amount|central tax",
		"tax amount|state/ut tax",
		"tax amount|cess",
	}, keys)
}

func TestFlattenHeaderIgnoresPlaceholders(t *testing.T) {
	band := [][]string{
		{"Tax  Amount", "Unnamed: 1", "NaN", ""},
		{"Integrated Tax", "Central Tax", "State/UT Tax", "Cess"},
	}
	keys := FlattenHeader(band)
	assert.Equal(t, []string{
		"tax amount|integrated tax",
		"tax amount|central tax",
		"tax amount|state/ut tax",
		"tax amount|cess",
	}, keys)
}

func TestLocateColumns(t *testing.T) {
	band := [][]string{
		{"GSTIN of supplier", "Tax Amount", "", "", ""},
		{"", "Integrated Tax", "Central Tax", "State/UT Tax", "Cess"},
	}
	specs := []ColumnSpec{
		{Sub: "gstin of supplier"},
		{Top: "tax amount", Sub: "integrated tax"},
		{Top: "tax amount", Sub: "cess"},
	}

	found, lf := LocateColumns(band, specs)
	require.Nil(t, lf)
	assert.Equal(t, 0, found[specs[0]])
	assert.Equal(t, 1, found[specs[1]])
	assert.Equal(t, 4, found[specs[2]])
}

func TestLocateColumnsReportsMissing(t *testing.T) {
	band := [][]string{
		{"Tax Amount", ""},
		{"Integrated Tax", "Central Tax"},
	}
	found, lf := LocateColumns(band, []ColumnSpec{
		{Top: "tax amount", Sub: "integrated tax"},
		{Top: "tax amount", Sub: "cess"},
	})
	require.NotNil(t, lf)
	assert.Contains(t, lf.Label, "tax amount|cess")
	// the columns that were present still resolve
	assert.Len(t, found, 1)
}
