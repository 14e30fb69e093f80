package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scrutiny.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCaseStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.CaseState(ctx, "proc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveCaseState(ctx, "proc-1", dto.CaseReady))
	state, ok, err := s.CaseState(ctx, "proc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dto.CaseReady, state)

	// upsert moves the state forward in place
	require.NoError(t, s.SaveCaseState(ctx, "proc-1", dto.CaseAnalyzed))
	state, _, err = s.CaseState(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, dto.CaseAnalyzed, state)
}

func TestFindingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	findings := []dto.Finding{
		{
			RuleID:    "SOP-02",
			Status:    dto.StatusMismatch,
			Shortfall: decimal.RequireFromString("100.00"),
			HeadShortfalls: map[dto.TaxHead]decimal.Decimal{
				dto.TaxHeadIntegrated: decimal.RequireFromString("100.00"),
			},
			Confidence: dto.ConfidenceExact,
			StatusMsg:  "periods covered: 2023-05, 2023-06",
		},
		{RuleID: "SOP-01", Status: dto.StatusOK, Shortfall: decimal.Zero},
	}
	require.NoError(t, s.SaveFindings(ctx, "proc-1", findings))

	got, err := s.Findings(ctx, "proc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// ordered by rule id regardless of insertion order
	assert.Equal(t, "SOP-01", got[0].RuleID)
	assert.Equal(t, "SOP-02", got[1].RuleID)
	assert.Equal(t, dto.StatusMismatch, got[1].Status)
	assert.True(t, got[1].Shortfall.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, got[1].HeadShortfalls[dto.TaxHeadIntegrated].Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "periods covered: 2023-05, 2023-06", got[1].StatusMsg)
}

func TestSaveFindingsOverwritesPerRule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []dto.Finding{{RuleID: "SOP-02", Status: dto.StatusMismatch,
		Shortfall: decimal.RequireFromString("100.00")}}
	require.NoError(t, s.SaveFindings(ctx, "proc-1", first))

	// a re-run after corrected documents replaces the finding
	second := []dto.Finding{{RuleID: "SOP-02", Status: dto.StatusOK, Shortfall: decimal.Zero}}
	require.NoError(t, s.SaveFindings(ctx, "proc-1", second))

	got, err := s.Findings(ctx, "proc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dto.StatusOK, got[0].Status)
	assert.True(t, got[0].Shortfall.IsZero())
}

func TestFindingsScopedByProceeding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFindings(ctx, "proc-1",
		[]dto.Finding{{RuleID: "SOP-01", Status: dto.StatusOK, Shortfall: decimal.Zero}}))

	got, err := s.Findings(ctx, "proc-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
