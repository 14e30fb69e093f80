package dto

import "github.com/shopspring/decimal"

// ComparisonKind selects how a rule combines its resolved figures.
type ComparisonKind string

const (
	// CompareDifference computes left - right per tax head and sums the
	// differences into a single shortfall.
	CompareDifference ComparisonKind = "difference"
	// CompareRatio computes sum(left)/sum(right) across heads and flags
	// ratios above the tolerance.
	CompareRatio ComparisonKind = "ratio"
	// CompareSetPresence flags supplier identifiers that appear in the
	// rule's reference list.
	CompareSetPresence ComparisonKind = "set_presence"
)

// FigureRef names one side of a comparison: a logical table in a given
// document type.
type FigureRef struct {
	DocType  DocumentType `json:"doc_type"`
	TableRef string       `json:"table_ref"`
}

// Rule is one declarative SOP point. Rules are loaded once at startup and
// never mutated at runtime.
type Rule struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Kind        ComparisonKind `json:"kind"`
	Left        FigureRef      `json:"left"`
	Right       FigureRef      `json:"right,omitempty"`

	// TaxHeads restricts the comparison to these heads; empty means all four.
	TaxHeads []TaxHead `json:"tax_heads,omitempty"`

	// PeriodSeries accumulates figures across every supplied monthly period
	// before the comparison is applied.
	PeriodSeries bool `json:"period_series,omitempty"`

	// Tolerance is the rule-specific materiality threshold: an absolute
	// amount for difference rules, the flagging threshold for ratio rules.
	Tolerance decimal.Decimal `json:"tolerance"`

	// ReferenceList holds the identifiers checked by set-presence rules.
	ReferenceList []string `json:"reference_list,omitempty"`
}

// Heads returns the rule's tax heads, defaulting to all four.
func (r Rule) Heads() []TaxHead {
	if len(r.TaxHeads) == 0 {
		return AllTaxHeads()
	}
	return r.TaxHeads
}

// FindingStatus is the closed verdict enum for one evaluated rule.
type FindingStatus string

const (
	StatusOK       FindingStatus = "ok"
	StatusMismatch FindingStatus = "mismatch"
	StatusInfo     FindingStatus = "info"
	StatusError    FindingStatus = "error"
)

// Finding is the outcome of evaluating one rule against the available
// figure sets.
type Finding struct {
	RuleID string        `json:"rule_id"`
	Status FindingStatus `json:"status"`

	// ComputedValues holds the specific numbers compared, keyed
	// "left_<head>", "right_<head>", "diff_<head>" (or "ratio").
	ComputedValues map[string]decimal.Decimal `json:"computed_values,omitempty"`

	// Shortfall is the signed total discrepancy; zero when Status is ok.
	Shortfall decimal.Decimal `json:"shortfall"`

	// HeadShortfalls breaks the shortfall down by tax head for difference
	// rules, so summaries can aggregate per head.
	HeadShortfalls map[TaxHead]decimal.Decimal `json:"head_shortfalls,omitempty"`

	// Confidence is the weakest extraction confidence among the figures
	// that fed the comparison.
	Confidence Confidence `json:"confidence,omitempty"`

	StatusMsg string `json:"status_msg,omitempty"`
}

// Summary aggregates a full evaluation run.
type Summary struct {
	RulesEvaluated  int                         `json:"rules_evaluated"`
	MismatchCount   int                         `json:"mismatch_count"`
	InfoCount       int                         `json:"info_count"`
	TotalShortfall  decimal.Decimal             `json:"total_shortfall"`
	ShortfallByHead map[TaxHead]decimal.Decimal `json:"shortfall_by_head"`
}
