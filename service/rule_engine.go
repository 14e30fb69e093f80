package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

// RuleEngine evaluates the declarative SOP catalog against the figure sets
// of one proceeding. The catalog is shared immutable state; every rule is
// evaluated independently so no rule can affect another's result.
type RuleEngine struct {
	catalog []dto.Rule
}

func NewRuleEngine(catalog []dto.Rule) *RuleEngine {
	return &RuleEngine{catalog: catalog}
}

// Evaluate runs every catalog rule against the supplied figure sets and
// returns the findings ordered by rule ID. Evaluation is deterministic:
// re-running on unchanged documents yields identical findings.
func (e *RuleEngine) Evaluate(sets []*dto.FigureSet) []dto.Finding {
	findings := make([]dto.Finding, 0, len(e.catalog))
	for _, rule := range e.catalog {
		findings = append(findings, evaluateRule(rule, sets))
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].RuleID < findings[j].RuleID })
	return findings
}

func evaluateRule(rule dto.Rule, sets []*dto.FigureSet) dto.Finding {
	switch rule.Kind {
	case dto.CompareDifference:
		return evaluateDifference(rule, sets)
	case dto.CompareRatio:
		return evaluateRatio(rule, sets)
	case dto.CompareSetPresence:
		return evaluateSetPresence(rule, sets)
	default:
		return dto.Finding{
			RuleID:    rule.ID,
			Status:    dto.StatusError,
			Shortfall: decimal.Zero,
			StatusMsg: fmt.Sprintf("rule %s has unknown comparison kind %q", rule.ID, rule.Kind),
		}
	}
}

// sideTotals is one resolved side of a comparison: per-head totals
// accumulated across the matching documents, the periods that contributed,
// the weakest extraction confidence seen, and anything that was required
// but missing.
type sideTotals struct {
	totals  map[dto.TaxHead]decimal.Decimal
	periods []string
	conf    dto.Confidence
	missing []string
}

func resolveSide(ref dto.FigureRef, heads []dto.TaxHead, sets []*dto.FigureSet) sideTotals {
	out := sideTotals{
		totals: make(map[dto.TaxHead]decimal.Decimal, len(heads)),
		conf:   dto.ConfidenceExact,
	}

	var docs []*dto.FigureSet
	for _, set := range sets {
		if set.DocType == ref.DocType {
			docs = append(docs, set)
		}
	}
	if len(docs) == 0 {
		out.missing = append(out.missing,
			fmt.Sprintf("no %s document supplied (table %s required)", ref.DocType, ref.TableRef))
		return out
	}

	for _, doc := range docs {
		var absentHeads []string
		for _, head := range heads {
			f, ok := doc.Lookup(head, ref.TableRef)
			if !ok {
				absentHeads = append(absentHeads, string(head))
				continue
			}
			out.totals[head] = out.totals[head].Add(f.Value)
			out.conf = out.conf.Worst(f.Confidence)
		}
		switch {
		case len(absentHeads) == len(heads):
			out.missing = append(out.missing,
				fmt.Sprintf("table %s not found in %s", ref.TableRef, doc.DocID))
		case len(absentHeads) > 0:
			out.missing = append(out.missing,
				fmt.Sprintf("table %s in %s is missing tax heads %s", ref.TableRef, doc.DocID, strings.Join(absentHeads, ", ")))
		default:
			out.periods = append(out.periods, doc.Period.Key())
		}
	}

	out.periods = sortedUnique(out.periods)
	return out
}

func evaluateDifference(rule dto.Rule, sets []*dto.FigureSet) dto.Finding {
	heads := rule.Heads()
	left := resolveSide(rule.Left, heads, sets)
	right := resolveSide(rule.Right, heads, sets)

	if missing := append(left.missing, right.missing...); len(missing) > 0 {
		return infoFinding(rule, missing)
	}

	computed := make(map[string]decimal.Decimal, 3*len(heads))
	headShortfalls := make(map[dto.TaxHead]decimal.Decimal, len(heads))
	total := decimal.Zero
	for _, head := range heads {
		l := left.totals[head]
		r := right.totals[head]
		d := l.Sub(r)
		computed["left_"+string(head)] = l
		computed["right_"+string(head)] = r
		computed["diff_"+string(head)] = d
		headShortfalls[head] = d
		total = total.Add(d)
	}

	finding := dto.Finding{
		RuleID:         rule.ID,
		ComputedValues: computed,
		Shortfall:      decimal.Zero,
		Confidence:     left.conf.Worst(right.conf),
	}

	var msgs []string
	if rule.PeriodSeries {
		msgs = append(msgs, "periods covered: "+strings.Join(sortedUnique(append(left.periods, right.periods...)), ", "))
	}

	if total.Abs().LessThanOrEqual(rule.Tolerance) {
		finding.Status = dto.StatusOK
	} else {
		finding.Status = dto.StatusMismatch
		finding.Shortfall = total
		finding.HeadShortfalls = headShortfalls
		msgs = append([]string{rule.Description}, msgs...)
	}
	finding.StatusMsg = strings.Join(msgs, "; ")
	return finding
}

func evaluateRatio(rule dto.Rule, sets []*dto.FigureSet) dto.Finding {
	heads := rule.Heads()
	left := resolveSide(rule.Left, heads, sets)
	right := resolveSide(rule.Right, heads, sets)

	if missing := append(left.missing, right.missing...); len(missing) > 0 {
		return infoFinding(rule, missing)
	}

	num := decimal.Zero
	den := decimal.Zero
	for _, head := range heads {
		num = num.Add(left.totals[head])
		den = den.Add(right.totals[head])
	}
	if den.IsZero() {
		return infoFinding(rule, []string{
			fmt.Sprintf("denominator (table %s of %s) totals zero; ratio undefined", rule.Right.TableRef, rule.Right.DocType),
		})
	}

	ratio := num.DivRound(den, 8)
	finding := dto.Finding{
		RuleID: rule.ID,
		ComputedValues: map[string]decimal.Decimal{
			"numerator":   num,
			"denominator": den,
			"ratio":       ratio,
		},
		Shortfall:  decimal.Zero,
		Confidence: left.conf.Worst(right.conf),
	}

	if ratio.GreaterThan(rule.Tolerance) {
		finding.Status = dto.StatusMismatch
		finding.Shortfall = ratio.Sub(rule.Tolerance)
		finding.StatusMsg = rule.Description
	} else {
		finding.Status = dto.StatusOK
	}
	return finding
}

func evaluateSetPresence(rule dto.Rule, sets []*dto.FigureSet) dto.Finding {
	var docs []*dto.FigureSet
	for _, set := range sets {
		if set.DocType == rule.Left.DocType {
			docs = append(docs, set)
		}
	}
	if len(docs) == 0 {
		return infoFinding(rule, []string{
			fmt.Sprintf("no %s document supplied (supplier list required)", rule.Left.DocType),
		})
	}

	// Extraction records a note when the supplier column is missing; an
	// empty supplier set then means "could not read", not "nothing to
	// flag", and must not pass as ok.
	extracted := 0
	for _, doc := range docs {
		extracted += len(doc.Suppliers)
	}
	if extracted == 0 {
		var ids []string
		for _, doc := range docs {
			ids = append(ids, doc.DocID)
		}
		return infoFinding(rule, []string{
			fmt.Sprintf("no supplier identifiers could be extracted from %s", strings.Join(sortedUnique(ids), ", ")),
		})
	}

	listed := make(map[string]bool, len(rule.ReferenceList))
	for _, id := range rule.ReferenceList {
		listed[strings.ToUpper(strings.TrimSpace(id))] = true
	}

	var offenders []string
	for _, doc := range docs {
		for _, supplier := range doc.Suppliers {
			if listed[supplier] {
				offenders = append(offenders, supplier)
			}
		}
	}
	offenders = sortedUnique(offenders)

	finding := dto.Finding{
		RuleID: rule.ID,
		ComputedValues: map[string]decimal.Decimal{
			"matched_identifiers": decimal.NewFromInt(int64(len(offenders))),
		},
		Shortfall:  decimal.Zero,
		Confidence: dto.ConfidenceExact,
	}
	if len(offenders) > 0 {
		finding.Status = dto.StatusMismatch
		finding.Shortfall = decimal.NewFromInt(int64(len(offenders)))
		finding.StatusMsg = fmt.Sprintf("%s: %s", rule.Description, strings.Join(offenders, ", "))
	} else {
		finding.Status = dto.StatusOK
	}
	return finding
}

// infoFinding reports exactly which tables or documents were missing; a
// rule never degrades missing inputs into a mismatch.
func infoFinding(rule dto.Rule, missing []string) dto.Finding {
	return dto.Finding{
		RuleID:    rule.ID,
		Status:    dto.StatusInfo,
		Shortfall: decimal.Zero,
		StatusMsg: strings.Join(missing, "; "),
	}
}

// Summarize aggregates the findings of one run: total mismatches and the
// shortfall per tax head consumed by notice-drafting code downstream.
func Summarize(findings []dto.Finding) dto.Summary {
	summary := dto.Summary{
		RulesEvaluated:  len(findings),
		TotalShortfall:  decimal.Zero,
		ShortfallByHead: make(map[dto.TaxHead]decimal.Decimal, 4),
	}
	for _, head := range dto.AllTaxHeads() {
		summary.ShortfallByHead[head] = decimal.Zero
	}

	for _, f := range findings {
		switch f.Status {
		case dto.StatusMismatch:
			summary.MismatchCount++
			summary.TotalShortfall = summary.TotalShortfall.Add(f.Shortfall)
			for head, v := range f.HeadShortfalls {
				summary.ShortfallByHead[head] = summary.ShortfallByHead[head].Add(v)
			}
		case dto.StatusInfo:
			summary.InfoCount++
		}
	}
	return summary
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
