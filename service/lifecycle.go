package service

import (
	"fmt"

	"github.com/auditstack/gst-return-scrutiny/dto"
)

// IllegalTransitionError is raised when a caller requests a case-state
// change outside the allowed transition table. It is the one failure class
// that propagates instead of degrading into a finding, since it indicates
// a sequencing bug on the caller side rather than a data-quality issue.
type IllegalTransitionError struct {
	From dto.CaseState
	To   dto.CaseState
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal case transition %s -> %s", e.From, e.To)
}

// allowedTransitions is the strict transition table; every state has at
// most one successor and FINALIZED is terminal.
var allowedTransitions = map[dto.CaseState]dto.CaseState{
	dto.CaseInit:     dto.CaseReady,
	dto.CaseReady:    dto.CaseAnalyzed,
	dto.CaseAnalyzed: dto.CaseFinalized,
}

// Lifecycle tracks the case state of one scrutiny proceeding and gates
// when extraction and analysis may run.
type Lifecycle struct {
	state dto.CaseState
}

// NewLifecycle restores a lifecycle at the given state; an empty state
// opens a fresh proceeding in INIT.
func NewLifecycle(state dto.CaseState) *Lifecycle {
	if state == "" {
		state = dto.CaseInit
	}
	return &Lifecycle{state: state}
}

func (l *Lifecycle) State() dto.CaseState {
	return l.state
}

// Transition requests an explicit state change. Anything outside the
// transition table fails without touching the current state.
func (l *Lifecycle) Transition(to dto.CaseState) error {
	if allowedTransitions[l.state] != to {
		return &IllegalTransitionError{From: l.state, To: to}
	}
	l.state = to
	return nil
}

// MarkIngested records the first successful document ingestion. Already
// being past READY is not an error; finalized cases reject it.
func (l *Lifecycle) MarkIngested() error {
	switch l.state {
	case dto.CaseInit:
		return l.Transition(dto.CaseReady)
	case dto.CaseFinalized:
		return &IllegalTransitionError{From: l.state, To: dto.CaseReady}
	default:
		return nil
	}
}

// BeginAnalysis moves the case to ANALYZED. If the upload step failed to
// record READY the lifecycle first performs INIT->READY and then
// READY->ANALYZED; the direct INIT->ANALYZED jump stays illegal when
// requested explicitly via Transition. Re-analysis of an ANALYZED case is
// a no-op.
func (l *Lifecycle) BeginAnalysis() error {
	switch l.state {
	case dto.CaseInit:
		if err := l.Transition(dto.CaseReady); err != nil {
			return err
		}
		return l.Transition(dto.CaseAnalyzed)
	case dto.CaseReady:
		return l.Transition(dto.CaseAnalyzed)
	case dto.CaseAnalyzed:
		return nil
	default:
		return &IllegalTransitionError{From: l.state, To: dto.CaseAnalyzed}
	}
}
