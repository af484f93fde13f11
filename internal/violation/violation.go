// Package violation implements the CPN monitor's violation policy
// (spec §4.5): turning a NotEnabled or UnboundPostVariable engine
// result into a structured Diagnostic, and deciding whether that
// diagnostic aborts the interpreter (fail-fast) or is merely recorded
// while monitoring continues (continue).
package violation

import (
	"fmt"

	"github.com/google/uuid"

	"go-cpn-monitor/internal/dispatch"
	"go-cpn-monitor/internal/engine"
	"go-cpn-monitor/internal/marking"
)

// Policy selects what happens when a ProtocolViolation is observed.
type Policy int

const (
	// FailFast aborts on the first violation (spec §4.5 default).
	FailFast Policy = iota
	// Continue records the violation and leaves monitoring running.
	Continue
)

func (p Policy) String() string {
	if p == Continue {
		return "continue"
	}
	return "fail-fast"
}

// Reason classifies why a Diagnostic was raised.
type Reason string

const (
	// ProtocolViolation is a mapped event whose transition was not
	// enabled in the current marking — attributable to the observed
	// program, the model, or the mapping (spec §4.5).
	ProtocolViolation Reason = "ProtocolViolation"
	// UnboundPostVariable is a model bug: a post-arc variable neither
	// pre-arcs nor the triggering event bound. Always fatal regardless
	// of policy (spec §7).
	UnboundPostVariable Reason = "UnboundPostVariable"
)

// Diagnostic is the structured record spec §4.5 requires: the event
// and all its field values, the target transition and which arc
// failed, and a compact marking summary. ID lets multiple diagnostics
// from the same execution be told apart in a shared log (several
// model-checker-explored schedules may append to the same file).
type Diagnostic struct {
	ID              uuid.UUID
	Reason          Reason
	EventKind       string
	EventFields     map[string]uint64
	Transition      string
	FailedArcIndex  int
	FailedArc       string
	MarkingSnapshot string
}

// Error satisfies the error interface so a Diagnostic can be returned
// or wrapped directly as the aborting signal under fail-fast.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s[%s]: event %s -> transition %s failed at arc[%d] %s (marking %s)",
		d.Reason, d.ID, d.EventKind, d.Transition, d.FailedArcIndex, d.FailedArc, d.MarkingSnapshot)
}

// Build assembles a Diagnostic from a dispatch result that did not
// fire. m is consulted after the engine call returns, which is safe:
// Engine.Fire never mutates m on NotEnabled or UnboundPostVariable.
func Build(ev dispatch.Event, transitionName string, engRes engine.Result, m *marking.Marking) Diagnostic {
	reason := ProtocolViolation
	if engRes.Reason == engine.UnboundPostVariable {
		reason = UnboundPostVariable
	}

	var failedArc string
	if engRes.FailedArc != nil {
		failedArc = engRes.FailedArc.String()
	}

	fields := make(map[string]uint64, len(ev.Fields))
	for k, v := range ev.Fields {
		fields[k] = v
	}

	return Diagnostic{
		ID:              uuid.New(),
		Reason:          reason,
		EventKind:       ev.Kind,
		EventFields:     fields,
		Transition:      transitionName,
		FailedArcIndex:  engRes.FailedArcIndex,
		FailedArc:       failedArc,
		MarkingSnapshot: m.String(),
	}
}

// AbortError wraps a Diagnostic that terminates the interpreter: every
// UnboundPostVariable diagnostic, or a ProtocolViolation diagnostic
// under FailFast (spec §4.5, §7).
type AbortError struct {
	Diagnostic Diagnostic
}

func (e *AbortError) Error() string {
	return e.Diagnostic.Error()
}

// Decide applies policy to a Diagnostic. UnboundPostVariable always
// aborts, regardless of policy, because it signals a broken model
// rather than a protocol violation by the observed program (spec §7).
// A ProtocolViolation aborts only under FailFast; under Continue it
// returns nil so the caller records the diagnostic and keeps running.
func Decide(policy Policy, diag Diagnostic) error {
	if diag.Reason == UnboundPostVariable {
		return &AbortError{Diagnostic: diag}
	}
	if policy == FailFast {
		return &AbortError{Diagnostic: diag}
	}
	return nil
}
