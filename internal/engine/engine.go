// Package engine implements the CPN monitor's transition engine:
// enabledness checking and firing under a binding (spec §4.3). Given a
// transition and an initial binding supplied by the event dispatcher,
// it deterministically either fires the transition (consuming and
// producing tokens atomically) or reports why it could not.
package engine

import (
	"go-cpn-monitor/internal/color"
	"go-cpn-monitor/internal/marking"
	"go-cpn-monitor/internal/netmodel"
)

// Reason classifies the outcome of an attempted fire.
type Reason string

const (
	// Fired means the transition was enabled and has been fired; the
	// marking passed in has already been mutated.
	Fired Reason = "Fired"
	// NotEnabled means some pre-arc could not find a compatible token
	// under the binding; the marking is unchanged.
	NotEnabled Reason = "NotEnabled"
	// UnboundPostVariable means a post-arc referenced a variable that
	// neither pre-arcs nor the triggering event bound — a model bug,
	// not a program violation. The marking is unchanged.
	UnboundPostVariable Reason = "UnboundPostVariable"
)

// Result describes what happened when Engine.Fire was asked to fire a
// transition under an initial binding.
type Result struct {
	Reason Reason
	// Binding is the binding as completed so far: fully resolved on
	// Fired, partial (up to and including the failing arc) otherwise.
	Binding netmodel.Binding
	// FailedArc identifies the pre-arc (NotEnabled) or post-arc
	// (UnboundPostVariable) that could not be resolved. Nil on Fired.
	FailedArc *netmodel.Arc
	// FailedArcIndex is FailedArc's position in the transition's
	// Pre/Post slice (whichever FailedArc belongs to).
	FailedArcIndex int
}

// Engine fires transitions against a marking. It carries no state of
// its own; all mutable state lives in the *marking.Marking passed to
// Fire.
type Engine struct{}

// New creates a transition engine.
func New() *Engine {
	return &Engine{}
}

// Fire attempts to fire transition t under the initial binding
// (typically the variables bound from the triggering event's fields)
// against m. It implements spec §4.3 steps 1–6 in one call: pre-arcs
// are processed in declaration order with no backtracking; the first
// pre-arc that cannot find a compatible token yields NotEnabled with
// no mutation; otherwise post-arc tokens are resolved and, if all are
// bound, the tentative consumption/production list is committed
// atomically — no intermediate marking is ever observable.
func (e *Engine) Fire(t *netmodel.Transition, initial netmodel.Binding, m *marking.Marking) Result {
	binding := initial.Clone()

	type occurrence struct {
		place string
		tok   color.Token
	}
	consumptions := make([]occurrence, 0, len(t.Pre))

	// reserved tracks, per (place, token), how many occurrences earlier
	// pre-arcs in this same Fire call have already tentatively claimed.
	// Resolving against m directly would let two pre-arcs on the same
	// place (two unbound variables, or a concrete and a variable arc
	// drawing from a place with only one physical occurrence) both pick
	// the same token, double-counting it.
	reserved := make(map[reservationKey]int)

	for i := range t.Pre {
		arc := t.Pre[i]
		tok, ok := resolvePreArc(arc, binding, m, reserved)
		if !ok {
			return Result{Reason: NotEnabled, Binding: binding, FailedArc: &t.Pre[i], FailedArcIndex: i}
		}
		reserved[reservationKey{place: arc.Place, tok: tok}]++
		consumptions = append(consumptions, occurrence{place: arc.Place, tok: tok})
	}

	productions := make([]occurrence, 0, len(t.Post))
	for i := range t.Post {
		arc := t.Post[i]
		tok, ok := binding.Apply(arc)
		if !ok {
			return Result{Reason: UnboundPostVariable, Binding: binding, FailedArc: &t.Post[i], FailedArcIndex: i}
		}
		productions = append(productions, occurrence{place: arc.Place, tok: tok})
	}

	for _, c := range consumptions {
		m.RemoveOne(c.place, c.tok)
	}
	for _, p := range productions {
		m.Insert(p.place, p.tok)
	}

	return Result{Reason: Fired, Binding: binding}
}

// reservationKey identifies one (place, token) pair already tentatively
// claimed by an earlier pre-arc within the current Fire call.
type reservationKey struct {
	place string
	tok   color.Token
}

// resolvePreArc finds the token a single pre-arc contributes under the
// current binding, extending binding in place when a fresh variable is
// bound. It never mutates the marking; reserved records how many
// occurrences of each (place, token) pair earlier pre-arcs in this same
// call have already spoken for, so availability is checked against what
// actually remains rather than against the untouched marking.
func resolvePreArc(arc netmodel.Arc, binding netmodel.Binding, m *marking.Marking, reserved map[reservationKey]int) (color.Token, bool) {
	available := func(tok color.Token) int {
		return m.Count(arc.Place, tok) - reserved[reservationKey{place: arc.Place, tok: tok}]
	}

	if arc.IsConcrete() {
		if available(arc.Concrete) > 0 {
			return arc.Concrete, true
		}
		return color.Token{}, false
	}

	if bound, ok := binding[arc.Var]; ok {
		if available(bound) > 0 {
			return bound, true
		}
		return color.Token{}, false
	}

	// Unbound variable: pick the smallest available token by (Kind,
	// Value) — the deterministic, no-backtracking choice of spec §4.3 —
	// skipping any token already fully claimed by an earlier pre-arc.
	for _, tok := range m.Multiset(arc.Place).Tokens() {
		if available(tok) > 0 {
			binding.Extend(arc.Var, tok)
			return tok, true
		}
	}
	return color.Token{}, false
}
