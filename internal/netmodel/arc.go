// Package netmodel holds the static description of a Colored Petri
// Net: places, transitions, their pre/post arcs and token patterns, and
// the initial marking. It has no notion of "currently firing" — that
// belongs to internal/engine.
package netmodel

import (
	"fmt"

	"go-cpn-monitor/internal/color"
)

// Arc is a pre-arc or post-arc of a transition, annotated with a token
// pattern (spec §3): either a Variable pattern (token color bound to a
// named variable) or a Concrete pattern (a specific, fixed token).
// Exactly one of Var / Concrete applies; IsVariable distinguishes them.
type Arc struct {
	Place    string      // place this arc connects to
	Var      string      // set when this is a variable pattern
	Concrete color.Token // set when this is a concrete pattern
	concrete bool        // discriminant: true iff Concrete is meaningful
}

// VarArc builds a variable-pattern arc {place, var}.
func VarArc(place, variable string) Arc {
	return Arc{Place: place, Var: variable}
}

// ConcreteArc builds a concrete-pattern arc {place, kind, value}.
func ConcreteArc(place string, tok color.Token) Arc {
	return Arc{Place: place, Concrete: tok, concrete: true}
}

// IsVariable reports whether this arc is a variable pattern.
func (a Arc) IsVariable() bool {
	return !a.concrete
}

// IsConcrete reports whether this arc is a concrete pattern.
func (a Arc) IsConcrete() bool {
	return a.concrete
}

// String renders the arc pattern for diagnostics.
func (a Arc) String() string {
	if a.concrete {
		return fmt.Sprintf("%s:%s", a.Place, a.Concrete.String())
	}
	return fmt.Sprintf("%s:%s", a.Place, a.Var)
}
