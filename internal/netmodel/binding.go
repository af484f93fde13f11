package netmodel

import "go-cpn-monitor/internal/color"

// Binding is a map from variable name to the token it is bound to
// (spec §4.2). It is the working state threaded through enabledness
// checking and firing.
type Binding map[string]color.Token

// NewBinding returns an empty binding.
func NewBinding() Binding {
	return make(Binding)
}

// Clone returns an independent copy of the binding.
func (b Binding) Clone() Binding {
	clone := make(Binding, len(b))
	for k, v := range b {
		clone[k] = v
	}
	return clone
}

// Extend attempts to bind variable to tok. If the variable is already
// bound to a different token this is a unification conflict and
// Extend returns false, leaving the binding unchanged. Binding the same
// variable to the same token again is a no-op success.
func (b Binding) Extend(variable string, tok color.Token) bool {
	if existing, ok := b[variable]; ok {
		return existing.Equals(tok)
	}
	b[variable] = tok
	return true
}

// Apply resolves the concrete token an arc refers to under this
// binding: a concrete pattern resolves to its fixed token; a variable
// pattern resolves to the bound token, or fails if unbound.
func (b Binding) Apply(arc Arc) (color.Token, bool) {
	if arc.IsConcrete() {
		return arc.Concrete, true
	}
	tok, ok := b[arc.Var]
	return tok, ok
}
