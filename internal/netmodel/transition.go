package netmodel

// Transition is named and has an ordered list of pre-arcs and
// post-arcs (spec §3). The variables appearing in pre-arcs are its
// formal parameter set; post-arc variables must be a subset of those
// bound by pre-arcs and/or supplied by the triggering event — that
// cross-check happens at config-load time (internal/config), since it
// needs the event field→variable schema as well as the transition.
type Transition struct {
	Name string
	Pre  []Arc
	Post []Arc
}

// NewTransition creates a transition with the given pre/post arcs,
// preserving declaration order (order matters: spec §4.3 processes
// pre-arcs "in order").
func NewTransition(name string, pre, post []Arc) *Transition {
	return &Transition{Name: name, Pre: pre, Post: post}
}

// PreVariables returns the set of variable names appearing in pre-arcs,
// in first-occurrence order.
func (t *Transition) PreVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, arc := range t.Pre {
		if arc.IsVariable() && !seen[arc.Var] {
			seen[arc.Var] = true
			out = append(out, arc.Var)
		}
	}
	return out
}

// PostVariables returns the set of variable names appearing in
// post-arcs, in first-occurrence order.
func (t *Transition) PostVariables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, arc := range t.Post {
		if arc.IsVariable() && !seen[arc.Var] {
			seen[arc.Var] = true
			out = append(out, arc.Var)
		}
	}
	return out
}
