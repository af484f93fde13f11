package config

import (
	"sort"

	"github.com/pkg/errors"

	"go-cpn-monitor/internal/dispatch"
)

// validateReferential implements the checks spec §6.1 lists that a
// JSON Schema can't express: they need the parsed document's
// cross-references, not just its shape.
func validateReferential(doc *docJSON) error {
	if err := validateArcPatterns(doc); err != nil {
		return err
	}
	if err := validateEventMapping(doc); err != nil {
		return err
	}
	if err := validatePostArcVariablesBound(doc); err != nil {
		return err
	}
	return nil
}

// validateArcPatterns re-checks "exactly one of variable or
// (kind,value)" per arc on the parsed document, reporting the
// transition and arc index. The schema pass already enforces this and
// Load always runs it first, so a document reaching this check through
// Load has already passed it.
func validateArcPatterns(doc *docJSON) error {
	for _, name := range sortedTransitionNames(doc.Transitions) {
		tj := doc.Transitions[name]
		if err := validateArcList(name, "pre", tj.Pre); err != nil {
			return err
		}
		if err := validateArcList(name, "post", tj.Post); err != nil {
			return err
		}
	}
	return nil
}

func validateArcList(transition, side string, arcs []arcJSON) error {
	for i, aj := range arcs {
		switch {
		case aj.isVariable() && aj.isConcrete():
			return errors.Errorf("transition %q %s-arc[%d] (place %q) has both a variable and a concrete pattern", transition, side, i, aj.Place)
		case !aj.isVariable() && !aj.isConcrete():
			return errors.Errorf("transition %q %s-arc[%d] (place %q) has neither a variable nor a concrete pattern", transition, side, i, aj.Place)
		case aj.isConcrete() && (aj.Kind == "" || aj.Value == nil):
			return errors.Errorf("transition %q %s-arc[%d] (place %q) has a concrete pattern missing kind or value", transition, side, i, aj.Place)
		}
	}
	return nil
}

// validateEventMapping checks that every transition event_mapping
// names actually exists.
func validateEventMapping(doc *docJSON) error {
	for _, kind := range sortedEventKinds(doc.EventMapping) {
		transition := doc.EventMapping[kind]
		if _, ok := doc.Transitions[transition]; !ok {
			return errors.Errorf("event_mapping[%q] refers to undefined transition %q", kind, transition)
		}
	}
	return nil
}

// validatePostArcVariablesBound checks that every post-arc variable is
// bound by some pre-arc of the same transition, or by an event field
// of some event kind mapped to it (spec §6.1's "post-arc variable not
// bound by any pre-arc or event field"). Because event_mapping is
// static, which event kinds can trigger a transition is known entirely
// at load time.
func validatePostArcVariablesBound(doc *docJSON) error {
	eventVarsByTransition := make(map[string]map[string]bool)
	for _, kind := range sortedEventKinds(doc.EventMapping) {
		transition := doc.EventMapping[kind]
		if eventVarsByTransition[transition] == nil {
			eventVarsByTransition[transition] = make(map[string]bool)
		}
		for _, v := range dispatch.VariablesForEventKind(kind) {
			eventVarsByTransition[transition][v] = true
		}
	}

	for _, name := range sortedTransitionNames(doc.Transitions) {
		tj := doc.Transitions[name]
		bound := make(map[string]bool)
		for _, aj := range tj.Pre {
			if aj.isVariable() {
				bound[aj.Variable] = true
			}
		}
		for v := range eventVarsByTransition[name] {
			bound[v] = true
		}

		for i, aj := range tj.Post {
			if aj.isVariable() && !bound[aj.Variable] {
				return errors.Errorf("transition %q post-arc[%d] variable %q is bound by no pre-arc and no event field mapped to it", name, i, aj.Variable)
			}
		}
	}
	return nil
}

func sortedEventKinds(eventMapping map[string]string) []string {
	kinds := make([]string, 0, len(eventMapping))
	for k := range eventMapping {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
