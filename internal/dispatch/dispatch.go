package dispatch

import (
	"log"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-cpn-monitor/internal/color"
	"go-cpn-monitor/internal/engine"
	"go-cpn-monitor/internal/marking"
	"go-cpn-monitor/internal/netmodel"
)

// Outcome classifies what a Dispatch call did.
type Outcome string

const (
	// OutcomeIgnored means the event produced no firing attempt at
	// all: either its kind isn't in the dispatcher's schema
	// (UnknownEventKind), or the model's event_mapping has no entry
	// for it (the model declares disinterest, spec §4.4 step 1).
	OutcomeIgnored Outcome = "Ignored"
	// OutcomeFired means the mapped transition fired.
	OutcomeFired Outcome = "Fired"
	// OutcomeViolation means the mapped transition did not fire: either
	// it was not enabled (a protocol violation attributable to the
	// program, model, or mapping, spec §1/§4.5) or a post-arc variable
	// was left unbound (a model bug, spec §7). Engine.Reason in the
	// Result tells the two apart.
	OutcomeViolation Outcome = "Violation"
)

// Result is what Dispatch reports for one event.
type Result struct {
	Outcome        Outcome
	TransitionName string        // empty when Outcome == OutcomeIgnored
	Engine         engine.Result // zero value when Outcome == OutcomeIgnored
}

// Dispatcher owns the pieces needed to turn one incoming event into a
// transition firing attempt: the net (for home-place inference), the
// model's event_mapping, and the transition engine itself.
type Dispatcher struct {
	net          *netmodel.Net
	eventMapping map[string]string // event kind -> transition name
	eng          *engine.Engine

	// homeCache memoizes Kind -> inferred home place, so repeated
	// lazy-mint checks for the same hot dynamic-identity kind don't
	// rescan every arc in the net on every event (spec §4.4/§9).
	homeCache *lru.Cache[string, homeLookup]
}

type homeLookup struct {
	place string
	found bool
}

// New creates a dispatcher over net, wired to fire through eng using
// eventMapping (event kind name -> transition name, from the loaded
// configuration).
func New(net *netmodel.Net, eventMapping map[string]string, eng *engine.Engine) *Dispatcher {
	cache, err := lru.New[string, homeLookup](64)
	if err != nil {
		// Only returns an error for a non-positive size, which 64 never
		// triggers; panicking here would be unreachable in practice.
		cache = nil
	}
	return &Dispatcher{net: net, eventMapping: eventMapping, eng: eng, homeCache: cache}
}

// Dispatch handles one incoming event against m, per spec §4.4.
func (d *Dispatcher) Dispatch(ev Event, m *marking.Marking) Result {
	schema, known := schemas[ev.Kind]
	if !known {
		return Result{Outcome: OutcomeIgnored}
	}

	transitionName, mapped := d.eventMapping[ev.Kind]
	if !mapped {
		return Result{Outcome: OutcomeIgnored}
	}

	transition, ok := d.net.Transition(transitionName)
	if !ok {
		// The loader guarantees every mapped transition exists
		// (ConfigInvalid otherwise); defensive fallback only.
		return Result{Outcome: OutcomeIgnored}
	}

	binding := netmodel.NewBinding()
	var minted []mintedOccurrence
	for _, fb := range schema.Bindings {
		value, present := ev.Fields[fb.Field]
		if !present {
			continue
		}
		tok := color.New(fb.Kind, value)
		if place, ok := d.ensureMinted(tok, m); ok {
			minted = append(minted, mintedOccurrence{place: place, tok: tok})
		}
		binding.Extend(fb.Var, tok)
	}

	result := d.eng.Fire(transition, binding, m)

	outcome := OutcomeFired
	switch result.Reason {
	case engine.NotEnabled, engine.UnboundPostVariable:
		outcome = OutcomeViolation
		// A violating event must leave the marking exactly as it found
		// it (spec §4.5, §8 scenario 2): undo any lazy mint performed
		// while building this event's binding, since it turned out not
		// to make the transition enabled after all.
		for _, mo := range minted {
			m.RemoveOne(mo.place, mo.tok)
		}
	}
	return Result{Outcome: outcome, TransitionName: transitionName, Engine: result}
}

// mintedOccurrence records a token ensureMinted inserted into the
// marking so Dispatch can undo it if the event turns out to violate.
type mintedOccurrence struct {
	place string
	tok   color.Token
}

// ensureMinted realizes "lock tokens added on first seen" (spec §4.4
// step 2, §9): if tok is not present anywhere in the marking yet, and
// the net declares an unambiguous home place for tok.Kind, insert one
// occurrence of tok there before the event is otherwise processed.
// Reports the place it minted into, and whether it minted anything at
// all — a no-op when the token already exists somewhere, or when no
// home place can be inferred.
func (d *Dispatcher) ensureMinted(tok color.Token, m *marking.Marking) (string, bool) {
	for _, place := range m.PlaceNames() {
		if m.Contains(place, tok) {
			return "", false
		}
	}

	home, ok := d.homePlace(tok.Kind)
	if !ok {
		log.Printf("cpn monitor: no defensible home place for dynamic id %s; first appearance not minted", tok)
		return "", false
	}
	m.Insert(home, tok)
	return home, true
}

// homePlace infers the home place for a token kind, per spec §4.4/§9:
// any place that appears in a pre-arc either with a concrete pattern of
// that kind, or with a variable pattern the fixed event schema always
// fills with that kind (kindToVars), disambiguated — when more than one
// candidate exists — by which candidate the configuration also
// explicitly lists as an initial_marking key.
func (d *Dispatcher) homePlace(kind string) (string, bool) {
	if d.homeCache != nil {
		if cached, ok := d.homeCache.Get(kind); ok {
			return cached.place, cached.found
		}
	}

	place, found := d.inferHomePlace(kind)
	if d.homeCache != nil {
		d.homeCache.Add(kind, homeLookup{place: place, found: found})
	}
	return place, found
}

func (d *Dispatcher) inferHomePlace(kind string) (string, bool) {
	vars := kindToVars[kind]
	candidates := make(map[string]bool)
	for _, t := range d.net.Transitions() {
		for _, arc := range t.Pre {
			if arc.IsConcrete() && arc.Concrete.Kind == kind {
				candidates[arc.Place] = true
				continue
			}
			if arc.IsVariable() && containsStr(vars, arc.Var) {
				// A pre-arc binding a variable the fixed event schema
				// always fills with a token of this kind (spec §6.2)
				// is as good a signal of "this place holds tokens of
				// kind X" as a literal concrete-pattern arc would be.
				candidates[arc.Place] = true
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		for place := range candidates {
			return place, true
		}
	}

	// Ambiguous: narrow by explicit initial_marking declaration.
	var explicit []string
	for place := range candidates {
		if _, declared := d.net.InitialMarking[place]; declared {
			explicit = append(explicit, place)
		}
	}
	if len(explicit) == 1 {
		return explicit[0], true
	}

	sort.Strings(explicit)
	log.Printf("cpn monitor: ambiguous home place for kind %s among %v (initial_marking narrows to %v)", kind, sortedKeys(candidates), explicit)
	return "", false
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
