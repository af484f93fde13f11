// Package dispatch implements the event→transition dispatcher of spec
// §4.4: looking up the transition a given event kind maps to, building
// an initial binding from the event's fields per the fixed field→
// variable schema of spec §6.2, lazily minting tokens for first-seen
// dynamic identities, and handing the result to the transition engine.
package dispatch

import "sort"

// Event is a tagged record carrying a fixed set of fields per kind
// (spec §3, §6.2). Fields are the dynamic-identity values (thread ids,
// lock ids, memory locations) the interpreter reports; they are always
// unsigned 64-bit values, address-derived.
type Event struct {
	Kind   string
	Fields map[string]uint64
}

// fieldBinding is one entry of an event kind's fixed field→variable
// mapping: the event field named Field is bound to variable Var as a
// token of kind Kind (spec §6.2's "Default variable binding" column).
type fieldBinding struct {
	Field string
	Var   string
	Kind  string
}

// eventSchema describes the fields an event kind carries and which of
// them produce variable bindings.
type eventSchema struct {
	Fields   []string
	Bindings []fieldBinding
}

// schemas is the fixed table of spec §6.2. It is not configurable by
// the model — only the event_mapping (event kind → transition name) is
// supplied by the configuration document.
var schemas = map[string]eventSchema{
	"ThreadSpawn": {
		Fields: []string{"parent", "child"},
		Bindings: []fieldBinding{
			{Field: "child", Var: "T", Kind: "Thread"},
			{Field: "parent", Var: "P", Kind: "Thread"},
		},
	},
	"ThreadJoin": {
		Fields: []string{"thread", "joined"},
		Bindings: []fieldBinding{
			{Field: "joined", Var: "T", Kind: "Thread"},
		},
	},
	"Yield": {
		Fields: []string{"thread"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
		},
	},
	"Block": {
		Fields: []string{"thread", "on"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
			{Field: "on", Var: "L", Kind: "Lock"},
		},
	},
	"Wake": {
		Fields: []string{"thread"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
		},
	},
	"LockAcquire": {
		Fields: []string{"thread", "lock_id"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
			{Field: "lock_id", Var: "L", Kind: "Lock"},
		},
	},
	"LockRelease": {
		Fields: []string{"thread", "lock_id"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
			{Field: "lock_id", Var: "L", Kind: "Lock"},
		},
	},
	"AtomicLoad": {
		Fields: []string{"thread", "loc"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
			{Field: "loc", Var: "X", Kind: "Loc"},
		},
	},
	"AtomicStore": {
		Fields: []string{"thread", "loc"},
		Bindings: []fieldBinding{
			{Field: "thread", Var: "T", Kind: "Thread"},
			{Field: "loc", Var: "X", Kind: "Loc"},
		},
	},
}

// kindToVars inverts schemas into Kind -> the canonical arc variable
// names the fixed event schema always fills with a token of that kind
// (e.g. "Lock" -> ["L"]). A model's transitions bind these same names
// in their own arcs so the dispatcher's event-derived binding unifies
// with them; that makes a pre-arc using one of these names as good a
// home-place signal as a literal concrete-pattern arc (spec §4.4/§9).
var kindToVars = func() map[string][]string {
	seen := map[string]map[string]bool{}
	for _, sch := range schemas {
		for _, fb := range sch.Bindings {
			if seen[fb.Kind] == nil {
				seen[fb.Kind] = map[string]bool{}
			}
			seen[fb.Kind][fb.Var] = true
		}
	}
	out := make(map[string][]string, len(seen))
	for kind, vars := range seen {
		list := make([]string, 0, len(vars))
		for v := range vars {
			list = append(list, v)
		}
		out[kind] = list
	}
	return out
}()

// KnownEventKinds returns the event kind names the dispatcher's fixed
// schema recognizes, sorted for deterministic iteration by callers
// (e.g. a config validator cross-checking event_mapping keys).
func KnownEventKinds() []string {
	kinds := make([]string, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// IsKnownEventKind reports whether kind is one of the fixed schema's
// recognized event kinds.
func IsKnownEventKind(kind string) bool {
	_, ok := schemas[kind]
	return ok
}

// VariablesForEventKind returns the variable names the fixed schema
// binds for kind (e.g. "LockAcquire" -> ["T", "L"]), or nil if kind is
// not recognized. Used by internal/config to statically check that
// every post-arc variable is bound by some pre-arc or by an event
// field, per spec §6.1's "post-arc variable not bound" validation
// error.
func VariablesForEventKind(kind string) []string {
	sch, ok := schemas[kind]
	if !ok {
		return nil
	}
	vars := make([]string, 0, len(sch.Bindings))
	for _, fb := range sch.Bindings {
		vars = append(vars, fb.Var)
	}
	return vars
}
