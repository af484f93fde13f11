// Package marking implements the CPN monitor's marking store: a total
// map from place name to token multiset, with deterministic ordered
// iteration and a stable 64-bit hash.
package marking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"go-cpn-monitor/internal/color"
)

// Marking is the sole mutable state of the monitor: a total map over
// declared places (places may be empty; absent keys behave as empty).
type Marking struct {
	places map[string]Multiset
}

// New creates an empty marking.
func New() *Marking {
	return &Marking{places: make(map[string]Multiset)}
}

// Insert adds one occurrence of tok to place.
func (m *Marking) Insert(place string, tok color.Token) {
	ms, ok := m.places[place]
	if !ok {
		ms = NewMultiset()
		m.places[place] = ms
	}
	ms.Insert(tok)
}

// RemoveOne removes one occurrence of tok from place. Returns whether
// removal succeeded. An empty place resulting from the removal is left
// in the map as an empty multiset so iteration order over declared
// places stays stable; it contributes nothing to the hash.
func (m *Marking) RemoveOne(place string, tok color.Token) bool {
	ms, ok := m.places[place]
	if !ok {
		return false
	}
	return ms.RemoveOne(tok)
}

// Contains reports whether place holds at least one occurrence of tok.
func (m *Marking) Contains(place string, tok color.Token) bool {
	ms, ok := m.places[place]
	if !ok {
		return false
	}
	return ms.Contains(tok)
}

// Count returns the number of occurrences of tok in place.
func (m *Marking) Count(place string, tok color.Token) int {
	ms, ok := m.places[place]
	if !ok {
		return 0
	}
	return ms.Count(tok)
}

// Multiset returns the multiset at place (an empty one if the place
// has never been touched). The returned value must not be mutated by
// callers outside this package.
func (m *Marking) Multiset(place string) Multiset {
	if ms, ok := m.places[place]; ok {
		return ms
	}
	return NewMultiset()
}

// EnsurePlace makes place present in the marking (as an empty multiset
// if it doesn't already hold tokens), so that places declared only via
// initial_marking with no tokens still iterate deterministically.
func (m *Marking) EnsurePlace(place string) {
	if _, ok := m.places[place]; !ok {
		m.places[place] = NewMultiset()
	}
}

// PlaceNames returns the sorted names of all places known to the
// marking (including empty ones registered via EnsurePlace/Insert).
func (m *Marking) PlaceNames() []string {
	names := make([]string, 0, len(m.places))
	for name := range m.places {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Triple is one (place, token, count) entry of a stable traversal.
type Triple struct {
	Place string
	Token color.Token
	Count int
}

// IterStable yields (place, token, count) triples sorted by place
// name, then by (Kind, Value) — the traversal required for hashing and
// logging (spec §4.1). Empty places yield no triples.
func (m *Marking) IterStable() []Triple {
	var out []Triple
	for _, place := range m.PlaceNames() {
		ms := m.places[place]
		for _, tok := range ms.Tokens() {
			out = append(out, Triple{Place: place, Token: tok, Count: ms.Count(tok)})
		}
	}
	return out
}

// Hash computes a deterministic 64-bit digest of the marking by
// folding IterStable through xxhash. Because empty places contribute
// no triples, inserting then removing a token restores the prior hash,
// and because traversal order only depends on place name then token
// order, independent insertions into distinct places commute.
func (m *Marking) Hash() uint64 {
	d := xxhash.New()
	for _, tr := range m.IterStable() {
		fmt.Fprintf(d, "%s|%s|%d;", tr.Place, tr.Token.String(), tr.Count)
	}
	return d.Sum64()
}

// IsEmpty reports whether every place in the marking holds zero
// tokens.
func (m *Marking) IsEmpty() bool {
	for _, ms := range m.places {
		if !ms.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the marking.
func (m *Marking) Clone() *Marking {
	clone := New()
	for place, ms := range m.places {
		clone.places[place] = ms.Clone()
	}
	return clone
}

// Reset clears the marking back to empty, in place. Used by
// OnExecutionEnd to reseed the next model-checker exploration from
// initial_marking without allocating a fresh Marking.
func (m *Marking) Reset() {
	for place := range m.places {
		delete(m.places, place)
	}
}

// String renders a compact, deterministic textual snapshot, used as the
// marking summary in violation diagnostics.
func (m *Marking) String() string {
	var parts []string
	for _, place := range m.PlaceNames() {
		ms := m.places[place]
		if ms.IsEmpty() {
			continue
		}
		var toks []string
		for _, tok := range ms.Tokens() {
			n := ms.Count(tok)
			if n == 1 {
				toks = append(toks, tok.String())
			} else {
				toks = append(toks, fmt.Sprintf("%d`%s", n, tok.String()))
			}
		}
		parts = append(parts, fmt.Sprintf("%s: {%s}", place, strings.Join(toks, ", ")))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
