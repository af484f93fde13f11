// Package color implements the token/color model of the CPN monitor:
// tokens are immutable (Kind, Value) pairs with structural equality and
// a stable total order, used everywhere a deterministic choice between
// tokens must be made.
package color

import "fmt"

// Token is a tagged value (Kind, Value). Kind is a short symbolic tag
// drawn from a model-defined set (e.g. "Lock", "Thread", "Loc"); Value
// is an unsigned integer identity, typically a runtime address or a
// stable id minted by the interpreter. Tokens are immutable and compare
// by (Kind, Value).
type Token struct {
	Kind  string
	Value uint64
}

// New creates a token with the given kind and value.
func New(kind string, value uint64) Token {
	return Token{Kind: kind, Value: value}
}

// Equals reports whether two tokens have the same kind and value.
func (t Token) Equals(other Token) bool {
	return t.Kind == other.Kind && t.Value == other.Value
}

// Less implements the tie-break order of spec §4.3: lexicographic by
// Kind, then numeric by Value. It is the order every greedy-smallest
// selection and every stable iteration is defined in terms of.
func (t Token) Less(other Token) bool {
	if t.Kind != other.Kind {
		return t.Kind < other.Kind
	}
	return t.Value < other.Value
}

// String returns a compact, deterministic representation used in log
// records and diagnostics.
func (t Token) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.Value)
}

// Compare returns -1, 0, or 1 following the same order as Less, for use
// by sort.Slice and the multiset's stable iteration.
func Compare(a, b Token) int {
	switch {
	case a.Kind < b.Kind:
		return -1
	case a.Kind > b.Kind:
		return 1
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}
