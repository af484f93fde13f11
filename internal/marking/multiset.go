package marking

import (
	"sort"

	"go-cpn-monitor/internal/color"
)

// Multiset is the token multiset held by a single place: counts per
// distinct token. Tokens are comparable (Kind, Value) pairs, so the
// count is kept directly rather than as a slice of token occurrences,
// the way the teacher's Multiset keyed a slice of *Token per value
// string — the occurrences themselves carry no identity beyond color.
type Multiset map[color.Token]int

// NewMultiset creates a new empty multiset.
func NewMultiset() Multiset {
	return make(Multiset)
}

// Insert adds one occurrence of tok.
func (ms Multiset) Insert(tok color.Token) {
	ms[tok]++
}

// RemoveOne removes one occurrence of tok. Returns whether a token was
// actually present to remove.
func (ms Multiset) RemoveOne(tok color.Token) bool {
	n, ok := ms[tok]
	if !ok || n <= 0 {
		return false
	}
	if n == 1 {
		delete(ms, tok)
	} else {
		ms[tok] = n - 1
	}
	return true
}

// Contains reports whether at least one occurrence of tok is present.
func (ms Multiset) Contains(tok color.Token) bool {
	return ms[tok] > 0
}

// Count returns the number of occurrences of tok.
func (ms Multiset) Count(tok color.Token) int {
	return ms[tok]
}

// Size returns the total number of token occurrences in the multiset.
func (ms Multiset) Size() int {
	total := 0
	for _, n := range ms {
		total += n
	}
	return total
}

// IsEmpty reports whether the multiset has no occurrences at all.
func (ms Multiset) IsEmpty() bool {
	return ms.Size() == 0
}

// Smallest returns the occurrence-bearing token with the smallest
// (Kind, Value) order, per spec §4.3's greedy tie-break policy, and
// whether the multiset is non-empty.
func (ms Multiset) Smallest() (color.Token, bool) {
	first := true
	var best color.Token
	for tok, n := range ms {
		if n <= 0 {
			continue
		}
		if first || color.Compare(tok, best) < 0 {
			best = tok
			first = false
		}
	}
	return best, !first
}

// Tokens returns the distinct tokens held, sorted by (Kind, Value) —
// the deterministic order required for hashing and logging.
func (ms Multiset) Tokens() []color.Token {
	toks := make([]color.Token, 0, len(ms))
	for tok, n := range ms {
		if n > 0 {
			toks = append(toks, tok)
		}
	}
	sort.Slice(toks, func(i, j int) bool { return color.Compare(toks[i], toks[j]) < 0 })
	return toks
}

// Clone returns a deep copy of the multiset.
func (ms Multiset) Clone() Multiset {
	clone := make(Multiset, len(ms))
	for tok, n := range ms {
		clone[tok] = n
	}
	return clone
}
