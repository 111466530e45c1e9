// Package tensorid defines the two identifier spaces used across dtrsim:
// SourceID, minted by the equality-saturation engine that produced the
// input DAG, and ID, the canonical, simulator-visible identifier that
// results from collapsing equivalence classes of source nodes that name
// the same tensor.
package tensorid

import "fmt"

// SourceID names a node inside the input DAG, before canonicalization.
type SourceID uint64

// ID is a canonical tensor identifier. It is opaque, totally ordered, and
// cheaply comparable/hashable — a plain uint64 satisfies all three without
// forcing every package in this module to be generic over the ID
// representation (spec §9 "Design Notes").
type ID uint64

func (id ID) String() string { return fmt.Sprintf("%d", uint64(id)) }

// Translation maps source IDs to their canonical ID. A translation is
// supplied by the DAG's producer (spec §6); every simulator-visible ID must
// pass through it before use (spec §9: "apply translation at every
// boundary rather than only at the root").
type Translation map[SourceID]ID

// Canonicalize resolves a source ID to its canonical ID. It is for callers
// whose translation is total (the lowering pass itself uses Resolve and a
// StructuralHash fallback instead); a missing entry here is treated as a
// caller bug, not a recoverable condition, so Canonicalize panics rather
// than returning an error the way a true contract violation does elsewhere
// in this module (see internal/apperr for the cases that can legitimately
// arise from a malformed DAG instead of a broken translation table).
func (t Translation) Canonicalize(src SourceID) ID {
	id, ok := t[src]
	if !ok {
		panic(fmt.Sprintf("tensorid: no translation entry for source id %d", uint64(src)))
	}
	return id
}

// Resolve is Canonicalize's non-panicking counterpart: it reports whether
// src has an explicit entry instead of treating a miss as a caller bug.
// The lowering pass uses this to detect when it must fall back to
// StructuralHash (spec §3/§9) rather than trusting every source id to be
// pre-translated.
func (t Translation) Resolve(src SourceID) (ID, bool) {
	id, ok := t[src]
	return id, ok
}

// Set is a small, explicit set of canonical IDs — used throughout jitsim
// for pin/exclude sets (spec §4.E, §5).
type Set map[ID]struct{}

// NewSet builds a Set from the given IDs.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is a member of s. A nil Set contains nothing.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into s.
func (s Set) Add(id ID) { s[id] = struct{}{} }
