// Package heuristic implements the pluggable eviction heuristic described
// in spec §4.B: Random and Recency (LRU). Grounded on
// original_source/src/heuristics.rs (AD1024/simge), with the LRU variant
// built around a monotonically-increasing touch counter rather than the
// original's wall-clock timestamps, per spec §9's own redesign note
// ("deterministic under tests and avoids timestamp collisions").
package heuristic

import "dtrsim/tensorid"

// Heuristic selects eviction victims and tracks whatever bookkeeping it
// needs to do so (spec §3 "Heuristic state").
type Heuristic interface {
	// Choose returns a victim from snapshot that is not present in
	// exclude, or ok=false if no such candidate exists.
	Choose(snapshot []tensorid.ID, exclude tensorid.Set) (victim tensorid.ID, ok bool)
	// Touch notifies the heuristic that id was accessed.
	Touch(id tensorid.ID, size int64)
	// Evict notifies the heuristic that id is no longer resident.
	Evict(id tensorid.ID)
}
