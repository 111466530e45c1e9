package heuristic

import (
	"dtrsim/tensorid"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LRU evicts the least-recently-touched resident tensor (spec §4.B). Each
// Touch removes any existing record for id and appends a fresh one
// stamped with a monotonically increasing tick; Choose returns the
// not-excluded record with the smallest tick. Because the tick is a
// strictly increasing counter (not a wall-clock timestamp), two distinct
// touches can never tie; candidates that were never touched do share the
// same (oldest) rank, and the secondary ordering by ascending ID below
// decides among them, so the choice never depends on snapshot order.
type LRU struct {
	tick    uint64
	touched map[tensorid.ID]uint64
}

// NewLRU builds an empty LRU heuristic.
func NewLRU() *LRU {
	return &LRU{touched: make(map[tensorid.ID]uint64)}
}

// Touch implements Heuristic.
func (l *LRU) Touch(id tensorid.ID, _ int64) {
	l.tick++
	l.touched[id] = l.tick
}

// Evict implements Heuristic.
func (l *LRU) Evict(id tensorid.ID) {
	delete(l.touched, id)
}

// Choose implements Heuristic: the candidate in snapshot\exclude with the
// oldest recorded tick. A candidate with no recorded tick (never touched)
// is treated as infinitely old, so it is evicted before anything that has
// been touched at least once.
func (l *LRU) Choose(snapshot []tensorid.ID, exclude tensorid.Set) (tensorid.ID, bool) {
	candidates := make([]tensorid.ID, 0, len(snapshot))
	for _, id := range snapshot {
		if exclude.Contains(id) {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return 0, false
	}
	// Sort by (tick ascending, id ascending) for a fully deterministic
	// selection regardless of map/slice iteration order.
	slices.SortFunc(candidates, func(a, b tensorid.ID) bool {
		ta, oka := l.touched[a]
		tb, okb := l.touched[b]
		va, vb := tickValue(ta, oka), tickValue(tb, okb)
		if va != vb {
			return va < vb
		}
		return a < b
	})
	return candidates[0], true
}

func tickValue(t uint64, ok bool) uint64 {
	if !ok {
		return 0
	}
	return t + 1
}

// Touched exposes a read-only snapshot of the current tick table, used by
// tests to assert on LRU ordering without reaching into unexported state.
func (l *LRU) Touched() map[tensorid.ID]uint64 {
	return maps.Clone(l.touched)
}

var _ Heuristic = (*LRU)(nil)
