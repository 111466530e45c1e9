package heuristic

import (
	"math/rand"

	"dtrsim/internal/setutil"
	"dtrsim/tensorid"
)

// Random picks a uniformly random victim from the allowed set. Touch and
// Evict are no-ops (spec §4.B). The original (RandomEviction in
// heuristics.rs) drew from rand::thread_rng(), which is not reproducible;
// spec §5 calls for a seeded RNG so that test runs are deterministic, so
// Random wraps a *rand.Rand built from a caller-supplied seed instead.
type Random struct {
	rng *rand.Rand
}

// NewRandom builds a Random heuristic seeded with seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Choose implements Heuristic.
func (r *Random) Choose(snapshot []tensorid.ID, exclude tensorid.Set) (tensorid.ID, bool) {
	allowed := setutil.Subtract(snapshot, exclude)
	if len(allowed) == 0 {
		return 0, false
	}
	return allowed[r.rng.Intn(len(allowed))], true
}

// Touch is a no-op for Random.
func (r *Random) Touch(tensorid.ID, int64) {}

// Evict is a no-op for Random.
func (r *Random) Evict(tensorid.ID) {}

var _ Heuristic = (*Random)(nil)
