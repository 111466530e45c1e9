// Package memtier implements the memory tier described in spec §3/§4.A:
// SRAM, an accelerator's finite, evicting fast memory, and DRAM, the
// unbounded host memory mirror. Grounded on original_source/src/memory.rs
// (AD1024/simge), transcribed method-for-method with Go error returns in
// place of Rust panics/asserts for the conditions spec §7 calls out as
// fatal-but-diagnosable (residency violations), while Go's own panic is
// kept for conditions that indicate a caller bug rather than a DTR-level
// failure (e.g. a translation-map miss lives in tensorid, not here).
package memtier

import (
	"dtrsim/internal/apperr"
	"dtrsim/tensorid"
)

// Memory is the contract shared by SRAM and DRAM (spec §4.A table).
type Memory interface {
	// Put records id as resident with the given size. DRAM overwrites an
	// existing entry; SRAM rejects a double put and a put beyond capacity.
	// fromSelf distinguishes material produced in place (a Compute) from
	// material arriving via a transfer (a Load or a cross-memory Store);
	// only the latter counts as a trip for a capacity-bound memory.
	Put(id tensorid.ID, size int64, fromSelf bool) error
	// Get returns the recorded size of id, or an error if id is not
	// resident.
	Get(id tensorid.ID) (int64, error)
	// Contains reports residency of id without erroring.
	Contains(id tensorid.ID) bool
	// SizeAvailable, SizeAllocated, SizeTotal report capacity accounting.
	SizeAvailable() int64
	SizeAllocated() int64
	SizeTotal() int64
	// ToVec snapshots resident IDs in the memory's natural key order
	// (ascending ID, mirroring a BTreeMap's iteration order in the
	// original).
	ToVec() []tensorid.ID
	// Store copies (id, size) to other with fromSelf=false, and — if
	// evict — removes id from self and records it in the evicted set.
	// Unconditionally increments self's trip counter (spec §9 Open
	// Question, resolved: store traffic always counts as a trip). DRAM's
	// Store does nothing: it copies nothing and has no trip counter.
	Store(id tensorid.ID, evict bool, other Memory) error
	// Deallocate removes id from self without touching other memories.
	Deallocate(id tensorid.ID) error
	// Reset clears all state except capacity.
	Reset()
}

func notResident(kind, idStr string) error {
	return apperr.New(apperr.CodeResidencyViolation, idStr, "no residence for id in "+kind)
}
