package memtier

import (
	"math"

	"dtrsim/tensorid"

	"golang.org/x/exp/slices"
)

// DRAM is the unbounded host memory mirror (spec §3). It has no eviction,
// no capacity, and no trip counter: DRAM is host-side, and the simulator
// only counts DRAM<->SRAM boundary crossings.
type DRAM struct {
	residence map[tensorid.ID]int64
}

// NewDRAM builds an empty DRAM.
func NewDRAM() *DRAM {
	return &DRAM{residence: make(map[tensorid.ID]int64)}
}

// Put always succeeds on DRAM.
func (d *DRAM) Put(id tensorid.ID, size int64, _ bool) error {
	d.residence[id] = size
	return nil
}

// Get returns the recorded size of id.
func (d *DRAM) Get(id tensorid.ID) (int64, error) {
	size, ok := d.residence[id]
	if !ok {
		return 0, notResident("DRAM", id.String())
	}
	return size, nil
}

// Contains reports residency of id.
func (d *DRAM) Contains(id tensorid.ID) bool {
	_, ok := d.residence[id]
	return ok
}

// SizeAvailable is unbounded for DRAM.
func (d *DRAM) SizeAvailable() int64 { return math.MaxInt64 }

// SizeAllocated is always reported as 0 for DRAM (spec §4.A table).
func (d *DRAM) SizeAllocated() int64 { return 0 }

// SizeTotal is unbounded for DRAM.
func (d *DRAM) SizeTotal() int64 { return math.MaxInt64 }

// ToVec returns resident IDs in ascending order.
func (d *DRAM) ToVec() []tensorid.ID {
	ids := make([]tensorid.ID, 0, len(d.residence))
	for id := range d.residence {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Store is a no-op on DRAM: DRAM never writes further back, since it is
// the terminal tier (spec §3: "DRAM: An unbounded map ... No eviction, no
// capacity, no trip counter").
func (d *DRAM) Store(tensorid.ID, bool, Memory) error { return nil }

// Deallocate removes id from residence.
func (d *DRAM) Deallocate(id tensorid.ID) error {
	if _, ok := d.residence[id]; !ok {
		return notResident("DRAM", id.String())
	}
	delete(d.residence, id)
	return nil
}

// Reset clears all state.
func (d *DRAM) Reset() { d.residence = make(map[tensorid.ID]int64) }

var _ Memory = (*DRAM)(nil)
