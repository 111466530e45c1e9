package memtier

import (
	"fmt"

	"dtrsim/internal/apperr"
	"dtrsim/tensorid"

	"golang.org/x/exp/slices"
)

// SRAM is an accelerator's finite, evicting fast memory (spec §3). It
// tracks residency, capacity usage, an audit trail of evicted IDs, and the
// number of DRAM<->SRAM trips it has participated in.
type SRAM struct {
	residence    map[tensorid.ID]int64
	evicted      map[tensorid.ID]struct{}
	residentSize int64
	capacity     int64
	tripCount    int64
}

// NewSRAM builds an empty SRAM with the given byte capacity.
func NewSRAM(capacity int64) *SRAM {
	return &SRAM{
		residence: make(map[tensorid.ID]int64),
		evicted:   make(map[tensorid.ID]struct{}),
		capacity:  capacity,
	}
}

// TripCount returns the number of DRAM<->SRAM trips recorded so far.
func (s *SRAM) TripCount() int64 { return s.tripCount }

// Evicted reports whether id has ever been evicted from this SRAM.
func (s *SRAM) Evicted(id tensorid.ID) bool {
	_, ok := s.evicted[id]
	return ok
}

// Put inserts id into residence. It is a hard error to put an id that is
// already resident, or to exceed capacity.
func (s *SRAM) Put(id tensorid.ID, size int64, fromSelf bool) error {
	if _, ok := s.residence[id]; ok {
		return apperr.New(apperr.CodeResidencyViolation, id.String(), "double put: id already resident in SRAM")
	}
	if s.residentSize+size > s.capacity {
		return apperr.New(apperr.CodeResidencyViolation, id.String(),
			fmt.Sprintf("OOM on SRAM: trying to allocate %d; usage %d/%d", size, s.residentSize, s.capacity))
	}
	s.residence[id] = size
	s.residentSize += size
	if !fromSelf {
		s.tripCount++
	}
	return nil
}

// Get returns the recorded size of id.
func (s *SRAM) Get(id tensorid.ID) (int64, error) {
	size, ok := s.residence[id]
	if !ok {
		return 0, notResident("SRAM", id.String())
	}
	return size, nil
}

// Contains reports residency of id.
func (s *SRAM) Contains(id tensorid.ID) bool {
	_, ok := s.residence[id]
	return ok
}

// SizeAvailable returns the remaining capacity.
func (s *SRAM) SizeAvailable() int64 { return s.capacity - s.residentSize }

// SizeAllocated returns the currently-resident byte total.
func (s *SRAM) SizeAllocated() int64 { return s.residentSize }

// SizeTotal returns the fixed SRAM capacity.
func (s *SRAM) SizeTotal() int64 { return s.capacity }

// ToVec returns resident IDs in ascending order (a BTreeMap-equivalent
// deterministic iteration order).
func (s *SRAM) ToVec() []tensorid.ID {
	ids := make([]tensorid.ID, 0, len(s.residence))
	for id := range s.residence {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Store moves (id, size) to other. If evict, id is removed from this SRAM
// and recorded in the evicted set; otherwise a copy is left resident.
// Store always increments this SRAM's trip counter — see spec §9's Open
// Question, resolved in favor of counting writeback traffic regardless of
// whether the local copy is retained.
func (s *SRAM) Store(id tensorid.ID, evict bool, other Memory) error {
	size, ok := s.residence[id]
	if !ok {
		return apperr.New(apperr.CodeResidencyViolation, id.String(), "evicting non-resident id from SRAM")
	}
	if evict {
		delete(s.residence, id)
		s.evicted[id] = struct{}{}
		s.residentSize -= size
	}
	s.tripCount++
	return other.Put(id, size, false)
}

// Deallocate removes id from residence without touching any other memory.
func (s *SRAM) Deallocate(id tensorid.ID) error {
	size, ok := s.residence[id]
	if !ok {
		return apperr.New(apperr.CodeResidencyViolation, id.String(), "deallocating non-resident id from SRAM")
	}
	delete(s.residence, id)
	s.residentSize -= size
	return nil
}

// Reset clears all state except capacity.
func (s *SRAM) Reset() {
	s.residence = make(map[tensorid.ID]int64)
	s.evicted = make(map[tensorid.ID]struct{})
	s.residentSize = 0
}

var _ Memory = (*SRAM)(nil)
