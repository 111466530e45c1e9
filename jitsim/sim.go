// Package jitsim implements the JIT simulator (spec §4.E): the
// instruction interpreter that walks a dtrsim/ops tree against SRAM and
// DRAM, driving rematerialization, buffer allocation, and eviction through
// a pluggable dtrsim/heuristic. Grounded on original_source/src/sim.rs's
// JitSim (run / perform_op / rematerialize / allocate_buffer /
// evict_single), restructured as methods on a Simulator value instead of a
// trait-object-free struct, since Go has no direct equivalent of Rust's
// generic DTR<I, D, TM, HM> trait and the original's single concrete
// (Operators, Id, SRAM, DRAM) instantiation is the only one this module
// ever needs.
package jitsim

import (
	"dtrsim/heuristic"
	"dtrsim/internal/apperr"
	"dtrsim/internal/logx"
	"dtrsim/memtier"
	"dtrsim/ops"
	"dtrsim/tensorid"

	"github.com/google/uuid"
)

// RegionStats is the per-accelerator-region breakdown of a run (spec §9
// Open Question: trip_count and peak_resident_size are per-SRAM, not
// global).
type RegionStats struct {
	TripCount        int64
	PeakResidentSize int64
}

// Result is the outcome of a Simulator.Run: the emitted trace and the
// counters spec §6 names as a run's exit conditions. Trace is populated
// even when Run returns an error, since partial progress is a documented
// property of this system (spec §7).
type Result struct {
	Trace []string
	// TripCount and PeakResidentSize are aggregates across every
	// accelerator region touched during the run: TripCount is the sum of
	// each region's trip counter (every trip belongs to exactly one
	// region, so summing is exact); PeakResidentSize is the maximum of
	// each region's own high-water mark (a single "how much fast memory
	// did the busiest accelerator need" figure, not a sum across
	// physically distinct SRAMs).
	TripCount        int64
	PeakResidentSize int64
	PerRegion        map[string]RegionStats
}

// Simulator holds the state of one run: the eviction heuristic, the
// per-region SRAM map, the shared DRAM, and the trace buffer (spec §4.E
// "State").
type Simulator struct {
	heuristic heuristic.Heuristic
	srams     map[string]*memtier.SRAM
	dram      *memtier.DRAM
	log       logx.Logger
	runID     uuid.UUID

	trace []string
	peak  map[string]int64
}

// New builds a Simulator. A nil log is replaced with logx.Nop. Each
// Simulator is tagged with a fresh run id (spec §9 supplemented feature:
// log-correlation across concurrent runs), threaded into every log call
// via Logger.WithField.
func New(h heuristic.Heuristic, srams map[string]*memtier.SRAM, dram *memtier.DRAM, log logx.Logger) *Simulator {
	if log == nil {
		log = logx.Nop
	}
	runID := uuid.New()
	return &Simulator{
		heuristic: h,
		srams:     srams,
		dram:      dram,
		log:       log.WithField("run_id", runID.String()),
		runID:     runID,
		peak:      make(map[string]int64),
	}
}

// RunID returns the correlation id assigned to this simulator.
func (s *Simulator) RunID() uuid.UUID { return s.runID }

// Run executes op from an empty top-level pin set (spec §4.E "Top-level
// run") and returns the accumulated trace and counters. The returned
// Result is valid even when err != nil: the trace buffer up to the fatal
// instruction remains available (spec §7).
func (s *Simulator) Run(op ops.Op) (*Result, error) {
	err := s.run(op, tensorid.NewSet())
	return s.result(), err
}

func (s *Simulator) result() *Result {
	perRegion := make(map[string]RegionStats, len(s.srams))
	var tripSum int64
	var peakMax int64
	for region, mem := range s.srams {
		rs := RegionStats{TripCount: mem.TripCount(), PeakResidentSize: s.peak[region]}
		perRegion[region] = rs
		tripSum += rs.TripCount
		if rs.PeakResidentSize > peakMax {
			peakMax = rs.PeakResidentSize
		}
	}
	return &Result{
		Trace:            append([]string(nil), s.trace...),
		TripCount:        tripSum,
		PeakResidentSize: peakMax,
		PerRegion:        perRegion,
	}
}

// run is the top-level dispatcher (spec §4.E): it descends into an op's
// sub-instructions before executing the op itself, threading a Compute's
// argument ids down into its argument sub-trees as the pin set.
func (s *Simulator) run(op ops.Op, pin tensorid.Set) error {
	switch o := op.(type) {
	case ops.NoOp:
		return nil
	case *ops.Load:
		if err := s.run(o.Sub, pin); err != nil {
			return err
		}
		return s.performOp(op, tensorid.NewSet())
	case *ops.Store:
		if err := s.run(o.Sub, pin); err != nil {
			return err
		}
		return s.performOp(op, tensorid.NewSet())
	case *ops.Compute:
		// The local pin set (the ids of all immediate arguments) is passed
		// down into each argument's sub-tree and to the Compute's own
		// perform_op. performCompute excludes the same ids while it
		// rematerializes arguments and allocates the result, so none of
		// its arguments is evicted to make room for its result. Load and
		// Store perform with an empty exclusion, so the set passed down
		// does not restrict evictions made while a sub-tree is materialized.
		localPin := tensorid.NewSet()
		for _, a := range o.Args {
			localPin.Add(a.ID)
		}
		for _, a := range o.Args {
			if err := s.run(a.Sub, localPin); err != nil {
				return err
			}
		}
		return s.performOp(op, localPin)
	default:
		return apperr.New(apperr.CodeMalformedDAG, "", "unsupported instruction in run")
	}
}

func (s *Simulator) performOp(op ops.Op, exclude tensorid.Set) error {
	switch o := op.(type) {
	case *ops.Compute:
		if err := s.performCompute(o, exclude); err != nil {
			return err
		}
	case *ops.Load:
		if err := s.performLoad(o, exclude); err != nil {
			return err
		}
	case *ops.Store:
		if err := s.performStore(o); err != nil {
			return err
		}
	case ops.NoOp:
		return nil
	default:
		return apperr.New(apperr.CodeMalformedDAG, "", "unsupported instruction in perform_op")
	}
	s.trace = append(s.trace, op.Compile())
	return nil
}

func (s *Simulator) performCompute(c *ops.Compute, exclude tensorid.Set) error {
	if c.Region == "host" {
		for _, a := range c.Args {
			if !s.dram.Contains(a.ID) {
				return apperr.New(apperr.CodeResidencyViolation, a.ID.String(), "host compute argument not resident in DRAM")
			}
		}
		s.log.Debug("host compute", "dst", c.Dst.String())
		return s.dram.Put(c.Dst, c.Size, true)
	}

	mem, ok := s.srams[c.Region]
	if !ok {
		return apperr.New(apperr.CodeMalformedDAG, c.Dst.String(), "unknown region: "+c.Region)
	}
	evictLock := tensorid.NewSet()
	for _, a := range c.Args {
		evictLock.Add(a.ID)
	}
	for _, a := range c.Args {
		if mem.Contains(a.ID) {
			size, err := mem.Get(a.ID)
			if err != nil {
				return err
			}
			s.heuristic.Touch(a.ID, size)
			continue
		}
		if err := s.rematerialize(a.ID, mem, evictLock); err != nil {
			return err
		}
	}
	if err := s.allocateBuffer(c.Size, mem, evictLock); err != nil {
		return err
	}
	if err := mem.Put(c.Dst, c.Size, true); err != nil {
		return err
	}
	s.heuristic.Touch(c.Dst, c.Size)
	s.notePeak(c.Region, mem)
	return nil
}

func (s *Simulator) performLoad(l *ops.Load, exclude tensorid.Set) error {
	if l.Region == "host" {
		if !s.dram.Contains(l.Dst) {
			if err := s.dram.Put(l.Dst, l.Size, true); err != nil {
				return err
			}
		}
		return nil
	}

	mem, ok := s.srams[l.Region]
	if !ok {
		return apperr.New(apperr.CodeMalformedDAG, l.Dst.String(), "unknown region: "+l.Region)
	}
	if !mem.Contains(l.Dst) {
		if !s.dram.Contains(l.Dst) {
			return apperr.New(apperr.CodeResidencyViolation, l.Dst.String(), "accelerator load source not resident in DRAM")
		}
		if err := s.allocateBuffer(l.Size, mem, exclude); err != nil {
			return err
		}
		if err := mem.Put(l.Dst, l.Size, false); err != nil {
			return err
		}
	}
	// Heuristic touch on Load happens whether or not the tensor was
	// already resident (spec §9: "yes, always touch").
	s.heuristic.Touch(l.Dst, l.Size)
	s.notePeak(l.Region, mem)
	return nil
}

func (s *Simulator) performStore(st *ops.Store) error {
	if st.Region == "host" {
		return apperr.New(apperr.CodeInvalidStoreTarget, st.Src.String(), "store on host region")
	}
	mem, ok := s.srams[st.Region]
	if !ok {
		return apperr.New(apperr.CodeMalformedDAG, st.Src.String(), "unknown region: "+st.Region)
	}
	if err := mem.Store(st.Src, st.Evict, s.dram); err != nil {
		return err
	}
	if st.Evict {
		s.heuristic.Evict(st.Src)
	}
	s.notePeak(st.Region, mem)
	return nil
}

// rematerialize reloads data into mem from DRAM if it is not already
// resident, charging a fresh trip (spec §4.E, §9 "always touch").
func (s *Simulator) rematerialize(data tensorid.ID, mem *memtier.SRAM, exclude tensorid.Set) error {
	if mem.Contains(data) {
		size, err := mem.Get(data)
		if err != nil {
			return err
		}
		s.heuristic.Touch(data, size)
		return nil
	}
	size, err := s.dram.Get(data)
	if err != nil {
		return err
	}
	if err := s.allocateBuffer(size, mem, exclude); err != nil {
		return err
	}
	if err := mem.Put(data, size, false); err != nil {
		return err
	}
	s.log.Warn("rematerialized", "id", data.String(), "region_size", size)
	s.heuristic.Touch(data, size)
	return nil
}

// allocateBuffer evicts from mem until size more bytes fit within its
// total capacity.
func (s *Simulator) allocateBuffer(size int64, mem *memtier.SRAM, exclude tensorid.Set) error {
	for mem.SizeAllocated()+size > mem.SizeTotal() {
		if err := s.evictSingle(exclude, mem); err != nil {
			return err
		}
	}
	return nil
}

// evictSingle asks the heuristic for a victim outside exclude and removes
// it from mem: a deallocate when the victim is already backed in DRAM (no
// writeback needed), otherwise a real store-with-eviction.
func (s *Simulator) evictSingle(exclude tensorid.Set, mem *memtier.SRAM) error {
	victim, ok := s.heuristic.Choose(mem.ToVec(), exclude)
	if !ok {
		return apperr.New(apperr.CodeThrashing, "", "no evictable victim under current pin set")
	}
	if s.dram.Contains(victim) {
		if err := mem.Deallocate(victim); err != nil {
			return err
		}
	} else {
		if err := mem.Store(victim, true, s.dram); err != nil {
			return err
		}
	}
	s.heuristic.Evict(victim)
	return nil
}

func (s *Simulator) notePeak(region string, mem *memtier.SRAM) {
	if cur := mem.SizeAllocated(); cur > s.peak[region] {
		s.peak[region] = cur
	}
}
