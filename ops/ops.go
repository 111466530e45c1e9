// Package ops defines the micro-instruction tree described in spec §3/§4.C:
// Compute, Load, Store, and NoOp. Grounded on original_source/src/sim.rs's
// `enum Operators`, rendered as a Go interface implemented by four
// concrete types — the idiomatic equivalent of a Rust sum type, following
// the pattern SnellerInc/sneller uses for its expr.Node AST (an interface
// with a closed set of implementations, walked by type switch rather than
// enum match).
package ops

import (
	"fmt"
	"strconv"
	"strings"

	"dtrsim/tensorid"
)

// InsnType classifies an Op for the two-bucket distinction spec §4.C
// draws: compute work versus memory-mapped I/O.
type InsnType int

const (
	MMIO InsnType = iota
	ComputeInsn
)

func (t InsnType) String() string {
	if t == ComputeInsn {
		return "Compute"
	}
	return "MMIO"
}

// Op is the common interface implemented by Compute, Load, Store, and NoOp.
type Op interface {
	// InsnType reports whether this Op is a Compute or MMIO instruction.
	InsnType() InsnType
	// Compile renders the deterministic textual trace line for this Op
	// (spec §6 EXTERNAL INTERFACES, trace grammar).
	Compile() string
}

// Arg pairs an argument's canonical ID with the sub-instruction that
// produces it. Sub may be NoOp when the argument is already materialized
// by prior code (spec §3).
type Arg struct {
	ID  tensorid.ID
	Sub Op
}

// Compute evaluates OpID on Args in Region, producing Dst of byte-size
// Size (spec §3).
type Compute struct {
	Region string
	OpID   tensorid.ID
	Dst    tensorid.ID
	Args   []Arg
	Size   int64
}

func (c *Compute) InsnType() InsnType { return ComputeInsn }

func (c *Compute) Compile() string {
	var b strings.Builder
	b.WriteString("(compute ")
	b.WriteString(c.Region)
	b.WriteString(" ")
	b.WriteString(c.OpID.String())
	b.WriteString(" ")
	b.WriteString(c.Dst.String())
	for _, a := range c.Args {
		b.WriteString(" ")
		b.WriteString(a.ID.String())
	}
	b.WriteString(")")
	return b.String()
}

// Load brings Dst from DRAM into Region's SRAM (a no-op when
// Region=="host"). Sub emits any prerequisite for Dst (spec §3).
type Load struct {
	Region string
	Dst    tensorid.ID
	Sub    Op
	Size   int64
}

func (l *Load) InsnType() InsnType { return MMIO }

func (l *Load) Compile() string {
	return fmt.Sprintf("(load %s %s)", l.Region, l.Dst.String())
}

// Store moves Src from Region's SRAM to DRAM. Evict frees SRAM capacity
// when true; when false a copy is left resident (spec §3).
type Store struct {
	Region string
	Evict  bool
	Src    tensorid.ID
	Sub    Op
	Size   int64
}

func (s *Store) InsnType() InsnType { return MMIO }

func (s *Store) Compile() string {
	return fmt.Sprintf("(store %s %s %s)", s.Region, strconv.FormatBool(s.Evict), s.Src.String())
}

// NoOp is the empty instruction: a memoization hit in the lowering pass
// resolves to it (spec §4.D). It carries no state, so callers
// construct it directly as ops.NoOp{}.
type NoOp struct{}

func (NoOp) InsnType() InsnType { return MMIO }
func (NoOp) Compile() string    { return "Skip" }

// IsNoOp reports whether op is the NoOp instruction.
func IsNoOp(op Op) bool {
	_, ok := op.(NoOp)
	return ok
}
