package dag

import (
	"dtrsim/tensorid"
)

// Builder incrementally constructs a Fixture. Each node method appends
// one node and returns its SourceID; the identity translation (source id
// == canonical id) is populated automatically, matching the common case
// where the caller's DAG has already had equivalence classes collapsed
// upstream. Use Alias to model two distinct source nodes that denote the
// same canonical tensor (spec §3's "two ID spaces").
type Builder struct {
	nodes       Expr
	translation tensorid.Translation
	oracle      MapOracle
}

// NewBuilder starts an empty fixture builder.
func NewBuilder() *Builder {
	return &Builder{
		translation: make(tensorid.Translation),
		oracle:      make(MapOracle),
	}
}

func (b *Builder) append(n Node) tensorid.SourceID {
	id := tensorid.SourceID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	b.translation[id] = tensorid.ID(id)
	return id
}

// Alias records that id should canonicalize to the same ID as existing,
// modeling equality-saturation's equivalence classes (spec §3, §9).
func (b *Builder) Alias(id, existing tensorid.SourceID) {
	b.translation[id] = b.translation[existing]
}

// RelayOperator declares an operator node, referenced by RelayOperatorCall.
func (b *Builder) RelayOperator(name string) tensorid.SourceID {
	return b.append(Node{Kind: KindRelayOperator, Op: name})
}

// RelayOperatorCall applies the operator node opNode to args.
func (b *Builder) RelayOperatorCall(opNode tensorid.SourceID, args ...tensorid.SourceID) tensorid.SourceID {
	all := append([]tensorid.SourceID{opNode}, args...)
	return b.append(Node{Kind: KindRelayOperatorCall, Args: all})
}

// AcceleratorFunc declares a region node with the given region name,
// referenced by AcceleratorLoad/Store/Call as their region_ref.
func (b *Builder) AcceleratorFunc(region string) tensorid.SourceID {
	id := b.append(Node{Kind: KindAcceleratorFunc})
	b.oracle[b.translation[id]] = AnalysisData{Kind: AnalysisAcceleratorFunc, Region: region}
	return id
}

// AcceleratorLoad loads data into regionRef's region.
func (b *Builder) AcceleratorLoad(regionRef, data tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAcceleratorLoad, Args: []tensorid.SourceID{regionRef, data}})
}

// AcceleratorStore stores data out of regionRef's region.
func (b *Builder) AcceleratorStore(regionRef, data tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAcceleratorStore, Args: []tensorid.SourceID{regionRef, data}})
}

// AcceleratorCall applies an accelerator function. valueArgs are the real
// arguments; a trailing shape/analysis slot is appended automatically and
// excluded from lowering, matching spec §4.D ("the last element of the
// argument list is intentionally excluded").
func (b *Builder) AcceleratorCall(regionRef tensorid.SourceID, valueArgs ...tensorid.SourceID) tensorid.SourceID {
	shapeSlot := b.append(Node{Kind: KindMetadata})
	all := append([]tensorid.SourceID{regionRef}, valueArgs...)
	all = append(all, shapeSlot)
	return b.append(Node{Kind: KindAcceleratorCall, Args: all})
}

// Compute applies a named single-argument host operator to x.
func (b *Builder) Compute(op string, x tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindCompute, Op: op, Args: []tensorid.SourceID{x}})
}

// AccessPair pairs car and cdr.
func (b *Builder) AccessPair(car, cdr tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAccessPair, Args: []tensorid.SourceID{car, cdr}})
}

// Access is a transparent pass-through over child.
func (b *Builder) Access(child tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAccess, Args: []tensorid.SourceID{child}})
}

// AccessInsertAxis is a transparent pass-through over child.
func (b *Builder) AccessInsertAxis(child tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAccessInsertAxis, Args: []tensorid.SourceID{child}})
}

// AccessBroadcast is a transparent pass-through over child.
func (b *Builder) AccessBroadcast(child tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAccessBroadcast, Args: []tensorid.SourceID{child}})
}

// AccessLiteral declares a DRAM-resident literal leaf.
func (b *Builder) AccessLiteral() tensorid.SourceID {
	return b.append(Node{Kind: KindAccessLiteral})
}

// AccessTensor declares a DRAM-resident tensor leaf.
func (b *Builder) AccessTensor() tensorid.SourceID {
	return b.append(Node{Kind: KindAccessTensor})
}

// AccessFlatten wraps x in a host compute.
func (b *Builder) AccessFlatten(x tensorid.SourceID) tensorid.SourceID {
	return b.append(Node{Kind: KindAccessFlatten, Args: []tensorid.SourceID{x}})
}

// Metadata declares a node that produces no instruction when lowered
// (layout tags, usize, shape, kernel-layout nodes; spec §4.D).
func (b *Builder) Metadata() tensorid.SourceID {
	return b.append(Node{Kind: KindMetadata})
}

// Build finalizes the fixture with root as its entry point.
func (b *Builder) Build(root tensorid.SourceID) *Fixture {
	return &Fixture{
		Nodes:       b.nodes,
		Translation: b.translation,
		Oracle:      b.oracle,
		Root:        root,
	}
}
