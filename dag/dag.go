// Package dag models the input side of the lowering pass (spec §4.D,
// §6): the source DAG node store and the per-node analysis-data oracle
// that an equality-saturation engine is assumed to provide. The spec
// treats both as opaque external collaborators; this package supplies a
// concrete, in-memory implementation so the lowering pass has something
// real to run against and so the seed scenarios in spec §8 are directly
// testable. Node variants are grounded on
// original_source/src/from_glenside.rs's `Language` enum (AD1024/simge),
// which names exactly the variants spec §4.D dispatches on.
package dag

import "dtrsim/tensorid"

// HostRegion is the distinguished region name denoting DRAM-resident host
// execution (spec §3).
const HostRegion = "host"

// NodeKind tags the variant of a source-DAG node.
type NodeKind int

const (
	// KindRelayOperator names an operator; it is never lowered directly,
	// only referenced as the Args[0] of a RelayOperatorCall.
	KindRelayOperator NodeKind = iota
	// KindRelayOperatorCall applies the RelayOperator named by Args[0] to
	// the remaining Args.
	KindRelayOperatorCall
	// KindAcceleratorFunc carries the region name an AcceleratorLoad,
	// AcceleratorStore, or AcceleratorCall resolves through its analysis
	// data; it is never lowered directly.
	KindAcceleratorFunc
	// KindAcceleratorCall applies an accelerator function. Args[0] is the
	// region reference; Args[len-1] is a shape/analysis slot excluded from
	// lowering; Args[1:len-1] are value arguments.
	KindAcceleratorCall
	// KindAcceleratorLoad loads Args[1] into the region named by Args[0]'s
	// analysis data.
	KindAcceleratorLoad
	// KindAcceleratorStore stores Args[1] out of the region named by
	// Args[0]'s analysis data.
	KindAcceleratorStore
	// KindCompute is a single-argument generic host compute; Op names the
	// operator directly (unlike RelayOperatorCall, which references an
	// operator node).
	KindCompute
	// KindAccessPair pairs two children (Args[0], Args[1]).
	KindAccessPair
	// KindAccess is a transparent pass-through over Args[0].
	KindAccess
	// KindAccessInsertAxis is a transparent pass-through over Args[0].
	KindAccessInsertAxis
	// KindAccessBroadcast is a transparent pass-through over Args[0].
	KindAccessBroadcast
	// KindAccessLiteral is a DRAM-resident leaf.
	KindAccessLiteral
	// KindAccessTensor is a DRAM-resident leaf.
	KindAccessTensor
	// KindAccessFlatten wraps Args[0] in a host compute.
	KindAccessFlatten
	// KindMetadata covers layout tags, usize, shape, and kernel-layout
	// nodes: they produce no instruction (spec §4.D).
	KindMetadata
)

// Node is one entry in a source DAG.
type Node struct {
	Kind NodeKind `json:"kind"`
	// Op names the operator for KindRelayOperator (the operator's own
	// name) and KindCompute (the operator to apply). Unused otherwise.
	Op string `json:"op,omitempty"`
	// Args are this node's children, in the order spec §4.D describes for
	// each Kind.
	Args []tensorid.SourceID `json:"args,omitempty"`
}

// NodeStore is the opaque, node-indexed DAG store the lowering pass reads
// from (spec §6).
type NodeStore interface {
	Node(id tensorid.SourceID) (Node, bool)
}

// AnalysisKind tags the variant of a node's analysis data.
type AnalysisKind int

const (
	AnalysisOther AnalysisKind = iota
	AnalysisAcceleratorFunc
)

// AnalysisData is the per-node analysis payload an equality-saturation
// engine attaches to each e-class. The lowering pass only ever reads the
// AcceleratorFunc variant (spec §4.D); other kinds exist so Oracle has a
// realistic shape, and are otherwise opaque to this module (it is not our
// job to infer shapes — spec §1 Non-goals).
type AnalysisData struct {
	Kind AnalysisKind `json:"kind"`
	// Region is valid when Kind == AnalysisAcceleratorFunc.
	Region string `json:"region,omitempty"`
}

// Oracle is the per-node analysis-data lookup the lowering pass queries
// (spec §6). It is keyed by canonical ID, since the lowering pass always
// translates before querying (spec §9).
type Oracle interface {
	Lookup(id tensorid.ID) (AnalysisData, bool)
}

// Expr is a concrete NodeStore: a node list indexed by SourceID, a flat
// arena addressed by integer id.
type Expr []Node

// Node implements NodeStore.
func (e Expr) Node(id tensorid.SourceID) (Node, bool) {
	if int(id) < 0 || int(id) >= len(e) {
		return Node{}, false
	}
	return e[id], true
}

// MapOracle is a concrete Oracle backed by a map.
type MapOracle map[tensorid.ID]AnalysisData

// Lookup implements Oracle.
func (m MapOracle) Lookup(id tensorid.ID) (AnalysisData, bool) {
	d, ok := m[id]
	return d, ok
}

// Fixture bundles everything the lowering pass needs to run: the node
// store, the source->canonical translation, and the analysis oracle.
type Fixture struct {
	Nodes       Expr                   `json:"nodes"`
	Translation tensorid.Translation   `json:"translation"`
	Oracle      MapOracle              `json:"oracle"`
	// Root is the source ID of the DAG's entry point, used by callers
	// that want a default place to start lowering.
	Root tensorid.SourceID `json:"root"`
}
