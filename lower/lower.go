// Package lower implements the lowering pass (spec §4.D): it walks a
// source DAG and produces a tree of dtrsim/ops values addressed by
// canonical tensor IDs. Grounded on
// original_source/src/from_glenside.rs's compile_instruction, generalized
// from glenside's fixed Language enum to the dag.NodeKind set this module
// defines, and rendered with Go multi-value returns (op, id, ok, err) in
// place of the original's panic-on-anything-unsupported style.
package lower

import (
	"encoding/binary"

	"dtrsim/dag"
	"dtrsim/internal/apperr"
	"dtrsim/internal/logx"
	"dtrsim/internal/setutil"
	"dtrsim/ops"
	"dtrsim/tensorid"
)

// Lowerer holds the state threaded through one lowering run: the node
// store, the analysis oracle, the source->canonical translation, the
// structural-hash fallback cache, and the memoization map (spec §4.D
// "State").
type Lowerer struct {
	store       dag.NodeStore
	oracle      dag.Oracle
	translation tensorid.Translation
	canon       map[tensorid.SourceID]tensorid.ID
	memo        map[tensorid.ID]tensorid.ID
	log         logx.Logger
}

// New builds a Lowerer. A nil log is replaced with logx.Nop.
func New(store dag.NodeStore, oracle dag.Oracle, translation tensorid.Translation, log logx.Logger) *Lowerer {
	if log == nil {
		log = logx.Nop
	}
	return &Lowerer{
		store:       store,
		oracle:      oracle,
		translation: translation,
		canon:       make(map[tensorid.SourceID]tensorid.ID),
		memo:        make(map[tensorid.ID]tensorid.ID),
		log:         log,
	}
}

// resolve returns src's canonical id. When the translation supplied at
// construction already carries an explicit entry, that entry wins;
// otherwise it falls back to tensorid.StructuralHash over the node's kind
// and its own children's (recursively resolved) canonical ids, so that two
// structurally identical source nodes collapse onto the same id even when
// the DAG's producer never assigned one (spec §3/§9's "two id-spaces...
// equivalence class" collapsing). The fallback result is cached so a
// repeated reference to the same source id is stable within this run.
func (l *Lowerer) resolve(src tensorid.SourceID) (tensorid.ID, error) {
	if id, ok := l.translation.Resolve(src); ok {
		return id, nil
	}
	if id, ok := l.canon[src]; ok {
		return id, nil
	}
	node, present := l.store.Node(src)
	if !present {
		return 0, apperr.New(apperr.CodeMalformedDAG, "", "node not found in store")
	}
	children := make([]tensorid.ID, len(node.Args))
	for i, a := range node.Args {
		childID, err := l.resolve(a)
		if err != nil {
			return 0, err
		}
		children[i] = childID
	}
	id := tensorid.ID(tensorid.StructuralHash(uint8(node.Kind), children))
	l.canon[src] = id
	return id, nil
}

// opNameID derives a stable operator identifier from a named host operator
// (dag.KindCompute's Op field, and the synthetic "flatten" operator this
// pass introduces for AccessFlatten). AcceleratorCall/RelayOperatorCall
// address their operator by node reference and so already have a canonical
// ID, and AccessPair uses its own Dst as the OpID; this path
// exists only for the string-named variants, and reuses tensorid's content
// fingerprint rather than inventing a second hashing scheme.
func opNameID(name string) tensorid.ID {
	key := tensorid.ContentKey([]byte(name))
	return tensorid.ID(binary.BigEndian.Uint64(key[:8]))
}

// Lower lowers the source node cur, returning the instruction that
// produces it (possibly NoOp on a memo hit), its canonical ID, whether any
// instruction was produced at all (false for metadata nodes, and for a
// pass-through or AccessPair whose children produce none; a pass-through
// otherwise returns its child's result unchanged), and an error for
// malformed input.
func (l *Lowerer) Lower(curSource tensorid.SourceID) (op ops.Op, id tensorid.ID, ok bool, err error) {
	cur, err := l.resolve(curSource)
	if err != nil {
		return nil, 0, false, err
	}
	if memoized, hit := l.memo[cur]; hit {
		return ops.NoOp{}, memoized, true, nil
	}

	node, present := l.store.Node(curSource)
	if !present {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "node not found in store")
	}
	l.log.Debug("lowering node", "id", cur.String(), "kind", node.Kind, "distinct_args", setutil.Unique(node.Args))

	switch node.Kind {
	case dag.KindRelayOperatorCall:
		return l.lowerRelayOperatorCall(cur, node)
	case dag.KindAcceleratorCall:
		return l.lowerAcceleratorCall(cur, node)
	case dag.KindAcceleratorLoad:
		return l.lowerAcceleratorLoad(cur, node)
	case dag.KindAcceleratorStore:
		return l.lowerAcceleratorStore(cur, node)
	case dag.KindCompute:
		return l.lowerCompute(cur, node)
	case dag.KindAccessPair:
		return l.lowerAccessPair(cur, node)
	case dag.KindAccess, dag.KindAccessInsertAxis, dag.KindAccessBroadcast:
		return l.Lower(node.Args[0])
	case dag.KindAccessLiteral, dag.KindAccessTensor:
		l.memo[cur] = cur
		return &ops.Load{Region: dag.HostRegion, Dst: cur, Sub: ops.NoOp{}, Size: 1}, cur, true, nil
	case dag.KindAccessFlatten:
		return l.lowerAccessFlatten(cur, node)
	case dag.KindMetadata:
		return nil, 0, false, nil
	default:
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "unsupported node kind for lowering")
	}
}

func (l *Lowerer) lowerRelayOperatorCall(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) < 2 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "RelayOperatorCall requires an operator and at least one argument")
	}
	opNode, present := l.store.Node(node.Args[0])
	if !present || opNode.Kind != dag.KindRelayOperator {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "RelayOperatorCall's first argument must be a RelayOperator")
	}
	if setutil.Contains(node.Args[1:], node.Args[0]) {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "RelayOperatorCall's operator must not also appear as a value argument")
	}
	opID, err := l.resolve(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}

	var args []ops.Arg
	for _, a := range node.Args[1:] {
		sub, argID, emitted, err := l.Lower(a)
		if err != nil {
			return nil, 0, false, err
		}
		if !emitted {
			continue
		}
		args = append(args, ops.Arg{ID: argID, Sub: sub})
	}
	if len(args) == 0 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "RelayOperatorCall produced no non-empty arguments")
	}

	l.memo[cur] = cur
	return &ops.Compute{Region: dag.HostRegion, OpID: opID, Dst: cur, Args: args, Size: 1}, cur, true, nil
}

func (l *Lowerer) regionOf(ref tensorid.SourceID) (string, error) {
	refID, err := l.resolve(ref)
	if err != nil {
		return "", err
	}
	data, ok := l.oracle.Lookup(refID)
	if !ok || data.Kind != dag.AnalysisAcceleratorFunc {
		return "", apperr.New(apperr.CodeMalformedDAG, refID.String(), "expected AcceleratorFunc analysis data for region reference")
	}
	return data.Region, nil
}

func (l *Lowerer) lowerAcceleratorCall(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) < 2 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AcceleratorCall requires a region and a trailing shape slot")
	}
	region, err := l.regionOf(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}
	opID, err := l.resolve(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}

	// The last argument is a shape/analysis slot, excluded from lowering
	// (spec §4.D).
	valueArgs := node.Args[1 : len(node.Args)-1]
	var args []ops.Arg
	for _, a := range valueArgs {
		sub, argID, emitted, err := l.Lower(a)
		if err != nil {
			return nil, 0, false, err
		}
		if !emitted {
			continue
		}
		args = append(args, ops.Arg{ID: argID, Sub: sub})
	}

	l.memo[cur] = cur
	return &ops.Compute{Region: region, OpID: opID, Dst: cur, Args: args, Size: 1}, cur, true, nil
}

func (l *Lowerer) lowerAcceleratorLoad(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) != 2 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AcceleratorLoad requires exactly (region, data)")
	}
	region, err := l.regionOf(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}
	sub, srcID, emitted, err := l.Lower(node.Args[1])
	if err != nil {
		return nil, 0, false, err
	}
	if !emitted {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AcceleratorLoad's data argument produced no instruction")
	}

	// A Load is memoized under the *loaded* tensor's id, not the node's own
	// id, so an enclosing Call can address it by that id (spec §4.D).
	l.memo[cur] = srcID
	return &ops.Load{Region: region, Dst: srcID, Sub: sub, Size: 1}, srcID, true, nil
}

func (l *Lowerer) lowerAcceleratorStore(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) != 2 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AcceleratorStore requires exactly (region, data)")
	}
	region, err := l.regionOf(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}
	sub, dstID, emitted, err := l.Lower(node.Args[1])
	if err != nil {
		return nil, 0, false, err
	}
	if !emitted {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AcceleratorStore's data argument produced no instruction")
	}

	l.memo[cur] = dstID
	return &ops.Store{Region: region, Evict: false, Src: dstID, Sub: sub, Size: 1}, dstID, true, nil
}

func (l *Lowerer) lowerCompute(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) != 1 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "Compute requires exactly one argument")
	}
	sub, argID, emitted, err := l.Lower(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}
	if !emitted {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "Compute's argument produced no instruction")
	}

	l.memo[cur] = cur
	args := []ops.Arg{{ID: argID, Sub: sub}}
	return &ops.Compute{Region: dag.HostRegion, OpID: opNameID(node.Op), Dst: cur, Args: args, Size: 1}, cur, true, nil
}

func (l *Lowerer) lowerAccessPair(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) != 2 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AccessPair requires exactly (car, cdr)")
	}
	var args []ops.Arg
	for _, a := range node.Args {
		sub, id, emitted, err := l.Lower(a)
		if err != nil {
			return nil, 0, false, err
		}
		if !emitted {
			continue
		}
		args = append(args, ops.Arg{ID: id, Sub: sub})
	}
	if len(args) == 0 {
		return nil, 0, false, nil
	}

	l.memo[cur] = cur
	// AccessPair has no named operator node to translate; OpID duplicates
	// Dst as a sentinel, matching the original's absence of any op-id
	// concept for this pass-through-pair construct.
	return &ops.Compute{Region: dag.HostRegion, OpID: cur, Dst: cur, Args: args, Size: 1}, cur, true, nil
}

func (l *Lowerer) lowerAccessFlatten(cur tensorid.ID, node dag.Node) (ops.Op, tensorid.ID, bool, error) {
	if len(node.Args) != 1 {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AccessFlatten requires exactly one argument")
	}
	sub, argID, emitted, err := l.Lower(node.Args[0])
	if err != nil {
		return nil, 0, false, err
	}
	if !emitted {
		return nil, 0, false, apperr.New(apperr.CodeMalformedDAG, cur.String(), "AccessFlatten's argument produced no instruction")
	}

	l.memo[cur] = cur
	args := []ops.Arg{{ID: argID, Sub: sub}}
	return &ops.Compute{Region: dag.HostRegion, OpID: opNameID("flatten"), Dst: cur, Args: args, Size: 1}, cur, true, nil
}
