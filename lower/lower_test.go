package lower

import (
	"testing"

	"dtrsim/dag"
	"dtrsim/ops"
	"dtrsim/tensorid"
)

// TestLowerSingleHostCompute is scenario S1: two AccessTensor leaves
// feeding a host Compute via a RelayOperatorCall.
func TestLowerSingleHostCompute(t *testing.T) {
	b := dag.NewBuilder()
	a := b.AccessTensor()
	c := b.AccessTensor()
	opNode := b.RelayOperator("add")
	call := b.RelayOperatorCall(opNode, a, c)
	fx := b.Build(call)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	op, id, ok, err := l.Lower(call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected root to emit an instruction")
	}
	if id != fx.Translation.Canonicalize(call) {
		t.Fatalf("expected root id %v, got %v", fx.Translation.Canonicalize(call), id)
	}
	compute, isCompute := op.(*ops.Compute)
	if !isCompute {
		t.Fatalf("expected *ops.Compute at the call, got %T", op)
	}
	if compute.Region != dag.HostRegion {
		t.Fatalf("expected host region, got %q", compute.Region)
	}
	if len(compute.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(compute.Args))
	}
	for _, arg := range compute.Args {
		if _, isLoad := arg.Sub.(*ops.Load); !isLoad {
			t.Fatalf("expected each leaf argument to be produced by a Load, got %T", arg.Sub)
		}
	}
}

func TestLowerAcceleratorRoundTrip(t *testing.T) {
	b := dag.NewBuilder()
	region := b.AcceleratorFunc("A")
	leaf := b.AccessTensor()
	load := b.AcceleratorLoad(region, leaf)
	call := b.AcceleratorCall(region, load)
	store := b.AcceleratorStore(region, call)
	fx := b.Build(store)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	op, _, ok, err := l.Lower(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected store to emit an instruction")
	}
	s, isStore := op.(*ops.Store)
	if !isStore {
		t.Fatalf("expected *ops.Store at the top, got %T", op)
	}
	if s.Region != "A" || s.Evict {
		t.Fatalf("unexpected store shape: %+v", s)
	}
	call2, isCompute := s.Sub.(*ops.Compute)
	if !isCompute || call2.Region != "A" {
		t.Fatalf("expected an accelerator Compute beneath the store, got %T", s.Sub)
	}
}

// TestLowerMemoization is scenario S6: a single AccessTensor referenced by
// two sibling Computes under a common parent must lower to exactly one
// Load, with the second reference resolving to NoOp carrying the original
// canonical id.
func TestLowerMemoization(t *testing.T) {
	b := dag.NewBuilder()
	shared := b.AccessTensor()
	left := b.Compute("neg", shared)
	right := b.Compute("sqr", shared)
	root := b.AccessPair(left, right)
	fx := b.Build(root)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	if _, _, ok, err := l.Lower(root); err != nil || !ok {
		t.Fatalf("unexpected result lowering root: ok=%v err=%v", ok, err)
	}

	sharedID := fx.Translation.Canonicalize(shared)
	// A direct second lowering of the shared leaf must now be a memo hit.
	op, id, ok, err := l.Lower(shared)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected memo hit to still report ok")
	}
	if !ops.IsNoOp(op) {
		t.Fatalf("expected NoOp on memo hit, got %T", op)
	}
	if id != sharedID {
		t.Fatalf("expected memoized id %v, got %v", sharedID, id)
	}
}

func TestLowerPassThroughEmitsNothingItself(t *testing.T) {
	b := dag.NewBuilder()
	leaf := b.AccessTensor()
	wrapped := b.AccessInsertAxis(leaf)
	fx := b.Build(wrapped)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	op, id, ok, err := l.Lower(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected pass-through to resolve to the leaf's Load")
	}
	if _, isLoad := op.(*ops.Load); !isLoad {
		t.Fatalf("expected the leaf's Load to surface through the pass-through, got %T", op)
	}
	if id != fx.Translation.Canonicalize(leaf) {
		t.Fatalf("expected pass-through id to equal leaf id")
	}
}

func TestLowerMetadataProducesNoInstruction(t *testing.T) {
	b := dag.NewBuilder()
	meta := b.Metadata()
	fx := b.Build(meta)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	_, _, ok, err := l.Lower(meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected Metadata to emit no instruction")
	}
}

func TestLowerUnknownRegionIsMalformed(t *testing.T) {
	b := dag.NewBuilder()
	leaf := b.AccessTensor()
	// Use leaf (not an AcceleratorFunc) as a region reference: malformed.
	load := b.AcceleratorLoad(leaf, leaf)
	fx := b.Build(load)

	l := New(fx.Nodes, fx.Oracle, fx.Translation, nil)
	if _, _, _, err := l.Lower(load); err == nil {
		t.Fatal("expected malformed DAG error for a non-AcceleratorFunc region reference")
	}
}

// TestLowerResolveFallsBackToStructuralHash exercises the path
// Translation.Resolve misses on: two structurally identical leaves with
// no translation entry at all must still collapse onto the same
// canonical id via tensorid.StructuralHash, and that id must be stable
// across repeated references within one lowering run.
func TestLowerResolveFallsBackToStructuralHash(t *testing.T) {
	e := dag.Expr{
		{Kind: dag.KindAccessTensor},
		{Kind: dag.KindAccessTensor},
	}
	l := New(e, dag.MapOracle{}, tensorid.Translation{}, nil)

	_, firstID, ok, err := l.Lower(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected leaf 0 to emit an instruction")
	}
	_, secondID, ok, err := l.Lower(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected leaf 1 to emit an instruction")
	}
	if firstID != secondID {
		t.Fatalf("expected structurally identical untranslated leaves to collapse onto the same id, got %v and %v", firstID, secondID)
	}

	wantID := tensorid.ID(tensorid.StructuralHash(uint8(dag.KindAccessTensor), nil))
	if firstID != wantID {
		t.Fatalf("expected fallback id %v to match StructuralHash directly, got %v", wantID, firstID)
	}

	if again, ok := l.translation.Resolve(0); ok {
		t.Fatalf("expected no explicit translation entry for source 0, got %v", again)
	}
	if cached, hit := l.canon[0]; !hit || cached != firstID {
		t.Fatalf("expected the fallback result for source 0 to be cached, got %v, %v", cached, hit)
	}
}

func TestLowerRelayOperatorCallRequiresNonEmptyArgs(t *testing.T) {
	e := dag.Expr{
		{Kind: dag.KindRelayOperator, Op: "identity"},
		{Kind: dag.KindRelayOperatorCall, Args: []tensorid.SourceID{0}},
	}
	translation := tensorid.Translation{0: 0, 1: 1}
	l := New(e, dag.MapOracle{}, translation, nil)
	if _, _, _, err := l.Lower(1); err == nil {
		t.Fatal("expected malformed DAG error for a RelayOperatorCall with no arguments")
	}
}
