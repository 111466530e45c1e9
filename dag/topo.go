package dag

import (
	"fmt"

	"dtrsim/tensorid"
)

// TopoOrder returns the node ids reachable from root in a valid dependency
// order (every node after all of its Args), and an error if the reachable
// subgraph contains a cycle. A depth-first post-order walk with explicit
// visiting/done coloring; used by the validate path ahead of lowering so a
// malformed DAG is rejected with a clear cause rather than surfacing as a
// confusing panic partway through the lowering pass.
func TopoOrder(store NodeStore, root tensorid.SourceID) ([]tensorid.SourceID, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[tensorid.SourceID]int)
	var order []tensorid.SourceID

	var visit func(id tensorid.SourceID) error
	visit = func(id tensorid.SourceID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dag: cycle detected at node %d", id)
		}
		state[id] = visiting
		n, ok := store.Node(id)
		if !ok {
			return fmt.Errorf("dag: node %d not found", id)
		}
		for _, child := range n.Args {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}
