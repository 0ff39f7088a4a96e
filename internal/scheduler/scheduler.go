// Package scheduler orders a document's computation DAG into
// deterministic topological layers with a trailing fixpoint layer for
// any cyclic remainder (spec §4.7).
package scheduler

import "github.com/roach88/ldc/internal/indexer"

// Layers is the scheduling result: zero or more topologically-ordered
// layers that can each be evaluated once, followed by a fixpoint layer
// (possibly empty) that must be iterated to convergence.
type Layers struct {
	Ordered  [][]*indexer.Node
	Fixpoint []*indexer.Node
}

// Schedule computes in-degrees from "A reads a name among B's writes ⇒ A
// depends on B" and drains zero-in-degree nodes into layers in the
// indexer's original (insertion) order, so layer membership is
// deterministic even among independent nodes. Query nodes are always
// scheduled after every Expr/View/Constraint node: a query's dependency
// is the accumulated triple store, not a named read, so it cannot be
// expressed as a free-variable read and is instead forced last.
func Schedule(nodes []*indexer.Node) Layers {
	writer := writerIndex(nodes)
	deps := dependencyMap(nodes, writer)

	inDegree := make(map[*indexer.Node]int, len(nodes))
	dependents := map[*indexer.Node][]*indexer.Node{}
	for n, ds := range deps {
		inDegree[n] = len(ds)
		for d := range ds {
			dependents[d] = append(dependents[d], n)
		}
	}

	remaining := make(map[*indexer.Node]bool, len(nodes))
	for _, n := range nodes {
		remaining[n] = true
	}

	var layers [][]*indexer.Node
	for len(remaining) > 0 {
		var zero []*indexer.Node
		for _, n := range nodes {
			if remaining[n] && inDegree[n] == 0 {
				zero = append(zero, n)
			}
		}
		if len(zero) == 0 {
			break
		}
		for _, n := range zero {
			delete(remaining, n)
			for _, dep := range dependents[n] {
				inDegree[dep]--
			}
		}
		layers = append(layers, zero)
	}

	var fixpoint []*indexer.Node
	for _, n := range nodes {
		if remaining[n] {
			fixpoint = append(fixpoint, n)
		}
	}

	return Layers{Ordered: layers, Fixpoint: fixpoint}
}

// writerIndex maps every plain key and IRI a node writes back to that
// node (spec §4.6: "writes: {plain_key, IRI} — both, so the scheduler
// can match dependencies regardless of whether a reader names a plain
// key").
func writerIndex(nodes []*indexer.Node) map[string]*indexer.Node {
	idx := make(map[string]*indexer.Node, len(nodes)*2)
	for _, n := range nodes {
		idx[n.PlainKey] = n
		idx[n.ID] = n
	}
	return idx
}

func dependencyMap(nodes []*indexer.Node, writer map[string]*indexer.Node) map[*indexer.Node]map[*indexer.Node]bool {
	deps := make(map[*indexer.Node]map[*indexer.Node]bool, len(nodes))
	for _, n := range nodes {
		set := map[*indexer.Node]bool{}
		if n.Kind == indexer.KindQuery {
			for _, other := range nodes {
				if other != n && other.Kind != indexer.KindQuery {
					set[other] = true
				}
			}
			deps[n] = set
			continue
		}
		for _, r := range n.Reads {
			if w, ok := writer[r]; ok && w != n {
				set[w] = true
			}
		}
		deps[n] = set
	}
	return deps
}
