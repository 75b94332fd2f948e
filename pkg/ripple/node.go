package ripple

// NodeID identifies a reactive node within its graph.
// IDs are allocated monotonically and never reused. ID 0 is reserved for
// graph-level errors that cannot be attributed to a single node.
type NodeID uint64

// dependent is anything that is invalidated when a node it read changes.
// Expressions and observers implement it; values are never dependents.
type dependent interface {
	// markStale notifies the dependent that one of its dependencies changed.
	// For expressions this invalidates the cache and propagates; for
	// observers this schedules a re-run on the next flush.
	markStale()

	// nodeID returns the dependent's identity, used to deduplicate edges.
	nodeID() NodeID

	// dropSource removes the forward edge to src without touching src's
	// dependent list. Used when src is destroyed out from under its readers.
	dropSource(src *node)
}

// evaluator is a dependent that records forward edges while it runs.
// It is what sits on the graph's evaluation stack.
type evaluator interface {
	dependent
	addSource(src *node)
}

// node is the shared bookkeeping embedded in Value, Expr, and Observer.
// It carries identity plus the reverse edges: the dependents that read this
// node during their most recent evaluation.
type node struct {
	id    NodeID
	graph *Graph

	dependents []dependent
}

func (n *node) nodeID() NodeID { return n.id }

// addDependent installs the reverse edge. Idempotent: reading the same node
// twice in one evaluation yields a single edge.
func (n *node) addDependent(d dependent) {
	did := d.nodeID()
	for _, existing := range n.dependents {
		if existing.nodeID() == did {
			return
		}
	}
	n.dependents = append(n.dependents, d)
}

// removeDependent deletes the reverse edge to d, if present.
// Order of the dependent list is not meaningful, so remove by swap.
func (n *node) removeDependent(d dependent) {
	did := d.nodeID()
	for i, existing := range n.dependents {
		if existing.nodeID() == did {
			last := len(n.dependents) - 1
			n.dependents[i] = n.dependents[last]
			n.dependents[last] = nil
			n.dependents = n.dependents[:last]
			return
		}
	}
}

// invalidateDependents marks every current dependent stale. The list is
// copied first because observer scheduling appends to the graph's pending
// queue while we iterate.
func (n *node) invalidateDependents() {
	if len(n.dependents) == 0 {
		return
	}
	deps := make([]dependent, len(n.dependents))
	copy(deps, n.dependents)
	for _, d := range deps {
		d.markStale()
	}
}

// detachDependents severs all reverse edges together with their mirrored
// forward edges. Called when the node is destroyed so dependents can no
// longer be invalidated by it, nor retain it.
func (n *node) detachDependents() {
	for _, d := range n.dependents {
		d.dropSource(n)
	}
	n.dependents = nil
}

// tracked is the forward-edge half of the bookkeeping, embedded in Expr and
// Observer: the set of nodes read during the most recent evaluation. It is
// cleared and rebuilt on every run, never accumulated, which is what lets a
// dependency set shrink when a computation's control flow changes.
type tracked struct {
	sources []*node
}

// addSource records a forward edge. Deduplicated by pointer.
func (t *tracked) addSource(src *node) {
	for _, s := range t.sources {
		if s == src {
			return
		}
	}
	t.sources = append(t.sources, src)
}

// dropSource removes the forward edge to src. Implements dependent.
func (t *tracked) dropSource(src *node) {
	for i, s := range t.sources {
		if s == src {
			last := len(t.sources) - 1
			t.sources[i] = t.sources[last]
			t.sources[last] = nil
			t.sources = t.sources[:last]
			return
		}
	}
}

// clearSources removes every outgoing edge along with its mirror on the
// source side. Called before each evaluation of self.
func (t *tracked) clearSources(self dependent) {
	for _, s := range t.sources {
		s.removeDependent(self)
	}
	t.sources = t.sources[:0]
}
