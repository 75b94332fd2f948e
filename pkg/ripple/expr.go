package ripple

// Expr is a cached, lazily recomputed derived node wrapping a user
// computation. Reading an invalidated Expr recomputes it on the spot;
// reading a valid one returns the cached outcome without running anything.
//
// Failed computations are first-class cached outcomes: every reader gets the
// same error back until the expression is invalidated and recomputed.
type Expr[T any] struct {
	node
	tracked

	compute func() (T, error)

	// Cached outcome, meaningful only while valid is true.
	value T
	err   error

	valid      bool
	computed   bool // has ever completed an evaluation
	evaluating bool
	destroyed  bool

	// equal preserves referential stability of the cached payload when a
	// recomputation produces an equal result. nil means defaultEquals.
	equal func(T, T) bool
}

// NewExpr creates a derived node in g. The computation is not run here; it
// runs lazily on first Get.
func NewExpr[T any](g *Graph, compute func() (T, error)) *Expr[T] {
	g.stats.ExprsCreated++
	return &Expr[T]{
		node:    node{id: g.nextID(), graph: g},
		compute: compute,
	}
}

// Get returns the expression's outcome, recomputing it first if a dependency
// changed since the last evaluation. Like a Value read, Get records a
// dependency edge from the currently evaluating node.
//
// A Get that re-enters the expression's own evaluation is a cyclic
// dependency: it is reported and returned as an error instead of recursing.
func (e *Expr[T]) Get() (T, error) {
	var zero T
	if e.destroyed {
		err := &DestroyedError{ID: e.id, Op: "read"}
		e.graph.report(e.id, err)
		return zero, err
	}
	if e.evaluating {
		err := &CyclicError{ID: e.id}
		e.graph.report(e.id, err)
		return zero, err
	}

	e.graph.recordRead(&e.node)

	if !e.valid {
		e.recompute()
	}
	return e.value, e.err
}

// Peek returns the outcome without recording a dependency. It still
// recomputes if the cache is stale.
func (e *Expr[T]) Peek() (T, error) {
	var zero T
	if e.destroyed {
		err := &DestroyedError{ID: e.id, Op: "read"}
		e.graph.report(e.id, err)
		return zero, err
	}
	if e.evaluating {
		err := &CyclicError{ID: e.id}
		e.graph.report(e.id, err)
		return zero, err
	}
	if !e.valid {
		e.recompute()
	}
	return e.value, e.err
}

// markStale invalidates the cache and propagates to dependents without
// recomputing anything. Already-stale expressions stop the propagation,
// which is what keeps invalidation linear and terminating.
func (e *Expr[T]) markStale() {
	if e.destroyed || !e.valid {
		return
	}
	e.valid = false
	e.graph.stats.Invalidations++
	e.invalidateDependents()
}

// recompute clears the outgoing edges, runs the computation with this
// expression as the evaluation context, and caches the outcome.
func (e *Expr[T]) recompute() {
	e.clearSources(e)

	e.evaluating = true
	e.graph.pushEvaluator(e)
	value, err := e.runCompute()
	e.graph.popEvaluator()
	e.evaluating = false

	if e.computed && e.err == nil && err == nil &&
		safeEquals(e.graph, e.id, e.equal, e.value, value) {
		// Equal result: keep the previous payload so readers holding it
		// by reference keep observing a stable identity.
		value = e.value
	}
	e.value = value
	e.err = err
	e.valid = true
	e.computed = true
	e.graph.stats.Recomputes++
}

// runCompute isolates panics in the user computation, turning them into a
// cached ComputationError outcome.
func (e *Expr[T]) runCompute() (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = &ComputationError{ID: e.id, Panic: r}
		}
	}()
	return e.compute()
}

// WithEquals configures a custom equality hook and returns the expression.
func (e *Expr[T]) WithEquals(fn func(T, T) bool) *Expr[T] {
	e.equal = fn
	return e
}

// ID returns the node identity of this expression.
func (e *Expr[T]) ID() NodeID {
	return e.id
}

// Destroy removes the expression from the graph: edges are severed in both
// directions and the cache is dropped. Later reads are reported as
// use-after-destroy.
func (e *Expr[T]) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.clearSources(e)
	e.detachDependents()
	var zero T
	e.value = zero
	e.err = nil
	e.valid = false
}
