package ripple

// Value is a mutable reactive container holding exactly one current value.
// Reading a Value during an expression or observer run records a dependency
// edge automatically; reads outside any evaluation are plain reads.
type Value[T any] struct {
	node

	value T

	// equal decides whether a write actually changed the value.
	// nil means defaultEquals.
	equal func(T, T) bool

	destroyed bool
}

// NewValue creates a value cell in g with the given initial payload.
func NewValue[T any](g *Graph, initial T) *Value[T] {
	g.stats.ValuesCreated++
	return &Value[T]{
		node:  node{id: g.nextID(), graph: g},
		value: initial,
	}
}

// Get returns the current payload. If a node is currently evaluating, the
// read is recorded as one of its dependencies.
func (v *Value[T]) Get() T {
	if v.destroyed {
		v.graph.report(v.id, &DestroyedError{ID: v.id, Op: "read"})
		return v.value
	}
	v.graph.recordRead(&v.node)
	return v.value
}

// Peek returns the current payload without recording a dependency.
func (v *Value[T]) Peek() T {
	return v.value
}

// Set replaces the payload. If the new payload is not equal to the old one,
// every dependent is invalidated and affected observers are scheduled;
// nothing is recomputed inline. Writes equal to the current value are inert.
func (v *Value[T]) Set(value T) {
	if v.destroyed {
		v.graph.report(v.id, &DestroyedError{ID: v.id, Op: "write"})
		return
	}
	if safeEquals(v.graph, v.id, v.equal, v.value, value) {
		return
	}
	v.value = value
	v.graph.stats.Invalidations++
	v.invalidateDependents()
}

// Update atomically reads and replaces the payload through fn.
// The read is not tracked; only the resulting write has reactive effect.
func (v *Value[T]) Update(fn func(T) T) {
	v.Set(fn(v.Peek()))
}

// WithEquals configures a custom equality hook and returns the value.
// A hook that panics is treated as "values differ" and reported.
func (v *Value[T]) WithEquals(fn func(T, T) bool) *Value[T] {
	v.equal = fn
	return v
}

// ID returns the node identity of this value.
func (v *Value[T]) ID() NodeID {
	return v.id
}

// Destroy releases the value from the graph. All edges to current dependents
// are removed in both directions; later reads or writes are reported as
// use-after-destroy and have no reactive effect.
func (v *Value[T]) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.detachDependents()
}
