package ripple

// Observer is an output node: a side-effecting callable re-run by Flush
// whenever a dependency it read has changed. Observers never cache a result
// and nothing depends on them; they are the leaves of invalidation.
type Observer struct {
	node
	tracked

	fn func() error

	// stale means the observer is queued for the next flush pass.
	// It doubles as the enqueue-once guard.
	stale     bool
	destroyed bool
}

// ObserverOption configures an Observer at creation.
type ObserverOption func(*observerConfig)

type observerConfig struct {
	deferred bool
}

// Deferred makes the observer skip its immediate first run; it runs for the
// first time during the next Flush instead.
func Deferred() ObserverOption {
	return func(c *observerConfig) {
		c.deferred = true
	}
}

// NewObserver creates an observer in g and runs it once immediately to
// establish its initial dependency set, unless Deferred is given. Errors
// returned (or panics raised) by the callable go to the graph's error
// reporter; they never propagate into the scheduler.
func NewObserver(g *Graph, fn func() error, opts ...ObserverOption) *Observer {
	var cfg observerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	g.stats.ObserversCreated++
	o := &Observer{
		node: node{id: g.nextID(), graph: g},
		fn:   fn,
	}

	if cfg.deferred {
		o.stale = true
		g.enqueue(o)
	} else {
		o.run()
	}
	return o
}

// markStale schedules the observer for the next flush pass. Scheduling an
// already-queued observer is a no-op, so an observer invalidated many times
// between flushes still runs once per pass.
func (o *Observer) markStale() {
	if o.destroyed || o.stale {
		return
	}
	o.stale = true
	o.graph.enqueue(o)
}

// run clears the outgoing edges and executes the callable with this observer
// as the evaluation context, so its reads re-subscribe it to exactly what it
// currently depends on.
func (o *Observer) run() {
	if o.destroyed {
		return
	}
	o.stale = false
	o.clearSources(o)

	o.graph.pushEvaluator(o)
	err := o.call()
	o.graph.popEvaluator()

	o.graph.stats.ObserverRuns++
	if err != nil {
		o.graph.report(o.id, err)
	}
}

// call isolates panics in the user callable.
func (o *Observer) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputationError{ID: o.id, Panic: r}
		}
	}()
	return o.fn()
}

// ID returns the node identity of this observer.
func (o *Observer) ID() NodeID {
	return o.id
}

// Destroyed reports whether the observer has been destroyed.
func (o *Observer) Destroyed() bool {
	return o.destroyed
}

// Destroy makes the observer inert: it is unlinked from every dependency,
// dropped from the pending set, and will never run again. Destroy is
// idempotent and terminal.
func (o *Observer) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.stale = false
	o.clearSources(o)
}
