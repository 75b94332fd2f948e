package ripple

import "log/slog"

// DefaultMaxFlushPasses bounds how many times a single Flush call will chase
// invalidations caused by the observers it just ran. Hosts with observers
// that legitimately cascade deeper can raise it with WithMaxFlushPasses.
const DefaultMaxFlushPasses = 100

// ErrorReporter receives errors the engine cannot return at a call site:
// observer failures, cycle detection, use-after-destroy, equality hook
// panics, and flush budget exhaustion. id is 0 for graph-level errors.
type ErrorReporter func(id NodeID, err error)

// Option configures a Graph.
type Option func(*Graph)

// WithErrorReporter sets the host callback for engine errors.
// The default reporter logs through slog.
func WithErrorReporter(fn ErrorReporter) Option {
	return func(g *Graph) {
		if fn != nil {
			g.report = fn
		}
	}
}

// WithMaxFlushPasses sets the re-entrancy bound for a single Flush call.
func WithMaxFlushPasses(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxFlushPasses = n
		}
	}
}

// Stats are monotonic counters for the host's observability layer.
// Like every other graph operation, Stats must be read on the graph's
// confinement goroutine.
type Stats struct {
	ValuesCreated    uint64
	ExprsCreated     uint64
	ObserversCreated uint64

	Invalidations uint64
	Recomputes    uint64
	ObserverRuns  uint64
	Flushes       uint64
}

// Graph is one reactive dependency graph: a set of values, expressions, and
// observers with a single logical timeline. All operations on one graph must
// be confined to one goroutine; independent graphs are fully isolated.
type Graph struct {
	lastID uint64

	// evalStack holds the currently evaluating nodes, innermost last.
	// Reads consult only the top frame.
	evalStack []evaluator

	// pending are observers invalidated since the last flush pass,
	// in invalidation order. The per-observer stale flag deduplicates.
	pending []*Observer

	flushing       bool
	maxFlushPasses int

	report ErrorReporter
	stats  Stats
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		maxFlushPasses: DefaultMaxFlushPasses,
	}
	g.report = func(id NodeID, err error) {
		slog.Error("ripple: engine error", "node", uint64(id), "err", err)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// nextID allocates a node identity. IDs start at 1; 0 is reserved.
func (g *Graph) nextID() NodeID {
	g.lastID++
	return NodeID(g.lastID)
}

// currentEvaluator returns the node whose evaluation is in progress, or nil
// when reads should not be tracked.
func (g *Graph) currentEvaluator() evaluator {
	if len(g.evalStack) == 0 {
		return nil
	}
	return g.evalStack[len(g.evalStack)-1]
}

func (g *Graph) pushEvaluator(ev evaluator) {
	g.evalStack = append(g.evalStack, ev)
}

func (g *Graph) popEvaluator() {
	g.evalStack = g.evalStack[:len(g.evalStack)-1]
}

// recordRead links the currently evaluating node (if any) to target, in both
// directions. Reads outside any evaluation are untracked and legal.
func (g *Graph) recordRead(target *node) {
	ev := g.currentEvaluator()
	if ev == nil {
		return
	}
	target.addDependent(ev)
	ev.addSource(target)
}

// enqueue schedules an observer for the next flush pass.
// Callers have already set the observer's stale flag, which guarantees
// enqueue-once per pass.
func (g *Graph) enqueue(o *Observer) {
	g.pending = append(g.pending, o)
}

// InFlush reports whether a flush pass is currently executing.
func (g *Graph) InFlush() bool {
	return g.flushing
}

// HasPending reports whether any observer is waiting for a flush.
func (g *Graph) HasPending() bool {
	return len(g.pending) > 0
}

// Flush runs every pending observer exactly once per pass, in invalidation
// order. Value writes performed by observers during the flush are captured
// into a fresh pending set and processed as additional passes within the
// same call, bounded by the configured pass budget. When the budget is
// exhausted the remainder stays queued for the next Flush and the host is
// told via the error reporter. A Flush triggered from inside a running flush
// is a no-op; the outer flush already covers the queued work.
func (g *Graph) Flush() {
	if g.flushing {
		return
	}
	g.flushing = true
	defer func() { g.flushing = false }()

	g.stats.Flushes++

	for pass := 0; len(g.pending) > 0; pass++ {
		if pass >= g.maxFlushPasses {
			g.report(0, &FlushBudgetError{Passes: pass, Pending: len(g.pending)})
			return
		}

		batch := g.pending
		g.pending = nil

		for _, o := range batch {
			// Destroyed while queued, or already run via some other
			// path in this pass.
			if o.destroyed || !o.stale {
				continue
			}
			o.run()
		}
	}
}

// Stats returns a copy of the graph's counters.
func (g *Graph) Stats() Stats {
	return g.stats
}

// Untracked runs fn with dependency tracking suspended: reads inside fn do
// not subscribe the currently evaluating node.
func (g *Graph) Untracked(fn func()) {
	g.pushEvaluator(nil)
	defer g.popEvaluator()
	fn()
}
