// Package ripple implements a reactive dependency-tracking engine.
//
// The engine tracks which reactive nodes a computation reads while it runs,
// so dependencies never have to be declared by hand. A write to a value
// invalidates exactly the derived state that read it, and derived state is
// recomputed lazily, only when a reader demands it.
//
// # Core Types
//
// Value[T] is a mutable reactive container:
//
//	g := ripple.New()
//	count := ripple.NewValue(g, 0)
//	n := count.Get()  // records a dependency if read inside a computation
//	count.Set(5)      // invalidates everything that read it
//
// Expr[T] is a cached derived computation:
//
//	doubled := ripple.NewExpr(g, func() (int, error) {
//	    return count.Get() * 2, nil
//	})
//	v, err := doubled.Get()  // recomputes only if a dependency changed
//
// Observer is an output with side effects, re-run by Flush when invalidated:
//
//	ripple.NewObserver(g, func() error {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
//
// Writes never execute downstream work inline. They invalidate and schedule;
// the host calls Flush at its own cadence to run pending observers, which
// pull fresh expression values on demand.
//
// # Concurrency
//
// A Graph is a single logical timeline: all reads, writes, and flushes for
// one graph must happen on one goroutine (for example, one session loop per
// graph). Independent graphs are fully isolated and may run concurrently.
package ripple
