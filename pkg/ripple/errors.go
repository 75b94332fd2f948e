package ripple

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The engine reports structured error
// values (below) that unwrap to these.
var (
	// ErrCyclic is reported when a node (transitively) reads itself during
	// its own evaluation.
	ErrCyclic = errors.New("ripple: cyclic dependency")

	// ErrDestroyed is reported when a destroyed node is read or written.
	ErrDestroyed = errors.New("ripple: node used after destroy")

	// ErrFlushBudget is reported when a single Flush call exceeds its pass
	// budget because observers kept triggering further invalidations.
	ErrFlushBudget = errors.New("ripple: flush pass budget exceeded")
)

// CyclicError reports a self-referential read during evaluation.
type CyclicError struct {
	ID NodeID
}

func (e *CyclicError) Error() string {
	return fmt.Sprintf("ripple: cyclic dependency: node %d read during its own evaluation", e.ID)
}

func (e *CyclicError) Unwrap() error { return ErrCyclic }

// DestroyedError reports an operation on a destroyed node.
type DestroyedError struct {
	ID NodeID
	Op string
}

func (e *DestroyedError) Error() string {
	return fmt.Sprintf("ripple: %s on destroyed node %d", e.Op, e.ID)
}

func (e *DestroyedError) Unwrap() error { return ErrDestroyed }

// ComputationError wraps a panic recovered from a user computation. For
// expressions it is cached exactly like a successful outcome; for observers
// it is handed to the error reporter.
type ComputationError struct {
	ID    NodeID
	Panic any
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("ripple: computation on node %d panicked: %v", e.ID, e.Panic)
}

// EqualityError wraps a panic recovered from a user equality hook.
// The comparison is treated as "values differ".
type EqualityError struct {
	ID    NodeID
	Panic any
}

func (e *EqualityError) Error() string {
	return fmt.Sprintf("ripple: equality hook on node %d panicked: %v", e.ID, e.Panic)
}

// FlushBudgetError carries the state of a flush that hit its pass budget.
// Unfinished observers stay queued for the next Flush; no work is dropped.
type FlushBudgetError struct {
	Passes  int
	Pending int
}

func (e *FlushBudgetError) Error() string {
	return fmt.Sprintf("ripple: flush stopped after %d passes with %d observers pending", e.Passes, e.Pending)
}

func (e *FlushBudgetError) Unwrap() error { return ErrFlushBudget }
