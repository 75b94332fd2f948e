package ripple

import (
	"errors"
	"testing"
)

func TestValueGetSet(t *testing.T) {
	g := New()
	v := NewValue(g, 42)

	if got := v.Get(); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	v.Set(100)
	if got := v.Get(); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestValueUpdate(t *testing.T) {
	g := New()
	v := NewValue(g, 10)

	v.Update(func(n int) int { return n + 5 })
	if got := v.Get(); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
}

func TestValueUntrackedReadOutsideEvaluation(t *testing.T) {
	// Reads outside any evaluation are legal and create no edges.
	g := New()
	v := NewValue(g, "hello")

	_ = v.Get()
	if len(v.dependents) != 0 {
		t.Errorf("expected no dependents, got %d", len(v.dependents))
	}
}

func TestValueNoOpWrite(t *testing.T) {
	// Writing the value a cell already holds triggers zero invalidations.
	g := New()
	v := NewValue(g, 7)

	runs := 0
	NewObserver(g, func() error {
		runs++
		_ = v.Get()
		return nil
	})
	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	v.Set(7)
	g.Flush()
	if runs != 1 {
		t.Errorf("no-op write triggered observer: %d runs", runs)
	}
	if got := g.Stats().Invalidations; got != 0 {
		t.Errorf("expected 0 invalidations, got %d", got)
	}
}

func TestValueCustomEquality(t *testing.T) {
	// Equality hook that compares only the integer part: fractional-only
	// changes are no-op writes.
	g := New()
	v := NewValue(g, 1.2).WithEquals(func(a, b float64) bool {
		return int(a) == int(b)
	})

	runs := 0
	NewObserver(g, func() error {
		runs++
		_ = v.Get()
		return nil
	})

	v.Set(1.9)
	g.Flush()
	if runs != 1 {
		t.Errorf("expected equality hook to suppress write, got %d runs", runs)
	}

	v.Set(2.0)
	g.Flush()
	if runs != 2 {
		t.Errorf("expected second run after real change, got %d runs", runs)
	}
}

func TestValueEqualityPanicTreatedAsDifferent(t *testing.T) {
	// A panicking equality hook means "values differ": the write goes
	// through and the panic is reported.
	var reported []error
	g := New(WithErrorReporter(func(id NodeID, err error) {
		reported = append(reported, err)
	}))

	v := NewValue(g, 1).WithEquals(func(a, b int) bool {
		panic("bad hook")
	})

	runs := 0
	NewObserver(g, func() error {
		runs++
		_ = v.Get()
		return nil
	})

	v.Set(2)
	g.Flush()

	if got := v.Peek(); got != 2 {
		t.Errorf("expected write to go through, got %d", got)
	}
	if runs != 2 {
		t.Errorf("expected observer re-run, got %d runs", runs)
	}

	found := false
	for _, err := range reported {
		var eqErr *EqualityError
		if errors.As(err, &eqErr) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an EqualityError report, got %v", reported)
	}
}

func TestValueDestroy(t *testing.T) {
	var reported []error
	g := New(WithErrorReporter(func(id NodeID, err error) {
		reported = append(reported, err)
	}))

	v := NewValue(g, 1)
	runs := 0
	NewObserver(g, func() error {
		runs++
		_ = v.Get()
		return nil
	})

	v.Destroy()

	// Writes after destroy are reported and have no reactive effect.
	v.Set(99)
	g.Flush()
	if runs != 1 {
		t.Errorf("destroyed value still invalidated observer: %d runs", runs)
	}

	if len(reported) == 0 || !errors.Is(reported[0], ErrDestroyed) {
		t.Errorf("expected ErrDestroyed report, got %v", reported)
	}

	// Destroy is idempotent.
	v.Destroy()
}

func TestValueDestroyUnlinksBothDirections(t *testing.T) {
	g := New()
	a := NewValue(g, 1)
	b := NewValue(g, 2)

	e := NewExpr(g, func() (int, error) {
		return a.Get() + b.Get(), nil
	})
	if v, _ := e.Get(); v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
	if len(e.sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(e.sources))
	}

	a.Destroy()

	// The mirror edge must be gone from the expression's source set too.
	if len(e.sources) != 1 {
		t.Errorf("expected 1 source after destroy, got %d", len(e.sources))
	}
	if len(a.dependents) != 0 {
		t.Errorf("expected destroyed value to have no dependents")
	}
}
