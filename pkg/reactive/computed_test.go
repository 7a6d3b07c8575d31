package reactive

import (
	"errors"
	"testing"
)

func TestComputedIsLazy(t *testing.T) {
	count := NewSignal(2)
	calls := 0
	doubled := NewComputed(func() int {
		calls++
		return count.Get() * 2
	})

	if calls != 0 {
		t.Fatalf("computed should not run before first read, ran %d times", calls)
	}
	if doubled.Get() != 4 {
		t.Errorf("expected 4, got %d", doubled.Get())
	}
	_ = doubled.Get()
	if calls != 1 {
		t.Errorf("cached read should not recompute, ran %d times", calls)
	}

	count.Set(5)
	if calls != 1 {
		t.Errorf("write should not recompute eagerly, ran %d times", calls)
	}
	if doubled.Get() != 10 {
		t.Errorf("expected 10, got %d", doubled.Get())
	}
	if calls != 2 {
		t.Errorf("expected 2 runs, got %d", calls)
	}
}

func TestComputedUnrelatedWriteSkipsRecompute(t *testing.T) {
	a := NewSignal(1)
	other := NewSignal(0)
	calls := 0
	c := NewComputed(func() int {
		calls++
		return a.Get()
	})
	_ = c.Get()
	other.Set(1)
	_ = c.Get()
	if calls != 1 {
		t.Errorf("unrelated write should not recompute, ran %d times", calls)
	}
}

func TestComputedDormantHoldsNoSubscriptions(t *testing.T) {
	s := NewSignal(1)
	c := NewComputed(func() int { return s.Get() + 1 })
	_ = c.Get()
	if len(s.base.subs) != 0 {
		t.Errorf("unobserved computed should not subscribe, got %d subs", len(s.base.subs))
	}

	e := CreateEffect(func() Cleanup {
		_ = c.Get()
		return nil
	})
	if len(s.base.subs) != 1 {
		t.Errorf("observed computed should subscribe upstream, got %d subs", len(s.base.subs))
	}

	e.Dispose()
	if len(s.base.subs) != 0 {
		t.Errorf("computed should unsubscribe when unobserved, got %d subs", len(s.base.subs))
	}
	s.Set(10)
	if c.Get() != 11 {
		t.Errorf("dormant computed should still read fresh values, got %d", c.Get())
	}
}

func TestComputedEqualValueCutsPropagation(t *testing.T) {
	n := NewSignal(2)
	even := NewComputed(func() bool { return n.Get()%2 == 0 })
	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = even.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	n.Set(4)
	if runs != 1 {
		t.Errorf("unchanged computed should not re-run effect, got %d runs", runs)
	}
	n.Set(5)
	if runs != 2 {
		t.Errorf("changed computed should re-run effect, got %d runs", runs)
	}
}

func TestComputedDiamondRunsOnce(t *testing.T) {
	a := NewSignal(1)
	b := NewComputed(func() int { return a.Get() * 2 })
	c := NewComputed(func() int { return a.Get() + 1 })
	d := NewComputed(func() int { return b.Get() + c.Get() })

	runs := 0
	var seen []int
	e := CreateEffect(func() Cleanup {
		seen = append(seen, d.Get())
		runs++
		return nil
	})
	defer e.Dispose()

	a.Set(2)
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
	if seen[len(seen)-1] != 7 {
		t.Errorf("expected 7, got %d", seen[len(seen)-1])
	}
}

func TestComputedDynamicDependencies(t *testing.T) {
	useA := NewSignal(true)
	a := NewSignal("a")
	b := NewSignal("b")
	calls := 0
	pick := NewComputed(func() string {
		calls++
		if useA.Get() {
			return a.Get()
		}
		return b.Get()
	})
	e := CreateEffect(func() Cleanup {
		_ = pick.Get()
		return nil
	})
	defer e.Dispose()

	useA.Set(false)
	if len(a.base.subs) != 0 {
		t.Errorf("branch no longer taken should be unsubscribed, got %d subs", len(a.base.subs))
	}
	before := calls
	a.Set("a2")
	if calls != before {
		t.Errorf("write to dropped dependency should not recompute, got %d extra runs", calls-before)
	}
	b.Set("b2")
	if pick.Get() != "b2" {
		t.Errorf("expected b2, got %q", pick.Get())
	}
}

func TestComputedPanicIsCachedAndRethrown(t *testing.T) {
	n := NewSignal(-1)
	calls := 0
	sqrt := NewComputed(func() int {
		calls++
		if n.Get() < 0 {
			panic("negative input")
		}
		return n.Get()
	})

	for i := 0; i < 2; i++ {
		if p := mustPanic(t, func() { sqrt.Get() }); p != "negative input" {
			t.Errorf("expected cached panic value, got %v", p)
		}
	}
	if calls != 1 {
		t.Errorf("panic should be cached until a dependency changes, ran %d times", calls)
	}

	n.Set(9)
	if sqrt.Get() != 9 {
		t.Errorf("expected 9, got %d", sqrt.Get())
	}
}

func TestComputedSelfReadIsCycle(t *testing.T) {
	var c *Computed[int]
	c = NewComputed(func() int { return c.Get() + 1 }, Named("loop"))

	err := panicErr(t, func() { c.Get() })
	if !errors.Is(err, ErrComputedCycle) {
		t.Errorf("expected ErrComputedCycle, got %v", err)
	}
}

func TestComputedWriteIsMisuse(t *testing.T) {
	s := NewSignal(0)
	bad := NewComputed(func() int {
		s.Set(1)
		return 0
	})
	err := panicErr(t, func() { bad.Get() })
	if !errors.Is(err, ErrWriteInComputed) {
		t.Errorf("expected ErrWriteInComputed, got %v", err)
	}
	if s.Peek() != 0 {
		t.Errorf("write should not be applied, got %d", s.Peek())
	}
}

func TestComputedWithEquals(t *testing.T) {
	s := NewSignal([]int{1, 2, 3})
	length := NewComputed(func() []int { return s.Get() }).
		WithEquals(func(a, b []int) bool { return len(a) == len(b) })
	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = length.Get()
		runs++
		return nil
	})
	defer e.Dispose()

	s.Set([]int{4, 5, 6})
	if runs != 1 {
		t.Errorf("custom equality should suppress the change, got %d runs", runs)
	}
	s.Set([]int{1})
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

func TestComputedPeek(t *testing.T) {
	s := NewSignal(1)
	c := NewComputed(func() int { return s.Get() })
	l := newTestListener()
	l.track(func() { _ = c.Peek() })
	if len(l.deps) != 0 {
		t.Errorf("Peek should not record a dependency, got %d", len(l.deps))
	}
}
