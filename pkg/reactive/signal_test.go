package reactive

import (
	"errors"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalPeek(t *testing.T) {
	count := NewSignal(42)

	listener := newTestListener()
	listener.track(func() {
		if v := count.Peek(); v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	})

	count.Set(100)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe listener, got %d notifications", listener.getDirtyCount())
	}
}

func TestSignalSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()

	listener.track(func() {
		_ = count.Get()
		_ = count.Get()
	})
	if len(listener.deps) != 1 {
		t.Errorf("repeated reads should record one dependency, got %d", len(listener.deps))
	}

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Signals do not memoize: writing the same value notifies again.
	count.Set(1)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalNoTrackingOutsideContext(t *testing.T) {
	count := NewSignal(0)
	_ = count.Get()
	if len(count.base.subs) != 0 {
		t.Errorf("read outside a tracked context should not subscribe, got %d subs", len(count.base.subs))
	}
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	p := NewSignal(point{1, 2}).WithEquals(func(a, b point) bool { return a == b })
	listener := newTestListener()
	listener.track(func() { _ = p.Get() })

	p.Set(point{1, 2})
	if listener.getDirtyCount() != 0 {
		t.Errorf("equal write should be dropped, got %d notifications", listener.getDirtyCount())
	}
	v := p.Version()
	p.Set(point{2, 2})
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
	if p.Version() != v+1 {
		t.Errorf("expected version %d, got %d", v+1, p.Version())
	}
}

func TestSignalDispose(t *testing.T) {
	s := NewSignal(1, Named("answer"))
	listener := newTestListener()
	listener.track(func() { _ = s.Get() })

	s.Dispose()
	s.Dispose()

	err := panicErr(t, func() { s.Get() })
	if !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	var misuse *TrackingMisuseError
	if !errors.As(err, &misuse) || misuse.Node != "answer" {
		t.Errorf("expected misuse error naming the signal, got %v", err)
	}
	err = panicErr(t, func() { s.Set(2) })
	if !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed on write, got %v", err)
	}
	listener.stop()
}

func TestSignalSetAny(t *testing.T) {
	s := NewSignal(1)
	if err := s.SetAny(7); err != nil {
		t.Fatalf("SetAny: %v", err)
	}
	if s.GetAny() != 7 {
		t.Errorf("expected 7, got %v", s.GetAny())
	}
	if err := s.SetAny("seven"); err == nil {
		t.Error("expected type mismatch error")
	}
	if err := s.SetAny(nil); err != nil || s.Peek() != 0 {
		t.Errorf("SetAny(nil) should store the zero value, got %d, %v", s.Peek(), err)
	}
}

func TestIsSignal(t *testing.T) {
	var nilSignal *Signal[int]
	tests := []struct {
		name string
		x    any
		want bool
	}{
		{"signal", NewSignal(1), true},
		{"computed", NewComputed(func() int { return 1 }), true},
		{"nil", nil, false},
		{"typed nil", nilSignal, false},
		{"int", 1, false},
		{"func", func() int { return 1 }, false},
		{"atom", NewAtom("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSignal(tt.x); got != tt.want {
				t.Errorf("IsSignal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignalTransient(t *testing.T) {
	if NewSignal(0).IsTransient() {
		t.Error("signals are not transient by default")
	}
	if !NewSignal(0, Transient()).IsTransient() {
		t.Error("expected transient signal")
	}
}

func TestDefaultEquals(t *testing.T) {
	if !DefaultEquals(1, 1) || DefaultEquals(1, 2) {
		t.Error("int equality")
	}
	if !DefaultEquals([]int{1, 2}, []int{1, 2}) {
		t.Error("slices with equal elements should be equal")
	}
	if !DefaultEquals(map[string]int{"a": 1}, map[string]int{"a": 1}) {
		t.Error("maps with equal entries should be equal")
	}
}

func TestIdentical(t *testing.T) {
	a := []int{1, 2}
	b := []int{1, 2}
	if Identical(a, b) {
		t.Error("distinct slices should not be identical")
	}
	if !Identical(a, a) {
		t.Error("same slice should be identical")
	}
	if !Identical[any](nil, nil) {
		t.Error("nil should be identical to nil")
	}
	if Identical[any](1, "1") {
		t.Error("different types should not be identical")
	}
	if !Identical("x", "x") {
		t.Error("equal strings should be identical")
	}
}
