package reactive

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWatchReportsNewAndOld(t *testing.T) {
	s := NewSignal(1)
	type call struct{ newV, oldV int }
	var calls []call

	stop := Watch(s.Get, func(newV, oldV int) {
		calls = append(calls, call{newV, oldV})
	})
	defer stop()

	if len(calls) != 0 {
		t.Fatalf("watch should not fire at setup, got %v", calls)
	}
	s.Set(2)
	s.Set(2)
	s.Set(5)
	want := []call{{2, 1}, {5, 2}}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %v, got %v", i, want[i], calls[i])
		}
	}
}

func TestWatchImmediate(t *testing.T) {
	s := NewSignal("a")
	var got [][2]string
	stop := Watch(s.Get, func(n, o string) { got = append(got, [2]string{n, o}) }, Immediate())
	defer stop()
	if len(got) != 1 || got[0] != [2]string{"a", ""} {
		t.Errorf("expected immediate call with zero old value, got %v", got)
	}
}

func TestWatchOnce(t *testing.T) {
	s := NewSignal(0)
	calls := 0
	WatchOnce(s.Get, func(int, int) { calls++ })
	s.Set(1)
	s.Set(2)
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
	if len(s.base.subs) != 0 {
		t.Errorf("once watch should unsubscribe, got %d subs", len(s.base.subs))
	}
}

func TestWatchImmediateOnce(t *testing.T) {
	s := NewSignal(0)
	calls := 0
	Watch(s.Get, func(int, int) { calls++ }, Immediate(), Once())
	s.Set(1)
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
	if len(s.base.subs) != 0 {
		t.Errorf("watch should be disposed, got %d subs", len(s.base.subs))
	}
}

func TestWatchCallbackIsUntracked(t *testing.T) {
	s := NewSignal(0)
	other := NewSignal(0)
	calls := 0
	stop := Watch(s.Get, func(int, int) {
		_ = other.Get()
		calls++
	})
	defer stop()
	s.Set(1)
	other.Set(1)
	if calls != 1 {
		t.Errorf("callback reads should not be tracked, got %d calls", calls)
	}
}

func TestWatchCustomEquals(t *testing.T) {
	s := NewSignal("Hello")
	calls := 0
	stop := Watch(s.Get, func(string, string) { calls++ },
		WatchEquals(strings.EqualFold))
	defer stop()
	s.Set("HELLO")
	if calls != 0 {
		t.Errorf("equal-by-comparator value should not fire, got %d", calls)
	}
	s.Set("bye")
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
}

func TestWatchEqualsTypeMismatchPanics(t *testing.T) {
	s := NewSignal(1)
	err := panicErr(t, func() {
		Watch(s.Get, func(int, int) {}, WatchEquals(strings.EqualFold))
	})
	var misuse *TrackingMisuseError
	if !errors.As(err, &misuse) {
		t.Errorf("expected *TrackingMisuseError, got %v", err)
	}
}

func TestWatchMultiple(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	var got [][]int
	stop := WatchMultiple([]func() int{a.Get, b.Get}, func(n, o []int) {
		got = append(got, append(append([]int{}, n...), o...))
	})
	defer stop()

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})
	if len(got) != 1 {
		t.Fatalf("expected one call, got %v", got)
	}
	want := []int{10, 20, 1, 2}
	for i := range want {
		if got[0][i] != want[i] {
			t.Errorf("expected %v, got %v", want, got[0])
			break
		}
	}
}

func TestWatchGetterPanicKeepsSubscription(t *testing.T) {
	hooks := newRecordingHooks()
	Configure(Config{Logger: testConfig.Logger, Hooks: hooks})
	t.Cleanup(func() { Configure(testConfig) })

	s := NewSignal(0)
	var got [][2]int
	stop := Watch(func() int {
		if s.Get() == 1 {
			panic("bad state")
		}
		return s.Get()
	}, func(n, o int) { got = append(got, [2]int{n, o}) }, WatchName("fragile"))
	defer stop()

	s.Set(1)
	if len(got) != 0 {
		t.Errorf("failed getter should suppress the callback, got %v", got)
	}
	if len(hooks.watchFails) != 1 || hooks.watchFails[0] != "fragile:getter" {
		t.Errorf("expected getter failure hook, got %v", hooks.watchFails)
	}
	s.Set(2)
	if len(got) != 1 || got[0] != [2]int{2, 0} {
		t.Errorf("expected recovery with (2, 0), got %v", got)
	}
}

func TestWatchCallbackPanicIsContained(t *testing.T) {
	hooks := newRecordingHooks()
	Configure(Config{Logger: testConfig.Logger, Hooks: hooks})
	t.Cleanup(func() { Configure(testConfig) })

	s := NewSignal(0)
	calls := 0
	stop := Watch(s.Get, func(n, _ int) {
		calls++
		if n == 1 {
			panic("callback bug")
		}
	}, WatchName("noisy"))
	defer stop()

	s.Set(1)
	s.Set(2)
	if calls != 2 {
		t.Errorf("expected watch to keep working, got %d calls", calls)
	}
	if len(hooks.watchFails) != 1 || hooks.watchFails[0] != "noisy:callback" {
		t.Errorf("expected callback failure hook, got %v", hooks.watchFails)
	}
}

// loop collects dispatched functions so the test goroutine can run them.
type loop chan func()

func (l loop) dispatch(fn func()) { l <- fn }

// drainUntil runs dispatched functions until cond holds or the timeout hits.
func (l loop) drainUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case fn := <-l:
			fn()
		case <-deadline:
			t.Fatal("timed out waiting for dispatched callback")
		}
	}
}

func TestWatchDebounced(t *testing.T) {
	s := NewSignal(0)
	events := make(loop, 16)
	var got [][2]int
	stop := WatchDebounced(s.Get, func(n, o int) {
		got = append(got, [2]int{n, o})
	}, 20*time.Millisecond, WithDispatcher(events.dispatch))
	defer stop()

	s.Set(1)
	s.Set(2)
	s.Set(3)
	if len(got) != 0 {
		t.Fatalf("debounced watch should not fire synchronously, got %v", got)
	}
	events.drainUntil(t, 2*time.Second, func() bool { return len(got) > 0 })
	if len(got) != 1 || got[0] != [2]int{3, 0} {
		t.Errorf("expected only the last value (3, 0), got %v", got)
	}
}

func TestWatchDisposeCancelsDebounce(t *testing.T) {
	s := NewSignal(0)
	events := make(loop, 16)
	calls := 0
	stop := Watch(s.Get, func(int, int) { calls++ },
		Debounce(10*time.Millisecond), WithDispatcher(events.dispatch))

	s.Set(1)
	stop()
	time.Sleep(40 * time.Millisecond)
	for len(events) > 0 {
		(<-events)()
	}
	if calls != 0 {
		t.Errorf("disposed watch should not fire, got %d calls", calls)
	}
}

// waitDeferred runs deferred work as it arrives until cond holds.
func waitDeferred(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-Deferred():
			RunDeferred()
		case <-deadline:
			t.Fatal("timed out waiting for deferred work")
		}
	}
}

func TestWatchDebouncedDefaultDispatchStaysOnOwner(t *testing.T) {
	s := NewSignal(0)
	other := NewSignal(0)
	var got [][2]int
	stop := WatchDebounced(s.Get, func(n, o int) {
		got = append(got, [2]int{n, o})
		other.Set(n * 10)
	}, time.Millisecond)
	defer stop()

	// Keep writing on this goroutine while timers expire.
	deadline := time.Now().Add(50 * time.Millisecond)
	for i := 1; time.Now().Before(deadline); i++ {
		s.Set(i)
		other.Set(-i)
		time.Sleep(100 * time.Microsecond)
	}
	last := s.Peek()
	time.Sleep(10 * time.Millisecond)
	waitDeferred(t, 2*time.Second, func() bool {
		return len(got) > 0 && got[len(got)-1][0] == last
	})

	if IsBatchingUpdates() {
		t.Fatal("batch left open after debounced delivery")
	}
	if other.Peek() != last*10 {
		t.Errorf("expected callback write %d, got %d", last*10, other.Peek())
	}

	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	defer e.Dispose()
	s.Set(-1)
	if runs != 2 {
		t.Errorf("effects should keep running after debounced delivery, got %d runs", runs)
	}
}

func TestWatchDebouncedDeliversAtBatchExit(t *testing.T) {
	s := NewSignal(0)
	trigger := NewSignal(0)
	e := CreateEffect(func() Cleanup {
		_ = trigger.Get()
		return nil
	})
	defer e.Dispose()

	calls := 0
	stop := WatchDebounced(s.Get, func(int, int) { calls++ }, time.Millisecond)
	defer stop()

	RunDeferred()
	s.Set(1)
	select {
	case <-Deferred():
	case <-time.After(2 * time.Second):
		t.Fatal("debounce window never expired")
	}
	if calls != 0 {
		t.Fatalf("debounced callback ran off the owning goroutine, got %d calls", calls)
	}
	Batch(func() { trigger.Set(1) })
	if calls != 1 {
		t.Errorf("expected delivery when the batch exited, got %d calls", calls)
	}
}
