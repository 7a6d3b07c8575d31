package reactive

import (
	"fmt"
	"time"
)

// WatchOption configures Watch and WatchMultiple.
type WatchOption func(*watchConfig)

type watchConfig struct {
	name      string
	immediate bool
	once      bool
	debounce  time.Duration
	equals    any
	dispatch  func(func())
}

// Immediate invokes the callback once at setup with the zero value as the
// old value.
func Immediate() WatchOption {
	return func(c *watchConfig) { c.immediate = true }
}

// Once disposes the watch after the first callback.
func Once() WatchOption {
	return func(c *watchConfig) { c.once = true }
}

// Debounce delays the callback until the watched value has been stable for
// d. Only the last value in the window is delivered, paired with the value
// from before the window opened.
func Debounce(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.debounce = d }
}

// WatchEquals replaces DefaultEquals for deciding whether the watched value
// changed. For WatchMultiple it compares individual elements. T must match
// the watched type.
func WatchEquals[T any](fn func(a, b T) bool) WatchOption {
	return func(c *watchConfig) { c.equals = fn }
}

// WatchName labels the watch in logs and hooks.
func WatchName(name string) WatchOption {
	return func(c *watchConfig) { c.name = name }
}

// WithDispatcher sets how debounced callbacks reach the graph's goroutine,
// overriding Config.Dispatch for this watch.
func WithDispatcher(dispatch func(fn func())) WatchOption {
	return func(c *watchConfig) { c.dispatch = dispatch }
}

func applyWatchOptions(opts []WatchOption) watchConfig {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Watch calls callback whenever the value returned by getter changes.
// getter runs tracked; callback runs untracked, with the new and previous
// values. The returned function stops the watch and any pending debounce
// timer.
//
// A panic in getter is logged as a *GetterError and that change is skipped;
// the watch keeps its subscriptions. A panic in callback is logged as a
// *CallbackError.
func Watch[T any](getter func() T, callback func(newValue, oldValue T), opts ...WatchOption) Dispose {
	cfg := applyWatchOptions(opts)
	equals := DefaultEquals[T]
	if cfg.equals != nil {
		fn, ok := cfg.equals.(func(a, b T) bool)
		if !ok {
			panic(&TrackingMisuseError{Op: "watch", Node: cfg.name, Err: fmt.Errorf("equality function %T does not compare %T", cfg.equals, *new(T))})
		}
		equals = fn
	}
	return startWatch(getter, callback, equals, cfg)
}

// WatchMultiple watches several getters at once. The callback receives the
// current and previous values in getter order; it fires when any element
// changed.
func WatchMultiple[T any](getters []func() T, callback func(newValues, oldValues []T), opts ...WatchOption) Dispose {
	cfg := applyWatchOptions(opts)
	elem := DefaultEquals[T]
	if cfg.equals != nil {
		fn, ok := cfg.equals.(func(a, b T) bool)
		if !ok {
			panic(&TrackingMisuseError{Op: "watch", Node: cfg.name, Err: fmt.Errorf("equality function %T does not compare %T", cfg.equals, *new(T))})
		}
		elem = fn
	}
	getter := func() []T {
		values := make([]T, len(getters))
		for i, g := range getters {
			values[i] = g()
		}
		return values
	}
	equals := func(a, b []T) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !elem(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	return startWatch(getter, callback, equals, cfg)
}

// WatchOnce is Watch with the Once option.
func WatchOnce[T any](getter func() T, callback func(newValue, oldValue T), opts ...WatchOption) Dispose {
	return Watch(getter, callback, append(opts, Once())...)
}

// WatchDebounced is Watch with the Debounce option.
func WatchDebounced[T any](getter func() T, callback func(newValue, oldValue T), d time.Duration, opts ...WatchOption) Dispose {
	return Watch(getter, callback, append(opts, Debounce(d))...)
}

type watcher[T any] struct {
	cfg      watchConfig
	getter   func() T
	callback func(newValue, oldValue T)
	equals   func(a, b T) bool

	effect   *Effect
	owner    ownerSlot
	current  T
	primed   bool
	disposed bool

	// Debounce window state.
	timer      *time.Timer
	generation uint64
	windowOpen bool
	windowOld  T
	windowNew  T
}

func startWatch[T any](getter func() T, callback func(newValue, oldValue T), equals func(a, b T) bool, cfg watchConfig) Dispose {
	w := &watcher[T]{cfg: cfg, getter: getter, callback: callback, equals: equals}
	if w.cfg.dispatch == nil {
		w.cfg.dispatch = rt.cfg.Dispatch
	}
	w.owner.attach(w.dispose)
	w.effect = CreateEffect(func() Cleanup {
		w.evaluate()
		return nil
	}, EffectName(w.label()))
	if w.disposed {
		w.effect.Dispose()
	}
	return w.dispose
}

func (w *watcher[T]) label() string {
	if w.cfg.name != "" {
		return w.cfg.name
	}
	return "watch"
}

func (w *watcher[T]) evaluate() {
	if w.disposed {
		return
	}
	value, err := w.read()
	if err != nil {
		// Keep the previous subscriptions so a later fix can recover.
		if w.effect != nil {
			for _, d := range w.effect.deps {
				rt.track(d.src)
			}
		}
		w.fail("getter", err)
		return
	}
	if !w.primed {
		w.primed = true
		w.current = value
		if w.cfg.immediate {
			var zero T
			w.deliver(value, zero)
		}
		return
	}
	if w.equals(value, w.current) {
		return
	}
	old := w.current
	w.current = value
	if w.cfg.debounce > 0 {
		w.schedule(value, old)
		return
	}
	w.deliver(value, old)
}

func (w *watcher[T]) read() (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &GetterError{Watch: w.label(), Cause: panicError(p)}
		}
	}()
	return w.getter(), nil
}

func (w *watcher[T]) deliver(newValue, oldValue T) {
	if w.disposed {
		return
	}
	if w.cfg.once {
		defer w.dispose()
	}
	defer func() {
		if p := recover(); p != nil {
			w.fail("callback", &CallbackError{Source: w.label(), Cause: panicError(p)})
		}
	}()
	Untracked(func() {
		w.callback(newValue, oldValue)
	})
}

func (w *watcher[T]) schedule(newValue, oldValue T) {
	if !w.windowOpen {
		w.windowOpen = true
		w.windowOld = oldValue
	}
	w.windowNew = newValue
	w.generation++
	gen := w.generation
	if w.timer != nil {
		w.timer.Stop()
	}
	dispatch := w.cfg.dispatch
	w.timer = time.AfterFunc(w.cfg.debounce, func() {
		dispatch(func() { w.fire(gen) })
	})
}

// fire delivers the debounced value. It runs on the dispatcher's goroutine.
func (w *watcher[T]) fire(gen uint64) {
	if w.disposed || !w.windowOpen || gen != w.generation {
		return
	}
	w.windowOpen = false
	w.timer = nil
	newValue, oldValue := w.windowNew, w.windowOld
	var zero T
	w.windowNew, w.windowOld = zero, zero
	if w.equals(newValue, oldValue) {
		return
	}
	Batch(func() {
		w.deliver(newValue, oldValue)
	})
}

func (w *watcher[T]) fail(stage string, err error) {
	rt.cfg.Logger.Warn("watch failed", "watch", w.label(), "stage", stage, "error", err)
	rt.cfg.Hooks.WatchFailed(w.cfg.name, stage, err)
}

func (w *watcher[T]) dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	w.owner.detach()
	w.generation++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.effect != nil {
		w.effect.Dispose()
	}
}
