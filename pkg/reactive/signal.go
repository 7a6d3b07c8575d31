package reactive

// Signal is a reactive value container.
// Reading a Signal's value while a computed or effect is evaluating
// subscribes that node to the signal.
type Signal[T any] struct {
	base sourceBase

	// value is the current signal value.
	value T

	// equal suppresses writes of equal values when set. Signals notify on
	// every Set by default.
	equal func(T, T) bool

	transient bool
	disposed  bool
}

// NewSignal creates a new signal with the given initial value.
func NewSignal[T any](initial T, opts ...SignalOption) *Signal[T] {
	o := applyOptions(opts)
	return &Signal[T]{
		base:      sourceBase{id: nextID(), name: o.name, kind: "signal"},
		value:     initial,
		transient: o.transient,
	}
}

func (s *Signal[T]) node() *sourceBase    { return &s.base }
func (s *Signal[T]) refresh()             {}
func (s *Signal[T]) addSub(o observer)    { s.base.subscribe(o) }
func (s *Signal[T]) removeSub(o observer) { s.base.unsubscribe(o) }
func (s *Signal[T]) reactiveAccessor()    {}

// Get returns the current value and registers the signal as a dependency of
// the evaluating computed or effect, if any.
func (s *Signal[T]) Get() T {
	s.checkAlive("read")
	rt.track(s)
	return s.value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	s.checkAlive("read")
	return s.value
}

// Set stores value, bumps the version and notifies subscribers. Effects run
// before Set returns unless a batch is open.
//
// Set panics with a *TrackingMisuseError when called while a computed is
// evaluating or after Dispose.
func (s *Signal[T]) Set(value T) {
	s.checkAlive("write")
	rt.checkWrite(&s.base)
	if s.equal != nil && s.equal(s.value, value) {
		return
	}
	s.value = value
	rt.propagate(&s.base)
}

// Update replaces the value with fn applied to the current value.
// The current value is read without tracking.
func (s *Signal[T]) Update(fn func(T) T) {
	s.checkAlive("write")
	s.Set(fn(s.value))
}

// WithEquals returns the signal configured with an equality function. Writes
// of a value equal to the current one are then dropped without notifying.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Dispose detaches the signal from its subscribers. Later reads and writes
// panic with ErrDisposed.
func (s *Signal[T]) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.base.subs = nil
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 { return s.base.id }

// Name returns the label given with Named.
func (s *Signal[T]) Name() string { return s.base.name }

// Version returns the number of writes applied to the signal.
func (s *Signal[T]) Version() uint64 { return s.base.version }

// IsTransient reports whether the signal was created with Transient.
func (s *Signal[T]) IsTransient() bool { return s.transient }

// GetAny returns the current value as an interface{} through a tracked read.
func (s *Signal[T]) GetAny() any { return s.Get() }

// SetAny sets the value from an interface{}.
// Returns an error if the type doesn't match.
func (s *Signal[T]) SetAny(value any) error {
	if value == nil {
		var zero T
		s.Set(zero)
		return nil
	}
	v, ok := value.(T)
	if !ok {
		return &TrackingMisuseError{Op: "write", Node: s.base.label(), Err: errTypeMismatch(s.value, value)}
	}
	s.Set(v)
	return nil
}

func (s *Signal[T]) checkAlive(op string) {
	if s.disposed {
		panic(&TrackingMisuseError{Op: op, Node: s.base.label(), Err: ErrDisposed})
	}
}
