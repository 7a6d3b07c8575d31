package reactive

// Computed is a derived value that caches its result.
// It is recomputed lazily: a change upstream only marks it outdated, and the
// function runs again on the next read, and only if one of the values it
// read last time actually changed.
//
// A Computed subscribes to its dependencies only while something subscribes
// to it. An unobserved Computed holds no subscriptions and is collected like
// any other value once unreferenced; on read it validates its cache by
// comparing dependency versions.
type Computed[T any] struct {
	base sourceBase

	// fn computes the value.
	fn func() T

	// value is the cached result.
	value T

	// fault holds a panic raised by the last evaluation. It is re-raised by
	// Get until a dependency changes.
	fault any

	equal func(T, T) bool

	// deps are the sources read during the last evaluation, in read order.
	deps []dependency

	// seen is the runtime's global version when the cache was last validated.
	seen uint64

	// wave is the last write wave that reached this node.
	wave uint64

	ready     bool
	outdated  bool
	running   bool
	transient bool
}

// NewComputed creates a computed value. fn is not called until the first read.
func NewComputed[T any](fn func() T, opts ...SignalOption) *Computed[T] {
	o := applyOptions(opts)
	return &Computed[T]{
		base:      sourceBase{id: nextID(), name: o.name, kind: "computed"},
		fn:        fn,
		transient: o.transient,
	}
}

func (c *Computed[T]) node() *sourceBase  { return &c.base }
func (c *Computed[T]) observerID() uint64 { return c.base.id }
func (c *Computed[T]) reactiveAccessor()  {}

func (c *Computed[T]) live() bool {
	return len(c.base.subs) > 0
}

func (c *Computed[T]) addSub(o observer) {
	if c.base.subscribe(o) {
		// Becoming live: the cache was not kept current while dormant.
		c.outdated = true
		linkAll(c, c.deps)
	}
}

func (c *Computed[T]) removeSub(o observer) {
	if c.base.unsubscribe(o) {
		unlinkAll(c, c.deps)
	}
}

// notify marks the computed outdated and forwards the notification once
// per write wave. Recomputation waits for the next read.
func (c *Computed[T]) notify(wave uint64) {
	if c.wave == wave {
		return
	}
	c.wave = wave
	c.outdated = true
	for _, o := range c.base.subs {
		o.notify(wave)
	}
}

func (c *Computed[T]) refresh() {
	if c.running {
		return
	}
	if c.ready && !c.outdated && c.live() {
		return
	}
	if c.ready && c.seen == rt.globalVersion {
		c.outdated = false
		return
	}
	c.seen = rt.globalVersion
	if c.ready && !depsChanged(c.deps) {
		c.outdated = false
		return
	}
	c.recompute()
}

func (c *Computed[T]) recompute() {
	var (
		next  T
		fault any
		deps  []dependency
	)
	func() {
		c.running = true
		rt.computeDepth++
		col := rt.beginCollect(c)
		defer func() {
			fault = recover()
			deps = rt.endCollect(col)
			rt.computeDepth--
			c.running = false
		}()
		next = c.fn()
	}()

	rt.stats.recomputes.Add(1)
	if c.live() {
		relink(c, c.deps, deps)
	}
	c.deps = deps
	c.outdated = false

	if fault != nil {
		c.fault = fault
		c.ready = true
		c.base.version++
		return
	}
	if !c.ready || c.fault != nil || !c.equals(c.value, next) {
		c.value = next
		c.base.version++
	}
	c.fault = nil
	c.ready = true
}

func (c *Computed[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return DefaultEquals(a, b)
}

// Get returns the current value, recomputing it first when a dependency
// changed, and registers the computed as a dependency of the evaluating
// node.
//
// If the last evaluation panicked, Get re-raises the same panic value.
// Reading a computed from inside its own evaluation panics with a
// *TrackingMisuseError wrapping ErrComputedCycle.
func (c *Computed[T]) Get() T {
	if c.running {
		panic(&TrackingMisuseError{Op: "read", Node: c.base.label(), Err: ErrComputedCycle})
	}
	c.refresh()
	rt.track(c)
	if c.fault != nil {
		panic(c.fault)
	}
	return c.value
}

// Peek returns the current value without subscribing.
func (c *Computed[T]) Peek() T {
	prev := rt.untrack()
	defer rt.restore(prev)
	return c.Get()
}

// WithEquals returns the computed configured with a custom equality
// function. Dependents are only notified of a recomputation when the new
// value is not equal to the old one.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this computed.
func (c *Computed[T]) ID() uint64 { return c.base.id }

// Name returns the label given with Named.
func (c *Computed[T]) Name() string { return c.base.name }

// Version returns the number of distinct values the computed has produced.
func (c *Computed[T]) Version() uint64 { return c.base.version }

// IsTransient reports whether the computed was created with Transient.
func (c *Computed[T]) IsTransient() bool { return c.transient }

// GetAny returns the current value as an interface{} through a tracked read.
func (c *Computed[T]) GetAny() any { return c.Get() }
