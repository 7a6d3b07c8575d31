package reactive

import "time"

// Effect represents a reactive side effect that runs when its dependencies change.
//
// Effects run immediately when created, and re-run whenever any signal or
// computed they read during execution changes. They can return a Cleanup
// function that will be called before the effect re-runs or when the effect
// is disposed. The dependency set is collected again on every run.
type Effect struct {
	id   uint64
	name string

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the function returned by the last run.
	cleanup Cleanup

	// deps are the sources read during the last run.
	deps []dependency

	owner ownerSlot

	queued   bool
	running  bool
	disposed bool
}

func (e *Effect) notify(uint64)      { rt.enqueue(e) }
func (e *Effect) observerID() uint64 { return e.id }

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 { return e.id }

// Name returns the label given with EffectName.
func (e *Effect) Name() string { return e.name }

func (e *Effect) label() string {
	if e.name != "" {
		return e.name
	}
	return "effect#" + itoa(e.id)
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool { return e.disposed }

// execute runs the effect body once, converting a panic into an *EffectError.
func (e *Effect) execute() (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = &EffectError{Effect: e.label(), Cause: panicError(p)}
		}
		rt.stats.effectRuns.Add(1)
		rt.cfg.Hooks.EffectRan(e.name, time.Since(start), err)
		if rt.cfg.Debug.LogEffects {
			rt.cfg.Logger.Debug("effect ran", "effect", e.label(), "duration", time.Since(start), "error", err)
		}
	}()
	e.run()
	return nil
}

// run executes the effect function under a fresh collector and relinks the
// effect to the sources it read.
func (e *Effect) run() {
	if e.disposed {
		return
	}
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		Untracked(cleanup)
	}

	e.running = true
	before := rt.globalVersion
	col := rt.beginCollect(e)
	defer func() {
		deps := rt.endCollect(col)
		e.running = false
		if e.disposed {
			// Disposed from inside its own body.
			unlinkAll(e, e.deps)
			e.deps = nil
			if e.cleanup != nil {
				cleanup := e.cleanup
				e.cleanup = nil
				Untracked(cleanup)
			}
			return
		}
		relink(e, e.deps, deps)
		e.deps = deps
		// A write made during the run may have changed something already
		// read; the next flush pass checks the recorded versions.
		if rt.globalVersion != before {
			rt.enqueue(e)
		}
	}()
	e.cleanup = e.fn()
}

// Dispose stops the effect, runs its cleanup and unsubscribes it from every
// source. It is idempotent and safe to call from inside the effect body or
// while the effect is queued.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	rt.stats.activeEffects.Add(-1)
	e.owner.detach()
	if e.running {
		return
	}
	unlinkAll(e, e.deps)
	e.deps = nil
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		Untracked(cleanup)
	}
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// EffectName labels the effect in logs, errors and hooks.
func EffectName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// CreateEffect creates and runs a new effect within the current owner.
// The function runs immediately and re-runs when any signal or computed it
// reads changes. Writes made by the first run are batched and flushed when
// it returns.
//
// A panic during the first run disposes the effect and is re-raised as an
// *EffectError.
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{id: nextID(), fn: fn}
	for _, opt := range opts {
		opt(e)
	}
	rt.stats.activeEffects.Add(1)
	e.owner.attach(e.Dispose)

	var err error
	func() {
		rt.startBatch()
		defer rt.endBatch()
		err = e.execute()
	}()
	if err != nil {
		e.Dispose()
		panic(err)
	}
	return e
}

// Autorun runs fn now and again whenever something it read changes.
// It returns the function that stops it.
func Autorun(fn func(), opts ...EffectOption) Dispose {
	e := CreateEffect(func() Cleanup {
		fn()
		return nil
	}, opts...)
	return e.Dispose
}
