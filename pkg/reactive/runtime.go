package reactive

import (
	"errors"
	"reflect"
	"sync/atomic"
	"time"
)

// Runtime is the process-wide reactive context: the tracking collector
// stack, the batch depth and the pending effect queue.
//
// There is exactly one Runtime per process, returned by Default. It is not
// safe for concurrent use; see the package documentation.
type Runtime struct {
	cfg Config

	collector    *collector
	owner        *Owner
	computeDepth int

	batchDepth int
	pending    []*Effect
	flushing   bool
	budget     flushBudget

	deferred *dispatchQueue
	draining bool

	// globalVersion increases on every write anywhere in the graph. Computeds
	// compare it to skip dependency checks when nothing changed at all.
	globalVersion uint64

	stats runtimeStats
}

type runtimeStats struct {
	writes        atomic.Uint64
	flushes       atomic.Uint64
	effectRuns    atomic.Uint64
	effectErrors  atomic.Uint64
	recomputes    atomic.Uint64
	cyclicEffects atomic.Uint64
	activeEffects atomic.Int64
}

// Stats is a point-in-time copy of runtime counters. It is safe to read
// from any goroutine.
type Stats struct {
	Writes        uint64 `json:"writes"`
	Flushes       uint64 `json:"flushes"`
	EffectRuns    uint64 `json:"effect_runs"`
	EffectErrors  uint64 `json:"effect_errors"`
	Recomputes    uint64 `json:"recomputes"`
	CyclicEffects uint64 `json:"cyclic_effects"`
	ActiveEffects int64  `json:"active_effects"`
}

var rt = newRuntime(Config{})

func newRuntime(cfg Config) *Runtime {
	r := &Runtime{deferred: newDispatchQueue()}
	r.apply(cfg)
	return r
}

func (r *Runtime) apply(cfg Config) {
	r.cfg = cfg.withDefaults()
	if r.cfg.Dispatch == nil {
		r.cfg.Dispatch = r.deferred.push
	}
	r.budget.max = r.cfg.MaxEffectReruns
}

// Default returns the process-wide runtime.
func Default() *Runtime {
	return rt
}

// Configure replaces the runtime configuration. Unset fields get defaults.
// Call it during startup, before the graph is in use.
func Configure(cfg Config) {
	rt.apply(cfg)
}

// Config returns the active configuration.
func (r *Runtime) Config() Config {
	return r.cfg
}

// Stats returns a copy of the runtime counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Writes:        r.stats.writes.Load(),
		Flushes:       r.stats.flushes.Load(),
		EffectRuns:    r.stats.effectRuns.Load(),
		EffectErrors:  r.stats.effectErrors.Load(),
		Recomputes:    r.stats.recomputes.Load(),
		CyclicEffects: r.stats.cyclicEffects.Load(),
		ActiveEffects: r.stats.activeEffects.Load(),
	}
}

// ErrRuntimeBusy is returned by Reset while a batch, flush or evaluation is
// in progress.
var ErrRuntimeBusy = errors.New("reactive: runtime is busy")

// Reset drops pending effects and deferred work and zeroes the counters. It
// is meant for tests and refuses to run while a batch, flush or evaluation is
// active.
func (r *Runtime) Reset() error {
	if r.batchDepth > 0 || r.flushing || r.draining || r.collector != nil || r.computeDepth > 0 {
		return ErrRuntimeBusy
	}
	for _, e := range r.pending {
		e.queued = false
	}
	r.pending = nil
	r.deferred.take()
	r.owner = nil
	r.budget.reset()
	r.stats.writes.Store(0)
	r.stats.flushes.Store(0)
	r.stats.effectRuns.Store(0)
	r.stats.effectErrors.Store(0)
	r.stats.recomputes.Store(0)
	r.stats.cyclicEffects.Store(0)
	return nil
}

// beginCollect pushes a new collector for o.
func (r *Runtime) beginCollect(o observer) *collector {
	c := &collector{owner: o, prev: r.collector}
	r.collector = c
	return c
}

// endCollect pops c and returns the dependencies it gathered.
func (r *Runtime) endCollect(c *collector) []dependency {
	r.collector = c.prev
	return c.deps
}

// untrack suspends dependency collection and returns the collector to
// restore afterwards.
func (r *Runtime) untrack() *collector {
	prev := r.collector
	r.collector = nil
	return prev
}

func (r *Runtime) restore(c *collector) {
	r.collector = c
}

func (r *Runtime) track(s source) {
	if r.collector != nil {
		r.collector.add(s)
	}
}

// checkWrite panics when a write happens while a computed is evaluating.
func (r *Runtime) checkWrite(b *sourceBase) {
	if r.computeDepth > 0 {
		panic(&TrackingMisuseError{Op: "write", Node: b.label(), Err: ErrWriteInComputed})
	}
}

// propagate records a write to b and notifies its subscribers. Effects
// reached by the notification run when the implicit batch closes.
func (r *Runtime) propagate(b *sourceBase) {
	b.version++
	r.globalVersion++
	r.stats.writes.Add(1)
	if len(b.subs) == 0 {
		return
	}
	wave := r.globalVersion
	r.startBatch()
	defer r.endBatch()
	for _, o := range b.subs {
		o.notify(wave)
	}
}

func (r *Runtime) startBatch() {
	r.batchDepth++
}

func (r *Runtime) endBatch() {
	r.batchDepth--
	if r.batchDepth > 0 || r.flushing {
		return
	}
	r.flush()
	if !r.draining {
		r.runDeferred()
	}
}

func (r *Runtime) enqueue(e *Effect) {
	if e.queued || e.disposed {
		return
	}
	e.queued = true
	r.pending = append(r.pending, e)
}

// flush drains the pending queue. Effects queued while draining run in the
// same flush. Effect failures are logged and the first one is re-raised
// after the queue is empty; a cyclic effect aborts the flush immediately.
func (r *Runtime) flush() {
	if len(r.pending) == 0 {
		return
	}
	r.flushing = true
	r.stats.flushes.Add(1)
	r.budget.reset()
	prev := r.untrack()
	done := r.cfg.Hooks.FlushStarted(len(r.pending))
	start := time.Now()

	var (
		ran     int
		failure error
	)
	defer func() {
		r.restore(prev)
		r.flushing = false
		r.budget.reset()
		done(ran, failure)
		if r.cfg.Debug.LogFlushes {
			r.cfg.Logger.Debug("flush", "effects", ran, "duration", time.Since(start), "error", failure)
		}
	}()

	for i := 0; i < len(r.pending); i++ {
		e := r.pending[i]
		r.pending[i] = nil
		e.queued = false
		if e.disposed || !depsChanged(e.deps) {
			continue
		}
		if runs, ok := r.budget.spend(e); !ok {
			r.dropPending(i + 1)
			err := &CyclicEffectError{Effect: e.label(), Runs: runs}
			r.stats.cyclicEffects.Add(1)
			r.cfg.Hooks.CyclicEffect(e.label(), runs)
			r.cfg.Logger.Error("cyclic effect", "effect", e.label(), "runs", runs)
			failure = err
			panic(err)
		}
		ran++
		if err := e.execute(); err != nil {
			r.stats.effectErrors.Add(1)
			r.cfg.Logger.Error("effect failed", "effect", e.label(), "error", err)
			if failure == nil {
				failure = err
			}
		}
	}
	r.pending = r.pending[:0]
	if failure != nil {
		panic(failure)
	}
}

// dropPending discards queued effects starting at index from.
func (r *Runtime) dropPending(from int) {
	for j := from; j < len(r.pending); j++ {
		if e := r.pending[j]; e != nil {
			e.queued = false
		}
		r.pending[j] = nil
	}
	r.pending = r.pending[:0]
}

func isNilPointer(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
