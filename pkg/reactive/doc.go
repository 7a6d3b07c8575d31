// Package reactive provides a fine-grained reactive runtime: signals,
// lazily recomputed computeds, eager effects, batching, actions and watches.
//
// Dependencies are tracked automatically at runtime. Reading a signal while a
// computed or effect is evaluating subscribes that node to the signal, and the
// dependency set is re-collected on every evaluation, so branches that are no
// longer taken stop causing re-runs.
//
// # Core Types
//
// Signal[T] is a mutable reactive cell:
//
//	count := reactive.NewSignal(0)
//	value := count.Get() // tracked read
//	count.Set(5)         // notifies dependents
//
// Computed[T] is a cached derived value, recomputed only when read after one
// of its dependencies changed:
//
//	doubled := reactive.NewComputed(func() int { return count.Get() * 2 })
//
// Effects run immediately and re-run whenever a dependency changes:
//
//	e := reactive.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
//	defer e.Dispose()
//
// # Batching
//
// Writes inside Batch (or an Action) defer effect execution until the
// outermost batch exits; each affected effect runs once and sees only the
// final values:
//
//	reactive.Batch(func() {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
//
// # Concurrency
//
// The runtime is single-threaded. All graph mutation must happen on one
// goroutine or be serialized by the caller. Debounce timers never touch the
// graph: expired windows are queued and delivered when the outermost batch
// exits or when the owning goroutine calls RunDeferred, typically after
// receiving from Deferred. Configure or WithDispatcher replace the queue with
// an event loop of your own.
package reactive
