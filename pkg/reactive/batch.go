package reactive

import "time"

// Batch executes fn with effect execution deferred until it returns.
// Nested batches share one scope: effects run once, when the outermost
// batch exits, and see only the final values.
//
// Example:
//
//	reactive.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Effects depending on all three run once here.
func Batch(fn func()) {
	rt.startBatch()
	defer rt.endBatch()
	fn()
}

// BatchValue is Batch for functions that return a value.
func BatchValue[R any](fn func() R) R {
	rt.startBatch()
	defer rt.endBatch()
	return fn()
}

// BatchErr runs fn in a batch and returns its error. Runtime failures raised
// while flushing (*EffectError, *CyclicEffectError, *TrackingMisuseError) are
// returned instead of panicking; other panics pass through.
func BatchErr(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if perr, ok := p.(error); ok && isRuntimeError(perr) {
				err = perr
				return
			}
			panic(p)
		}
	}()
	rt.startBatch()
	defer rt.endBatch()
	return fn()
}

// IsBatchingUpdates reports whether a batch is open.
func IsBatchingUpdates() bool {
	return rt.batchDepth > 0
}

// Tx is an alias for Batch, for code that reads better as a transaction.
func Tx(fn func()) {
	Batch(fn)
}

// TxNamed runs fn as a batch labelled name. The name is reported to Hooks
// and, with Debug.LogTransactions, logged with the duration.
func TxNamed(name string, fn func()) {
	done := rt.cfg.Hooks.TxStarted(name)
	start := time.Now()
	var err error
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
			done(err)
			panic(p)
		}
		done(nil)
		if rt.cfg.Debug.LogTransactions {
			rt.cfg.Logger.Debug("transaction", "name", name, "duration", time.Since(start))
		}
	}()
	Batch(fn)
}

// Untracked executes fn without registering any reads as dependencies.
//
// Example:
//
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    a := signalA.Get() // tracked
//	    reactive.Untracked(func() {
//	        b := signalB.Get() // not tracked
//	        _ = b
//	    })
//	    return nil
//	})
func Untracked(fn func()) {
	prev := rt.untrack()
	defer rt.restore(prev)
	fn()
}

// UntrackedValue is Untracked for functions that return a value.
func UntrackedValue[T any](fn func() T) T {
	prev := rt.untrack()
	defer rt.restore(prev)
	return fn()
}

// IsTracking reports whether reads are currently being recorded.
func IsTracking() bool {
	return rt.collector != nil
}
