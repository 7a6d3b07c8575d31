package reactive

import (
	"reflect"
	"time"
)

// ActionOption configures an Action or VoidAction.
type ActionOption func(*actionConfig)

type actionConfig struct {
	name string
}

// ActionName labels the action in logs and traces.
func ActionName(name string) ActionOption {
	return func(c *actionConfig) {
		c.name = name
	}
}

func applyActionOptions(opts []ActionOption) actionConfig {
	var cfg actionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Action wraps a function so that every call runs inside a batch with
// dependency tracking suspended. Effects triggered by the body run once,
// after it returns.
//
// Errors and panics from the body reach the caller unchanged; writes made
// before the failure stay applied.
type Action[A, R any] struct {
	name string
	fn   func(A) (R, error)
}

// NewAction wraps fn as an action.
func NewAction[A, R any](fn func(A) (R, error), opts ...ActionOption) *Action[A, R] {
	cfg := applyActionOptions(opts)
	return &Action[A, R]{name: cfg.name, fn: fn}
}

// BindAction wraps method with recv fixed as its receiver.
//
// Example:
//
//	inc := reactive.BindAction(counter, (*Counter).IncBy)
//	inc.Run(2)
func BindAction[T, A, R any](recv T, method func(T, A) (R, error), opts ...ActionOption) *Action[A, R] {
	return NewAction(func(arg A) (R, error) {
		return method(recv, arg)
	}, opts...)
}

func (a *Action[A, R]) reactiveAction() {}

// Name returns the label given with ActionName.
func (a *Action[A, R]) Name() string { return a.name }

// Run calls the wrapped function batched and untracked.
func (a *Action[A, R]) Run(arg A) (result R, err error) {
	finish := startAction(a.name)
	defer func() {
		if p := recover(); p != nil {
			finish(panicError(p))
			panic(p)
		}
		finish(err)
	}()
	rt.startBatch()
	defer rt.endBatch()
	prev := rt.untrack()
	defer rt.restore(prev)
	return a.fn(arg)
}

// Func returns Run as a plain function value.
func (a *Action[A, R]) Func() func(A) (R, error) {
	return a.Run
}

// VoidAction is an Action without argument, result or error.
type VoidAction struct {
	name string
	fn   func()
}

// NewVoidAction wraps fn as an action.
func NewVoidAction(fn func(), opts ...ActionOption) *VoidAction {
	cfg := applyActionOptions(opts)
	return &VoidAction{name: cfg.name, fn: fn}
}

func (a *VoidAction) reactiveAction() {}

// Name returns the label given with ActionName.
func (a *VoidAction) Name() string { return a.name }

// Run calls the wrapped function batched and untracked.
func (a *VoidAction) Run() {
	finish := startAction(a.name)
	defer func() {
		if p := recover(); p != nil {
			finish(panicError(p))
			panic(p)
		}
		finish(nil)
	}()
	rt.startBatch()
	defer rt.endBatch()
	prev := rt.untrack()
	defer rt.restore(prev)
	a.fn()
}

// Func returns Run as a plain function value.
func (a *VoidAction) Func() func() {
	return a.Run
}

func startAction(name string) func(error) {
	done := rt.cfg.Hooks.ActionStarted(name)
	if !rt.cfg.Debug.LogTransactions {
		return done
	}
	start := time.Now()
	return func(err error) {
		done(err)
		rt.cfg.Logger.Debug("action", "name", name, "duration", time.Since(start), "error", err)
	}
}

type actionMarker interface {
	reactiveAction()
}

// IsAction reports whether x is a non-nil *Action or *VoidAction.
// Plain functions are not actions.
func IsAction(x any) bool {
	if _, ok := x.(actionMarker); !ok {
		return false
	}
	return !reflect.ValueOf(x).IsNil()
}
