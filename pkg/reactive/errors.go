package reactive

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

// ErrDisposed is wrapped by errors raised when a disposed node is used.
var ErrDisposed = errors.New("reactive: node disposed")

// ErrWriteInComputed is wrapped when a signal or collection is written while
// a computed is evaluating. Computeds must be pure.
var ErrWriteInComputed = errors.New("reactive: write during computed evaluation")

// ErrComputedCycle is wrapped when a computed reads itself, directly or
// through other computeds.
var ErrComputedCycle = errors.New("reactive: computed depends on itself")

// ErrComputedSetter is wrapped when code tries to assign a computed member.
var ErrComputedSetter = errors.New("reactive: computed value has no setter")

// ErrCyclicEffect is wrapped by CyclicEffectError.
var ErrCyclicEffect = errors.New("reactive: effect keeps re-triggering itself")

// ErrInvalidAnnotation is wrapped when MakeObservable cannot bind a field.
var ErrInvalidAnnotation = errors.New("reactive: invalid annotation")

// ErrUnknownMember is wrapped when a record member does not exist.
var ErrUnknownMember = errors.New("reactive: unknown record member")

// =============================================================================
// Typed Errors
// =============================================================================

// Codes registered in internal/errors for terminal formatting.
const (
	CodeTrackingMisuse = "R001"
	CodeCyclicEffect   = "R002"
	CodeGetter         = "R003"
	CodeCallback       = "R004"
	CodeEffect         = "R005"
)

// TrackingMisuseError reports an operation that violates the graph's rules:
// using a disposed node, writing during computed evaluation, a computed
// cycle, or assigning a computed member.
type TrackingMisuseError struct {
	// Op is the attempted operation ("read", "write", "annotate", ...).
	Op string
	// Node labels the node or member involved.
	Node string
	Err  error
}

func (e *TrackingMisuseError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Node, e.Err)
}

func (e *TrackingMisuseError) Unwrap() error { return e.Err }

// Code returns the registry code.
func (e *TrackingMisuseError) Code() string { return CodeTrackingMisuse }

// CyclicEffectError is raised from a flush when one effect ran more than
// Config.MaxEffectReruns times. The pending queue is discarded.
type CyclicEffectError struct {
	Effect string
	Runs   int
}

func (e *CyclicEffectError) Error() string {
	return fmt.Sprintf("reactive: effect %s ran %d times in one flush", e.Effect, e.Runs)
}

func (e *CyclicEffectError) Unwrap() error { return ErrCyclicEffect }

// Code returns the registry code.
func (e *CyclicEffectError) Code() string { return CodeCyclicEffect }

// GetterError wraps a panic raised by a watch getter. It is logged and
// reported to Hooks.WatchFailed; the watch stays subscribed.
type GetterError struct {
	Watch string
	Cause error
}

func (e *GetterError) Error() string {
	return fmt.Sprintf("reactive: watch %s getter: %v", e.Watch, e.Cause)
}

func (e *GetterError) Unwrap() error { return e.Cause }

// Code returns the registry code.
func (e *GetterError) Code() string { return CodeGetter }

// CallbackError wraps a panic raised by a watch callback or collection
// observer. It is logged and never propagated.
type CallbackError struct {
	Source string
	Cause  error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("reactive: %s callback: %v", e.Source, e.Cause)
}

func (e *CallbackError) Unwrap() error { return e.Cause }

// Code returns the registry code.
func (e *CallbackError) Code() string { return CodeCallback }

// EffectError wraps a panic raised by an effect body.
type EffectError struct {
	Effect string
	Cause  error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("reactive: effect %s: %v", e.Effect, e.Cause)
}

func (e *EffectError) Unwrap() error { return e.Cause }

// Code returns the registry code.
func (e *EffectError) Code() string { return CodeEffect }

// panicError converts a recovered panic value to an error.
func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}

// isRuntimeError reports whether err is one of the runtime's typed errors.
func isRuntimeError(err error) bool {
	var (
		misuse *TrackingMisuseError
		cyclic *CyclicEffectError
		effect *EffectError
	)
	return errors.As(err, &misuse) || errors.As(err, &cyclic) || errors.As(err, &effect)
}

func errTypeMismatch(want, got any) error {
	return fmt.Errorf("type mismatch: want %T, got %T", want, got)
}
