package reactive

import "time"

// Hooks receives runtime lifecycle events. Implementations must be cheap:
// they are called synchronously from the graph's goroutine.
//
// The pkg/telemetry package provides Prometheus and OpenTelemetry
// implementations. The zero configuration uses NopHooks.
type Hooks interface {
	// FlushStarted is called when the effect queue starts draining. The
	// returned function is called when the flush ends.
	FlushStarted(pending int) func(ran int, err error)

	// EffectRan is called after each effect run.
	EffectRan(name string, d time.Duration, err error)

	// TxStarted is called when a named transaction begins.
	TxStarted(name string) func(err error)

	// ActionStarted is called when an action begins.
	ActionStarted(name string) func(err error)

	// CyclicEffect is called when an effect exceeds its re-run budget.
	CyclicEffect(name string, runs int)

	// WatchFailed is called when a watch getter or callback fails.
	// stage is "getter" or "callback".
	WatchFailed(name, stage string, err error)
}

// NopHooks ignores every event.
type NopHooks struct{}

func (NopHooks) FlushStarted(int) func(int, error)      { return func(int, error) {} }
func (NopHooks) EffectRan(string, time.Duration, error) {}
func (NopHooks) TxStarted(string) func(error)           { return func(error) {} }
func (NopHooks) ActionStarted(string) func(error)       { return func(error) {} }
func (NopHooks) CyclicEffect(string, int)               {}
func (NopHooks) WatchFailed(string, string, error)      {}
