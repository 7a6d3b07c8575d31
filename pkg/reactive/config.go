package reactive

import "log/slog"

// DefaultMaxEffectReruns is the number of times one effect may run within a
// single flush before the runtime reports a cycle.
const DefaultMaxEffectReruns = 100

// Config configures the process-wide runtime.
type Config struct {
	// Logger receives effect failures, watch errors and debug output.
	// Default: slog.Default().With("component", "reactive").
	Logger *slog.Logger

	// Hooks receives lifecycle events for metrics and tracing.
	// Default: NopHooks.
	Hooks Hooks

	// MaxEffectReruns bounds how often one effect may run in a single flush.
	// Zero means DefaultMaxEffectReruns. Negative disables the check.
	MaxEffectReruns int

	// Dispatch runs debounced watch callbacks. It is called from timer
	// goroutines and must hand fn to the goroutine that owns the graph.
	// Default: fn is queued and runs on the owning goroutine at the next
	// outermost batch exit or RunDeferred call.
	Dispatch func(fn func())

	// Debug enables verbose logging.
	Debug DebugConfig
}

// DebugConfig controls debug-level logging.
type DebugConfig struct {
	// LogFlushes logs each flush with the number of effects run.
	LogFlushes bool

	// LogEffects logs every effect run.
	LogEffects bool

	// LogTransactions logs named transactions and actions.
	LogTransactions bool
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "reactive")
	}
	if c.Hooks == nil {
		c.Hooks = NopHooks{}
	}
	if c.MaxEffectReruns == 0 {
		c.MaxEffectReruns = DefaultMaxEffectReruns
	}
	return c
}
