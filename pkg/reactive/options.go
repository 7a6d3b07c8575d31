package reactive

// SignalOption is a functional option for configuring signals and computeds.
type SignalOption func(*signalOptions)

type signalOptions struct {
	name      string
	transient bool
}

// Named labels a node for logs, errors and the inspector.
func Named(name string) SignalOption {
	return func(o *signalOptions) {
		o.name = name
	}
}

// Transient marks a node as ephemeral state. Transient nodes are skipped by
// snapshot exports.
func Transient() SignalOption {
	return func(o *signalOptions) {
		o.transient = true
	}
}

func applyOptions(opts []SignalOption) signalOptions {
	var options signalOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Accessor is implemented by signals and computeds. It gives type-erased
// read access for tools such as materialization and snapshots.
type Accessor interface {
	// GetAny returns the current value through a tracked read.
	GetAny() any

	// ID returns the node's unique identifier.
	ID() uint64

	// Name returns the label given with Named, or "".
	Name() string

	// IsTransient reports whether the node was created with Transient.
	IsTransient() bool

	reactiveAccessor()
}

// IsSignal reports whether x is a non-nil *Signal[T] or *Computed[T].
func IsSignal(x any) bool {
	_, ok := AsAccessor(x)
	return ok
}

// AsAccessor returns x as an Accessor when it is a non-nil signal or computed.
func AsAccessor(x any) (Accessor, bool) {
	a, ok := x.(Accessor)
	if !ok || isNilPointer(x) {
		return nil, false
	}
	return a, true
}
