package observable

import (
	"errors"
	"fmt"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Option configures a collection.
type Option func(*options)

type options struct {
	name   string
	equals any
}

// Named labels the collection in atoms, change records and the inspector.
func Named(name string) Option {
	return func(o *options) { o.name = name }
}

// WithEquals sets the value equality policy. Writes of a value equal to the
// stored one are no-ops. V must match the collection's value type.
// The default is reactive.Identical.
func WithEquals[V any](fn func(a, b V) bool) Option {
	return func(o *options) { o.equals = fn }
}

func applyOptions(kind string, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = kind
	}
	return o
}

func equalsFor[V any](o options) func(a, b V) bool {
	if o.equals == nil {
		return reactive.Identical[V]
	}
	fn, ok := o.equals.(func(a, b V) bool)
	if !ok {
		var zero V
		panic(&reactive.TrackingMisuseError{
			Op:   "configure",
			Node: o.name,
			Err:  fmt.Errorf("equality function %T does not compare %T", o.equals, zero),
		})
	}
	return fn
}

func recoveredError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}

var errNilKey = errors.New("observable: nil key")
