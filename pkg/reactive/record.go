package reactive

import (
	"fmt"
	"sort"
)

// Fields describes the members of a record for DefineRecord.
type Fields map[string]any

type observableValue struct{ value any }

type computedValue struct{ fn func(*Record) any }

type actionValue struct {
	fn func(*Record, ...any) (any, error)
}

// ObservableValue marks v as the initial value of an observable member.
// Plain values in Fields are treated the same way.
func ObservableValue(v any) any {
	return observableValue{value: v}
}

// ComputedValue declares a derived member.
func ComputedValue(fn func(r *Record) any) any {
	return computedValue{fn: fn}
}

// ActionValue declares an action member.
func ActionValue(fn func(r *Record, args ...any) (any, error)) any {
	return actionValue{fn: fn}
}

// Record is a dynamically shaped reactive object, the untyped counterpart
// of a struct passed to MakeObservable. Every observable member is a
// *Signal[any], every derived member a *Computed[any] and every action an
// *Action[[]any, any].
type Record struct {
	name     string
	keys     []string
	signals  map[string]*Signal[any]
	computed map[string]*Computed[any]
	actions  map[string]*Action[[]any, any]
}

// DefineRecord builds a record from fields. The member set is fixed after
// creation.
func DefineRecord(fields Fields, opts ...SignalOption) *Record {
	o := applyOptions(opts)
	r := &Record{
		name:     o.name,
		signals:  make(map[string]*Signal[any]),
		computed: make(map[string]*Computed[any]),
		actions:  make(map[string]*Action[[]any, any]),
	}
	for key, v := range fields {
		r.keys = append(r.keys, key)
		label := r.memberLabel(key)
		switch m := v.(type) {
		case observableValue:
			r.signals[key] = NewSignal(m.value, Named(label))
		case computedValue:
			fn := m.fn
			r.computed[key] = NewComputed(func() any { return fn(r) }, Named(label))
		case actionValue:
			fn := m.fn
			r.actions[key] = NewAction(func(args []any) (any, error) {
				return fn(r, args...)
			}, ActionName(label))
		default:
			r.signals[key] = NewSignal(v, Named(label))
		}
	}
	sort.Strings(r.keys)
	return r
}

func (r *Record) memberLabel(key string) string {
	if r.name == "" {
		return key
	}
	return r.name + "." + key
}

// Keys returns the member names in sorted order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Has reports whether the record has a member called key.
func (r *Record) Has(key string) bool {
	_, s := r.signals[key]
	_, c := r.computed[key]
	_, a := r.actions[key]
	return s || c || a
}

// Get reads an observable or computed member through a tracked read. For an
// action member it returns the *Action. It panics with a
// *TrackingMisuseError for unknown members.
func (r *Record) Get(key string) any {
	if s, ok := r.signals[key]; ok {
		return s.Get()
	}
	if c, ok := r.computed[key]; ok {
		return c.Get()
	}
	if a, ok := r.actions[key]; ok {
		return a
	}
	panic(&TrackingMisuseError{Op: "read", Node: r.memberLabel(key), Err: ErrUnknownMember})
}

// Set writes an observable member. Assigning a computed member returns a
// *TrackingMisuseError wrapping ErrComputedSetter.
func (r *Record) Set(key string, value any) error {
	if s, ok := r.signals[key]; ok {
		s.Set(value)
		return nil
	}
	if _, ok := r.computed[key]; ok {
		return &TrackingMisuseError{Op: "write", Node: r.memberLabel(key), Err: ErrComputedSetter}
	}
	if _, ok := r.actions[key]; ok {
		return &TrackingMisuseError{Op: "write", Node: r.memberLabel(key), Err: fmt.Errorf("%w: member is an action", ErrInvalidAnnotation)}
	}
	return &TrackingMisuseError{Op: "write", Node: r.memberLabel(key), Err: ErrUnknownMember}
}

// Call runs an action member.
func (r *Record) Call(key string, args ...any) (any, error) {
	a, ok := r.actions[key]
	if !ok {
		return nil, &TrackingMisuseError{Op: "call", Node: r.memberLabel(key), Err: ErrUnknownMember}
	}
	return a.Run(args)
}

// Signal returns the signal behind an observable member, or nil.
func (r *Record) Signal(key string) *Signal[any] { return r.signals[key] }

// Computed returns the computed behind a derived member, or nil.
func (r *Record) Computed(key string) *Computed[any] { return r.computed[key] }

// Action returns the action behind an action member, or nil.
func (r *Record) Action(key string) *Action[[]any, any] { return r.actions[key] }

// Snapshot returns the current values of all non-action members, read
// through tracked reads.
func (r *Record) Snapshot() any {
	out := make(map[string]any, len(r.signals)+len(r.computed))
	for _, key := range r.keys {
		if s, ok := r.signals[key]; ok {
			out[key] = s.Get()
		} else if c, ok := r.computed[key]; ok {
			out[key] = c.Get()
		}
	}
	return out
}
