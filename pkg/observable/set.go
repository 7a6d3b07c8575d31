package observable

import (
	"iter"
	"slices"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Set is a reactive set that remembers insertion order.
type Set[T comparable] struct {
	name    string
	members map[T]struct{}
	order   []T

	keys *keyAtoms[T]
	size *reactive.Atom
	obs  *observers[T, T]
}

// NewSet creates a set holding values, in order.
func NewSet[T comparable](values []T, opts ...Option) *Set[T] {
	o := applyOptions("set", opts)
	s := &Set[T]{
		name:    o.name,
		members: make(map[T]struct{}, len(values)),
		size:    reactive.NewAtom(o.name + ".size"),
		obs:     newObservers[T, T](o.name, "set"),
	}
	s.keys = newKeyAtoms(o.name, s.has, nil)
	for _, v := range values {
		if _, ok := s.members[v]; !ok {
			s.members[v] = struct{}{}
			s.order = append(s.order, v)
		}
	}
	return s
}

func (s *Set[T]) has(v T) bool {
	_, ok := s.members[v]
	return ok
}

// Name returns the collection label.
func (s *Set[T]) Name() string { return s.name }

// Kind returns "set".
func (s *Set[T]) Kind() string { return "set" }

// Has reports membership. It depends only on v.
func (s *Set[T]) Has(v T) bool {
	s.keys.track(v)
	return s.has(v)
}

// Len returns the number of members. It depends on cardinality.
func (s *Set[T]) Len() int {
	s.size.Track()
	return len(s.members)
}

// Add inserts v and reports whether it was new.
func (s *Set[T]) Add(v T) bool {
	s.size.CheckWritable()
	if s.has(v) {
		return false
	}
	s.members[v] = struct{}{}
	s.order = append(s.order, v)
	s.obs.emit(Change[T, T]{Type: ChangeAdd, Key: v, Value: v})
	reactive.Batch(func() {
		s.keys.trigger(v, true)
		s.size.Trigger()
	})
	return true
}

// Delete removes v and reports whether it was present.
func (s *Set[T]) Delete(v T) bool {
	s.size.CheckWritable()
	if !s.has(v) {
		return false
	}
	delete(s.members, v)
	if i := slices.Index(s.order, v); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.obs.emit(Change[T, T]{Type: ChangeDelete, Key: v, OldValue: v})
	reactive.Batch(func() {
		s.keys.trigger(v, false)
		s.size.Trigger()
	})
	return true
}

// Clear removes every member.
func (s *Set[T]) Clear() {
	s.size.CheckWritable()
	if len(s.members) == 0 {
		return
	}
	removed := s.order
	s.members = make(map[T]struct{})
	s.order = nil
	s.obs.emit(Change[T, T]{Type: ChangeClear})
	reactive.Batch(func() {
		for _, v := range removed {
			s.keys.trigger(v, false)
		}
		s.size.Trigger()
	})
}

// Values iterates members in insertion order. It depends on cardinality.
func (s *Set[T]) Values() iter.Seq[T] {
	s.size.Track()
	order := slices.Clone(s.order)
	return func(yield func(T) bool) {
		for _, v := range order {
			if !s.has(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for each member in insertion order.
func (s *Set[T]) ForEach(fn func(v T)) {
	for v := range s.Values() {
		fn(v)
	}
}

// ToSet returns a fresh, non-reactive copy.
func (s *Set[T]) ToSet() map[T]struct{} {
	out := make(map[T]struct{}, len(s.members))
	for v := range s.Values() {
		out[v] = struct{}{}
	}
	return out
}

// ToSlice returns the members in insertion order as a fresh slice.
func (s *Set[T]) ToSlice() []T {
	out := make([]T, 0, len(s.members))
	for v := range s.Values() {
		out = append(out, v)
	}
	return out
}

// Snapshot returns ToSlice as an any, for materialization.
func (s *Set[T]) Snapshot() any { return s.ToSlice() }

// Observe registers fn for change records. Key and Value hold the member.
func (s *Set[T]) Observe(fn func(Change[T, T])) reactive.Dispose {
	return s.obs.observe(fn)
}

// ObserveAny registers fn for type-erased change records.
func (s *Set[T]) ObserveAny(fn func(ChangeRecord)) reactive.Dispose {
	return s.obs.observeAny(fn)
}
