package observable

import (
	"iter"
	"slices"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Array is a reactive list. Each index has its own atom; Len and iteration
// depend on the length atom.
type Array[T any] struct {
	name  string
	items []T
	equal func(a, b T) bool

	index  *keyAtoms[int]
	length *reactive.Atom
	obs    *observers[int, T]
}

// NewArray creates an array holding a copy of items.
func NewArray[T any](items []T, opts ...Option) *Array[T] {
	o := applyOptions("array", opts)
	a := &Array[T]{
		name:   o.name,
		items:  slices.Clone(items),
		equal:  equalsFor[T](o),
		length: reactive.NewAtom(o.name + ".length"),
		obs:    newObservers[int, T](o.name, "array"),
	}
	a.index = newKeyAtoms(o.name, a.inRange, nil)
	return a
}

func (a *Array[T]) inRange(i int) bool {
	return i >= 0 && i < len(a.items)
}

// Name returns the collection label.
func (a *Array[T]) Name() string { return a.name }

// Kind returns "array".
func (a *Array[T]) Kind() string { return "array" }

// At returns the element at i. It depends only on index i.
func (a *Array[T]) At(i int) (T, bool) {
	if i < 0 {
		var zero T
		return zero, false
	}
	a.index.track(i)
	if i >= len(a.items) {
		var zero T
		return zero, false
	}
	return a.items[i], true
}

// Len returns the length. It depends on the length atom.
func (a *Array[T]) Len() int {
	a.length.Track()
	return len(a.items)
}

// Set replaces the element at i. Setting index Len appends. It reports
// false when i is out of range.
func (a *Array[T]) Set(i int, v T) bool {
	a.length.CheckWritable()
	if i < 0 || i > len(a.items) {
		return false
	}
	if i == len(a.items) {
		a.Push(v)
		return true
	}
	old := a.items[i]
	if a.equal(old, v) {
		return true
	}
	a.items[i] = v
	a.obs.emit(Change[int, T]{Type: ChangeSet, Key: i, Index: i, Value: v, OldValue: old})
	a.index.trigger(i, true)
	return true
}

// Push appends items and returns the new length.
func (a *Array[T]) Push(items ...T) int {
	a.Splice(len(a.items), 0, items...)
	return len(a.items)
}

// Pop removes and returns the last element.
func (a *Array[T]) Pop() (T, bool) {
	if len(a.items) == 0 {
		var zero T
		return zero, false
	}
	removed := a.Splice(len(a.items)-1, 1)
	return removed[0], true
}

// Shift removes and returns the first element.
func (a *Array[T]) Shift() (T, bool) {
	if len(a.items) == 0 {
		var zero T
		return zero, false
	}
	removed := a.Splice(0, 1)
	return removed[0], true
}

// Unshift prepends items and returns the new length.
func (a *Array[T]) Unshift(items ...T) int {
	a.Splice(0, 0, items...)
	return len(a.items)
}

// Replace swaps the whole content for a copy of items.
func (a *Array[T]) Replace(items []T) {
	a.Splice(0, len(a.items), items...)
}

// Clear removes every element.
func (a *Array[T]) Clear() {
	a.Splice(0, len(a.items))
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place and returns the removed elements. A negative start counts
// from the end. Indexes whose element changed and, when the length changed,
// the length atom are notified in one batch; one "splice" record is emitted.
func (a *Array[T]) Splice(start, deleteCount int, items ...T) []T {
	a.length.CheckWritable()
	n := len(a.items)
	switch {
	case start < 0:
		start = max(n+start, 0)
	case start > n:
		start = n
	}
	deleteCount = min(max(deleteCount, 0), n-start)
	if deleteCount == 0 && len(items) == 0 {
		return nil
	}
	removed := slices.Clone(a.items[start : start+deleteCount])
	if deleteCount == len(items) && a.allEqual(removed, items) {
		return removed
	}

	old := a.items
	next := make([]T, 0, n-deleteCount+len(items))
	next = append(next, old[:start]...)
	next = append(next, items...)
	next = append(next, old[start+deleteCount:]...)
	a.items = next

	a.obs.emit(Change[int, T]{Type: ChangeSplice, Index: start, Added: slices.Clone(items), Removed: removed})
	reactive.Batch(func() {
		end := max(n, len(next))
		for i := start; i < end; i++ {
			if i < n && i < len(next) && a.equal(old[i], next[i]) {
				continue
			}
			a.index.trigger(i, i < len(next))
		}
		if len(next) != n {
			a.length.Trigger()
		}
	})
	return removed
}

func (a *Array[T]) allEqual(x, y []T) bool {
	for i := range x {
		if !a.equal(x[i], y[i]) {
			return false
		}
	}
	return true
}

// All iterates index/element pairs. It depends on the length and on every
// visited index.
func (a *Array[T]) All() iter.Seq2[int, T] {
	a.length.Track()
	return func(yield func(int, T) bool) {
		for i := 0; i < len(a.items); i++ {
			a.index.track(i)
			if !yield(i, a.items[i]) {
				return
			}
		}
	}
}

// Values iterates elements, tracked like All.
func (a *Array[T]) Values() iter.Seq[T] {
	all := a.All()
	return func(yield func(T) bool) {
		for _, v := range all {
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for each element, tracked like All.
func (a *Array[T]) ForEach(fn func(v T, i int)) {
	for i, v := range a.All() {
		fn(v, i)
	}
}

// ToSlice returns a fresh, non-reactive copy.
func (a *Array[T]) ToSlice() []T {
	out := make([]T, 0, len(a.items))
	for _, v := range a.All() {
		out = append(out, v)
	}
	return out
}

// ToArray is an alias for ToSlice.
func (a *Array[T]) ToArray() []T { return a.ToSlice() }

// Snapshot returns ToSlice as an any, for materialization.
func (a *Array[T]) Snapshot() any { return a.ToSlice() }

// Observe registers fn for change records.
func (a *Array[T]) Observe(fn func(Change[int, T])) reactive.Dispose {
	return a.obs.observe(fn)
}

// ObserveAny registers fn for type-erased change records.
func (a *Array[T]) ObserveAny(fn func(ChangeRecord)) reactive.Dispose {
	return a.obs.observeAny(fn)
}
