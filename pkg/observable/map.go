package observable

import (
	"iter"
	"slices"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Entry is a key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is a reactive map that remembers insertion order.
type Map[K comparable, V any] struct {
	name    string
	kind    string
	entries map[K]V
	order   []K
	equal   func(a, b V) bool

	keys *keyAtoms[K]
	size *reactive.Atom
	obs  *observers[K, V]
}

// NewMap creates an empty map.
func NewMap[K comparable, V any](opts ...Option) *Map[K, V] {
	return newMap[K, V]("map", opts)
}

// NewMapFromEntries creates a map holding entries, in order. Later
// duplicates overwrite earlier ones.
func NewMapFromEntries[K comparable, V any](entries []Entry[K, V], opts ...Option) *Map[K, V] {
	m := newMap[K, V]("map", opts)
	for _, e := range entries {
		if _, ok := m.entries[e.Key]; !ok {
			m.order = append(m.order, e.Key)
		}
		m.entries[e.Key] = e.Value
	}
	return m
}

func newMap[K comparable, V any](kind string, opts []Option) *Map[K, V] {
	o := applyOptions(kind, opts)
	m := &Map[K, V]{
		name:    o.name,
		kind:    kind,
		entries: make(map[K]V),
		equal:   equalsFor[V](o),
		size:    reactive.NewAtom(o.name + ".size"),
		obs:     newObservers[K, V](o.name, kind),
	}
	m.keys = newKeyAtoms(o.name, m.has, nil)
	return m
}

func (m *Map[K, V]) has(key K) bool {
	_, ok := m.entries[key]
	return ok
}

// Name returns the collection label.
func (m *Map[K, V]) Name() string { return m.name }

// Kind returns "map", or "object" for an Object.
func (m *Map[K, V]) Kind() string { return m.kind }

// Get returns the value for key. It depends only on key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.keys.track(key)
	v, ok := m.entries[key]
	return v, ok
}

// Has reports whether key is present. It depends only on key.
func (m *Map[K, V]) Has(key K) bool {
	m.keys.track(key)
	return m.has(key)
}

// Len returns the number of entries. It depends on cardinality.
func (m *Map[K, V]) Len() int {
	m.size.Track()
	return len(m.entries)
}

// Set stores value under key. Writing a value equal to the current one is a
// no-op.
func (m *Map[K, V]) Set(key K, value V) {
	m.size.CheckWritable()
	old, existed := m.entries[key]
	if existed && m.equal(old, value) {
		return
	}
	m.entries[key] = value
	if !existed {
		m.order = append(m.order, key)
		m.obs.emit(Change[K, V]{Type: ChangeAdd, Key: key, Value: value})
	} else {
		m.obs.emit(Change[K, V]{Type: ChangeSet, Key: key, Value: value, OldValue: old})
	}
	reactive.Batch(func() {
		m.keys.trigger(key, true)
		if !existed {
			m.size.Trigger()
		}
	})
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	m.size.CheckWritable()
	old, existed := m.entries[key]
	if !existed {
		return false
	}
	delete(m.entries, key)
	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	m.obs.emit(Change[K, V]{Type: ChangeDelete, Key: key, OldValue: old})
	reactive.Batch(func() {
		m.keys.trigger(key, false)
		m.size.Trigger()
	})
	return true
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.size.CheckWritable()
	if len(m.entries) == 0 {
		return
	}
	removed := m.order
	m.entries = make(map[K]V)
	m.order = nil
	m.obs.emit(Change[K, V]{Type: ChangeClear})
	reactive.Batch(func() {
		for _, key := range removed {
			m.keys.trigger(key, false)
		}
		m.size.Trigger()
	})
}

// Merge sets every entry of values in one batch. Each changed key emits its
// own record.
func (m *Map[K, V]) Merge(values map[K]V) {
	reactive.Batch(func() {
		for k, v := range values {
			m.Set(k, v)
		}
	})
}

func batchSet[K comparable, V any](m *Map[K, V], keys []K, values map[K]V) {
	reactive.Batch(func() {
		for _, k := range keys {
			m.Set(k, values[k])
		}
	})
}

// Keys iterates keys in insertion order. It depends on cardinality.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	m.size.Track()
	order := slices.Clone(m.order)
	return func(yield func(K) bool) {
		for _, k := range order {
			if _, ok := m.entries[k]; !ok {
				continue
			}
			if !yield(k) {
				return
			}
		}
	}
}

// All iterates entries in insertion order. It depends on cardinality and on
// every visited key.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	m.size.Track()
	order := slices.Clone(m.order)
	return func(yield func(K, V) bool) {
		for _, k := range order {
			v, ok := m.entries[k]
			if !ok {
				continue
			}
			m.keys.track(k)
			if !yield(k, v) {
				return
			}
		}
	}
}

// Values iterates values in insertion order, tracked like All.
func (m *Map[K, V]) Values() iter.Seq[V] {
	all := m.All()
	return func(yield func(V) bool) {
		for _, v := range all {
			if !yield(v) {
				return
			}
		}
	}
}

// ForEach calls fn for each entry in insertion order, tracked like All.
func (m *Map[K, V]) ForEach(fn func(value V, key K)) {
	for k, v := range m.All() {
		fn(v, k)
	}
}

// ToMap returns a fresh, non-reactive copy.
func (m *Map[K, V]) ToMap() map[K]V {
	out := make(map[K]V, len(m.entries))
	for k, v := range m.All() {
		out[k] = v
	}
	return out
}

// ToEntries returns a fresh slice of entries in insertion order.
func (m *Map[K, V]) ToEntries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(m.entries))
	for k, v := range m.All() {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

// Snapshot returns ToMap as an any, for materialization.
func (m *Map[K, V]) Snapshot() any { return m.ToMap() }

// Observe registers fn for change records.
func (m *Map[K, V]) Observe(fn func(Change[K, V])) reactive.Dispose {
	return m.obs.observe(fn)
}

// ObserveAny registers fn for type-erased change records.
func (m *Map[K, V]) ObserveAny(fn func(ChangeRecord)) reactive.Dispose {
	return m.obs.observeAny(fn)
}
