package observable

import (
	"runtime"
	"sync"
	"weak"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// WeakMap maps pointer keys to values without keeping the keys alive. An
// entry disappears once its key is garbage collected.
//
// Eviction runs on a runtime cleanup goroutine and only touches the map's
// own storage; it does not notify dependents. Per-key reads cannot observe
// it, since the key is gone. Len and ToMap are untracked point-in-time
// reads for the same reason: their result can change without a write.
type WeakMap[K any, V any] struct {
	name  string
	equal func(a, b V) bool

	mu      sync.Mutex
	entries map[weak.Pointer[K]]*weakEntry[V]

	keys  *keyAtoms[weak.Pointer[K]]
	guard *reactive.Atom
	obs   *observers[*K, V]
}

type weakEntry[V any] struct {
	value   V
	cleanup runtime.Cleanup
}

// NewWeakMap creates an empty weak map.
func NewWeakMap[K any, V any](opts ...Option) *WeakMap[K, V] {
	o := applyOptions("weakmap", opts)
	m := &WeakMap[K, V]{
		name:    o.name,
		equal:   equalsFor[V](o),
		entries: make(map[weak.Pointer[K]]*weakEntry[V]),
		guard:   reactive.NewAtom(o.name),
		obs:     newObservers[*K, V](o.name, "weakmap"),
	}
	m.keys = newKeyAtoms(o.name, m.present, &m.mu)
	return m
}

func (m *WeakMap[K, V]) present(wp weak.Pointer[K]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[wp]
	return ok
}

func (m *WeakMap[K, V]) evict(wp weak.Pointer[K]) {
	m.mu.Lock()
	delete(m.entries, wp)
	m.mu.Unlock()
	m.keys.forget(wp)
}

// Name returns the collection label.
func (m *WeakMap[K, V]) Name() string { return m.name }

// Kind returns "weakmap".
func (m *WeakMap[K, V]) Kind() string { return "weakmap" }

// Get returns the value stored for key. It depends only on key.
func (m *WeakMap[K, V]) Get(key *K) (V, bool) {
	var zero V
	if key == nil {
		return zero, false
	}
	wp := weak.Make(key)
	m.keys.track(wp)
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[wp]; ok {
		return e.value, true
	}
	return zero, false
}

// Has reports whether key has an entry. It depends only on key.
func (m *WeakMap[K, V]) Has(key *K) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of live entries. It is not tracked.
func (m *WeakMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Set stores value under key. It panics if key is nil.
func (m *WeakMap[K, V]) Set(key *K, value V) {
	if key == nil {
		panic(&reactive.TrackingMisuseError{Op: "write", Node: m.name, Err: errNilKey})
	}
	m.guard.CheckWritable()
	wp := weak.Make(key)

	m.mu.Lock()
	e, existed := m.entries[wp]
	if existed && m.equal(e.value, value) {
		m.mu.Unlock()
		return
	}
	var old V
	if existed {
		old = e.value
		e.value = value
	} else {
		e = &weakEntry[V]{value: value}
		e.cleanup = runtime.AddCleanup(key, m.evict, wp)
		m.entries[wp] = e
	}
	m.mu.Unlock()

	if existed {
		m.obs.emit(Change[*K, V]{Type: ChangeSet, Key: key, Value: value, OldValue: old})
	} else {
		m.obs.emit(Change[*K, V]{Type: ChangeAdd, Key: key, Value: value})
	}
	m.keys.trigger(wp, true)
}

// Delete removes key's entry and reports whether it existed.
func (m *WeakMap[K, V]) Delete(key *K) bool {
	if key == nil {
		return false
	}
	m.guard.CheckWritable()
	wp := weak.Make(key)

	m.mu.Lock()
	e, existed := m.entries[wp]
	if existed {
		delete(m.entries, wp)
		e.cleanup.Stop()
	}
	m.mu.Unlock()
	if !existed {
		return false
	}

	m.obs.emit(Change[*K, V]{Type: ChangeDelete, Key: key, OldValue: e.value})
	m.keys.trigger(wp, false)
	return true
}

// ToMap returns a fresh map of the entries whose keys are still alive. It is
// not tracked.
func (m *WeakMap[K, V]) ToMap() map[*K]V {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[*K]V, len(m.entries))
	for wp, e := range m.entries {
		if k := wp.Value(); k != nil {
			out[k] = e.value
		}
	}
	return out
}

// Observe registers fn for change records.
func (m *WeakMap[K, V]) Observe(fn func(Change[*K, V])) reactive.Dispose {
	return m.obs.observe(fn)
}

// ObserveAny registers fn for type-erased change records.
func (m *WeakMap[K, V]) ObserveAny(fn func(ChangeRecord)) reactive.Dispose {
	return m.obs.observeAny(fn)
}

// WeakSet is a set of pointers that does not keep its members alive.
type WeakSet[T any] struct {
	name string

	mu      sync.Mutex
	members map[weak.Pointer[T]]runtime.Cleanup

	keys  *keyAtoms[weak.Pointer[T]]
	guard *reactive.Atom
	obs   *observers[*T, *T]
}

// NewWeakSet creates an empty weak set.
func NewWeakSet[T any](opts ...Option) *WeakSet[T] {
	o := applyOptions("weakset", opts)
	s := &WeakSet[T]{
		name:    o.name,
		members: make(map[weak.Pointer[T]]runtime.Cleanup),
		guard:   reactive.NewAtom(o.name),
		obs:     newObservers[*T, *T](o.name, "weakset"),
	}
	s.keys = newKeyAtoms(o.name, s.present, &s.mu)
	return s
}

func (s *WeakSet[T]) present(wp weak.Pointer[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[wp]
	return ok
}

func (s *WeakSet[T]) evict(wp weak.Pointer[T]) {
	s.mu.Lock()
	delete(s.members, wp)
	s.mu.Unlock()
	s.keys.forget(wp)
}

// Name returns the collection label.
func (s *WeakSet[T]) Name() string { return s.name }

// Kind returns "weakset".
func (s *WeakSet[T]) Kind() string { return "weakset" }

// Has reports membership. It depends only on v.
func (s *WeakSet[T]) Has(v *T) bool {
	if v == nil {
		return false
	}
	wp := weak.Make(v)
	s.keys.track(wp)
	return s.present(wp)
}

// Len returns the number of live members. It is not tracked.
func (s *WeakSet[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Add inserts v and reports whether it was new. It panics if v is nil.
func (s *WeakSet[T]) Add(v *T) bool {
	if v == nil {
		panic(&reactive.TrackingMisuseError{Op: "write", Node: s.name, Err: errNilKey})
	}
	s.guard.CheckWritable()
	wp := weak.Make(v)

	s.mu.Lock()
	if _, ok := s.members[wp]; ok {
		s.mu.Unlock()
		return false
	}
	s.members[wp] = runtime.AddCleanup(v, s.evict, wp)
	s.mu.Unlock()

	s.obs.emit(Change[*T, *T]{Type: ChangeAdd, Key: v, Value: v})
	s.keys.trigger(wp, true)
	return true
}

// Delete removes v and reports whether it was present.
func (s *WeakSet[T]) Delete(v *T) bool {
	if v == nil {
		return false
	}
	s.guard.CheckWritable()
	wp := weak.Make(v)

	s.mu.Lock()
	cleanup, ok := s.members[wp]
	if ok {
		delete(s.members, wp)
		cleanup.Stop()
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.obs.emit(Change[*T, *T]{Type: ChangeDelete, Key: v, OldValue: v})
	s.keys.trigger(wp, false)
	return true
}

// ToSet returns a fresh set of the members that are still alive. It is not
// tracked.
func (s *WeakSet[T]) ToSet() map[*T]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[*T]struct{}, len(s.members))
	for wp := range s.members {
		if v := wp.Value(); v != nil {
			out[v] = struct{}{}
		}
	}
	return out
}

// Observe registers fn for change records.
func (s *WeakSet[T]) Observe(fn func(Change[*T, *T])) reactive.Dispose {
	return s.obs.observe(fn)
}

// ObserveAny registers fn for type-erased change records.
func (s *WeakSet[T]) ObserveAny(fn func(ChangeRecord)) reactive.Dispose {
	return s.obs.observeAny(fn)
}
