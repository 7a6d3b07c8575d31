package observable

import (
	"sync"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// ChangeType names the kind of mutation in a Change.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeSet    ChangeType = "set"
	ChangeDelete ChangeType = "delete"
	ChangeClear  ChangeType = "clear"
	ChangeSplice ChangeType = "splice"
)

// Change describes one logical mutation.
//
// For maps and objects Key is the entry key. For sets Key and Value are the
// member. For arrays a "set" record carries the index in Key, and a
// "splice" record carries Index, Added and Removed.
type Change[K comparable, V any] struct {
	Type     ChangeType
	Key      K
	Value    V
	OldValue V
	Index    int
	Added    []V
	Removed  []V
}

// ChangeRecord is the type-erased form of a Change, tagged with the
// collection it came from. It is what ObserveAny delivers and what the
// inspector streams as JSON.
type ChangeRecord struct {
	Collection string     `json:"collection"`
	Kind       string     `json:"kind"`
	Type       ChangeType `json:"type"`
	Key        any        `json:"key,omitempty"`
	Value      any        `json:"value,omitempty"`
	OldValue   any        `json:"oldValue,omitempty"`
	Index      int        `json:"index,omitempty"`
	Added      []any      `json:"added,omitempty"`
	Removed    []any      `json:"removed,omitempty"`
}

// Observed is implemented by every collection in this package.
type Observed interface {
	// Name returns the label given with Named, or the collection kind.
	Name() string
	// Kind returns "array", "map", "object", "set", "weakmap" or "weakset".
	Kind() string
	// ObserveAny registers fn for type-erased change records.
	ObserveAny(fn func(ChangeRecord)) reactive.Dispose
}

// observers holds Observe callbacks. Registration may happen from any
// goroutine; delivery happens on the goroutine that mutates the collection.
type observers[K comparable, V any] struct {
	name string
	kind string

	mu     sync.Mutex
	nextID uint64
	typed  map[uint64]func(Change[K, V])
	erased map[uint64]func(ChangeRecord)
	order  []uint64
}

func newObservers[K comparable, V any](name, kind string) *observers[K, V] {
	return &observers[K, V]{
		name:   name,
		kind:   kind,
		typed:  make(map[uint64]func(Change[K, V])),
		erased: make(map[uint64]func(ChangeRecord)),
	}
}

func (o *observers[K, V]) observe(fn func(Change[K, V])) reactive.Dispose {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.typed[id] = fn
	o.order = append(o.order, id)
	o.mu.Unlock()
	return func() { o.remove(id) }
}

func (o *observers[K, V]) observeAny(fn func(ChangeRecord)) reactive.Dispose {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.erased[id] = fn
	o.order = append(o.order, id)
	o.mu.Unlock()
	return func() { o.remove(id) }
}

func (o *observers[K, V]) remove(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.typed, id)
	delete(o.erased, id)
	for i, existing := range o.order {
		if existing == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *observers[K, V]) empty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order) == 0
}

// emit delivers c to every observer registered at the time of the call.
// A panicking observer is logged and skipped.
func (o *observers[K, V]) emit(c Change[K, V]) {
	o.mu.Lock()
	if len(o.order) == 0 {
		o.mu.Unlock()
		return
	}
	type target struct {
		typed  func(Change[K, V])
		erased func(ChangeRecord)
	}
	targets := make([]target, 0, len(o.order))
	for _, id := range o.order {
		targets = append(targets, target{o.typed[id], o.erased[id]})
	}
	o.mu.Unlock()

	var record *ChangeRecord
	for _, tg := range targets {
		if tg.typed != nil {
			o.call(func() { tg.typed(c) })
			continue
		}
		if record == nil {
			r := o.erase(c)
			record = &r
		}
		rec := *record
		o.call(func() { tg.erased(rec) })
	}
}

func (o *observers[K, V]) call(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			err := &reactive.CallbackError{Source: o.name + " observer", Cause: recoveredError(p)}
			reactive.Default().Config().Logger.Warn("collection observer failed", "collection", o.name, "error", err)
		}
	}()
	reactive.Untracked(fn)
}

func (o *observers[K, V]) erase(c Change[K, V]) ChangeRecord {
	r := ChangeRecord{
		Collection: o.name,
		Kind:       o.kind,
		Type:       c.Type,
		Index:      c.Index,
	}
	switch c.Type {
	case ChangeSplice:
		r.Added = toAny(c.Added)
		r.Removed = toAny(c.Removed)
	case ChangeClear:
	default:
		r.Key = c.Key
		r.Value = c.Value
		r.OldValue = c.OldValue
	}
	if c.Type == ChangeAdd {
		r.OldValue = nil
	}
	if c.Type == ChangeDelete {
		r.Value = nil
	}
	return r
}

func toAny[V any](values []V) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
