package observable

import (
	"fmt"
	"sync"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// keyAtoms lazily creates one atom per key. Atoms exist only for keys read
// inside a tracked context, and are dropped once nobody observes them and
// the key is gone.
type keyAtoms[K comparable] struct {
	name    string
	atoms   map[K]*reactive.Atom
	present func(K) bool

	// mu guards atoms for collections whose keys can vanish from another
	// goroutine. It is never held while calling into the graph.
	mu sync.Locker
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

func newKeyAtoms[K comparable](name string, present func(K) bool, mu sync.Locker) *keyAtoms[K] {
	if mu == nil {
		mu = nopLocker{}
	}
	return &keyAtoms[K]{
		name:    name,
		atoms:   make(map[K]*reactive.Atom),
		present: present,
		mu:      mu,
	}
}

// track registers a dependency on key.
func (t *keyAtoms[K]) track(key K) {
	if !reactive.IsTracking() {
		return
	}
	t.mu.Lock()
	a := t.atoms[key]
	if a == nil {
		a = reactive.NewAtom(fmt.Sprintf("%s[%v]", t.name, key))
		a.OnUnobserved(func() { t.release(key, a) })
		t.atoms[key] = a
	}
	t.mu.Unlock()
	a.Track()
}

// trigger notifies dependents of key. present reports whether the key
// exists after the mutation.
func (t *keyAtoms[K]) trigger(key K, present bool) {
	t.mu.Lock()
	a := t.atoms[key]
	t.mu.Unlock()
	if a == nil {
		return
	}
	a.Trigger()
	if !present && !a.Observed() {
		t.mu.Lock()
		if t.atoms[key] == a {
			delete(t.atoms, key)
		}
		t.mu.Unlock()
	}
}

// release drops the atom for an absent key once its last subscriber left.
// The atom is retired first so dormant readers that recorded it recompute.
func (t *keyAtoms[K]) release(key K, a *reactive.Atom) {
	if t.present(key) {
		return
	}
	t.mu.Lock()
	owned := t.atoms[key] == a
	if owned {
		delete(t.atoms, key)
	}
	t.mu.Unlock()
	if owned {
		a.Retire()
	}
}

// forget drops the atom for key without touching the graph. It is used when
// a weak key has been garbage collected, so no reader can ask for it again.
func (t *keyAtoms[K]) forget(key K) {
	t.mu.Lock()
	delete(t.atoms, key)
	t.mu.Unlock()
}

func (t *keyAtoms[K]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.atoms)
}
