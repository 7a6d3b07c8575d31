package reactive

// Owner is a disposal scope. Effects and watches created while an owner is
// current are disposed together with it, and so are child owners.
//
// Owners form a hierarchy that mirrors how the application creates its
// reactive state: a store or request scope creates an Owner, and nested
// scopes create children.
type Owner struct {
	id uint64

	// parent is nil for a root owner.
	parent *Owner

	children []*Owner

	// cleanups run in reverse registration order on Dispose.
	cleanups []ownedCleanup

	disposed bool
}

// NewOwner creates an owner. If parent is non-nil the new owner is disposed
// together with it.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{id: nextID(), parent: parent}
	if parent != nil {
		if parent.disposed {
			o.disposed = true
			return o
		}
		parent.children = append(parent.children, o)
	}
	return o
}

// ID returns the unique identifier for this owner.
func (o *Owner) ID() uint64 { return o.id }

// Parent returns the parent owner, or nil.
func (o *Owner) Parent() *Owner { return o.parent }

// CurrentOwner returns the owner that is current, or nil.
func CurrentOwner() *Owner {
	return rt.owner
}

// WithOwner runs fn with o as the current owner.
func WithOwner(o *Owner, fn func()) {
	prev := rt.owner
	rt.owner = o
	defer func() { rt.owner = prev }()
	fn()
}

// Run runs fn with o as the current owner.
func (o *Owner) Run(fn func()) {
	WithOwner(o, fn)
}

// OnCleanup registers fn with the current owner. Without a current owner fn
// is never called.
func OnCleanup(fn func()) {
	if rt.owner != nil {
		rt.owner.OnCleanup(fn)
	}
}

// OnCleanup registers fn to run when o is disposed. On a disposed owner fn
// runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	o.register(fn)
}

type ownedCleanup struct {
	key uint64
	fn  func()
}

// register adds fn and returns the key that forget takes. A zero key means
// nothing was stored.
func (o *Owner) register(fn func()) uint64 {
	if fn == nil {
		return 0
	}
	if o.disposed {
		fn()
		return 0
	}
	key := nextID()
	o.cleanups = append(o.cleanups, ownedCleanup{key: key, fn: fn})
	return key
}

// forget drops the cleanup registered under key without running it.
func (o *Owner) forget(key uint64) {
	if key == 0 || o.disposed {
		return
	}
	for i := len(o.cleanups) - 1; i >= 0; i-- {
		if o.cleanups[i].key == key {
			o.cleanups = append(o.cleanups[:i], o.cleanups[i+1:]...)
			return
		}
	}
}

// ownerSlot ties a node's Dispose to the owner that was current when the node
// was created, so disposing the node early releases the registration.
type ownerSlot struct {
	owner *Owner
	key   uint64
}

func (s *ownerSlot) attach(fn func()) {
	if rt.owner == nil {
		return
	}
	s.owner = rt.owner
	s.key = s.owner.register(fn)
}

func (s *ownerSlot) detach() {
	if s.owner != nil {
		s.owner.forget(s.key)
		s.owner = nil
	}
}

// Dispose disposes children first, then runs cleanups in reverse order.
// It is idempotent.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	Batch(func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i].fn()
		}
	})

	if o.parent != nil {
		o.parent.removeChild(o)
	}
}

// IsDisposed reports whether Dispose has been called.
func (o *Owner) IsDisposed() bool {
	return o.disposed
}

func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}
