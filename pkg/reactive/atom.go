package reactive

// Atom is a value-less signal. Collections use one atom per key and one for
// their overall shape: reads call Track, mutations call Trigger.
type Atom struct {
	base         sourceBase
	onUnobserved func()
}

// NewAtom creates an atom. The name appears in errors and logs.
func NewAtom(name string) *Atom {
	return &Atom{base: sourceBase{id: nextID(), name: name, kind: "atom"}}
}

func (a *Atom) node() *sourceBase { return &a.base }
func (a *Atom) refresh()          {}
func (a *Atom) addSub(o observer) { a.base.subscribe(o) }

func (a *Atom) removeSub(o observer) {
	if a.base.unsubscribe(o) && a.onUnobserved != nil {
		a.onUnobserved()
	}
}

// Track registers the atom as a dependency of the evaluating node.
func (a *Atom) Track() {
	rt.track(a)
}

// Trigger records a change and notifies subscribers.
// It panics with a *TrackingMisuseError while a computed is evaluating.
func (a *Atom) Trigger() {
	rt.checkWrite(&a.base)
	rt.propagate(&a.base)
}

// CheckWritable panics with a *TrackingMisuseError when a write is not
// allowed right now. Collections call it before mutating their storage so a
// rejected write leaves them untouched.
func (a *Atom) CheckWritable() {
	rt.checkWrite(&a.base)
}

// Retire bumps the version without notifying anyone. Dormant computeds that
// recorded the atom will recompute on their next read. Collections call it
// before dropping an atom from their tables so a recreated atom cannot be
// mistaken for the old one.
func (a *Atom) Retire() {
	a.base.version++
	rt.globalVersion++
}

// Observed reports whether any computed or effect currently subscribes.
func (a *Atom) Observed() bool {
	return len(a.base.subs) > 0
}

// OnUnobserved registers fn to run when the last subscriber leaves.
// fn must not write to the graph.
func (a *Atom) OnUnobserved(fn func()) {
	a.onUnobserved = fn
}

// Name returns the atom's label.
func (a *Atom) Name() string { return a.base.label() }
