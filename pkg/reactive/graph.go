package reactive

import (
	"strconv"
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for all reactive nodes.
var globalIDCounter uint64

// nextID returns the next unique ID for a reactive node.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// Dispose detaches a node from the graph. Calling it more than once is a no-op.
type Dispose func()

// source is a node that can be read: signals, atoms and computeds.
type source interface {
	node() *sourceBase

	// refresh brings the node's value up to date before its version is
	// compared. It is a no-op for signals and atoms.
	refresh()

	addSub(o observer)
	removeSub(o observer)
}

// observer is a node that reads sources: computeds and effects.
type observer interface {
	// notify is called once per write wave when a source changed.
	notify(wave uint64)
	observerID() uint64
}

// sourceBase holds the version counter and subscriber list shared by every
// readable node.
type sourceBase struct {
	id      uint64
	name    string
	kind    string
	version uint64

	// subs are kept in subscription order so notification order is stable.
	subs []observer
}

// subscribe adds o and reports whether it is the first subscriber.
func (b *sourceBase) subscribe(o observer) bool {
	for _, existing := range b.subs {
		if existing == o {
			return false
		}
	}
	b.subs = append(b.subs, o)
	return len(b.subs) == 1
}

// unsubscribe removes o and reports whether it was the last subscriber.
func (b *sourceBase) unsubscribe(o observer) bool {
	for i, existing := range b.subs {
		if existing == o {
			copy(b.subs[i:], b.subs[i+1:])
			b.subs[len(b.subs)-1] = nil
			b.subs = b.subs[:len(b.subs)-1]
			return len(b.subs) == 0
		}
	}
	return false
}

func (b *sourceBase) label() string {
	if b.name != "" {
		return b.name
	}
	return b.kind + "#" + strconv.FormatUint(b.id, 10)
}

// dependency records a source read during an evaluation together with the
// source version observed at that time.
type dependency struct {
	src     source
	version uint64
}

// collector gathers the reads of one evaluation.
type collector struct {
	owner observer
	deps  []dependency
	seen  map[source]struct{}
	prev  *collector
}

func (c *collector) add(s source) {
	if c.seen == nil {
		c.seen = make(map[source]struct{}, 4)
	}
	if _, ok := c.seen[s]; ok {
		return
	}
	c.seen[s] = struct{}{}
	c.deps = append(c.deps, dependency{src: s, version: s.node().version})
}

// depsChanged refreshes each dependency in read order and reports whether
// any of them moved past the recorded version. It stops at the first change
// so dependencies from branches that may no longer be taken are not pulled.
func depsChanged(deps []dependency) bool {
	for _, d := range deps {
		d.src.refresh()
		if d.src.node().version != d.version {
			return true
		}
	}
	return false
}

// relink moves o's subscriptions from the old dependency list to the new one.
// New edges are added before stale ones are dropped so a computed shared by
// both lists never goes dormant in between.
func relink(o observer, old, next []dependency) {
	had := make(map[source]struct{}, len(old))
	for _, d := range old {
		had[d.src] = struct{}{}
	}
	keep := make(map[source]struct{}, len(next))
	for _, d := range next {
		keep[d.src] = struct{}{}
		if _, ok := had[d.src]; !ok {
			d.src.addSub(o)
		}
	}
	for _, d := range old {
		if _, ok := keep[d.src]; !ok {
			d.src.removeSub(o)
		}
	}
}

func linkAll(o observer, deps []dependency) {
	for _, d := range deps {
		d.src.addSub(o)
	}
}

func unlinkAll(o observer, deps []dependency) {
	for _, d := range deps {
		d.src.removeSub(o)
	}
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
