package reactive

import "sync"

// dispatchQueue holds work handed over from timer goroutines until the
// goroutine that owns the graph runs it. It is the default Config.Dispatch.
type dispatchQueue struct {
	mu    sync.Mutex
	items []func()
	ready chan struct{}
}

func newDispatchQueue() *dispatchQueue {
	return &dispatchQueue{ready: make(chan struct{}, 1)}
}

// push is safe to call from any goroutine.
func (q *dispatchQueue) push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *dispatchQueue) take() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	select {
	case <-q.ready:
	default:
	}
	return items
}

// Deferred returns a channel that receives a value when work from the default
// dispatcher is waiting. An event loop that owns the graph selects on it and
// calls RunDeferred.
func Deferred() <-chan struct{} {
	return rt.deferred.ready
}

// RunDeferred runs the work queued by the default dispatcher, such as
// debounced watch callbacks, on the calling goroutine and returns how many
// functions ran. The queue is also drained whenever the outermost batch
// exits, so a graph that keeps changing needs no explicit call.
func RunDeferred() int {
	return rt.runDeferred()
}

func (r *Runtime) runDeferred() int {
	if r.draining {
		return 0
	}
	r.draining = true
	defer func() { r.draining = false }()
	ran := 0
	for {
		items := r.deferred.take()
		if len(items) == 0 {
			return ran
		}
		for _, fn := range items {
			ran++
			fn()
		}
	}
}
