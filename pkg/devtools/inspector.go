package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactive/pkg/observable"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// Option configures an Inspector.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	runtime     *reactive.Runtime
	history     int
	buffer      int
	checkOrigin func(*http.Request) bool
	now         func() time.Time
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGatherer sets the registry served at /metrics.
// Default: prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithHistory sets how many change records are kept per collection.
// Default: 100.
func WithHistory(n int) Option {
	return func(o *options) { o.history = n }
}

// WithClientBuffer sets the per-connection queue length. Default: 256.
func WithClientBuffer(n int) Option {
	return func(o *options) { o.buffer = n }
}

// WithCheckOrigin sets the WebSocket origin check. Default: allow all.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(o *options) { o.checkOrigin = fn }
}

// CollectionInfo describes a tracked collection.
type CollectionInfo struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Changes    uint64    `json:"changes"`
	LastChange time.Time `json:"lastChange,omitzero"`
}

// InspectorStats are the inspector's own counters.
type InspectorStats struct {
	Collections int    `json:"collections"`
	Clients     int    `json:"clients"`
	Dropped     uint64 `json:"dropped"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Runtime   reactive.Stats `json:"runtime"`
	Inspector InspectorStats `json:"inspector"`
}

type tracked struct {
	info    CollectionInfo
	history []observable.ChangeRecord
	dispose reactive.Dispose
}

// Inspector records change activity from tracked collections and serves it
// over HTTP.
type Inspector struct {
	opts options
	hub  *hub

	mu          sync.RWMutex
	collections map[string]*tracked
	order       []string
}

// NewInspector creates an inspector.
func NewInspector(opts ...Option) *Inspector {
	o := options{
		logger:      slog.Default(),
		gatherer:    prometheus.DefaultGatherer,
		runtime:     reactive.Default(),
		history:     100,
		buffer:      256,
		checkOrigin: func(*http.Request) bool { return true },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With("component", "inspector")
	return &Inspector{
		opts:        o,
		hub:         newHub(o.logger, o.buffer, o.checkOrigin),
		collections: make(map[string]*tracked),
	}
}

// Track starts recording change records from c. A second collection with
// the same name is registered as "name#2", "name#3" and so on. The returned
// function stops tracking.
func (i *Inspector) Track(c observable.Observed) reactive.Dispose {
	i.mu.Lock()
	name := c.Name()
	for n := 2; i.collections[name] != nil; n++ {
		name = c.Name() + "#" + strconv.Itoa(n)
	}
	t := &tracked{info: CollectionInfo{Name: name, Kind: c.Kind()}}
	i.collections[name] = t
	i.order = append(i.order, name)
	i.mu.Unlock()

	stop := c.ObserveAny(func(rec observable.ChangeRecord) {
		rec.Collection = name
		i.record(t, rec)
	})
	t.dispose = stop

	return func() {
		stop()
		i.mu.Lock()
		if i.collections[name] == t {
			delete(i.collections, name)
			i.order = slices.DeleteFunc(i.order, func(s string) bool { return s == name })
		}
		i.mu.Unlock()
	}
}

func (i *Inspector) record(t *tracked, rec observable.ChangeRecord) {
	i.mu.Lock()
	t.info.Changes++
	t.info.LastChange = i.opts.now()
	if i.opts.history > 0 {
		if len(t.history) >= i.opts.history {
			t.history = slices.Delete(t.history, 0, len(t.history)-i.opts.history+1)
		}
		t.history = append(t.history, rec)
	}
	i.mu.Unlock()
	i.hub.broadcast(rec)
}

// Collections returns the tracked collections in registration order.
func (i *Inspector) Collections() []CollectionInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]CollectionInfo, 0, len(i.order))
	for _, name := range i.order {
		out = append(out, i.collections[name].info)
	}
	return out
}

// Changes returns the recent change records of one collection.
func (i *Inspector) Changes(name string) ([]observable.ChangeRecord, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	t, ok := i.collections[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.history), true
}

// Stats returns runtime and inspector counters.
func (i *Inspector) Stats() StatsResponse {
	i.mu.RLock()
	n := len(i.collections)
	i.mu.RUnlock()
	return StatsResponse{
		Runtime: i.opts.runtime.Stats(),
		Inspector: InspectorStats{
			Collections: n,
			Clients:     i.hub.clientCount(),
			Dropped:     i.hub.dropped.Load(),
		},
	}
}

// Close stops tracking every collection and disconnects stream clients.
func (i *Inspector) Close() {
	i.mu.Lock()
	list := make([]*tracked, 0, len(i.collections))
	for _, t := range i.collections {
		list = append(list, t)
	}
	clear(i.collections)
	i.order = nil
	i.mu.Unlock()

	for _, t := range list {
		if t.dispose != nil {
			t.dispose()
		}
	}
	i.hub.close()
}

// Handler returns the inspector's HTTP routes.
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/stats", i.handleStats)
		r.Get("/collections", i.handleCollections)
		r.Get("/collections/{name}/changes", i.handleCollectionChanges)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(i.opts.gatherer, promhttp.HandlerOpts{}))
	r.Get("/changes", i.handleStream)
	return r
}

func (i *Inspector) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, i.Stats())
}

func (i *Inspector) handleCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, i.Collections())
}

func (i *Inspector) handleCollectionChanges(w http.ResponseWriter, r *http.Request) {
	changes, ok := i.Changes(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown collection"})
		return
	}
	if changes == nil {
		changes = []observable.ChangeRecord{}
	}
	writeJSON(w, http.StatusOK, changes)
}

// handleStream upgrades to a WebSocket. With ?replay=1 the stored history
// of every collection is sent first.
func (i *Inspector) handleStream(w http.ResponseWriter, r *http.Request) {
	var backlog [][]byte
	if r.URL.Query().Get("replay") == "1" {
		i.mu.RLock()
		for _, name := range i.order {
			for _, rec := range i.collections[name].history {
				if data, err := json.Marshal(rec); err == nil {
					backlog = append(backlog, data)
				}
			}
		}
		i.mu.RUnlock()
	}
	i.hub.serve(w, r, backlog)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
