// Package devtools serves a read-only HTTP inspector for a reactive
// runtime.
//
// The inspector exposes runtime counters, the collections registered with
// Track, Prometheus metrics and a WebSocket stream of collection change
// records:
//
//	insp := devtools.NewInspector(devtools.WithGatherer(reg))
//	insp.Track(todos)
//	http.ListenAndServe(":6060", insp.Handler())
//
// Routes:
//
//	GET /stats                      runtime and inspector counters
//	GET /collections                tracked collections
//	GET /collections/{name}/changes recent change records for one collection
//	GET /metrics                    Prometheus exposition
//	GET /changes                    WebSocket stream of change records
//
// Change records are produced on the graph's goroutine and handed to
// connection writers through buffered channels. A client that falls behind
// loses records rather than stalling the graph.
package devtools
