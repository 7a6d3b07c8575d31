// Package observable provides reactive collections: Array, Map, Object, Set,
// WeakMap and WeakSet.
//
// Each collection keeps one reactive.Atom per key that has been read inside
// a tracked context, plus one atom for its cardinality. Keyed reads (Get,
// Has, At) depend only on their key, so writing one key never re-runs
// effects that read a different key. Len and iteration depend on the
// cardinality atom; iteration that yields values also depends on each
// visited key.
//
// Every mutation that changes the collection emits exactly one Change
// record to the callbacks registered with Observe. Records are delivered
// synchronously, independent of batching.
package observable
