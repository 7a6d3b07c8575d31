// Package materialize turns trees that contain signals, computeds and
// observable collections into plain Go values.
package materialize

import (
	"reflect"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// DefaultMaxDepth is the nesting depth MapSignals descends to by default.
const DefaultMaxDepth = 3

// Snapshotter is implemented by values that can produce a plain copy of
// themselves, such as observable collections and reactive records.
type Snapshotter interface {
	Snapshot() any
}

// Option configures MapSignals.
type Option func(*config)

type config struct {
	maxDepth      int
	skip          func(any) bool
	expandStructs bool
	skipTransient bool
}

// MaxDepth sets how many container levels are copied. Values below the
// limit are returned as they are.
func MaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// SkipOpaque treats values for which pred returns true as leaves.
func SkipOpaque(pred func(v any) bool) Option {
	return func(c *config) { c.skip = pred }
}

// ExpandStructs copies exported struct fields into map[string]any instead
// of treating structs as leaves.
func ExpandStructs() Option {
	return func(c *config) { c.expandStructs = true }
}

// SkipTransient drops signals and computeds created with reactive.Transient
// from maps and structs.
func SkipTransient() Option {
	return func(c *config) { c.skipTransient = true }
}

// MapSignals returns a copy of tree with every accessor replaced by its
// current value. Maps, slices and arrays are copied into map[K]any and
// []any; an accessor's value is materialized one level deeper than the
// accessor itself. Snapshotters are replaced by their snapshot. A container
// reached again through its own descendants becomes nil. Containers deeper
// than the maximum depth are returned as they are, but an accessor held by
// a container within the bound is still read. HasSignals uses the same
// bound.
//
// Reads are tracked, so calling MapSignals inside an effect subscribes the
// effect to everything it read.
func MapSignals(tree any, opts ...Option) any {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &walker{cfg: cfg, path: make(map[uintptr]struct{})}
	return w.value(tree, 0)
}

type walker struct {
	cfg  config
	path map[uintptr]struct{}
}

func (w *walker) value(v any, depth int) any {
	if v == nil {
		return nil
	}
	if w.cfg.skip != nil && w.cfg.skip(v) {
		return v
	}
	if a, ok := reactive.AsAccessor(v); ok {
		return w.value(a.GetAny(), depth+1)
	}
	if depth > w.cfg.maxDepth {
		return v
	}
	if s, ok := v.(Snapshotter); ok && !isNil(v) {
		return w.value(s.Snapshot(), depth+1)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		return w.enter(rv, func() any { return w.mapValue(rv, depth) })
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(out, rv)
			return out.Interface()
		}
		return w.enter(rv, func() any { return w.sliceValue(rv, depth) })
	case reflect.Array:
		return w.sliceValue(rv, depth)
	case reflect.Pointer:
		if rv.IsNil() || !w.cfg.expandStructs || rv.Elem().Kind() != reflect.Struct {
			return v
		}
		return w.enter(rv, func() any { return w.structValue(rv.Elem(), depth) })
	case reflect.Struct:
		if !w.cfg.expandStructs {
			return v
		}
		return w.structValue(rv, depth)
	}
	return v
}

// enter guards against cycles through reference types.
func (w *walker) enter(rv reflect.Value, fn func() any) any {
	ptr := rv.Pointer()
	if _, ok := w.path[ptr]; ok {
		return nil
	}
	w.path[ptr] = struct{}{}
	defer delete(w.path, ptr)
	return fn()
}

func (w *walker) mapValue(rv reflect.Value, depth int) any {
	out := reflect.MakeMapWithSize(reflect.MapOf(rv.Type().Key(), anyType), rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		elem := iter.Value().Interface()
		if w.skipped(elem) {
			continue
		}
		out.SetMapIndex(iter.Key(), valueOf(w.value(elem, depth+1)))
	}
	return out.Interface()
}

func (w *walker) sliceValue(rv reflect.Value, depth int) any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = w.value(rv.Index(i).Interface(), depth+1)
	}
	return out
}

func (w *walker) structValue(rv reflect.Value, depth int) any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		elem := rv.Field(i).Interface()
		if w.skipped(elem) {
			continue
		}
		out[f.Name] = w.value(elem, depth+1)
	}
	return out
}

func (w *walker) skipped(v any) bool {
	if !w.cfg.skipTransient {
		return false
	}
	a, ok := reactive.AsAccessor(v)
	return ok && a.IsTransient()
}

var anyType = reflect.TypeFor[any]()

// valueOf wraps v for SetMapIndex; a nil any needs an explicit zero value.
func valueOf(v any) reflect.Value {
	if v == nil {
		return reflect.Zero(anyType)
	}
	return reflect.ValueOf(v)
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// HasSignals reports whether MapSignals with MaxDepth(maxDepth) would read
// an accessor in tree: one held directly by a map, slice or array within
// maxDepth levels. It stops at the first one found and does not read any
// accessor.
func HasSignals(tree any, maxDepth int) bool {
	return hasSignals(tree, maxDepth, 0, make(map[uintptr]struct{}))
}

func hasSignals(v any, maxDepth, depth int, path map[uintptr]struct{}) bool {
	if v == nil {
		return false
	}
	if reactive.IsSignal(v) {
		return true
	}
	if depth > maxDepth {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || visited(rv, path) {
			return false
		}
		defer delete(path, rv.Pointer())
		iter := rv.MapRange()
		for iter.Next() {
			if hasSignals(iter.Value().Interface(), maxDepth, depth+1, path) {
				return true
			}
		}
	case reflect.Slice:
		if rv.IsNil() || visited(rv, path) {
			return false
		}
		defer delete(path, rv.Pointer())
		fallthrough
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if hasSignals(rv.Index(i).Interface(), maxDepth, depth+1, path) {
				return true
			}
		}
	}
	return false
}

func visited(rv reflect.Value, path map[uintptr]struct{}) bool {
	ptr := rv.Pointer()
	if _, ok := path[ptr]; ok {
		return true
	}
	path[ptr] = struct{}{}
	return false
}
