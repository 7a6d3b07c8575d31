package observable

import "sort"

// Object is a reactive string-keyed record of dynamic values.
type Object struct {
	*Map[string, any]
}

// NewObject creates an object holding a copy of initial. Initial keys are
// ordered alphabetically.
func NewObject(initial map[string]any, opts ...Option) *Object {
	m := newMap[string, any]("object", opts)
	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.entries[k] = initial[k]
		m.order = append(m.order, k)
	}
	return &Object{Map: m}
}

// Assign copies every key of values into the object in one batch, in
// alphabetical key order.
func (o *Object) Assign(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batchSet(o.Map, keys, values)
}

// ToObject returns a fresh, non-reactive copy.
func (o *Object) ToObject() map[string]any {
	return o.ToMap()
}
