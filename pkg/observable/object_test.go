package observable

import (
	"reflect"
	"testing"
)

func TestObjectAssignAndCopy(t *testing.T) {
	o := NewObject(map[string]any{"b": 2, "a": 1}, Named("settings"))
	var keys []string
	for k := range o.Keys() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("initial keys should be sorted, got %v", keys)
	}

	reader := track(t, func() {
		_, _ = o.Get("a")
		_, _ = o.Get("c")
	})
	var records []ChangeRecord
	o.ObserveAny(func(r ChangeRecord) { records = append(records, r) })

	o.Assign(map[string]any{"a": 10, "c": 3, "b": 2})
	if reader.reruns() != 1 {
		t.Errorf("assign should re-run readers once, got %d", reader.reruns())
	}
	if len(records) != 2 || records[0].Kind != "object" || records[0].Key != "a" || records[1].Key != "c" {
		t.Errorf("unexpected records %+v", records)
	}

	want := map[string]any{"a": 10, "b": 2, "c": 3}
	got := o.ToObject()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToObject() = %v, want %v", got, want)
	}
	got["a"] = 0
	if v, _ := o.Get("a"); v != 10 {
		t.Error("ToObject should return a copy")
	}
	if o.Kind() != "object" {
		t.Errorf("expected object kind, got %s", o.Kind())
	}
}
