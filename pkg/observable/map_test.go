package observable

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/reactive/pkg/reactive"
)

func TestMapPerKeyIsolation(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("x", 1)
	m.Set("y", 2)

	readsY := track(t, func() { _, _ = m.Get("y") })
	readsSize := track(t, func() { _ = m.Len() })

	m.Set("x", 10)
	if readsY.reruns() != 0 {
		t.Errorf("writing x should not re-run a reader of y, got %d", readsY.reruns())
	}
	if readsSize.reruns() != 0 {
		t.Errorf("value change should not re-run a size reader, got %d", readsSize.reruns())
	}

	m.Set("y", 20)
	if readsY.reruns() != 1 {
		t.Errorf("expected reader of y to re-run once, got %d", readsY.reruns())
	}

	m.Set("z", 3)
	if readsSize.reruns() != 1 {
		t.Errorf("adding a key should re-run size reader, got %d", readsSize.reruns())
	}
	if readsY.reruns() != 1 {
		t.Errorf("adding z should not re-run reader of y, got %d", readsY.reruns())
	}
}

func TestMapEqualWriteIsNoop(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	var records []Change[string, int]
	stop := m.Observe(func(c Change[string, int]) { records = append(records, c) })
	defer stop()
	reader := track(t, func() { _, _ = m.Get("a") })

	m.Set("a", 1)
	if reader.reruns() != 0 || len(records) != 0 {
		t.Errorf("equal write should not notify, got %d reruns %v", reader.reruns(), records)
	}
}

func TestMapHasTracksMembership(t *testing.T) {
	m := NewMap[string, bool]()
	var seen []bool
	track(t, func() { seen = append(seen, m.Has("k")) })

	m.Set("k", true)
	m.Delete("k")
	want := []bool{false, true, false}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("expected %v, got %v", want, seen)
	}
	if m.Delete("k") {
		t.Error("deleting a missing key should return false")
	}
}

func TestMapChangeRecords(t *testing.T) {
	m := NewMap[string, int](Named("scores"))
	var records []Change[string, int]
	m.Observe(func(c Change[string, int]) { records = append(records, c) })
	var erased []ChangeRecord
	m.ObserveAny(func(r ChangeRecord) { erased = append(erased, r) })

	m.Set("a", 1)
	m.Set("a", 2)
	m.Delete("a")
	m.Set("b", 3)
	m.Clear()

	want := []Change[string, int]{
		{Type: ChangeAdd, Key: "a", Value: 1},
		{Type: ChangeSet, Key: "a", Value: 2, OldValue: 1},
		{Type: ChangeDelete, Key: "a", OldValue: 2},
		{Type: ChangeAdd, Key: "b", Value: 3},
		{Type: ChangeClear},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %+v, want %+v", records, want)
	}
	if len(erased) != len(want) {
		t.Fatalf("expected %d erased records, got %d", len(want), len(erased))
	}
	if erased[1].Collection != "scores" || erased[1].Kind != "map" || erased[1].OldValue != 1 {
		t.Errorf("unexpected erased record %+v", erased[1])
	}
	if erased[0].OldValue != nil {
		t.Errorf("add record should have no old value, got %v", erased[0].OldValue)
	}
}

func TestMapObserveDispose(t *testing.T) {
	m := NewMap[int, int]()
	calls := 0
	stop := m.Observe(func(Change[int, int]) { calls++ })
	m.Set(1, 1)
	stop()
	m.Set(2, 2)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestMapObserverPanicIsContained(t *testing.T) {
	m := NewMap[int, int]()
	m.Observe(func(Change[int, int]) { panic("observer bug") })
	calls := 0
	m.Observe(func(Change[int, int]) { calls++ })
	m.Set(1, 1)
	if calls != 1 {
		t.Errorf("later observers should still run, got %d", calls)
	}
	if v, _ := m.Get(1); v != 1 {
		t.Errorf("mutation should apply, got %d", v)
	}
}

func TestMapIterationOrderAndTracking(t *testing.T) {
	m := NewMapFromEntries([]Entry[string, int]{{"b", 2}, {"a", 1}, {"c", 3}})

	var keys []string
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"b", "a", "c"}) {
		t.Errorf("expected insertion order, got %v", keys)
	}

	keyReader := track(t, func() {
		for range m.Keys() {
		}
	})
	valueReader := track(t, func() {
		for range m.Values() {
		}
	})

	m.Set("a", 10)
	if keyReader.reruns() != 0 {
		t.Errorf("key iteration should ignore value changes, got %d", keyReader.reruns())
	}
	if valueReader.reruns() != 1 {
		t.Errorf("value iteration should see value changes, got %d", valueReader.reruns())
	}
	m.Delete("b")
	if keyReader.reruns() != 1 {
		t.Errorf("key iteration should see deletes, got %d", keyReader.reruns())
	}
}

func TestMapToMapIsCopy(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("a", 1)
	native := m.ToMap()
	native["a"] = 99
	native["b"] = 2
	if v, _ := m.Get("a"); v != 1 || m.Len() != 1 {
		t.Error("ToMap should return an independent copy")
	}
	if got := m.ToEntries(); len(got) != 1 || got[0] != (Entry[string, int]{"a", 1}) {
		t.Errorf("unexpected entries %v", got)
	}
}

func TestMapMergeIsBatched(t *testing.T) {
	m := NewMap[string, int]()
	reader := track(t, func() {
		_, _ = m.Get("a")
		_, _ = m.Get("b")
	})
	m.Merge(map[string]int{"a": 1, "b": 2})
	if reader.reruns() != 1 {
		t.Errorf("merge should re-run readers once, got %d", reader.reruns())
	}
}

func TestMapWriteInComputedPanics(t *testing.T) {
	m := NewMap[string, int]()
	c := reactive.NewComputed(func() int {
		m.Set("a", 1)
		return 0
	})
	func() {
		defer func() {
			err, _ := recover().(error)
			if !errors.Is(err, reactive.ErrWriteInComputed) {
				t.Errorf("expected ErrWriteInComputed, got %v", err)
			}
		}()
		c.Get()
	}()
	if m.Len() != 0 {
		t.Error("rejected write should leave the map untouched")
	}
}

func TestMapReleasesAtomsForAbsentKeys(t *testing.T) {
	m := NewMap[string, int]()
	reader := track(t, func() { _ = m.Has("ghost") })
	if m.keys.len() != 1 {
		t.Fatalf("expected one key atom, got %d", m.keys.len())
	}
	reader.stop()
	if m.keys.len() != 0 {
		t.Errorf("unobserved atom for an absent key should be released, got %d", m.keys.len())
	}
}

func TestMapCustomEquals(t *testing.T) {
	m := NewMap[string, []int](WithEquals(func(a, b []int) bool { return len(a) == len(b) }))
	m.Set("a", []int{1})
	reader := track(t, func() { _, _ = m.Get("a") })
	m.Set("a", []int{2})
	if reader.reruns() != 0 {
		t.Errorf("custom equality should suppress the write, got %d", reader.reruns())
	}
}

func TestMapIdentityEqualityForSlices(t *testing.T) {
	m := NewMap[string, []int]()
	m.Set("a", []int{1})
	reader := track(t, func() { _, _ = m.Get("a") })
	m.Set("a", []int{1})
	if reader.reruns() != 1 {
		t.Errorf("a new slice is a new value by default, got %d", reader.reruns())
	}
}
