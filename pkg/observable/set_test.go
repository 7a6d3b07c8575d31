package observable

import (
	"reflect"
	"testing"
)

func TestSetMembership(t *testing.T) {
	s := NewSet([]string{"a", "b", "a"})
	if s.Len() != 2 {
		t.Fatalf("duplicates should collapse, got %d", s.Len())
	}

	readsA := track(t, func() { _ = s.Has("a") })
	readsC := track(t, func() { _ = s.Has("c") })
	readsLen := track(t, func() { _ = s.Len() })

	if !s.Add("c") {
		t.Error("Add should report a new member")
	}
	if s.Add("c") {
		t.Error("Add should report an existing member")
	}
	if readsA.reruns() != 0 {
		t.Errorf("adding c should not re-run reader of a, got %d", readsA.reruns())
	}
	if readsC.reruns() != 1 || readsLen.reruns() != 1 {
		t.Errorf("expected c and len readers to re-run once, got %d and %d", readsC.reruns(), readsLen.reruns())
	}

	if !s.Delete("a") || s.Delete("a") {
		t.Error("Delete should report presence")
	}
	if readsA.reruns() != 1 {
		t.Errorf("expected reader of a to re-run, got %d", readsA.reruns())
	}
}

func TestSetRecordsAndCopies(t *testing.T) {
	s := NewSet[int](nil, Named("ids"))
	var records []Change[int, int]
	s.Observe(func(c Change[int, int]) { records = append(records, c) })

	s.Add(1)
	s.Add(2)
	s.Delete(1)
	if got := s.ToSlice(); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("ToSlice() = %v", got)
	}
	native := s.ToSet()
	native[5] = struct{}{}
	if s.Has(5) {
		t.Error("ToSet should return a copy")
	}
	s.Clear()
	s.Clear()

	want := []Change[int, int]{
		{Type: ChangeAdd, Key: 1, Value: 1},
		{Type: ChangeAdd, Key: 2, Value: 2},
		{Type: ChangeDelete, Key: 1, OldValue: 1},
		{Type: ChangeClear},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %+v, want %+v", records, want)
	}
	if s.Name() != "ids" || s.Kind() != "set" {
		t.Errorf("unexpected name/kind %s/%s", s.Name(), s.Kind())
	}
}

func TestSetIteration(t *testing.T) {
	s := NewSet([]int{3, 1, 2})
	var seen []int
	s.ForEach(func(v int) { seen = append(seen, v) })
	if !reflect.DeepEqual(seen, []int{3, 1, 2}) {
		t.Errorf("expected insertion order, got %v", seen)
	}
	iter := track(t, func() {
		for range s.Values() {
		}
	})
	s.Add(4)
	if iter.reruns() != 1 {
		t.Errorf("iteration should depend on membership, got %d", iter.reruns())
	}
}
