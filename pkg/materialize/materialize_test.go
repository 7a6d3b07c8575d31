package materialize

import (
	"reflect"
	"testing"

	"github.com/vango-dev/reactive/pkg/observable"
	"github.com/vango-dev/reactive/pkg/reactive"
)

func TestMapSignalsReadsAccessors(t *testing.T) {
	count := reactive.NewSignal(2)
	double := reactive.NewComputed(func() int { return count.Get() * 2 })

	tree := map[string]any{
		"count":  count,
		"double": double,
		"items":  []any{reactive.NewSignal("a"), "b"},
		"plain":  42,
	}
	got := MapSignals(tree)

	want := map[string]any{
		"count":  2,
		"double": 4,
		"items":  []any{"a", "b"},
		"plain":  42,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
	if _, ok := tree["count"].(*reactive.Signal[int]); !ok {
		t.Fatal("input tree was modified")
	}
}

func TestMapSignalsCopiesContainers(t *testing.T) {
	inner := []any{1, 2}
	tree := map[string]any{"inner": inner}

	got := MapSignals(tree).(map[string]any)
	copied := got["inner"].([]any)
	copied[0] = 99

	if inner[0] != 1 {
		t.Fatal("nested slice shared with the input")
	}
	got["extra"] = true
	if _, ok := tree["extra"]; ok {
		t.Fatal("map shared with the input")
	}
}

func TestMapSignalsTypedContainers(t *testing.T) {
	tree := map[int][]string{1: {"x", "y"}}
	got := MapSignals(tree)
	want := map[int]any{1: []any{"x", "y"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
}

func TestMapSignalsSignalHoldingContainer(t *testing.T) {
	s := reactive.NewSignal(map[string]any{"n": reactive.NewSignal(1)})
	got := MapSignals([]any{s})
	want := []any{map[string]any{"n": 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
}

func TestMapSignalsMaxDepth(t *testing.T) {
	leaf := reactive.NewSignal(1)
	deep := map[string]any{"leaf": leaf}
	tree := []any{deep}

	got := MapSignals(tree, MaxDepth(0)).([]any)
	if !reflect.DeepEqual(got[0], deep) {
		t.Fatalf("beyond max depth got %#v, want the original container", got[0])
	}

	got = MapSignals(tree, MaxDepth(1)).([]any)
	if !reflect.DeepEqual(got[0], map[string]any{"leaf": 1}) {
		t.Fatalf("within max depth got %#v", got[0])
	}
}

func TestMapSignalsCycles(t *testing.T) {
	self := map[string]any{"name": "root"}
	self["self"] = self

	got := MapSignals(self, MaxDepth(10)).(map[string]any)
	if got["name"] != "root" {
		t.Fatalf("name = %v", got["name"])
	}
	if got["self"] != nil {
		t.Fatalf("self = %#v, want nil", got["self"])
	}

	list := []any{nil}
	list[0] = list
	out := MapSignals(list, MaxDepth(10)).([]any)
	if out[0] != nil {
		t.Fatalf("list[0] = %#v, want nil", out[0])
	}
}

func TestMapSignalsSiblingsAreNotCycles(t *testing.T) {
	shared := []any{1}
	tree := []any{shared, shared}
	got := MapSignals(tree)
	want := []any{[]any{1}, []any{1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
}

type element struct{ tag string }

func TestMapSignalsSkipOpaque(t *testing.T) {
	el := &element{tag: "div"}
	tree := map[string]any{"el": el, "n": reactive.NewSignal(3)}

	got := MapSignals(tree, ExpandStructs(), SkipOpaque(func(v any) bool {
		_, ok := v.(*element)
		return ok
	})).(map[string]any)

	if got["el"] != el {
		t.Fatalf("opaque value = %#v, want the original pointer", got["el"])
	}
	if got["n"] != 3 {
		t.Fatalf("n = %v", got["n"])
	}
}

type profile struct {
	Name   *reactive.Signal[string]
	Tags   []string
	hidden int
}

func TestMapSignalsExpandStructs(t *testing.T) {
	p := &profile{Name: reactive.NewSignal("ada"), Tags: []string{"x"}}

	if got := MapSignals(p); got != any(p) {
		t.Fatalf("structs are leaves by default, got %#v", got)
	}

	got := MapSignals(p, ExpandStructs())
	want := map[string]any{"Name": "ada", "Tags": []any{"x"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
}

func TestMapSignalsSkipTransient(t *testing.T) {
	tree := map[string]any{
		"kept":    reactive.NewSignal(1),
		"dropped": reactive.NewSignal(2, reactive.Transient()),
	}
	got := MapSignals(tree, SkipTransient())
	if !reflect.DeepEqual(got, map[string]any{"kept": 1}) {
		t.Fatalf("MapSignals = %#v", got)
	}
}

func TestMapSignalsSnapshotsCollections(t *testing.T) {
	m := observable.NewMap[string, int]()
	m.Set("a", 1)
	arr := observable.NewArray([]any{reactive.NewSignal("x")})

	got := MapSignals(map[string]any{"m": m, "arr": arr})
	want := map[string]any{
		"m":   map[string]any{"a": 1},
		"arr": []any{"x"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MapSignals = %#v, want %#v", got, want)
	}
}

func TestMapSignalsTracksReads(t *testing.T) {
	s := reactive.NewSignal(1)
	tree := map[string]any{"s": s}

	var last any
	runs := 0
	dispose := reactive.Autorun(func() {
		runs++
		last = MapSignals(tree)
	})
	defer dispose()

	s.Set(5)
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}
	if !reflect.DeepEqual(last, map[string]any{"s": 5}) {
		t.Fatalf("last = %#v", last)
	}
}

func TestHasSignals(t *testing.T) {
	s := reactive.NewSignal(1)
	cyclic := []any{nil}
	cyclic[0] = cyclic

	tests := []struct {
		name  string
		tree  any
		depth int
		want  bool
	}{
		{"nil", nil, 3, false},
		{"signal", s, 0, true},
		{"plain", map[string]any{"a": 1, "b": []int{1}}, 3, false},
		{"nested", map[string]any{"a": []any{s}}, 3, true},
		{"child of last level", map[string]any{"a": []any{s}}, 1, true},
		{"too deep", map[string]any{"a": []any{[]any{s}}}, 1, false},
		{"array", [2]any{1, s}, 1, true},
		{"cycle", cyclic, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasSignals(tt.tree, tt.depth); got != tt.want {
				t.Errorf("HasSignals = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasSignalsMatchesMapSignalsBound(t *testing.T) {
	s := reactive.NewSignal(7)
	tests := []struct {
		name string
		tree any
		// level is how deep the accessor sits; MapSignals reads it when
		// the container holding it is within the bound.
		level int
	}{
		{"slice", []any{s}, 1},
		{"map of slice", map[string]any{"a": []any{s}}, 2},
		{"three levels", map[string]any{"a": []any{[]any{s}}}, 3},
	}
	for _, tt := range tests {
		for depth := 0; depth <= 3; depth++ {
			want := depth >= tt.level-1
			if got := HasSignals(tt.tree, depth); got != want {
				t.Errorf("%s depth %d: HasSignals = %v, want %v", tt.name, depth, got, want)
			}
			left := HasSignals(MapSignals(tt.tree, MaxDepth(depth)), 100)
			if left == want {
				t.Errorf("%s depth %d: accessor read = %v, want %v", tt.name, depth, !left, want)
			}
		}
	}
}

func TestHasSignalsDoesNotRead(t *testing.T) {
	s := reactive.NewSignal(1)
	runs := 0
	dispose := reactive.Autorun(func() {
		runs++
		HasSignals([]any{s}, 3)
	})
	defer dispose()

	s.Set(2)
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
}
