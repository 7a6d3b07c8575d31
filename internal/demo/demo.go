// Package demo builds the sample todo store used by the reactive CLI.
//
// The store mixes every kind of reactive state: annotated structs, a
// dynamic record, observable collections and one transient signal. The
// inspect command mutates it on a timer and the snapshot command
// materializes it.
package demo

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-dev/reactive/pkg/observable"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// Filters lists the accepted values of Store.Filter.
var Filters = []string{"all", "active", "done"}

// Todo is one item of the list.
type Todo struct {
	Title  *reactive.Signal[string]   `reactive:"observable"`
	Done   *reactive.Signal[bool]     `reactive:"observable"`
	Label  *reactive.Computed[string] `reactive:"computed:DescribeLabel"`
	Toggle *reactive.VoidAction       `reactive:"action:ToggleDone"`
}

// NewTodo creates a todo with the given title.
func NewTodo(title string) (*Todo, error) {
	t := &Todo{}
	if err := reactive.MakeObservable(t, nil); err != nil {
		return nil, err
	}
	t.Title.Set(title)
	return t, nil
}

func (t *Todo) DescribeLabel() string {
	if t.Done.Get() {
		return "[x] " + t.Title.Get()
	}
	return "[ ] " + t.Title.Get()
}

func (t *Todo) ToggleDone() {
	t.Done.Set(!t.Done.Get())
}

// Snapshot returns the todo as plain values.
func (t *Todo) Snapshot() any {
	return map[string]any{
		"title": t.Title.Get(),
		"done":  t.Done.Get(),
		"label": t.Label.Get(),
	}
}

// Store is the sample application state.
type Store struct {
	Filter    *reactive.Signal[string]
	Remaining *reactive.Computed[int]
	Visible   *reactive.Computed[[]string]
	Add       *reactive.Action[string, int]

	Todos  *observable.Array[*Todo]
	Tags   *observable.Set[string]
	Owners *observable.Map[string, string]

	// Settings is a dynamic record with a derived summary member.
	Settings *reactive.Record

	// Session is runtime-only state left out of snapshots.
	Session *reactive.Signal[string]
}

var storeSpec = reactive.Spec{
	"Filter":    reactive.ObservableWith("all"),
	"Remaining": reactive.ComputedBy("CountRemaining"),
	"Visible":   reactive.ComputedBy("VisibleLabels"),
	"Add":       reactive.ActionBy("AddTodo"),
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	s := &Store{
		Todos:  observable.NewArray[*Todo](nil, observable.Named("todos")),
		Tags:   observable.NewSet[string](nil, observable.Named("tags")),
		Owners: observable.NewMap[string, string](observable.Named("owners")),
		Settings: reactive.DefineRecord(reactive.Fields{
			"theme":    "dark",
			"pageSize": 20,
			"summary": reactive.ComputedValue(func(r *reactive.Record) any {
				return fmt.Sprintf("%v/%v", r.Get("theme"), r.Get("pageSize"))
			}),
		}, reactive.Named("settings")),
		Session: reactive.NewSignal("", reactive.Named("session"), reactive.Transient()),
	}
	if err := reactive.MakeObservable(s, storeSpec); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) CountRemaining() int {
	n := 0
	for t := range s.Todos.Values() {
		if !t.Done.Get() {
			n++
		}
	}
	return n
}

func (s *Store) VisibleLabels() []string {
	filter := s.Filter.Get()
	var out []string
	for t := range s.Todos.Values() {
		done := t.Done.Get()
		if filter == "active" && done || filter == "done" && !done {
			continue
		}
		out = append(out, t.Label.Get())
	}
	return out
}

// AddTodo appends a todo and returns the new length of the list.
func (s *Store) AddTodo(title string) (int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.Todos.Len(), fmt.Errorf("demo: empty todo title")
	}
	t, err := NewTodo(title)
	if err != nil {
		return s.Todos.Len(), err
	}
	return s.Todos.Push(t), nil
}

// Seed fills the store with a few items.
func (s *Store) Seed() error {
	for _, title := range []string{"write docs", "review change", "ship release"} {
		if _, err := s.Add.Run(title); err != nil {
			return err
		}
	}
	reactive.Batch(func() {
		s.Tags.Add("docs")
		s.Tags.Add("release")
		s.Owners.Set("write docs", "ana")
		s.Owners.Set("ship release", "kim")
	})
	if t, ok := s.Todos.At(0); ok {
		t.Toggle.Run()
	}
	return nil
}

// Step applies the n-th simulated user edit in one transaction.
func (s *Store) Step(n int) {
	reactive.TxNamed("step", func() {
		switch n % 5 {
		case 0:
			_, _ = s.Add.Run(fmt.Sprintf("task %d", n))
		case 1:
			if l := s.Todos.Len(); l > 0 {
				if t, ok := s.Todos.At(n % l); ok {
					t.Toggle.Run()
				}
			}
		case 2:
			s.Filter.Set(Filters[n%len(Filters)])
		case 3:
			s.Tags.Add(fmt.Sprintf("tag-%d", n%7))
			s.Owners.Set(fmt.Sprintf("task %d", n-3), fmt.Sprintf("user-%d", n%3))
		case 4:
			if s.Todos.Len() > 20 {
				removed, _ := s.Todos.Shift()
				s.Owners.Delete(removed.Title.Peek())
			}
			s.Session.Set(fmt.Sprintf("tick-%d", n))
		}
	})
}

// Tree returns the root handed to the materializer.
func (s *Store) Tree() map[string]any {
	return map[string]any{
		"filter":    s.Filter,
		"remaining": s.Remaining,
		"visible":   s.Visible,
		"todos":     s.Todos,
		"tags":      s.Tags,
		"owners":    s.Owners,
		"settings":  s.Settings,
		"session":   s.Session,
	}
}

// Collections returns the observable collections of the store.
func (s *Store) Collections() []observable.Observed {
	return []observable.Observed{s.Todos, s.Tags, s.Owners}
}

// Start installs the store's effects under a new owner. Disposing the
// returned function stops them.
func (s *Store) Start(logger *slog.Logger) reactive.Dispose {
	owner := reactive.NewOwner(nil)
	reactive.WithOwner(owner, func() {
		reactive.Autorun(func() {
			logger.Debug("remaining changed", "remaining", s.Remaining.Get())
		}, reactive.EffectName("remaining"))
		reactive.Watch(s.Filter.Get, func(filter, prev string) {
			logger.Info("filter changed", "from", prev, "to", filter, "visible", len(s.Visible.Peek()))
		}, reactive.WatchName("filter"))
	})
	return owner.Dispose
}
