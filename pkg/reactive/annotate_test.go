package reactive

import (
	"errors"
	"testing"
)

type todoStore struct {
	Title  *Signal[string]      `reactive:"observable"`
	Done   *Signal[bool]        `reactive:"observable"`
	Label  *Computed[string]    `reactive:"computed:DescribeLabel"`
	Toggle *VoidAction          `reactive:"action:ToggleDone"`
	Rename *Action[string, int] `reactive:"action:SetTitle"`

	labelRuns int
}

func (s *todoStore) DescribeLabel() string {
	s.labelRuns++
	if s.Done.Get() {
		return "[x] " + s.Title.Get()
	}
	return "[ ] " + s.Title.Get()
}

func (s *todoStore) ToggleDone() {
	s.Done.Set(!s.Done.Get())
}

func (s *todoStore) SetTitle(title string) (int, error) {
	s.Title.Set(title)
	return len(title), nil
}

func TestMakeObservableFromTags(t *testing.T) {
	store := &todoStore{}
	if err := MakeObservable(store, nil); err != nil {
		t.Fatalf("MakeObservable: %v", err)
	}

	if store.Label.Get() != "[ ] " {
		t.Errorf("unexpected label %q", store.Label.Get())
	}
	var labels []string
	e := CreateEffect(func() Cleanup {
		labels = append(labels, store.Label.Get())
		return nil
	})
	defer e.Dispose()

	if n, err := store.Rename.Run("write docs"); err != nil || n != 10 {
		t.Errorf("Rename.Run() = %d, %v", n, err)
	}
	store.Toggle.Run()

	if got := labels[len(labels)-1]; got != "[x] write docs" {
		t.Errorf("expected [x] write docs, got %q", got)
	}
	if store.Title.Name() != "todoStore.Title" {
		t.Errorf("unexpected signal name %q", store.Title.Name())
	}
	if !IsAction(store.Toggle) || !IsSignal(store.Label) {
		t.Error("annotated fields should be recognised")
	}
}

func TestMakeObservableWithSpec(t *testing.T) {
	store := &todoStore{}
	err := MakeObservable(store, Spec{
		"Title": Observable(),
		"Done":  Observable(),
		"Label": ComputedBy("DescribeLabel"),
	})
	if err != nil {
		t.Fatalf("MakeObservable: %v", err)
	}
	if store.Toggle != nil {
		t.Error("fields missing from the spec should stay nil")
	}
	store.Title.Set("a")
	if store.Label.Get() != "[ ] a" {
		t.Errorf("unexpected label %q", store.Label.Get())
	}
}

func TestMakeObservableIsIdempotent(t *testing.T) {
	store := &todoStore{}
	if err := MakeObservable(store, nil); err != nil {
		t.Fatal(err)
	}
	title := store.Title
	title.Set("keep me")
	if err := MakeObservable(store, nil); err != nil {
		t.Fatal(err)
	}
	if store.Title != title || store.Title.Get() != "keep me" {
		t.Error("second call should leave populated fields alone")
	}
}

type badStore struct {
	Count *int `reactive:"observable"`
	Name  *Signal[string]
	Sum   *Computed[int]
	Act   *Action[int, int]
	Typo  *Signal[string] `reactive:"observabel"`
}

func (b *badStore) Total() int                  { return 0 }
func (b *badStore) Wrong(s string) (int, error) { return 0, nil }

func TestMakeObservableErrors(t *testing.T) {
	tests := []struct {
		name     string
		instance any
		spec     Spec
	}{
		{"not a pointer", badStore{}, Spec{}},
		{"nil pointer", (*badStore)(nil), Spec{}},
		{"not annotatable", &badStore{}, Spec{"Count": Observable()}},
		{"missing field", &badStore{}, Spec{"Missing": Observable()}},
		{"missing method", &badStore{}, Spec{"Sum": ComputedBy("Nope")}},
		{"kind mismatch", &badStore{}, Spec{"Name": ComputedBy("Total")}},
		{"signature mismatch", &badStore{}, Spec{"Act": ActionBy("Wrong")}},
		{"computed without method", &badStore{}, Spec{"Sum": ComputedBy("")}},
		{"unknown tag", &badStore{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MakeObservable(tt.instance, tt.spec)
			if !errors.Is(err, ErrInvalidAnnotation) {
				t.Errorf("expected ErrInvalidAnnotation, got %v", err)
			}
		})
	}
}

func TestMakeObservableInitialValues(t *testing.T) {
	store := &todoStore{}
	err := MakeObservable(store, Spec{
		"Title": ObservableWith("draft"),
		"Done":  ObservableWith(true),
		"Label": ComputedBy("DescribeLabel"),
	})
	if err != nil {
		t.Fatalf("MakeObservable: %v", err)
	}
	if got := store.Label.Get(); got != "[x] draft" {
		t.Errorf("expected initial values in label, got %q", got)
	}

	wrong := &todoStore{}
	err = MakeObservable(wrong, Spec{"Title": ObservableWith(42)})
	if !errors.Is(err, ErrInvalidAnnotation) {
		t.Errorf("expected ErrInvalidAnnotation for mismatched initial value, got %v", err)
	}
	if wrong.Title != nil {
		t.Error("field should stay nil after a failed bind")
	}
}
