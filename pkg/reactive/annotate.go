package reactive

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AnnotationKind says how MakeObservable should populate a field.
type AnnotationKind uint8

const (
	// AnnotationObservable allocates a *Signal[T].
	AnnotationObservable AnnotationKind = iota + 1
	// AnnotationComputed allocates a *Computed[T] around a method.
	AnnotationComputed
	// AnnotationAction allocates an *Action[A, R] or *VoidAction around a method.
	AnnotationAction
)

// String returns a human-readable name for the kind.
func (k AnnotationKind) String() string {
	switch k {
	case AnnotationObservable:
		return "observable"
	case AnnotationComputed:
		return "computed"
	case AnnotationAction:
		return "action"
	default:
		return "unknown"
	}
}

// Annotation is one entry of a Spec.
type Annotation struct {
	Kind AnnotationKind
	// Method names the method backing a computed or action field.
	Method string
	// Initial is the starting value of an observable field. Nil means the
	// zero value.
	Initial any
}

// Spec maps exported field names to annotations.
type Spec map[string]Annotation

// Observable annotates a *Signal[T] field.
func Observable() Annotation {
	return Annotation{Kind: AnnotationObservable}
}

// ObservableWith annotates a *Signal[T] field that starts at v. The dynamic
// type of v must be T.
func ObservableWith(v any) Annotation {
	return Annotation{Kind: AnnotationObservable, Initial: v}
}

// ComputedBy annotates a *Computed[T] field backed by the named method,
// which must have the signature func() T.
func ComputedBy(method string) Annotation {
	return Annotation{Kind: AnnotationComputed, Method: method}
}

// ActionBy annotates an *Action[A, R] field backed by a method with the
// signature func(A) (R, error), or a *VoidAction field backed by func().
func ActionBy(method string) Annotation {
	return Annotation{Kind: AnnotationAction, Method: method}
}

// TagName is the struct tag read by MakeObservable when no Spec is given.
//
//	type Todo struct {
//	    Title    *reactive.Signal[string]   `reactive:"observable"`
//	    Done     *reactive.Signal[bool]     `reactive:"observable"`
//	    Label    *reactive.Computed[string] `reactive:"computed:label"`
//	    Toggle   *reactive.VoidAction       `reactive:"action:toggle"`
//	}
const TagName = "reactive"

// fieldBinder is implemented by the pointer types MakeObservable can
// allocate. The receiver is a freshly allocated zero value.
type fieldBinder interface {
	bindField(ann Annotation, name string, method reflect.Value) error
}

// MakeObservable populates the nil reactive fields of the struct pointed to
// by instance. Observable fields get a signal holding the annotation's
// initial value or the zero value, computed fields a computed over their method, action fields an action
// over their method.
//
// With a nil spec the reactive struct tags are used. Fields that are
// already set are left alone, so calling MakeObservable twice is harmless.
// Errors wrap ErrInvalidAnnotation.
func MakeObservable(instance any, spec Spec) error {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return annotationError(fmt.Sprintf("%T", instance), "instance must be a non-nil pointer to a struct")
	}
	elem := rv.Elem()
	if spec == nil {
		var err error
		spec, err = specFromTags(elem.Type())
		if err != nil {
			return err
		}
	}

	// Stable order: observables, then computeds, then actions, each by name.
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ki, kj := spec[names[i]].Kind, spec[names[j]].Kind
		if ki != kj {
			return ki < kj
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if err := bindField(rv, elem, name, spec[name]); err != nil {
			return err
		}
	}
	return nil
}

func bindField(rv, elem reflect.Value, name string, ann Annotation) error {
	qualified := elem.Type().Name() + "." + name
	field := elem.FieldByName(name)
	if !field.IsValid() {
		return annotationError(qualified, "no such field")
	}
	if !field.CanSet() {
		return annotationError(qualified, "field is not exported")
	}
	if field.Kind() != reflect.Pointer {
		return annotationError(qualified, fmt.Sprintf("field type %s is not a pointer", field.Type()))
	}
	if !field.IsNil() {
		return nil
	}

	var method reflect.Value
	if ann.Kind == AnnotationComputed || ann.Kind == AnnotationAction {
		if ann.Method == "" {
			return annotationError(qualified, ann.Kind.String()+" annotation needs a method name")
		}
		method = rv.MethodByName(ann.Method)
		if !method.IsValid() {
			return annotationError(qualified, fmt.Sprintf("method %s not found (methods must be exported)", ann.Method))
		}
	}

	ptr := reflect.New(field.Type().Elem())
	binder, ok := ptr.Interface().(fieldBinder)
	if !ok {
		return annotationError(qualified, fmt.Sprintf("field type %s cannot be annotated", field.Type()))
	}
	if err := binder.bindField(ann, qualified, method); err != nil {
		return err
	}
	field.Set(ptr)
	return nil
}

func specFromTags(t reflect.Type) (Spec, error) {
	spec := Spec{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		kind, method, _ := strings.Cut(tag, ":")
		switch kind {
		case "observable":
			spec[f.Name] = Observable()
		case "computed":
			spec[f.Name] = ComputedBy(method)
		case "action":
			spec[f.Name] = ActionBy(method)
		default:
			return nil, annotationError(t.Name()+"."+f.Name, fmt.Sprintf("unknown tag %q", tag))
		}
	}
	return spec, nil
}

func annotationError(node, msg string) error {
	return &TrackingMisuseError{Op: "annotate", Node: node, Err: fmt.Errorf("%w: %s", ErrInvalidAnnotation, msg)}
}

func wrongKind(name string, want, got AnnotationKind) error {
	return annotationError(name, fmt.Sprintf("%s field annotated as %s", want, got))
}

func (s *Signal[T]) bindField(ann Annotation, name string, _ reflect.Value) error {
	if ann.Kind != AnnotationObservable {
		return wrongKind(name, AnnotationObservable, ann.Kind)
	}
	if ann.Initial != nil {
		v, ok := ann.Initial.(T)
		if !ok {
			return annotationError(name, fmt.Sprintf("initial value %T is not %T", ann.Initial, *new(T)))
		}
		s.value = v
	}
	s.base = sourceBase{id: nextID(), name: name, kind: "signal"}
	return nil
}

func (c *Computed[T]) bindField(ann Annotation, name string, method reflect.Value) error {
	if ann.Kind != AnnotationComputed {
		return wrongKind(name, AnnotationComputed, ann.Kind)
	}
	fn, ok := method.Interface().(func() T)
	if !ok {
		return annotationError(name, fmt.Sprintf("method type %s is not func() %T", method.Type(), *new(T)))
	}
	c.base = sourceBase{id: nextID(), name: name, kind: "computed"}
	c.fn = fn
	return nil
}

func (a *Action[A, R]) bindField(ann Annotation, name string, method reflect.Value) error {
	if ann.Kind != AnnotationAction {
		return wrongKind(name, AnnotationAction, ann.Kind)
	}
	fn, ok := method.Interface().(func(A) (R, error))
	if !ok {
		return annotationError(name, fmt.Sprintf("method type %s does not match %T", method.Type(), a.fn))
	}
	a.name = name
	a.fn = fn
	return nil
}

func (a *VoidAction) bindField(ann Annotation, name string, method reflect.Value) error {
	if ann.Kind != AnnotationAction {
		return wrongKind(name, AnnotationAction, ann.Kind)
	}
	fn, ok := method.Interface().(func())
	if !ok {
		return annotationError(name, fmt.Sprintf("method type %s is not func()", method.Type()))
	}
	a.name = name
	a.fn = fn
	return nil
}
