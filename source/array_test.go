package source_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	databind "github.com/reoring/databind"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/source"
)

// fakeListElement records the notifications a collection source sends.
type fakeListElement struct {
	binding databind.Binder

	log       []string
	refreshes int
	rendered  []*model.Instance
	failure   error
}

func (e *fakeListElement) Property() string             { return "items" }
func (e *fakeListElement) Value() any                   { return e.rendered }
func (e *fakeListElement) SetValue(v any)               {}
func (e *fakeListElement) Binding() databind.Binder     { return e.binding }
func (e *fakeListElement) SetBinding(b databind.Binder) { e.binding = b }

func (e *fakeListElement) ItemAdded(evt model.CollectionEvent) {
	e.note("add", evt)
}

func (e *fakeListElement) ItemUpdated(evt model.CollectionEvent) {
	e.note("update", evt)
}

func (e *fakeListElement) ItemRemoved(evt model.CollectionEvent) {
	e.note("remove", evt)
}

func (e *fakeListElement) Refresh(items []*model.Instance) {
	e.refreshes++
	e.rendered = items
	e.log = append(e.log, fmt.Sprintf("refresh:%d", len(items)))
}

func (e *fakeListElement) Fail(err error) {
	e.failure = err
	e.log = append(e.log, "fail")
}

func (e *fakeListElement) note(op string, evt model.CollectionEvent) {
	id, _ := evt.Item.Get("id")
	e.log = append(e.log, fmt.Sprintf("%s:%d:%v", op, evt.Index, id))
}

func taskClass() *model.ArrayClass {
	return model.MustBuildArray(model.ArraySchema{
		Name: "Tasks",
		ElementSchema: &model.Schema{
			Name: "Task",
			Fields: model.Fields{
				"id":    {Type: databind.FieldType{Kind: databind.KindString}},
				"title": {Type: databind.FieldType{Kind: databind.KindString}},
			},
			Equals: func(a, b *model.Instance) bool {
				av, _ := a.Get("id")
				bv, _ := b.Get("id")
				return av == bv
			},
		},
	})
}

func task(id, title string) map[string]any {
	return map[string]any{"id": id, "title": title}
}

func newTaskSource(t *testing.T, initial []any) (*source.ArraySource, *fakeListElement) {
	t.Helper()
	s, err := source.NewArray(taskClass(), &source.ArrayOptions{Initial: initial})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	el := &fakeListElement{}
	if err := s.Bind(el); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return s, el
}

func TestArrayBindRefreshesElement(t *testing.T) {
	s, el := newTaskSource(t, []any{task("t1", "first")})

	if el.refreshes != 1 || len(el.rendered) != 1 {
		t.Fatalf("bind should render the current items, got %d refreshes over %d items",
			el.refreshes, len(el.rendered))
	}
	if el.Binding() != databind.Binder(s) {
		t.Fatalf("element back-reference not set")
	}
}

func TestArrayForwardsIncrementalMutations(t *testing.T) {
	s, el := newTaskSource(t, nil)

	if _, _, err := s.Add(task("t1", "first")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ok, err := s.Set(0, task("t1", "renamed")); !ok || err != nil {
		t.Fatalf("Set = %v, %v", ok, err)
	}
	if _, ok := s.Remove(0); !ok {
		t.Fatalf("Remove reported false")
	}

	want := []string{"refresh:0", "add:0:t1", "update:0:t1", "remove:0:t1"}
	if diff := cmp.Diff(want, el.log); diff != "" {
		t.Fatalf("notification log mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayAddSkipsDuplicates(t *testing.T) {
	s, _ := newTaskSource(t, []any{task("t1", "first")})

	idx, added, err := s.Add(task("t2", "second"))
	if err != nil || !added || idx != 1 {
		t.Fatalf("Add = %d, %v, %v", idx, added, err)
	}

	// same id, element equality matches even with a different title
	idx, added, err = s.Add(task("t2", "changed"))
	if err != nil {
		t.Fatalf("duplicate Add errored: %v", err)
	}
	if added {
		t.Fatalf("duplicate should not be inserted")
	}
	if idx != 1 {
		t.Fatalf("duplicate should report the existing index, got %d", idx)
	}
	if s.Collection().Len() != 2 {
		t.Fatalf("duplicate add mutated the collection, len = %d", s.Collection().Len())
	}
}

func TestArrayAddSurfacesCoercionErrors(t *testing.T) {
	s, _ := newTaskSource(t, nil)
	_, added, err := s.Add(42)
	var me *databind.ModelError
	if !errors.As(err, &me) || added {
		t.Fatalf("want ModelError and no insert, got %v, %v", err, added)
	}
}

func TestArrayClearNotifiesPerItem(t *testing.T) {
	s, el := newTaskSource(t, []any{task("t1", "a"), task("t2", "b")})
	el.log = nil

	s.Clear()
	want := []string{"remove:0:t1", "remove:0:t2"}
	if diff := cmp.Diff(want, el.log); diff != "" {
		t.Fatalf("clear log mismatch (-want +got):\n%s", diff)
	}
	if s.Collection().Len() != 0 {
		t.Fatalf("collection should be empty")
	}
}

func TestArraySetItemsTriggersOneRefresh(t *testing.T) {
	s, el := newTaskSource(t, nil)
	el.log = nil
	el.refreshes = 0

	err := s.SetItems([]any{task("t1", "a"), task("t2", "b")})
	if err != nil {
		t.Fatalf("SetItems: %v", err)
	}
	if el.refreshes != 1 || len(el.rendered) != 2 {
		t.Fatalf("wholesale replacement should refresh once, got %d over %d items",
			el.refreshes, len(el.rendered))
	}
}

func TestArrayRebindDetachesPrevious(t *testing.T) {
	s, first := newTaskSource(t, nil)
	second := &fakeListElement{}

	if err := s.Bind(second); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if first.Binding() != nil {
		t.Fatalf("previous element should be detached")
	}
	if second.Binding() != databind.Binder(s) {
		t.Fatalf("new element should be bound")
	}

	firstLen := len(first.log)
	if _, _, err := s.Add(task("t1", "a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(first.log) != firstLen {
		t.Fatalf("detached element was notified")
	}
	if len(second.log) == 0 {
		t.Fatalf("bound element missed the mutation")
	}
}

func TestArrayStealsElementFromOtherSource(t *testing.T) {
	a, el := newTaskSource(t, nil)
	b, err := source.NewArray(taskClass(), nil)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}

	if err := b.Bind(el); err != nil {
		t.Fatalf("steal: %v", err)
	}
	if a.Element() != nil {
		t.Fatalf("stolen element should leave the first source")
	}
	if el.Binding() != databind.Binder(b) {
		t.Fatalf("element should belong to the second source")
	}

	before := len(el.log)
	if _, _, err := a.Add(task("t1", "a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(el.log) != before {
		t.Fatalf("first source still notifies the stolen element")
	}
}

func TestArrayIsValid(t *testing.T) {
	s, _ := newTaskSource(t, []any{task("t1", "a")})
	if !s.IsValid() {
		t.Fatalf("collection of valid items should be valid")
	}
}
