package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	databind "github.com/reoring/databind"
	"github.com/reoring/databind/model"
)

func taskArray(hooks model.ActionHooks) *model.ArrayClass {
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
		Observer: hooks,
	})
}

func TestBuildArrayValidation(t *testing.T) {
	elem := model.MustBuild(personSchema())

	if _, err := model.BuildArray(model.ArraySchema{Name: "Bad"}); err == nil {
		t.Fatalf("a collection needs an element model")
	}
	_, err := model.BuildArray(model.ArraySchema{
		Name:          "Bad",
		Element:       elem,
		ElementSchema: &model.Schema{},
	})
	var me *databind.ModelError
	if !errors.As(err, &me) {
		t.Fatalf("both element forms at once must fail, got %v", err)
	}

	c := model.MustBuildArray(model.ArraySchema{Name: "People", Element: elem})
	if c.Element() != elem {
		t.Fatalf("Element should report the configured class")
	}
}

func TestAddSeesLiveCollection(t *testing.T) {
	var beforeLen, afterLen int
	var afterItem any
	c := taskArray(model.ActionHooks{
		Add: model.CollectionHooks{
			Before: []model.CollectionObserver{func(e model.CollectionEvent) {
				beforeLen = e.Collection.Len()
			}},
			After: []model.CollectionObserver{func(e model.CollectionEvent) {
				afterLen = e.Collection.Len()
				if inst, ok := e.Collection.At(e.Index); ok {
					afterItem, _ = inst.Get("id")
				}
			}},
		},
	})
	a := c.MustNew(nil)

	idx, err := a.Add(map[string]any{"id": "t1", "title": "first"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx != 0 {
		t.Fatalf("index = %d", idx)
	}
	if beforeLen != 0 || afterLen != 1 {
		t.Fatalf("observers must see the live state: before=%d after=%d", beforeLen, afterLen)
	}
	if afterItem != "t1" {
		t.Fatalf("after observer should find the item at the event index: %v", afterItem)
	}
}

func TestSetAndRemoveBounds(t *testing.T) {
	c := taskArray(model.ActionHooks{})
	a := c.MustNew([]any{
		map[string]any{"id": "t1"},
		map[string]any{"id": "t2"},
	})

	ok, err := a.Set(1, map[string]any{"id": "t9"})
	if err != nil || !ok {
		t.Fatalf("Set: %v, %v", ok, err)
	}
	inst, _ := a.At(1)
	if v, _ := inst.Get("id"); v != "t9" {
		t.Fatalf("id = %v", v)
	}

	if ok, err := a.Set(5, map[string]any{"id": "x"}); ok || err != nil {
		t.Fatalf("out of bounds Set must no-op: %v, %v", ok, err)
	}
	if _, ok := a.Remove(-1); ok {
		t.Fatalf("out of bounds Remove must no-op")
	}

	removed, ok := a.Remove(0)
	if !ok {
		t.Fatalf("Remove failed")
	}
	if v, _ := removed.Get("id"); v != "t1" {
		t.Fatalf("removed = %v", v)
	}
	if a.Len() != 1 {
		t.Fatalf("Len = %d", a.Len())
	}
}

func TestClearDispatchesRemoveObservers(t *testing.T) {
	var log []string
	c := taskArray(model.ActionHooks{
		Remove: model.CollectionHooks{
			Before: []model.CollectionObserver{func(e model.CollectionEvent) {
				id, _ := e.Item.Get("id")
				log = append(log, fmt.Sprintf("%s:%d:%v", e.Action, e.Index, id))
			}},
		},
	})
	a := c.MustNew([]any{
		map[string]any{"id": "t1"},
		map[string]any{"id": "t2"},
		map[string]any{"id": "t3"},
	})

	a.Clear()
	if a.Len() != 0 {
		t.Fatalf("Len = %d", a.Len())
	}
	// clear removes from the front, one remove event per element
	want := []string{"clear:0:t1", "clear:0:t2", "clear:0:t3"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Fatalf("clear dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestSetItemsIsAtomic(t *testing.T) {
	c := taskArray(model.ActionHooks{})
	a := c.MustNew([]any{map[string]any{"id": "t1"}})

	err := a.SetItems([]any{
		map[string]any{"id": "t2"},
		"not an element",
	})
	var me *databind.ModelError
	if !errors.As(err, &me) {
		t.Fatalf("bad item must fail, got %v", err)
	}
	if a.Len() != 1 {
		t.Fatalf("a failed SetItems must leave the collection untouched, Len = %d", a.Len())
	}
	inst, _ := a.At(0)
	if v, _ := inst.Get("id"); v != "t1" {
		t.Fatalf("id = %v", v)
	}
}

func TestIndexOfUsesElementEquals(t *testing.T) {
	c := taskArray(model.ActionHooks{})
	a := c.MustNew([]any{
		map[string]any{"id": "t1", "title": "first"},
		map[string]any{"id": "t2", "title": "second"},
	})

	// the probe is coerced and matched by the configured equals, so a plain
	// object with the same id finds the element
	if i := a.IndexOf(map[string]any{"id": "t2"}); i != 1 {
		t.Fatalf("IndexOf = %d", i)
	}
	if i := a.IndexOf(map[string]any{"id": "t9"}); i != -1 {
		t.Fatalf("missing element should report -1, got %d", i)
	}
}

func TestCoerceForeignInstance(t *testing.T) {
	tasks := taskArray(model.ActionHooks{})
	people := model.MustBuild(personSchema())
	p := people.MustNew(map[string]any{"name": "Ada"})

	a := tasks.MustNew(nil)
	if _, err := a.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}
	inst, _ := a.At(0)
	if inst.Class() != tasks.Element() {
		t.Fatalf("foreign instances must be rebuilt on the element class")
	}
	if v, ok := inst.Get("name"); !ok || v != "Ada" {
		t.Fatalf("value tree should carry over: %v", v)
	}
}

func TestArrayExtendAppendsHooks(t *testing.T) {
	var base, extra int
	c := taskArray(model.ActionHooks{
		Add: model.CollectionHooks{After: []model.CollectionObserver{func(model.CollectionEvent) { base++ }}},
	})
	ext := c.Extend(model.ActionHooks{
		Add: model.CollectionHooks{After: []model.CollectionObserver{func(model.CollectionEvent) { extra++ }}},
	})

	a := ext.MustNew(nil)
	if _, err := a.Add(map[string]any{"id": "t1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if base != 1 || extra != 1 {
		t.Fatalf("both hook sets should fire: base=%d extra=%d", base, extra)
	}

	// the original class is untouched
	b := c.MustNew(nil)
	if _, err := b.Add(map[string]any{"id": "t2"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if base != 2 || extra != 1 {
		t.Fatalf("extension must not mutate the base: base=%d extra=%d", base, extra)
	}
}

func TestEncodeItems(t *testing.T) {
	c := taskArray(model.ActionHooks{})
	a := c.MustNew([]any{map[string]any{"id": "t1", "title": "first"}})
	enc := a.EncodeItems()
	if len(enc) != 1 {
		t.Fatalf("EncodeItems = %v", enc)
	}
	obj := enc[0].(map[string]any)
	if obj["id"] != "t1" || obj["title"] != "first" {
		t.Fatalf("encoded = %v", obj)
	}
}
