package model

import (
	databind "github.com/reoring/databind"
)

// Action identifies a collection mutation for observer dispatch.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionClear  Action = "clear"
	ActionInit   Action = "init"
)

// CollectionEvent is what collection observers receive. The collection is
// passed live: a before observer sees the pre-mutation state, an after
// observer the post-mutation state. Item is nil for init events.
type CollectionEvent struct {
	Collection *ArrayInstance
	Action     Action
	Index      int
	Item       *Instance
}

// CollectionObserver is a collection mutation hook.
type CollectionObserver func(CollectionEvent)

// ActionHooks registers before/after observers keyed by action. Clear
// dispatches through the Remove hooks, tagged ActionClear.
type ActionHooks struct {
	Add    CollectionHooks
	Update CollectionHooks
	Remove CollectionHooks
	Init   CollectionHooks
}

// CollectionHooks is one before/after observer pair.
type CollectionHooks struct {
	Before []CollectionObserver
	After  []CollectionObserver
}

// ArraySchema is the declarative input of BuildArray. Exactly one of
// Element (a built class) or ElementSchema (a literal schema built on the
// spot) must be set.
type ArraySchema struct {
	Name          string
	Element       *Class
	ElementSchema *Schema
	Observer      ActionHooks
}

// ArrayClass is the configuration shared by the collection instances
// produced from one BuildArray call.
type ArrayClass struct {
	name  string
	elem  *Class
	hooks ActionHooks
}

// BuildArray produces a collection model class for ordered sequences of
// element-model instances.
func BuildArray(s ArraySchema) (*ArrayClass, error) {
	name := s.Name
	switch {
	case s.Element != nil && s.ElementSchema != nil:
		return nil, databind.NewModelError(name, "build", "both Element and ElementSchema set")
	case s.Element != nil:
		return &ArrayClass{name: name, elem: s.Element, hooks: s.Observer}, nil
	case s.ElementSchema != nil:
		elem, err := Build(*s.ElementSchema)
		if err != nil {
			return nil, err
		}
		return &ArrayClass{name: name, elem: elem, hooks: s.Observer}, nil
	default:
		return nil, databind.NewModelError(name, "build", "element model missing")
	}
}

// MustBuildArray is BuildArray panicking on error.
func MustBuildArray(s ArraySchema) *ArrayClass {
	c, err := BuildArray(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Name reports the schema name the class was built from.
func (c *ArrayClass) Name() string { return c.name }

// Element reports the element model class.
func (c *ArrayClass) Element() *Class { return c.elem }

// Extend returns a new collection class with hooks appended. The element
// class is shared; extension is additive only.
func (c *ArrayClass) Extend(hooks ActionHooks) *ArrayClass {
	merged := ActionHooks{
		Add:    mergeCollectionHooks(c.hooks.Add, hooks.Add),
		Update: mergeCollectionHooks(c.hooks.Update, hooks.Update),
		Remove: mergeCollectionHooks(c.hooks.Remove, hooks.Remove),
		Init:   mergeCollectionHooks(c.hooks.Init, hooks.Init),
	}
	return &ArrayClass{name: c.name, elem: c.elem, hooks: merged}
}

func mergeCollectionHooks(a, b CollectionHooks) CollectionHooks {
	return CollectionHooks{
		Before: append(append([]CollectionObserver(nil), a.Before...), b.Before...),
		After:  append(append([]CollectionObserver(nil), a.After...), b.After...),
	}
}

// New coerces items into element instances and returns the collection,
// firing the init observers around the wholesale assignment.
func (c *ArrayClass) New(items []any) (*ArrayInstance, error) {
	a := &ArrayInstance{class: c}
	if err := a.SetItems(items); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNew is New panicking on error.
func (c *ArrayClass) MustNew(items []any) *ArrayInstance {
	a, err := c.New(items)
	if err != nil {
		panic(err)
	}
	return a
}

// ArrayInstance is an ordered sequence of element-model instances.
type ArrayInstance struct {
	class *ArrayClass
	items []*Instance
}

// Class reports the collection class.
func (a *ArrayInstance) Class() *ArrayClass { return a.class }

// Len reports the number of elements.
func (a *ArrayInstance) Len() int { return len(a.items) }

// At returns the element at index i; ok is false out of bounds.
func (a *ArrayInstance) At(i int) (*Instance, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// Items returns a copy of the element slice.
func (a *ArrayInstance) Items() []*Instance {
	return append([]*Instance(nil), a.items...)
}

// coerce turns item into an element instance: instances of the element
// class pass through, plain objects construct one, foreign instances are
// rebuilt from their value tree.
func (a *ArrayInstance) coerce(item any) (*Instance, error) {
	switch v := item.(type) {
	case *Instance:
		if v.class == a.class.elem {
			return v, nil
		}
		return a.class.elem.New(v.GetObject())
	case map[string]any:
		return a.class.elem.New(v)
	case nil:
		return nil, databind.NewModelError(a.class.name, "coerce", "nil collection element")
	default:
		return nil, databind.NewModelError(a.class.name, "coerce",
			"cannot coerce %T into a collection element", item)
	}
}

// Add coerces item, fires add-before, appends, fires add-after. There is no
// duplicate check here; duplicates are the binder's responsibility.
func (a *ArrayInstance) Add(item any) (int, error) {
	inst, err := a.coerce(item)
	if err != nil {
		return -1, err
	}
	idx := len(a.items)
	a.dispatch(a.class.hooks.Add.Before, CollectionEvent{Collection: a, Action: ActionAdd, Index: idx, Item: inst})
	a.items = append(a.items, inst)
	a.dispatch(a.class.hooks.Add.After, CollectionEvent{Collection: a, Action: ActionAdd, Index: idx, Item: inst})
	return idx, nil
}

// Set replaces the element at index i. Out-of-bounds indexes no-op and
// report false.
func (a *ArrayInstance) Set(i int, item any) (bool, error) {
	if i < 0 || i >= len(a.items) {
		return false, nil
	}
	inst, err := a.coerce(item)
	if err != nil {
		return false, err
	}
	a.dispatch(a.class.hooks.Update.Before, CollectionEvent{Collection: a, Action: ActionUpdate, Index: i, Item: inst})
	a.items[i] = inst
	a.dispatch(a.class.hooks.Update.After, CollectionEvent{Collection: a, Action: ActionUpdate, Index: i, Item: inst})
	return true, nil
}

// Remove drops the element at index i. Out-of-bounds indexes no-op and
// report false.
func (a *ArrayInstance) Remove(i int) (*Instance, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	inst := a.items[i]
	a.remove(i, inst, ActionRemove)
	return inst, true
}

func (a *ArrayInstance) remove(i int, inst *Instance, action Action) {
	a.dispatch(a.class.hooks.Remove.Before, CollectionEvent{Collection: a, Action: action, Index: i, Item: inst})
	a.items = append(a.items[:i], a.items[i+1:]...)
	a.dispatch(a.class.hooks.Remove.After, CollectionEvent{Collection: a, Action: action, Index: i, Item: inst})
}

// Clear removes from the front repeatedly, firing the remove observers
// tagged clear for each element.
func (a *ArrayInstance) Clear() {
	for len(a.items) > 0 {
		a.remove(0, a.items[0], ActionClear)
	}
}

// SetItems replaces the backing array wholesale. Every item is coerced
// before anything mutates, so a bad item leaves the collection untouched.
// Init observers fire around the swap.
func (a *ArrayInstance) SetItems(items []any) error {
	coerced := make([]*Instance, 0, len(items))
	for _, item := range items {
		inst, err := a.coerce(item)
		if err != nil {
			return err
		}
		coerced = append(coerced, inst)
	}
	a.dispatch(a.class.hooks.Init.Before, CollectionEvent{Collection: a, Action: ActionInit, Index: -1})
	a.items = coerced
	a.dispatch(a.class.hooks.Init.After, CollectionEvent{Collection: a, Action: ActionInit, Index: -1})
	return nil
}

// IndexOf coerces the probe if needed and linear-scans using the element
// model's equals. It reports -1 when no element matches.
func (a *ArrayInstance) IndexOf(item any) int {
	probe, err := a.coerce(item)
	if err != nil {
		return -1
	}
	for i, inst := range a.items {
		if a.class.elem.instanceEquals(inst, probe) {
			return i
		}
	}
	return -1
}

// IsValid reports whether every element is valid.
func (a *ArrayInstance) IsValid() bool {
	for _, inst := range a.items {
		if !inst.IsValid() {
			return false
		}
	}
	return true
}

// EncodeItems returns every element encoded to plain data, fit for JSON or
// storage.
func (a *ArrayInstance) EncodeItems() []any {
	out := make([]any, len(a.items))
	for i, inst := range a.items {
		out[i] = inst.EncodeObject()
	}
	return out
}

func (a *ArrayInstance) dispatch(obs []CollectionObserver, evt CollectionEvent) {
	for _, o := range obs {
		if o != nil {
			o(evt)
		}
	}
}
