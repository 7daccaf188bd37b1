package source

import (
	databind "github.com/reoring/databind"
	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/model"
)

// ListElement is the contract a list-rendering element must satisfy to
// bind against a collection source. Incremental mutations arrive one by
// one; Refresh replaces the rendered list wholesale and Fail flips the
// element into its failure presentation.
type ListElement interface {
	databind.Element
	ItemAdded(evt model.CollectionEvent)
	ItemUpdated(evt model.CollectionEvent)
	ItemRemoved(evt model.CollectionEvent)
	Refresh(items []*model.Instance)
	Fail(err error)
}

// ArrayOptions configures NewArray.
type ArrayOptions struct {
	// Name identifies the source in errors and logs. Defaults to the
	// collection class name.
	Name string
	// Initial seeds the collection.
	Initial []any
	Logger  *logging.Logger
}

// ArraySource binds one list element to a collection instance.
// Collection mutations forward to the element incrementally; a wholesale
// replacement triggers one Refresh. At most one element is bound at a
// time.
type ArraySource struct {
	name  string
	class *model.ArrayClass
	items *model.ArrayInstance
	el    ListElement
	log   *logging.Logger
}

var _ databind.Binder = (*ArraySource)(nil)

// NewArray builds an ArraySource over class. The class is extended with
// the forwarding observers, so the caller's class is not touched.
func NewArray(class *model.ArrayClass, opts *ArrayOptions) (*ArraySource, error) {
	if class == nil {
		return nil, databind.NewSourceError("", "new", "", "nil collection class")
	}
	var o ArrayOptions
	if opts != nil {
		o = *opts
	}
	s := &ArraySource{name: o.Name, log: o.Logger}
	if s.name == "" {
		s.name = class.Name()
	}
	owned := class.Extend(model.ActionHooks{
		Add:    model.CollectionHooks{After: []model.CollectionObserver{s.forwardAdd}},
		Update: model.CollectionHooks{After: []model.CollectionObserver{s.forwardUpdate}},
		Remove: model.CollectionHooks{After: []model.CollectionObserver{s.forwardRemove}},
		Init:   model.CollectionHooks{After: []model.CollectionObserver{s.forwardInit}},
	})
	items, err := owned.New(o.Initial)
	if err != nil {
		return nil, err
	}
	s.class = owned
	s.items = items
	return s, nil
}

// MustNewArray is NewArray panicking on error.
func MustNewArray(class *model.ArrayClass, opts *ArrayOptions) *ArraySource {
	s, err := NewArray(class, opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Name reports the source name used in errors and logs.
func (s *ArraySource) Name() string { return s.name }

// Collection reports the owned collection instance.
func (s *ArraySource) Collection() *model.ArrayInstance { return s.items }

// Element reports the bound list element, nil when none.
func (s *ArraySource) Element() ListElement { return s.el }

// ---- binding ----

// Bind attaches el, detaching a previously bound element first and
// stealing el from another source when it belongs to one. The element
// immediately receives the current items.
func (s *ArraySource) Bind(el ListElement) error {
	if el == nil {
		return databind.NewSourceError(s.name, "bind", "", "nil element")
	}
	if prev := el.Binding(); prev != nil {
		prev.Unbind(el)
	}
	if s.el != nil {
		s.el.SetBinding(nil)
	}
	s.el = el
	el.SetBinding(s)
	el.Refresh(s.items.Items())
	return nil
}

// Unbind detaches el; a no-op when el is not the bound element.
func (s *ArraySource) Unbind(el databind.Element) {
	if s.el == nil || databind.Element(s.el) != el {
		return
	}
	s.el.SetBinding(nil)
	s.el = nil
}

// ---- collection operations ----

// Add appends item unless an equal one is already present. It reports
// the item's index and whether it was inserted; the duplicate case
// mutates nothing. Coercion failures surface as ModelError.
func (s *ArraySource) Add(item any) (int, bool, error) {
	if idx := s.items.IndexOf(item); idx >= 0 {
		return idx, false, nil
	}
	idx, err := s.items.Add(item)
	if err != nil {
		return -1, false, err
	}
	return idx, true, nil
}

// Set replaces the element instance at index i, a no-op with a false
// result out of bounds.
func (s *ArraySource) Set(i int, item any) (bool, error) {
	return s.items.Set(i, item)
}

// Remove drops the element instance at index i, a no-op with a false
// result out of bounds.
func (s *ArraySource) Remove(i int) (*model.Instance, bool) {
	return s.items.Remove(i)
}

// Clear empties the collection, notifying the bound element per item.
func (s *ArraySource) Clear() { s.items.Clear() }

// SetItems replaces the collection wholesale; the bound element receives
// one Refresh.
func (s *ArraySource) SetItems(items []any) error {
	return s.items.SetItems(items)
}

// IsValid reports whether every element instance is valid.
func (s *ArraySource) IsValid() bool { return s.items.IsValid() }

// ---- forwarding ----

func (s *ArraySource) forwardAdd(evt model.CollectionEvent) {
	if s.el != nil {
		s.el.ItemAdded(evt)
	}
}

func (s *ArraySource) forwardUpdate(evt model.CollectionEvent) {
	if s.el != nil {
		s.el.ItemUpdated(evt)
	}
}

func (s *ArraySource) forwardRemove(evt model.CollectionEvent) {
	if s.el != nil {
		s.el.ItemRemoved(evt)
	}
}

func (s *ArraySource) forwardInit(evt model.CollectionEvent) {
	if s.el != nil {
		s.el.Refresh(evt.Collection.Items())
	}
}
