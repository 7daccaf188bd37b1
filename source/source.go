// Package source pairs model instances with UI elements by dotted field
// path. A DataSource owns one object model instance and fans every model
// write out to the elements bound at the written path, its ancestors and
// its descendants; ArraySource and PaginatedArraySource do the same for
// collections, the latter against a paged network endpoint. Elements are
// consumed through the contracts in the root package and never inspected
// beyond them.
package source

import (
	"reflect"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/internal/pathtree"
	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/storage"
)

// Options configures New. The zero value works: the source takes the
// class name, starts from an empty object and runs no validation hook.
type Options struct {
	// Name identifies the source in errors and logs. Defaults to the
	// class name.
	Name string
	// Default is the object the instance starts from and Reset returns
	// to.
	Default map[string]any
	// OnValidate, when set, runs after the element and model checks of
	// Validate and can veto the verdict.
	OnValidate func(s *DataSource) bool
	Logger     *logging.Logger
}

// binding is one element registration in the path forest.
type binding struct {
	el    databind.Element
	path  string
	token SyncToken
}

// DataSource binds one model instance to zero or more elements by dotted
// path. Sparse binding is the normal case: a path with no element is
// silently tolerated everywhere.
type DataSource struct {
	name       string
	class      *model.Class
	instance   *model.Instance
	elements   *pathtree.Tree[*binding]
	bound      map[databind.Element]*binding
	def        map[string]any
	onValidate func(s *DataSource) bool
	log        *logging.Logger

	store    *storage.Store
	storeKey string
}

var _ databind.Binder = (*DataSource)(nil)

// New builds a DataSource over class. The class is extended with the
// synchronization observers, so the caller's class is not touched; the
// instance starts from opts.Default.
func New(class *model.Class, opts *Options) (*DataSource, error) {
	if class == nil {
		return nil, databind.NewSourceError("", "new", "", "nil model class")
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	s := &DataSource{
		name:       o.Name,
		elements:   pathtree.New[*binding](),
		bound:      map[databind.Element]*binding{},
		def:        o.Default,
		onValidate: o.OnValidate,
		log:        o.Logger,
	}
	if s.name == "" {
		s.name = class.Name()
	}
	owned, err := class.Extend(model.Schema{Observer: model.GlobalHooks{
		After: []model.Observer{func(e model.Event) {
			s.synchronize(e.Path)
			s.persist()
		}},
		InitAfter: []model.Observer{func(model.Event) {
			s.synchronizeAll()
			s.persist()
		}},
	}})
	if err != nil {
		return nil, err
	}
	s.class = owned
	inst, err := owned.New(o.Default)
	if err != nil {
		return nil, err
	}
	s.instance = inst
	return s, nil
}

// MustNew is New panicking on error, for sources wired in code.
func MustNew(class *model.Class, opts *Options) *DataSource {
	s, err := New(class, opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Name reports the source name used in errors and logs.
func (s *DataSource) Name() string { return s.name }

// Instance reports the owned model instance.
func (s *DataSource) Instance() *model.Instance { return s.instance }

// Class reports the owned, observer-extended model class.
func (s *DataSource) Class() *model.Class { return s.class }

// ---- binding ----

// Bind registers el at a dotted path: the path argument when given, the
// element's Property otherwise. A type or validators declared by the
// element extend the model schema on the fly; a declared type conflicting
// with the path's known type fails with ModelError before anything is
// registered. An element that belongs to another source is unbound there
// first, so an element observes at most one source at a time. The initial
// value is pushed immediately: model into element, or element into model
// for one-way-binding elements.
func (s *DataSource) Bind(el databind.Element, path ...string) error {
	if el == nil {
		return databind.NewSourceError(s.name, "bind", "", "nil element")
	}
	p := el.Property()
	if len(path) > 0 {
		p = path[0]
	}
	if p == "" {
		return databind.NewSourceError(s.name, "bind", "", "element declares no property path")
	}

	var typ databind.FieldType
	if te, ok := el.(databind.TypedElement); ok {
		typ = te.DeclaredType()
	}
	var vals []databind.Validator
	if ve, ok := el.(databind.ValidatorElement); ok {
		vals = ve.DeclaredValidators()
	}
	if !typ.IsZero() || len(vals) > 0 {
		if err := s.class.Define(p, typ, vals...); err != nil {
			return err
		}
	}

	if prev := el.Binding(); prev != nil {
		prev.Unbind(el)
	}
	b := &binding{el: el, path: p}
	s.elements.Add(p, b)
	s.bound[el] = b
	el.SetBinding(s)
	s.push(b)
	return nil
}

// Unbind removes el from the path forest and clears its back-reference.
// Elements bound elsewhere or not at all are left alone.
func (s *DataSource) Unbind(el databind.Element) {
	b, ok := s.bound[el]
	if !ok {
		return
	}
	s.elements.Remove(b.path, func(x *binding) bool { return x == b })
	delete(s.bound, el)
	el.SetBinding(nil)
}

// Bound reports whether el is currently bound to this source.
func (s *DataSource) Bound(el databind.Element) bool {
	_, ok := s.bound[el]
	return ok
}

// ---- value access ----

// SetValue writes one field through the model pipeline; the write fans
// out to the bound elements before it returns.
func (s *DataSource) SetValue(path string, v any) error {
	return s.instance.Set(path, v)
}

// SetValues writes several fields, each through the full pipeline.
func (s *DataSource) SetValues(values map[string]any) error {
	return s.instance.SetValues(values)
}

// Value reads the stored value at path.
func (s *DataSource) Value(path string) (any, bool) {
	return s.instance.Get(path)
}

// ---- synchronization ----

// synchronize is the fan-out the model's global after observer invokes on
// every write. A write at path refreshes the elements registered exactly
// there, the elements at any ancestor prefix (their subtree contains the
// write) and the elements below it (a group write rewrites their leaves).
// Each element receives the value at its own registered path; an element
// already mid-synchronization is skipped.
func (s *DataSource) synchronize(path string) {
	for _, b := range s.elements.At(path) {
		s.push(b)
	}
	for _, e := range s.elements.Ancestors(path) {
		s.push(e.Value)
	}
	for _, e := range s.elements.Descendants(path) {
		s.push(e.Value)
	}
}

// synchronizeAll refreshes every bound element, used after a wholesale
// assignment.
func (s *DataSource) synchronizeAll() {
	if s.instance == nil {
		return
	}
	s.elements.Walk(func(_ string, b *binding) { s.push(b) })
}

// push synchronizes one element from the current model state, or the
// model from the element for one-way bindings.
func (s *DataSource) push(b *binding) {
	if !b.token.Acquire() {
		return
	}
	defer b.token.Release()
	if ow, ok := b.el.(databind.OneWayElement); ok && ow.OneWayBinding() {
		v := b.el.Value()
		if cur, _ := s.instance.Get(b.path); !reflect.DeepEqual(cur, v) {
			if err := s.instance.Set(b.path, v); err != nil {
				s.log.Warningf("%s: one-way write of %q failed: %v", s.name, b.path, err)
			}
		}
		return
	}
	v, _ := s.instance.Get(b.path)
	b.el.SetValue(v)
}

// ---- validation ----

// Validate checks the bound elements and the model. With a property it
// restricts the element check to those registered exactly at that path
// and runs the model's field check for it; without, every bound element
// is checked, then the whole model, then the OnValidate hook.
func (s *DataSource) Validate(property ...string) bool {
	if len(property) > 0 {
		p := property[0]
		ok := s.instance.ValidateField(p)
		for _, b := range s.elements.At(p) {
			if !s.validateBinding(b) {
				ok = false
			}
		}
		return ok
	}
	ok := true
	s.elements.Walk(func(_ string, b *binding) {
		if !s.validateBinding(b) {
			ok = false
		}
	})
	if !s.instance.Validate() {
		ok = false
	}
	if s.onValidate != nil && !s.onValidate(s) {
		ok = false
	}
	return ok
}

// validateBinding runs one element's check: the element's own Validate
// when it implements one, otherwise the model field check for its path
// with the first failing message pushed into the element when it can
// display one.
func (s *DataSource) validateBinding(b *binding) bool {
	if ve, ok := b.el.(databind.ValidatedElement); ok {
		return ve.Validate()
	}
	ok := s.instance.ValidateField(b.path)
	if ee, can := b.el.(databind.ErrorElement); can {
		if ok {
			ee.SetError("")
		} else if msgs := s.instance.ErrorMessages(b.path); len(msgs) > 0 {
			ee.SetError(msgs[0])
		}
	}
	return ok
}

// IsValid reports whether the model currently has no failing fields.
func (s *DataSource) IsValid() bool { return s.instance.IsValid() }

// Errors reports the model's failing fields.
func (s *DataSource) Errors() databind.FieldErrors { return s.instance.Errors() }

// ---- bulk operations ----

// SetObject overwrites the model wholesale through the init pipeline and
// re-synchronizes every bound element from scratch.
func (s *DataSource) SetObject(obj map[string]any) error {
	return s.instance.SetObject(obj)
}

// Reset clears every bound element's error state and puts the model back
// to the default object the source was built with.
func (s *DataSource) Reset() error {
	s.elements.Walk(func(_ string, b *binding) {
		if re, ok := b.el.(databind.ResettableElement); ok {
			re.Reset()
		}
		if ee, ok := b.el.(databind.ErrorElement); ok {
			ee.SetError("")
		}
	})
	return s.instance.SetObject(s.def)
}

// SetErrors merges externally produced field errors, such as a server
// rejection, into the model and pushes the messages into the elements
// bound at the failing paths.
func (s *DataSource) SetErrors(errs databind.FieldErrors) {
	s.instance.SetErrors(errs)
	for path := range errs {
		msgs := s.instance.ErrorMessages(path)
		if len(msgs) == 0 {
			continue
		}
		for _, b := range s.elements.At(path) {
			if ee, ok := b.el.(databind.ErrorElement); ok {
				ee.SetError(msgs[0])
			}
		}
	}
}
