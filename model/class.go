package model

import (
	"sort"
	"sync"

	databind "github.com/reoring/databind"
)

// fieldContract is the flattened configuration of one leaf path.
type fieldContract struct {
	typ        databind.FieldType
	def        any
	hasDefault bool
	notNull    bool
	get        Transform
	set        Transform
	validators []databind.Validator
	before     []Observer
	after      []Observer
	validation []ValidationObserver
}

func (fc *fieldContract) clone() *fieldContract {
	cp := *fc
	cp.validators = append([]databind.Validator(nil), fc.validators...)
	cp.before = append([]Observer(nil), fc.before...)
	cp.after = append([]Observer(nil), fc.after...)
	cp.validation = append([]ValidationObserver(nil), fc.validation...)
	return &cp
}

// Class is the configuration record shared by all instances produced from
// one Build call. Structure is build-time immutable and run-time additive:
// Define may add contracts to a live class, never change existing ones. The
// mutex guards that additive path.
type Class struct {
	mu     sync.RWMutex
	name   string
	fields map[string]*fieldContract
	groups map[string]bool
	order  []string
	global GlobalHooks
	equals func(a, b *Instance) bool
}

// Name reports the schema name the class was built from.
func (c *Class) Name() string { return c.name }

// Paths lists the declared leaf paths in deterministic order.
func (c *Class) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// TypeAt reports the declared type of path. ok is false for undeclared
// paths; group paths report KindObject.
func (c *Class) TypeAt(path string) (databind.FieldType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if fc, ok := c.fields[path]; ok {
		return fc.typ, true
	}
	if c.groups[path] {
		return databind.FieldType{Kind: databind.KindObject}, true
	}
	return databind.FieldType{}, false
}

// Has reports whether path is declared, as a leaf or a group.
func (c *Class) Has(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, leaf := c.fields[path]
	return leaf || c.groups[path]
}

func (c *Class) contract(path string) *fieldContract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fields[path]
}

func (c *Class) isGroup(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[path]
}

func (c *Class) resort() { sort.Strings(c.order) }

// Extend returns a new class whose configuration is the parent's plus s.
// The merge is monotonic: new fields, validators, and observers are added;
// re-declaring an existing contract differently fails with ModelError.
// Re-declaring it identically is a no-op.
func (c *Class) Extend(s Schema) (*Class, error) {
	c.mu.RLock()
	child := &Class{
		name:   s.Name,
		fields: make(map[string]*fieldContract, len(c.fields)),
		groups: make(map[string]bool, len(c.groups)),
		order:  append([]string(nil), c.order...),
		global: cloneGlobalHooks(c.global),
		equals: c.equals,
	}
	if child.name == "" {
		child.name = c.name
	}
	for path, fc := range c.fields {
		child.fields[path] = fc.clone()
	}
	for path := range c.groups {
		child.groups[path] = true
	}
	c.mu.RUnlock()

	if s.Equals != nil {
		if child.equals != nil {
			return nil, databind.NewModelError(child.name, "extend", "equals predicate redefined")
		}
		child.equals = s.Equals
	}
	child.global.Before = append(child.global.Before, s.Observer.Before...)
	child.global.After = append(child.global.After, s.Observer.After...)
	child.global.InitBefore = append(child.global.InitBefore, s.Observer.InitBefore...)
	child.global.InitAfter = append(child.global.InitAfter, s.Observer.InitAfter...)

	if err := child.mergeFields("", s.Fields, "extend"); err != nil {
		return nil, err
	}
	child.resort()
	return child, nil
}

// MustExtend is Extend panicking on error.
func (c *Class) MustExtend(s Schema) *Class {
	child, err := c.Extend(s)
	if err != nil {
		panic(err)
	}
	return child
}

// Define additively registers a contract for path on the live class. It is
// the bind-time extension hook: an element declaring a type or validators
// for a path not yet known lands here. Conflicting redefinition fails with
// ModelError; an identical declaration is a no-op.
func (c *Class) Define(path string, typ databind.FieldType, validators ...databind.Validator) error {
	if path == "" {
		return databind.NewModelError(c.name, "define", "empty field path")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// every ancestor must be (or become) a group
	for anc := databind.ParentPath(path); anc != ""; anc = databind.ParentPath(anc) {
		if _, leaf := c.fields[anc]; leaf {
			return databind.NewModelError(c.name, "define",
				"field %q conflicts with leaf %q", path, anc)
		}
		c.groups[anc] = true
	}
	if c.groups[path] {
		if !typ.IsZero() && !(typ.Value == nil && typ.Kind == databind.KindObject) {
			return databind.NewModelError(c.name, "define",
				"field %q redefined with type %s, already a group", path, typ)
		}
		return nil
	}

	fc, ok := c.fields[path]
	if !ok {
		fc = &fieldContract{}
		c.fields[path] = fc
		c.order = append(c.order, path)
		sort.Strings(c.order)
	}
	if !typ.IsZero() {
		if !fc.typ.IsZero() && !fc.typ.Same(typ) {
			return databind.NewModelError(c.name, "define",
				"field %q redefined with type %s, already %s", path, typ, fc.typ)
		}
		fc.typ = typ
	}
	fc.validators = append(fc.validators, validators...)
	return nil
}

// New applies initial through the init write pipeline and returns the
// resulting instance. A nil initial behaves like an empty object: defaults
// apply and validators run.
func (c *Class) New(initial map[string]any) (*Instance, error) {
	inst := &Instance{
		class:   c,
		values:  map[string]any{},
		invalid: databind.FieldErrors{},
	}
	if err := inst.assign(initial); err != nil {
		return nil, err
	}
	return inst, nil
}

// MustNew is New panicking on error.
func (c *Class) MustNew(initial map[string]any) *Instance {
	inst, err := c.New(initial)
	if err != nil {
		panic(err)
	}
	return inst
}

func (c *Class) instanceEquals(a, b *Instance) bool {
	if c.equals != nil {
		return c.equals(a, b)
	}
	return a == b
}
