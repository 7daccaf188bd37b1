package model

import (
	"sort"
	"strings"

	databind "github.com/reoring/databind"
)

// Transform rewrites a value on read or write.
type Transform func(v any) any

// Field declares one node of the schema tree. A node is either a leaf
// (Type/Default/Get/Set/Validators/Observer) or a nested group (Fields);
// mixing the two in one node is a build error.
type Field struct {
	Type       databind.FieldType
	Default    any
	NotNull    bool
	Get        Transform
	Set        Transform
	Validators []databind.Validator
	Observer   FieldHooks

	// Fields makes this node a nested group addressed by a longer dotted
	// path. Group nodes carry no leaf settings of their own.
	Fields Fields
}

// Fields maps a field name to its declaration. Names must not contain dots;
// nesting is expressed through group nodes.
type Fields map[string]Field

// Schema is the declarative input of Build.
type Schema struct {
	Name     string
	Fields   Fields
	Equals   func(a, b *Instance) bool
	Observer GlobalHooks
}

// Build walks the schema tree and produces an immutable model class.
func Build(s Schema) (*Class, error) {
	c := &Class{
		name:   s.Name,
		fields: map[string]*fieldContract{},
		groups: map[string]bool{},
		equals: s.Equals,
		global: cloneGlobalHooks(s.Observer),
	}
	if err := c.mergeFields("", s.Fields, "build"); err != nil {
		return nil, err
	}
	c.resort()
	return c, nil
}

// MustBuild is Build panicking on error, for schemas declared in code.
func MustBuild(s Schema) *Class {
	c, err := Build(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (f Field) isGroup() bool { return f.Fields != nil }

func (f Field) hasLeafSettings() bool {
	return !f.Type.IsZero() || f.Default != nil || f.NotNull ||
		f.Get != nil || f.Set != nil || len(f.Validators) > 0 ||
		len(f.Observer.Before) > 0 || len(f.Observer.After) > 0 || len(f.Observer.Validation) > 0
}

// mergeFields registers a field tree under base. It is shared by Build and
// Extend; origin names the operation for error messages.
func (c *Class) mergeFields(base string, fields Fields, origin string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fields[name]
		if name == "" || strings.Contains(name, ".") {
			return databind.NewModelError(c.name, origin, "invalid field name %q", name)
		}
		path := databind.ChildPath(base, name)
		if f.isGroup() {
			if f.hasLeafSettings() {
				return databind.NewModelError(c.name, origin, "field %q mixes group and leaf settings", path)
			}
			if _, leaf := c.fields[path]; leaf {
				return databind.NewModelError(c.name, origin, "field %q already declared as a leaf", path)
			}
			c.groups[path] = true
			if err := c.mergeFields(path, f.Fields, origin); err != nil {
				return err
			}
			continue
		}
		if err := c.mergeLeaf(path, f, origin); err != nil {
			return err
		}
	}
	return nil
}

// mergeLeaf registers or additively extends one leaf contract. Monotonic:
// re-declaring type, transforms, default, or equals with a different value
// fails; adding validators and observers always succeeds.
func (c *Class) mergeLeaf(path string, f Field, origin string) error {
	if c.groups[path] {
		return databind.NewModelError(c.name, origin, "field %q already declared as a group", path)
	}
	cur, exists := c.fields[path]
	if !exists {
		cur = &fieldContract{}
		c.fields[path] = cur
		c.order = append(c.order, path)
	}

	if !f.Type.IsZero() {
		if !cur.typ.IsZero() && !cur.typ.Same(f.Type) {
			return databind.NewModelError(c.name, origin,
				"field %q redefined with type %s, already %s", path, f.Type, cur.typ)
		}
		cur.typ = f.Type
	}
	if f.Default != nil {
		if cur.hasDefault && !looseSame(cur.def, f.Default) {
			return databind.NewModelError(c.name, origin, "field %q default redefined", path)
		}
		cur.def = f.Default
		cur.hasDefault = true
	}
	if f.NotNull {
		cur.notNull = true
	}
	if f.Get != nil {
		if cur.get != nil {
			return databind.NewModelError(c.name, origin, "field %q get transform redefined", path)
		}
		cur.get = f.Get
	}
	if f.Set != nil {
		if cur.set != nil {
			return databind.NewModelError(c.name, origin, "field %q set transform redefined", path)
		}
		cur.set = f.Set
	}
	cur.validators = append(cur.validators, f.Validators...)
	cur.before = append(cur.before, f.Observer.Before...)
	cur.after = append(cur.after, f.Observer.After...)
	cur.validation = append(cur.validation, f.Observer.Validation...)
	return nil
}

func cloneGlobalHooks(h GlobalHooks) GlobalHooks {
	return GlobalHooks{
		Before:     append([]Observer(nil), h.Before...),
		After:      append([]Observer(nil), h.After...),
		InitBefore: append([]Observer(nil), h.InitBefore...),
		InitAfter:  append([]Observer(nil), h.InitAfter...),
	}
}
