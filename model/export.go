package model

import (
	databind "github.com/reoring/databind"
	js "github.com/reoring/databind/jsonschema"
)

// JSONSchema exports the class as a minimal JSON Schema document. Kinds map
// to their JSON types; custom value types export as strings carrying the
// type name as format. Validators implementing jsonschema.Contributor add
// their constraints. Requiredness is probed behaviorally: a field whose
// validators fail the required code on a nil value lands in the parent's
// required list.
func (c *Class) JSONSchema() *js.Schema {
	root := &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}

	c.mu.RLock()
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	c.mu.RUnlock()
	for _, g := range groups {
		ensureNode(root, g)
	}

	for _, path := range c.Paths() {
		fc := c.contract(path)
		if fc == nil {
			continue
		}
		parent := root
		if pp := databind.ParentPath(path); pp != "" {
			parent = ensureNode(root, pp)
		}
		name := databind.LastSegment(path)
		leaf := leafSchema(fc)
		if parent.Properties == nil {
			parent.Properties = map[string]*js.Schema{}
		}
		parent.Properties[name] = leaf
		if requiredByValidators(fc) {
			parent.Required = append(parent.Required, name)
		}
	}
	return root
}

// JSONSchema exports the collection class as an array schema over the
// element class.
func (c *ArrayClass) JSONSchema() *js.Schema {
	return &js.Schema{Type: "array", Items: c.elem.JSONSchema()}
}

func ensureNode(root *js.Schema, path string) *js.Schema {
	cur := root
	for _, seg := range databind.SplitPath(path) {
		if cur.Properties == nil {
			cur.Properties = map[string]*js.Schema{}
		}
		next, ok := cur.Properties[seg]
		if !ok {
			next = &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}
			cur.Properties[seg] = next
		}
		cur = next
	}
	return cur
}

func leafSchema(fc *fieldContract) *js.Schema {
	s := &js.Schema{}
	switch {
	case fc.typ.Value != nil:
		s.Type = "string"
		s.Format = fc.typ.Value.Name()
	case fc.typ.Kind != databind.KindAny:
		s.Type = fc.typ.Kind.String()
	}
	if fc.hasDefault {
		if fc.typ.Value != nil {
			s.Default = fc.typ.Value.Encode(fc.def)
		} else {
			s.Default = fc.def
		}
	}
	for _, v := range fc.validators {
		if contrib, ok := v.(js.Contributor); ok {
			contrib.ContributeSchema(s)
		}
	}
	return s
}

func requiredByValidators(fc *fieldContract) bool {
	if fc.notNull && !fc.hasDefault {
		return true
	}
	for _, v := range fc.validators {
		if v == nil {
			continue
		}
		if res := v.Validate(nil, nil); res[databind.CodeRequired] != "" {
			return true
		}
	}
	return false
}
