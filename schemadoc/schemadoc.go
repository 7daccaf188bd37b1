// Package schemadoc materializes model schemas declared as YAML or JSON
// documents. A document carries the class name and a field tree; each
// field declares a type name (primitive kind or custom value type), an
// optional default, notNull, a validator list, and nested fields for
// groups. The loaders produce a model.Schema ready for model.Build.
//
// A field spec is either an object or, as a shorthand, a bare type name:
//
//	name: Contact
//	fields:
//	  name:
//	    type: string
//	    default: anon
//	    validators:
//	      - required
//	      - name: minLength
//	        length: 2
//	  addr:
//	    fields:
//	      city: string
package schemadoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/rules"
	"github.com/reoring/databind/valuetype"
)

// LoadYAML decodes a YAML schema document.
func LoadYAML(data []byte) (model.Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return model.Schema{}, fmt.Errorf("schemadoc: invalid YAML: %w", err)
	}
	doc := stringMap(node)
	if doc == nil {
		return model.Schema{}, fmt.Errorf("schemadoc: document root is not an object")
	}
	return FromDocument(doc)
}

// LoadJSON decodes a JSON schema document.
func LoadJSON(data []byte) (model.Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Schema{}, fmt.Errorf("schemadoc: invalid JSON: %w", err)
	}
	return FromDocument(doc)
}

// LoadFile reads path and decodes it by extension: .json as JSON, .yaml
// or .yml as YAML.
func LoadFile(path string) (model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Schema{}, err
	}
	switch filepath.Ext(path) {
	case ".json":
		return LoadJSON(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return model.Schema{}, fmt.Errorf("schemadoc: unsupported schema file extension %q", filepath.Ext(path))
	}
}

// FromDocument converts an already-decoded document into a model.Schema.
func FromDocument(doc map[string]any) (model.Schema, error) {
	var s model.Schema
	s.Name, _ = doc["name"].(string)

	for _, key := range sortedKeys(doc) {
		switch key {
		case "name", "fields":
		default:
			return model.Schema{}, fmt.Errorf("schemadoc: unknown document key %q", key)
		}
	}

	raw, ok := doc["fields"].(map[string]any)
	if !ok {
		return model.Schema{}, fmt.Errorf("schemadoc: document declares no fields object")
	}
	fields, err := buildFields("", raw)
	if err != nil {
		return model.Schema{}, err
	}
	s.Fields = fields
	return s, nil
}

func buildFields(base string, raw map[string]any) (model.Fields, error) {
	out := model.Fields{}
	for _, name := range sortedKeys(raw) {
		path := databind.ChildPath(base, name)
		switch spec := raw[name].(type) {
		case string:
			// shorthand: the value is the type name
			ft, err := fieldTypeOf(path, spec)
			if err != nil {
				return nil, err
			}
			out[name] = model.Field{Type: ft}
		case map[string]any:
			f, err := buildField(path, spec)
			if err != nil {
				return nil, err
			}
			out[name] = f
		default:
			return nil, fmt.Errorf("schemadoc: field %q is %T, want an object or a type name", path, raw[name])
		}
	}
	return out, nil
}

func buildField(path string, spec map[string]any) (model.Field, error) {
	var f model.Field
	for _, key := range sortedKeys(spec) {
		switch key {
		case "type", "default", "notNull", "validators", "fields":
		default:
			return model.Field{}, fmt.Errorf("schemadoc: field %q: unknown key %q", path, key)
		}
	}

	if raw, ok := spec["fields"]; ok {
		sub, ok := raw.(map[string]any)
		if !ok {
			return model.Field{}, fmt.Errorf("schemadoc: field %q: fields is %T, want an object", path, raw)
		}
		nested, err := buildFields(path, sub)
		if err != nil {
			return model.Field{}, err
		}
		f.Fields = nested
	}
	if raw, ok := spec["type"]; ok {
		name, ok := raw.(string)
		if !ok {
			return model.Field{}, fmt.Errorf("schemadoc: field %q: type is %T, want a string", path, raw)
		}
		ft, err := fieldTypeOf(path, name)
		if err != nil {
			return model.Field{}, err
		}
		f.Type = ft
	}
	if d, ok := spec["default"]; ok {
		// the write pipeline trusts defaults, so canonicalize here
		if f.Type.Value != nil {
			dv, err := f.Type.Value.Decode(d)
			if err != nil {
				return model.Field{}, fmt.Errorf("schemadoc: field %q: default: %v", path, err)
			}
			d = dv
		}
		f.Default = d
	}
	if raw, ok := spec["notNull"]; ok {
		nn, ok := raw.(bool)
		if !ok {
			return model.Field{}, fmt.Errorf("schemadoc: field %q: notNull is %T, want a bool", path, raw)
		}
		f.NotNull = nn
	}
	if raw, ok := spec["validators"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return model.Field{}, fmt.Errorf("schemadoc: field %q: validators is %T, want a list", path, raw)
		}
		for _, item := range list {
			v, err := buildValidator(path, item)
			if err != nil {
				return model.Field{}, err
			}
			f.Validators = append(f.Validators, v)
		}
	}
	return f, nil
}

// fieldTypeOf resolves a type name: primitive kinds first, then the
// custom value types.
func fieldTypeOf(path, name string) (databind.FieldType, error) {
	if kind, ok := databind.KindOf(name); ok {
		return databind.FieldType{Kind: kind}, nil
	}
	if vt, ok := valuetype.Lookup(name); ok {
		return databind.TypeOf(vt), nil
	}
	return databind.FieldType{}, fmt.Errorf("schemadoc: field %q: unknown type %q", path, name)
}

func buildValidator(path string, item any) (databind.Validator, error) {
	switch spec := item.(type) {
	case string:
		return namedValidator(path, spec, nil)
	case map[string]any:
		name, _ := spec["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("schemadoc: field %q: validator entry missing name", path)
		}
		return namedValidator(path, name, spec)
	default:
		return nil, fmt.Errorf("schemadoc: field %q: validator entry is %T, want a name or an object", path, item)
	}
}

// validatorParams lists the accepted parameter keys per validator name.
var validatorParams = map[string][]string{
	"required":    {},
	"min":         {"value"},
	"max":         {"value"},
	"minLength":   {"length"},
	"maxLength":   {"length"},
	"pattern":     {"expr"},
	"enum":        {"values"},
	"equalsField": {"path"},
}

func namedValidator(path, name string, params map[string]any) (databind.Validator, error) {
	allowed, known := validatorParams[name]
	if !known {
		return nil, fmt.Errorf("schemadoc: field %q: unknown validator %q", path, name)
	}
	for _, key := range sortedKeys(params) {
		if key == "name" || contains(allowed, key) {
			continue
		}
		return nil, fmt.Errorf("schemadoc: field %q: validator %q: unknown parameter %q", path, name, key)
	}

	switch name {
	case "required":
		return rules.Required(), nil
	case "min":
		v, err := numberParam(path, name, params, "value")
		if err != nil {
			return nil, err
		}
		return rules.Min(v), nil
	case "max":
		v, err := numberParam(path, name, params, "value")
		if err != nil {
			return nil, err
		}
		return rules.Max(v), nil
	case "minLength":
		n, err := numberParam(path, name, params, "length")
		if err != nil {
			return nil, err
		}
		return rules.MinLength(int(n)), nil
	case "maxLength":
		n, err := numberParam(path, name, params, "length")
		if err != nil {
			return nil, err
		}
		return rules.MaxLength(int(n)), nil
	case "pattern":
		expr, ok := params["expr"].(string)
		if !ok {
			return nil, fmt.Errorf("schemadoc: field %q: validator %q needs a string expr", path, name)
		}
		v, err := rules.PatternExpr(expr)
		if err != nil {
			return nil, fmt.Errorf("schemadoc: field %q: validator %q: %w", path, name, err)
		}
		return v, nil
	case "enum":
		values, ok := params["values"].([]any)
		if !ok {
			return nil, fmt.Errorf("schemadoc: field %q: validator %q needs a values list", path, name)
		}
		return rules.Enum(values...), nil
	case "equalsField":
		target, ok := params["path"].(string)
		if !ok {
			return nil, fmt.Errorf("schemadoc: field %q: validator %q needs a string path", path, name)
		}
		return rules.EqualsField(target), nil
	}
	return nil, fmt.Errorf("schemadoc: field %q: unknown validator %q", path, name)
}

func numberParam(path, validator string, params map[string]any, key string) (float64, error) {
	if n, ok := toNumber(params[key]); ok {
		return n, nil
	}
	return 0, fmt.Errorf("schemadoc: field %q: validator %q needs a numeric %s", path, validator, key)
}

// ---- decoding helpers ----

// stringMap converts YAML-decoded values, which may contain map[any]any,
// into JSON-like map[string]any recursively. Non-map roots return nil.
func stringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = normalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return stringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
