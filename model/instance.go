package model

import (
	"sort"

	databind "github.com/reoring/databind"
)

// Instance holds one live record: the current field values stored as a tree
// mirroring the dotted paths, plus the per-field validation state. It is
// produced by Class.New and mutated through Set/SetValues/SetObject.
type Instance struct {
	class   *Class
	values  map[string]any
	invalid databind.FieldErrors
}

var _ databind.Record = (*Instance)(nil)

// Class reports the class this instance was produced from.
func (in *Instance) Class() *Class { return in.class }

// Get resolves a dotted path to its current value, applying the configured
// get transform. Subtrees are returned as deep copies so callers cannot
// mutate the backing store. ok is false when nothing is stored at path.
func (in *Instance) Get(path string) (any, bool) {
	v, ok := lookupValue(in.values, path)
	if !ok {
		return nil, false
	}
	if fc := in.class.contract(path); fc != nil && fc.get != nil {
		v = fc.get(v)
	}
	switch v.(type) {
	case map[string]any, []any:
		return deepCopyValue(v), true
	default:
		return v, true
	}
}

// GetObject returns a deep copy of the backing value tree. Defaults are
// applied and custom-typed fields hold their canonical representation.
func (in *Instance) GetObject() map[string]any {
	return deepCopyValue(in.values).(map[string]any)
}

// EncodeObject returns a deep copy of the value tree with every
// custom-typed field encoded back to plain data, fit for JSON or storage.
func (in *Instance) EncodeObject() map[string]any {
	out := in.GetObject()
	for _, path := range in.class.Paths() {
		fc := in.class.contract(path)
		if fc == nil || fc.typ.Value == nil {
			continue
		}
		if v, ok := lookupValue(out, path); ok && v != nil {
			storeValue(out, path, fc.typ.Value.Encode(v))
		}
	}
	return out
}

// Set writes one field through the update pipeline: global-before and
// per-path-before observers, set transform, default and notNull handling,
// type coercion, store, validators, per-path-after and global-after
// observers. Writing a map to a declared group path recurses into the keys
// it carries. Type violations fail with ModelError.
func (in *Instance) Set(path string, value any) error {
	if path == "" {
		return databind.NewModelError(in.class.name, "set", "empty field path")
	}
	if in.class.isGroup(path) {
		obj, ok := value.(map[string]any)
		if !ok {
			return databind.NewModelError(in.class.name, "set",
				"field %q is a group and expects an object, got %T", path, value)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := in.Set(databind.ChildPath(path, k), obj[k]); err != nil {
				return err
			}
		}
		return nil
	}
	return in.writeField(path, value, WriteUpdate)
}

// SetValues applies a flat path-to-value map through the update pipeline,
// in sorted path order.
func (in *Instance) SetValues(values map[string]any) error {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := in.Set(p, values[p]); err != nil {
			return err
		}
	}
	return nil
}

// SetObject overwrites the instance wholesale, re-running the init
// pipeline against obj.
func (in *Instance) SetObject(obj map[string]any) error {
	return in.assign(obj)
}

// assign is the init pipeline: init-before observers, then every declared
// field (and every extra path present in obj) through transform, coercion,
// store, and validation with per-path after observers tagged init, then
// init-after observers.
func (in *Instance) assign(obj map[string]any) error {
	in.values = map[string]any{}
	in.invalid = databind.FieldErrors{}

	fire(in.class.global.InitBefore, Event{Instance: in, Path: "", Value: obj, Kind: WriteInit})

	written := map[string]bool{}
	for _, path := range in.class.Paths() {
		v, _ := lookupValue(obj, path)
		if err := in.writeField(path, v, WriteInit); err != nil {
			return err
		}
		written[path] = true
	}
	if err := in.assignExtras("", obj, written); err != nil {
		return err
	}

	fire(in.class.global.InitAfter, Event{Instance: in, Path: "", Value: in.values, Kind: WriteInit})
	return nil
}

// assignExtras stores input paths that carry no declared contract. Maps
// under group paths recurse; anything else is stored as a leaf value.
func (in *Instance) assignExtras(base string, obj map[string]any, written map[string]bool) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		path := databind.ChildPath(base, k)
		if written[path] {
			continue
		}
		if child, ok := obj[k].(map[string]any); ok && in.class.isGroup(path) {
			if err := in.assignExtras(path, child, written); err != nil {
				return err
			}
			continue
		}
		if err := in.writeField(path, obj[k], WriteInit); err != nil {
			return err
		}
	}
	return nil
}

// writeField runs the per-field pipeline for one leaf path.
func (in *Instance) writeField(path string, v any, kind WriteKind) error {
	fc := in.class.contract(path)
	prev, _ := lookupValue(in.values, path)

	if kind == WriteUpdate {
		evt := Event{Instance: in, Path: path, Value: v, Previous: prev, Kind: kind}
		fire(in.class.global.Before, evt)
		if fc != nil {
			fire(fc.before, evt)
		}
	}

	if fc != nil && fc.set != nil {
		v = fc.set(v)
	}

	stored := v
	defaultApplied := false
	if fc != nil && stored == nil {
		switch {
		case fc.hasDefault:
			// defaults are trusted as already correct; type checks skip them
			stored = fc.def
			defaultApplied = true
		case fc.notNull:
			return databind.NewModelError(in.class.name, kind.String(),
				"field %q must not be null", path)
		}
	}
	if fc != nil && !defaultApplied && stored != nil {
		switch {
		case fc.typ.Value != nil:
			dv, err := fc.typ.Value.Decode(stored)
			if err != nil {
				return databind.NewModelError(in.class.name, kind.String(),
					"field %q: %v", path, err)
			}
			stored = dv
		case fc.typ.Kind != databind.KindAny:
			if !fc.typ.Kind.Check(stored) {
				return databind.NewModelError(in.class.name, kind.String(),
					"field %q expects %s, got %T", path, fc.typ.Kind, stored)
			}
		}
	}

	storeValue(in.values, path, stored)

	if fc != nil && len(fc.validators) > 0 {
		in.runValidators(path, fc, stored)
	}

	evtAfter := Event{Instance: in, Path: path, Value: stored, Previous: prev, Kind: kind}
	if fc != nil {
		fire(fc.after, evtAfter)
	}
	if kind == WriteUpdate {
		fire(in.class.global.After, evtAfter)
	}
	return nil
}

// runValidators executes the path's validators against value, merges the
// results into the error state, and fires the validation observers.
func (in *Instance) runValidators(path string, fc *fieldContract, value any) {
	for _, v := range fc.validators {
		if v == nil {
			continue
		}
		in.invalid.Merge(path, v.Validate(value, in))
	}
	var errs map[string]string
	if m, ok := in.invalid[path]; ok {
		errs = make(map[string]string, len(m))
		for code, msg := range m {
			errs[code] = msg
		}
	}
	fireValidation(fc.validation, ValidationEvent{Instance: in, Path: path, Value: value, Errors: errs})
}

// Validate re-runs every declared validator and reports whether the
// instance is valid. Calling it twice without an intervening write yields
// identical error state.
func (in *Instance) Validate() bool {
	for _, path := range in.class.Paths() {
		in.ValidateField(path)
	}
	return in.IsValid()
}

// ValidateField re-runs the validators of one path. It reports whether the
// field is free of errors afterwards.
func (in *Instance) ValidateField(path string) bool {
	fc := in.class.contract(path)
	if fc != nil && len(fc.validators) > 0 {
		v, _ := lookupValue(in.values, path)
		in.runValidators(path, fc, v)
	}
	_, failing := in.invalid[path]
	return !failing
}

// IsValid reports whether no field carries an error.
func (in *Instance) IsValid() bool { return in.invalid.Valid() }

// ErrorMessages returns the messages recorded for path, ordered by code.
func (in *Instance) ErrorMessages(path string) []string {
	return in.invalid.Messages(path)
}

// Errors returns a copy of the full error state.
func (in *Instance) Errors() databind.FieldErrors {
	return in.invalid.Clone()
}

// SetErrors merges externally produced errors (a server-side validation
// response, typically) into the error state and fires validation observers
// for the affected declared paths.
func (in *Instance) SetErrors(errs databind.FieldErrors) {
	paths := make([]string, 0, len(errs))
	for p := range errs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		in.invalid.Merge(path, errs[path])
		if fc := in.class.contract(path); fc != nil {
			v, _ := lookupValue(in.values, path)
			var cur map[string]string
			if m, ok := in.invalid[path]; ok {
				cur = make(map[string]string, len(m))
				for code, msg := range m {
					cur[code] = msg
				}
			}
			fireValidation(fc.validation, ValidationEvent{Instance: in, Path: path, Value: v, Errors: cur})
		}
	}
}

// ClearErrors drops the whole error state without running validators.
func (in *Instance) ClearErrors() {
	in.invalid = databind.FieldErrors{}
}

// Equals delegates to the class comparator, falling back to identity.
func (in *Instance) Equals(other *Instance) bool {
	return in.class.instanceEquals(in, other)
}
