package model

import (
	"reflect"

	databind "github.com/reoring/databind"
)

// lookupValue resolves a dotted path inside a value tree. The empty path
// resolves to the tree itself.
func lookupValue(values map[string]any, path string) (any, bool) {
	if path == "" {
		return values, true
	}
	cur := any(values)
	for _, seg := range databind.SplitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// storeValue writes v at path, creating intermediate maps. A non-map value
// sitting in the middle of the path is replaced by a fresh map.
func storeValue(values map[string]any, path string, v any) {
	segs := databind.SplitPath(path)
	m := values
	for i := 0; i < len(segs)-1; i++ {
		next, ok := m[segs[i]].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[segs[i]] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = v
}

// deepCopyValue copies maps and slices; scalars and canonical value-type
// representations pass through by value.
func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, cv := range t {
			out[k] = deepCopyValue(cv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, cv := range t {
			out[i] = deepCopyValue(cv)
		}
		return out
	default:
		return v
	}
}

// looseSame compares two values structurally.
func looseSame(a, b any) bool { return reflect.DeepEqual(a, b) }
