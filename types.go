package databind

import "reflect"

// Kind enumerates the primitive kinds a field can declare.
type Kind int

const (
	KindAny    Kind = iota // No enforcement; any value passes.
	KindString             // Go string.
	KindNumber             // Any numeric Go type (decoded JSON numbers included).
	KindBool               // Go bool.
	KindArray              // Slice or array value.
	KindObject             // map[string]any value.
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "any"
	}
}

// KindOf maps a kind name from a schema document to a Kind. Unknown names
// report ok=false.
func KindOf(name string) (Kind, bool) {
	switch name {
	case "string":
		return KindString, true
	case "number":
		return KindNumber, true
	case "boolean", "bool":
		return KindBool, true
	case "array":
		return KindArray, true
	case "object":
		return KindObject, true
	case "any", "":
		return KindAny, true
	default:
		return KindAny, false
	}
}

// Check reports whether v matches the kind. Nil values pass every kind here;
// null handling belongs to the notNull/default machinery, not the kind check.
func (k Kind) Check(v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case KindAny:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindArray:
		rk := reflect.TypeOf(v).Kind()
		return rk == reflect.Slice || rk == reflect.Array
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

// ValueType normalizes heterogeneous raw inputs (numbers, ISO strings,
// component slices) into one canonical representation and back. It is the
// contract behind custom field types such as dates or currency amounts.
type ValueType interface {
	// Name identifies the type for conflict detection and error messages.
	Name() string
	// Decode converts a raw input into the canonical representation. Values
	// already canonical pass through unchanged.
	Decode(raw any) (any, error)
	// Encode converts a canonical value back into a plain data value fit for
	// JSON or storage.
	Encode(v any) any
	// Equal compares two canonical values.
	Equal(a, b any) bool
}

// FieldType is the full type declaration of a field: a primitive kind or a
// custom value type. The zero value means "any".
type FieldType struct {
	Kind  Kind
	Value ValueType // set only for custom-typed fields
}

// TypeOf wraps a custom value type into a FieldType.
func TypeOf(vt ValueType) FieldType { return FieldType{Value: vt} }

// IsZero reports whether the declaration carries no constraint.
func (t FieldType) IsZero() bool { return t.Kind == KindAny && t.Value == nil }

// Same reports whether two declarations describe the same contract. Custom
// types compare by name.
func (t FieldType) Same(o FieldType) bool {
	if (t.Value == nil) != (o.Value == nil) {
		return false
	}
	if t.Value != nil {
		return t.Value.Name() == o.Value.Name()
	}
	return t.Kind == o.Kind
}

func (t FieldType) String() string {
	if t.Value != nil {
		return t.Value.Name()
	}
	return t.Kind.String()
}
