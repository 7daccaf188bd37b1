// Package valuetype implements the custom field types models can declare:
// calendar dates, times of day, instants, and currency amounts. Each type
// normalizes heterogeneous raw inputs (numbers, component slices, ISO
// strings) into one canonical representation and encodes it back into a
// plain data value.
package valuetype

import (
	databind "github.com/reoring/databind"
)

// Lookup resolves a type name from a schema document. Known names are
// "date", "time", "timestamp", and "currency".
func Lookup(name string) (databind.ValueType, bool) {
	switch name {
	case "date":
		return Date(), true
	case "time":
		return Time(), true
	case "timestamp":
		return Timestamp(), true
	case "currency":
		return Currency(), true
	default:
		return nil, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
