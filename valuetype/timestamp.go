package valuetype

import (
	"fmt"
	"time"

	databind "github.com/reoring/databind"
)

// Timestamp returns the instant value type. Canonical representation:
// time.Time in UTC. Accepted raw inputs: time.Time, RFC3339 strings, and
// Unix-millisecond numbers.
func Timestamp() databind.ValueType { return timestampType{} }

type timestampType struct{}

func (timestampType) Name() string { return "timestamp" }

func (timestampType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := parseRFC3339(v)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q", v)
		}
		return t.UTC(), nil
	default:
		if ms, ok := toInt64(raw); ok {
			return time.UnixMilli(ms).UTC(), nil
		}
		return nil, fmt.Errorf("cannot decode %T as timestamp", raw)
	}
}

func (timestampType) Encode(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

func (timestampType) Equal(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if !okA || !okB {
		return a == b
	}
	return ta.Equal(tb)
}
