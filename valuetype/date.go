package valuetype

import (
	"fmt"
	"time"

	databind "github.com/reoring/databind"
)

const dateLayout = "2006-01-02"

// Date returns the calendar-date value type. Canonical representation:
// time.Time at midnight UTC. Accepted raw inputs: time.Time, "2006-01-02"
// strings, RFC3339 strings (date part kept), Unix-millisecond numbers, and
// [year, month, day] component slices.
func Date() databind.ValueType { return dateType{} }

type dateType struct{}

func (dateType) Name() string { return "date" }

func (dateType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return truncateDate(v), nil
	case string:
		if t, err := time.Parse(dateLayout, v); err == nil {
			return t, nil
		}
		if t, err := parseRFC3339(v); err == nil {
			return truncateDate(t), nil
		}
		return nil, fmt.Errorf("invalid date %q", v)
	case []any:
		y, okY := toInt(index(v, 0))
		m, okM := toInt(index(v, 1))
		d, okD := toInt(index(v, 2))
		if len(v) != 3 || !okY || !okM || !okD {
			return nil, fmt.Errorf("invalid date components %v", v)
		}
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
	default:
		if ms, ok := toInt64(raw); ok {
			return truncateDate(time.UnixMilli(ms)), nil
		}
		return nil, fmt.Errorf("cannot decode %T as date", raw)
	}
}

func (dateType) Encode(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	return t.Format(dateLayout)
}

func (dateType) Equal(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if !okA || !okB {
		return a == b
	}
	return ta.Equal(tb)
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func index(v []any, i int) any {
	if i >= len(v) {
		return nil
	}
	return v[i]
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}
