package valuetype

import (
	"fmt"
	"time"

	databind "github.com/reoring/databind"
)

// Clock is the canonical time-of-day representation.
type Clock struct {
	Hour, Minute, Second int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 &&
		c.Minute >= 0 && c.Minute < 60 &&
		c.Second >= 0 && c.Second < 60
}

// Time returns the time-of-day value type. Canonical representation: Clock.
// Accepted raw inputs: Clock, "15:04" or "15:04:05" strings, time.Time
// (clock part kept), second-of-day numbers, and [hour, minute, second]
// component slices.
func Time() databind.ValueType { return timeType{} }

type timeType struct{}

func (timeType) Name() string { return "time" }

func (timeType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case Clock:
		if !v.valid() {
			return nil, fmt.Errorf("invalid time %v", v)
		}
		return v, nil
	case string:
		var c Clock
		if _, err := fmt.Sscanf(v, "%d:%d:%d", &c.Hour, &c.Minute, &c.Second); err != nil {
			c.Second = 0
			if _, err := fmt.Sscanf(v, "%d:%d", &c.Hour, &c.Minute); err != nil {
				return nil, fmt.Errorf("invalid time %q", v)
			}
		}
		if !c.valid() {
			return nil, fmt.Errorf("invalid time %q", v)
		}
		return c, nil
	case time.Time:
		return Clock{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}, nil
	case []any:
		h, okH := toInt(index(v, 0))
		m, okM := toInt(index(v, 1))
		s := 0
		okS := true
		if len(v) > 2 {
			s, okS = toInt(v[2])
		}
		if len(v) < 2 || len(v) > 3 || !okH || !okM || !okS {
			return nil, fmt.Errorf("invalid time components %v", v)
		}
		c := Clock{Hour: h, Minute: m, Second: s}
		if !c.valid() {
			return nil, fmt.Errorf("invalid time components %v", v)
		}
		return c, nil
	default:
		if secs, ok := toInt(raw); ok {
			if secs < 0 || secs >= 24*60*60 {
				return nil, fmt.Errorf("second-of-day out of range: %d", secs)
			}
			return Clock{Hour: secs / 3600, Minute: secs / 60 % 60, Second: secs % 60}, nil
		}
		return nil, fmt.Errorf("cannot decode %T as time", raw)
	}
}

func (timeType) Encode(v any) any {
	c, ok := v.(Clock)
	if !ok {
		return v
	}
	return c.String()
}

func (timeType) Equal(a, b any) bool { return a == b }
