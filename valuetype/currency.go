package valuetype

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	databind "github.com/reoring/databind"
)

// Amount is the canonical currency representation: an integer count of
// cents. Integer arithmetic keeps comparisons exact.
type Amount struct {
	Cents int64
}

func (a Amount) String() string {
	cents := a.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Currency returns the monetary value type. Canonical representation:
// Amount. Accepted raw inputs: Amount, "12.34" strings, and numbers in
// major units (rounded to cents).
func Currency() databind.ValueType { return currencyType{} }

type currencyType struct{}

func (currencyType) Name() string { return "currency" }

func (currencyType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case Amount:
		return v, nil
	case string:
		a, err := parseAmount(v)
		if err != nil {
			return nil, err
		}
		return a, nil
	case float32:
		return Amount{Cents: int64(math.Round(float64(v) * 100))}, nil
	case float64:
		return Amount{Cents: int64(math.Round(v * 100))}, nil
	default:
		if major, ok := toInt64(raw); ok {
			return Amount{Cents: major * 100}, nil
		}
		return nil, fmt.Errorf("cannot decode %T as currency", raw)
	}
}

func (currencyType) Encode(v any) any {
	a, ok := v.(Amount)
	if !ok {
		return v
	}
	return a.String()
}

func (currencyType) Equal(a, b any) bool { return a == b }

func parseAmount(s string) (Amount, error) {
	in := strings.TrimSpace(s)
	neg := strings.HasPrefix(in, "-")
	if neg || strings.HasPrefix(in, "+") {
		in = in[1:]
	}
	whole, frac, _ := strings.Cut(in, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	cents := int64(0)
	if frac != "" {
		if len(frac) > 2 {
			return Amount{}, fmt.Errorf("invalid amount %q: more than two decimals", s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("invalid amount %q", s)
		}
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return Amount{Cents: total}, nil
}
