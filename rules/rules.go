// Package rules implements the built-in field validators. Each constructor
// returns a databind.Validator reporting a fixed set of codes; a passing run
// reports every owned code with an empty message so that earlier failures
// clear. Messages come from the i18n translator.
package rules

import (
	"reflect"
	"regexp"
	"strconv"
	"unicode/utf8"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/i18n"
	js "github.com/reoring/databind/jsonschema"
)

// rule pairs the validation function with an optional JSON Schema
// contribution for export.
type rule struct {
	fn         func(value any, record databind.Record) map[string]string
	contribute func(s *js.Schema)
}

func (r rule) Validate(value any, record databind.Record) map[string]string {
	return r.fn(value, record)
}

func (r rule) ContributeSchema(s *js.Schema) {
	if r.contribute != nil {
		r.contribute(s)
	}
}

// Required fails on nil values, empty strings, and empty collections.
func Required() databind.Validator {
	return rule{fn: func(value any, _ databind.Record) map[string]string {
		msg := ""
		if isEmpty(value) {
			msg = i18n.T(databind.CodeRequired, nil)
		}
		return map[string]string{databind.CodeRequired: msg}
	}}
}

// Min fails when a numeric value is below min. Non-numeric values pass; the
// field type check is responsible for them.
func Min(min float64) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if n, ok := numeric(value); ok && n < min {
				msg = i18n.T(databind.CodeTooSmall, map[string]string{"min": formatNumber(min)})
			}
			return map[string]string{databind.CodeTooSmall: msg}
		},
		contribute: func(s *js.Schema) { s.Minimum = &min },
	}
}

// Max fails when a numeric value is above max.
func Max(max float64) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if n, ok := numeric(value); ok && n > max {
				msg = i18n.T(databind.CodeTooBig, map[string]string{"max": formatNumber(max)})
			}
			return map[string]string{databind.CodeTooBig: msg}
		},
		contribute: func(s *js.Schema) { s.Maximum = &max },
	}
}

// MinLength fails when a string is shorter than n characters.
func MinLength(n int) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if s, ok := value.(string); ok && s != "" && utf8.RuneCountInString(s) < n {
				msg = i18n.T(databind.CodeTooShort, map[string]string{"min": strconv.Itoa(n)})
			}
			return map[string]string{databind.CodeTooShort: msg}
		},
		contribute: func(s *js.Schema) { s.MinLength = &n },
	}
}

// MaxLength fails when a string is longer than n characters.
func MaxLength(n int) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if s, ok := value.(string); ok && utf8.RuneCountInString(s) > n {
				msg = i18n.T(databind.CodeTooLong, map[string]string{"max": strconv.Itoa(n)})
			}
			return map[string]string{databind.CodeTooLong: msg}
		},
		contribute: func(s *js.Schema) { s.MaxLength = &n },
	}
}

// Pattern fails when a non-empty string does not match re.
func Pattern(re *regexp.Regexp) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if s, ok := value.(string); ok && s != "" && !re.MatchString(s) {
				msg = i18n.T(databind.CodePattern, map[string]string{"pattern": re.String()})
			}
			return map[string]string{databind.CodePattern: msg}
		},
		contribute: func(s *js.Schema) { s.Pattern = re.String() },
	}
}

// PatternExpr compiles expr and returns a Pattern validator. Schema
// documents use this form.
func PatternExpr(expr string) (databind.Validator, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return Pattern(re), nil
}

// Enum fails when a non-nil value equals none of the allowed values.
func Enum(allowed ...any) databind.Validator {
	return rule{
		fn: func(value any, _ databind.Record) map[string]string {
			msg := ""
			if value != nil && !containsValue(allowed, value) {
				msg = i18n.T(databind.CodeInvalidEnum, nil)
			}
			return map[string]string{databind.CodeInvalidEnum: msg}
		},
		contribute: func(s *js.Schema) { s.Enum = append([]any(nil), allowed...) },
	}
}

// EqualsField fails when the value differs from the value stored at path in
// the same record, the password-confirmation case.
func EqualsField(path string) databind.Validator {
	return rule{fn: func(value any, record databind.Record) map[string]string {
		msg := ""
		if record != nil {
			other, _ := record.Get(path)
			if !looseEqual(value, other) {
				msg = i18n.T(databind.CodeMismatch, nil)
			}
		}
		return map[string]string{databind.CodeMismatch: msg}
	}}
}

// Func wraps an ad hoc check owning a single code. fn returns the error
// message, empty for pass.
func Func(code string, fn func(value any, record databind.Record) string) databind.Validator {
	return rule{fn: func(value any, record databind.Record) map[string]string {
		return map[string]string{code: fn(value, record)}
	}}
}

// ---- combinators ----

// And runs all validators and merges their results. When two validators own
// the same code, a failure wins over a pass. Schema contributions of the
// children are merged as well.
func And(vs ...databind.Validator) databind.Validator {
	return rule{
		fn: func(value any, record databind.Record) map[string]string {
			out := map[string]string{}
			for _, v := range vs {
				if v == nil {
					continue
				}
				mergeResult(out, v.Validate(value, record))
			}
			return out
		},
		contribute: func(s *js.Schema) {
			for _, v := range vs {
				if c, ok := v.(js.Contributor); ok {
					c.ContributeSchema(s)
				}
			}
		},
	}
}

// Op defines the comparison operators for If conditions.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional gates validators on the state of a sibling field.
type Conditional struct {
	path string
	op   Op
	want any
}

// If builds a conditional that evaluates the record value at path against
// want. Use Then to attach the gated validators.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: path, op: op, want: want}
}

// Then returns a validator running vs only while the condition holds. While
// it does not hold, every code the gated validators own reports a pass, so
// stale failures clear when the sibling field changes.
func (c Conditional) Then(vs ...databind.Validator) databind.Validator {
	inner := And(vs...)
	return rule{fn: func(value any, record databind.Record) map[string]string {
		out := inner.Validate(value, record)
		if c.holds(record) {
			return out
		}
		for code := range out {
			out[code] = ""
		}
		return out
	}}
}

func (c Conditional) holds(record databind.Record) bool {
	if record == nil {
		return false
	}
	cur, ok := record.Get(c.path)
	if !ok {
		return false
	}
	switch c.op {
	case Eq:
		return looseEqual(cur, c.want)
	case Ne:
		return !looseEqual(cur, c.want)
	default:
		a, okA := numeric(cur)
		b, okB := numeric(c.want)
		if !okA || !okB {
			return false
		}
		switch c.op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	return false
}

// ---- helpers ----

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
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

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// looseEqual compares with numeric normalization so decoded JSON numbers
// (float64) match int literals in rule declarations.
func looseEqual(a, b any) bool {
	if na, okA := numeric(a); okA {
		if nb, okB := numeric(b); okB {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func containsValue(allowed []any, v any) bool {
	for _, a := range allowed {
		if looseEqual(a, v) {
			return true
		}
	}
	return false
}

func mergeResult(dst, src map[string]string) {
	for code, msg := range src {
		if msg == "" {
			if _, exists := dst[code]; exists {
				continue
			}
		}
		dst[code] = msg
	}
}
