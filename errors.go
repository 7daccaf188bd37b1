package databind

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeNotNull       = "not_null"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeMismatch      = "mismatch"
)

// ModelError reports a schema or configuration violation: a field redefined
// with a different contract, a type mismatch on write, a malformed schema.
// It is always a programming error and is never produced by end-user input.
type ModelError struct {
	Model   string // model class name, may be empty for anonymous classes
	Origin  string // operation that detected the violation, e.g. "build", "set"
	Message string
}

func (e *ModelError) Error() string {
	name := e.Model
	if name == "" {
		name = "model"
	}
	return fmt.Sprintf("%s: %s: %s", name, e.Origin, e.Message)
}

// NewModelError builds a ModelError with a formatted message.
func NewModelError(model, origin, format string, args ...any) *ModelError {
	return &ModelError{Model: model, Origin: origin, Message: fmt.Sprintf(format, args...)}
}

// SourceError reports a binding violation between a data source and an
// element: same treatment as ModelError, it indicates mis-configured
// bindings and must be fixed rather than handled.
type SourceError struct {
	Source  string // data source name
	Origin  string // operation, e.g. "bind", "load"
	Element string // element property path when one is involved
	Message string
}

func (e *SourceError) Error() string {
	name := e.Source
	if name == "" {
		name = "source"
	}
	if e.Element != "" {
		return fmt.Sprintf("%s: %s: element %q: %s", name, e.Origin, e.Element, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", name, e.Origin, e.Message)
}

// NewSourceError builds a SourceError with a formatted message.
func NewSourceError(source, origin, element, format string, args ...any) *SourceError {
	return &SourceError{Source: source, Origin: origin, Element: element, Message: fmt.Sprintf(format, args...)}
}

// FieldErrors maps a dotted field path to the failing validator codes and
// their messages. It is empty iff the owning instance is valid. Unlike
// ModelError/SourceError this is data, not an exception: it is meant to be
// displayed next to the offending input and cleared by correcting it.
type FieldErrors map[string]map[string]string

// Error summarizes the first few failing fields.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	const maxShown = 3
	paths := make([]string, 0, len(fe))
	for p := range fe {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	b := &strings.Builder{}
	total := 0
	shown := 0
	for _, p := range paths {
		codes := make([]string, 0, len(fe[p]))
		for c := range fe[p] {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			total++
			if shown >= maxShown {
				continue
			}
			if shown > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(b, "%s at %s", c, p)
			shown++
		}
	}
	if total > shown {
		fmt.Fprintf(b, "; ... (total %d)", total)
	}
	return b.String()
}

// Valid reports whether no field carries an error.
func (fe FieldErrors) Valid() bool { return len(fe) == 0 }

// Apply records one validator outcome for path. An empty message clears the
// code; the path entry disappears once its last code is cleared.
func (fe FieldErrors) Apply(path, code, message string) {
	if message == "" {
		if m, ok := fe[path]; ok {
			delete(m, code)
			if len(m) == 0 {
				delete(fe, path)
			}
		}
		return
	}
	m, ok := fe[path]
	if !ok {
		m = map[string]string{}
		fe[path] = m
	}
	m[code] = message
}

// Merge applies a whole validator result for path, code by code.
func (fe FieldErrors) Merge(path string, result map[string]string) {
	for code, msg := range result {
		fe.Apply(path, code, msg)
	}
}

// Messages returns the error messages recorded for path, ordered by code.
func (fe FieldErrors) Messages(path string) []string {
	m, ok := fe[path]
	if !ok || len(m) == 0 {
		return nil
	}
	codes := make([]string, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, m[c])
	}
	return out
}

// Clone deep-copies the error map.
func (fe FieldErrors) Clone() FieldErrors {
	if fe == nil {
		return nil
	}
	out := make(FieldErrors, len(fe))
	for p, m := range fe {
		cm := make(map[string]string, len(m))
		for c, msg := range m {
			cm[c] = msg
		}
		out[p] = cm
	}
	return out
}

// AsFieldErrors extracts FieldErrors from an error using errors.As internally.
func AsFieldErrors(err error) (FieldErrors, bool) {
	if err == nil {
		return nil, false
	}
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
