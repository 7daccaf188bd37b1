package databind

// Record is the read surface a validator may inspect for cross-field rules.
// Model instances implement it.
type Record interface {
	// Get resolves a dotted field path to its current value. ok is false when
	// the path is absent.
	Get(path string) (any, bool)
}

// Validator inspects a candidate value and reports per-code outcomes. The
// result maps every code the validator owns to an error message; an empty
// message marks the code as passing and clears a previously recorded failure
// for it. A validator must report all of its codes on every run, otherwise
// stale failures survive a later passing run. Returning nil reports nothing.
type Validator interface {
	Validate(value any, record Record) map[string]string
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(value any, record Record) map[string]string

func (f ValidatorFunc) Validate(value any, record Record) map[string]string {
	return f(value, record)
}
