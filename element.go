package databind

// Binder is the owning side of an element binding. Data sources implement it
// so that an element can be stolen cleanly: binding an element that already
// belongs to another source first unbinds it there.
type Binder interface {
	Unbind(el Element)
}

// Element is the contract a bound UI slot must satisfy. The binding layer
// calls these and never inspects rendering internals.
type Element interface {
	// Property is the dotted field path this element observes.
	Property() string
	// Value reports the element's currently displayed value.
	Value() any
	// SetValue pushes a model value into the element.
	SetValue(v any)
	// Binding reports the source currently owning this element, nil if unbound.
	Binding() Binder
	// SetBinding records the owning source. Called by the binding layer only.
	SetBinding(b Binder)
}

// Optional element capabilities. The binding layer asserts these at bind and
// synchronize time; an element implements only what it needs.

// TypedElement declares a field type for the element's path. The declaration
// extends the source's model schema at bind time; two elements declaring
// different types for one path is a configuration fault.
type TypedElement interface {
	DeclaredType() FieldType
}

// ValidatorElement contributes validators for the element's path at bind time.
type ValidatorElement interface {
	DeclaredValidators() []Validator
}

// ValidatedElement runs its own validation pass, typically by reading the
// bound model's field errors for its path. It reports whether the element is
// currently valid.
type ValidatedElement interface {
	Validate() bool
}

// ErrorElement displays a validation message. An empty message clears the
// displayed error.
type ErrorElement interface {
	SetError(message string)
}

// ResettableElement restores the element's pristine visual state, clearing
// any displayed error.
type ResettableElement interface {
	Reset()
}

// OneWayElement marks elements whose displayed value is authoritative at
// synchronization time: instead of the model pushing into the element, the
// element's current value is read back into the model.
type OneWayElement interface {
	OneWayBinding() bool
}
