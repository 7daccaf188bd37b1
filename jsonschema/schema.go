package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Only the vocabulary the model exporter emits is represented here.
type Schema struct {
	// Core
	Type    string `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Enum
	Enum []any `json:"enum,omitempty"`
}

// Contributor lets a validator contribute its constraints to an exported
// schema node. Validators that carry no exportable constraint simply do not
// implement it.
type Contributor interface {
	ContributeSchema(s *Schema)
}
