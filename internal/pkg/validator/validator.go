package validator

// Validator validates structs against their field tag rules.
type Validator interface {
	// Validate returns nil when data passes every rule, or an error carrying
	// the per-field messages.
	Validate(data any) error
}
