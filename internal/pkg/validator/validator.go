package validator

// Validator validates tagged structs.
type Validator interface {
	// Validate returns nil when data satisfies its struct tags.
	Validate(data any) error
}
