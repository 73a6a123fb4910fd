// Package validator checks `validate:"..."` tags on the auth forms and the
// mock backend request bodies.
package validator

// Validator validates a tagged struct. A failure is reported as a
// field-to-message error such as V10ValidationError.
type Validator interface {
	Validate(data any) error
}
