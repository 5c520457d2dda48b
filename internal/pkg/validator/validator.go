// Package validator checks request structs against `validate` tags. Failures
// come back as V10ValidationError, a snake_case field to message map that the
// router renders as the error details of a 422.
package validator

// Validator validates structs annotated with `validate` tags.
type Validator interface {
	Validate(data any) error
}
