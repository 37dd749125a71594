// Package validator validates request and dependency structs. Modules
// depend on the Validator interface; the go-playground/validator v10
// implementation with English translations is the only concrete one.
package validator

// Validator checks a struct against its validate tags.
type Validator interface {
	Validate(data any) error
}
