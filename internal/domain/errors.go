package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError names the offending field. It matches ErrInvalidInput
// under errors.Is.
type InvalidInputError struct {
	Field  string
	Reason string
}

func InvalidField(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
