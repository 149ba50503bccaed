package domain

import (
	"errors"
	"fmt"
)

// MissingInputError represents a required configuration input that was not
// provided.
type MissingInputError struct {
	Input string
	Hint  string
}

func (e *MissingInputError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("input required and not supplied: %s", e.Input)
	}
	return fmt.Sprintf("input required and not supplied: %s (%s)", e.Input, e.Hint)
}

// NewMissingInputError creates a new MissingInputError.
func NewMissingInputError(input, hint string) *MissingInputError {
	return &MissingInputError{
		Input: input,
		Hint:  hint,
	}
}

// IsMissingInput checks if an error is or wraps a MissingInputError.
func IsMissingInput(err error) bool {
	if err == nil {
		return false
	}
	var missing *MissingInputError
	return errors.As(err, &missing)
}
