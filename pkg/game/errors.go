package game

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a new round is requested while one is already
// in progress.
var ErrBusy = errors.New("a round is already in progress")

// ValidationError rejects a submission without touching game state. It is
// surfaced to the submitting collaborator as a field-level error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
