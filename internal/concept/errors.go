package concept

import (
	"errors"
	"fmt"
)

var (
	ErrSelfLoop       = errors.New("relationship source and target are the same concept")
	ErrUnknownConcept = errors.New("concept does not exist")
)

// ValidationError reports malformed input rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string, err error) error {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
