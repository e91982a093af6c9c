package store

import "fmt"

// DataAccessError wraps every failure coming back from the database so
// callers can tell persistence problems apart from validation errors.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }
