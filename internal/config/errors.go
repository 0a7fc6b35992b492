package config

import (
	"errors"
	"fmt"
)

// Errors wrapped by *Error.
var (
	ErrNotFound     = errors.New("config file not found")
	ErrEmpty        = errors.New("config file is empty")
	ErrMissingField = errors.New("required field missing")
	ErrInvalidField = errors.New("invalid field value")
)

// Error is returned for any configuration problem. Configuration errors are
// fatal: nothing is defaulted or retried.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
