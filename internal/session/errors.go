package session

import (
	"errors"
	"fmt"
)

// ErrShutdown is returned when a session is requested after Shutdown.
var ErrShutdown = errors.New("session manager is shut down")

// ErrNotOpen is returned by commands sent on a session that is not open.
var ErrNotOpen = errors.New("session is not open")

// Error reports a failure to open, drive or end a remote session.
type Error struct {
	Op     string // "open", "quit" or "actions"
	Worker string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session %s (worker %s): %v", e.Op, e.Worker, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
