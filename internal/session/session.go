package session

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// State is the lifecycle stage of a Session.
type State int

// The valid states. Closed is terminal.
const (
	Unopened State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Session is a live handle to one remote browser, owned by a single Worker.
type Session struct {
	worker string
	mgr    *Manager

	mu     sync.Mutex
	state  State
	wd     selenium.WebDriver
	opened time.Time
}

// ID returns the remote session ID assigned by the grid.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wd == nil {
		return ""
	}
	return s.wd.SessionID()
}

// Worker returns the ID of the worker that owns the session.
func (s *Session) Worker() string {
	return s.worker
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WebDriver returns the remote browser handle. It must not be used after
// Close.
func (s *Session) WebDriver() selenium.WebDriver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wd
}

// Opened returns when the session was opened.
func (s *Session) Opened() time.Time {
	return s.opened
}

// Close ends the remote session. Closing a session that is not open is a
// no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state != Open {
		s.mu.Unlock()
		return nil
	}
	s.state = Closed
	wd := s.wd
	s.mu.Unlock()

	s.mgr.forget(s)
	id := wd.SessionID()
	if err := wd.Quit(); err != nil {
		return &Error{Op: "quit", Worker: s.worker, Err: err}
	}
	glog.Infof("Closed session %s for worker %s after %v", id, s.worker, time.Since(s.opened).Round(time.Millisecond))
	return nil
}
