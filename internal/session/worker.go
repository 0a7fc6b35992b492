package session

import (
	"context"
)

// Worker is the per-worker context through which a scenario reaches its
// browser. A Worker holds at most one open Session and is not safe for
// concurrent use: it belongs to the goroutine running one scenario.
type Worker struct {
	id   string
	mgr  *Manager
	sess *Session
}

// ID identifies the worker in logs and errors.
func (w *Worker) ID() string {
	return w.id
}

// Session returns the worker's open session, opening one on first use or
// after the previous one was closed.
func (w *Worker) Session(ctx context.Context) (*Session, error) {
	if w.sess != nil && w.sess.State() == Open {
		return w.sess, nil
	}
	w.sess = nil
	s, err := w.mgr.open(ctx, w.id)
	if err != nil {
		return nil, err
	}
	w.sess = s
	return s, nil
}

// CloseSession ends and discards the worker's session. It is a no-op when
// no session is open.
func (w *Worker) CloseSession() error {
	s := w.sess
	if s == nil {
		return nil
	}
	w.sess = nil
	return s.Close()
}
