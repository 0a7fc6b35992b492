package webui

import (
	"errors"
	"fmt"

	"github.com/tebeka/selenium"
)

// ErrTimeout is wrapped by every error caused by a wait running out.
var ErrTimeout = errors.New("timed out")

// ActionError reports a failed façade operation.
type ActionError struct {
	Op      string
	Locator Locator // zero for operations without a target element
	Err     error
}

func (e *ActionError) Error() string {
	if e.Locator == (Locator{}) {
		return fmt.Sprintf("webui: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("webui: %s %s: %v", e.Op, e.Locator, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Remote error codes that a wait treats as "not yet".
const (
	codeNoSuchElement = "no such element"
	codeStaleElement  = "stale element reference"
	codeNoSuchAlert   = "no such alert"
	codeNoAlertOpen   = "no alert open error"
)

func remoteCode(err error) string {
	var e *selenium.Error
	if errors.As(err, &e) {
		return e.Err
	}
	return ""
}

// isMissing reports whether err means the element is not (or no longer) in
// the document.
func isMissing(err error) bool {
	switch remoteCode(err) {
	case codeNoSuchElement, codeStaleElement:
		return true
	}
	return false
}

func isNoAlert(err error) bool {
	switch remoteCode(err) {
	case codeNoSuchAlert, codeNoAlertOpen:
		return true
	}
	return false
}
