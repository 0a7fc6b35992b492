package webui

import (
	"fmt"
	"strings"
	"time"

	"github.com/tebeka/selenium"
)

// Condition is polled until it reports true or returns an error.
type Condition func(wd selenium.WebDriver) (bool, error)

// Wait polls cond every interval until it is satisfied, fails, or the
// façade's timeout elapses. what describes the awaited state in the timeout
// error.
func (f *Facade) Wait(what string, cond Condition) error {
	deadline := time.Now().Add(f.timeout)
	for {
		done, err := cond(f.wd)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		left := time.Until(deadline)
		if left <= 0 {
			return fmt.Errorf("%w after %v waiting for %s", ErrTimeout, f.timeout, what)
		}
		if left > f.interval {
			left = f.interval
		}
		time.Sleep(left)
	}
}

type elementState int

const (
	present elementState = iota
	visible
	clickable
)

func (s elementState) String() string {
	switch s {
	case present:
		return "present"
	case visible:
		return "visible"
	case clickable:
		return "clickable"
	}
	return "unknown"
}

// await waits until the element located by loc reaches state and returns it.
func (f *Facade) await(loc Locator, state elementState) (selenium.WebElement, error) {
	var found selenium.WebElement
	err := f.Wait(fmt.Sprintf("element to be %s", state), func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(loc.By, loc.Value)
		if err != nil {
			if isMissing(err) {
				return false, nil
			}
			return false, err
		}
		if state >= visible {
			ok, err := el.IsDisplayed()
			if err != nil {
				if isMissing(err) {
					return false, nil
				}
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		if state >= clickable {
			ok, err := el.IsEnabled()
			if err != nil {
				if isMissing(err) {
					return false, nil
				}
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		found = el
		return true, nil
	})
	return found, err
}

// invisible is satisfied once the element is gone or hidden.
func invisible(loc Locator) Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(loc.By, loc.Value)
		if err != nil {
			if isMissing(err) {
				return true, nil
			}
			return false, err
		}
		ok, err := el.IsDisplayed()
		if err != nil {
			if isMissing(err) {
				return true, nil
			}
			return false, err
		}
		return !ok, nil
	}
}

// textPresent is satisfied once the element's visible text contains text.
func textPresent(loc Locator, text string) Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		el, err := wd.FindElement(loc.By, loc.Value)
		if err != nil {
			if isMissing(err) {
				return false, nil
			}
			return false, err
		}
		got, err := el.Text()
		if err != nil {
			if isMissing(err) {
				return false, nil
			}
			return false, err
		}
		return strings.Contains(got, text), nil
	}
}

// alertPresent is satisfied once an alert is open; its text is stored in
// *text.
func alertPresent(text *string) Condition {
	return func(wd selenium.WebDriver) (bool, error) {
		t, err := wd.AlertText()
		if err != nil {
			if isNoAlert(err) {
				return false, nil
			}
			return false, err
		}
		*text = t
		return true, nil
	}
}
