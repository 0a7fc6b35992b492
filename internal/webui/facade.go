// Package webui wraps a selenium.WebDriver with wait-then-act element
// operations. Each operation waits for its target to reach the required state
// (present, visible, clickable, or an alert being open) before acting, and
// reports failures as *ActionError naming the operation and the locator.
package webui

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// Defaults for New.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 200 * time.Millisecond
)

// Option configures a Facade.
type Option func(*Facade)

// WithTimeout sets how long every wait may take.
func WithTimeout(d time.Duration) Option {
	return func(f *Facade) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithInterval sets the polling interval of waits.
func WithInterval(d time.Duration) Option {
	return func(f *Facade) {
		if d > 0 {
			f.interval = d
		}
	}
}

// Facade performs element operations on one browser session. It is used by a
// single worker and is not safe for concurrent use.
type Facade struct {
	wd       selenium.WebDriver
	actions  Performer
	timeout  time.Duration
	interval time.Duration
}

// New returns a Facade driving wd.
func New(wd selenium.WebDriver, opts ...Option) *Facade {
	f := &Facade{wd: wd, timeout: DefaultTimeout, interval: DefaultInterval}
	if p, ok := wd.(Performer); ok {
		f.actions = p
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the wait timeout.
func (f *Facade) Timeout() time.Duration {
	return f.timeout
}

func fail(op string, loc Locator, err error) error {
	glog.V(1).Infof("webui: %s %s failed: %v", op, loc, err)
	return &ActionError{Op: op, Locator: loc, Err: err}
}

// Click waits for the element to be clickable and clicks it.
func (f *Facade) Click(loc Locator) error {
	el, err := f.await(loc, clickable)
	if err != nil {
		return fail("click", loc, err)
	}
	if err := el.Click(); err != nil {
		return fail("click", loc, err)
	}
	return nil
}

// Type waits for the element to be visible and sends text to it.
func (f *Facade) Type(loc Locator, text string) error {
	el, err := f.await(loc, visible)
	if err != nil {
		return fail("type", loc, err)
	}
	if err := el.SendKeys(text); err != nil {
		return fail("type", loc, err)
	}
	return nil
}

// ClearAndType waits for the element to be visible, clears it and sends
// text to it.
func (f *Facade) ClearAndType(loc Locator, text string) error {
	el, err := f.await(loc, visible)
	if err != nil {
		return fail("clear and type", loc, err)
	}
	if err := el.Clear(); err != nil {
		return fail("clear and type", loc, err)
	}
	if err := el.SendKeys(text); err != nil {
		return fail("clear and type", loc, err)
	}
	return nil
}

// Text waits for the element to be visible and returns its rendered text.
func (f *Facade) Text(loc Locator) (string, error) {
	el, err := f.await(loc, visible)
	if err != nil {
		return "", fail("text", loc, err)
	}
	t, err := el.Text()
	if err != nil {
		return "", fail("text", loc, err)
	}
	return t, nil
}

// IsDisplayed waits for the element to become visible. It returns false,
// without an error, when the element stays absent or hidden for the whole
// timeout; other remote failures are returned.
func (f *Facade) IsDisplayed(loc Locator) (bool, error) {
	_, err := f.await(loc, visible)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrTimeout):
		return false, nil
	}
	return false, fail("is displayed", loc, err)
}

// FindAll waits until at least one matching element is visible and returns
// all matches.
func (f *Facade) FindAll(loc Locator) ([]selenium.WebElement, error) {
	if _, err := f.await(loc, visible); err != nil {
		return nil, fail("find all", loc, err)
	}
	els, err := f.wd.FindElements(loc.By, loc.Value)
	if err != nil {
		return nil, fail("find all", loc, err)
	}
	return els, nil
}

// Count returns the number of elements currently matching loc, without
// waiting.
func (f *Facade) Count(loc Locator) (int, error) {
	els, err := f.wd.FindElements(loc.By, loc.Value)
	if err != nil {
		if isMissing(err) {
			return 0, nil
		}
		return 0, fail("count", loc, err)
	}
	return len(els), nil
}

// WaitForInvisible waits until the element is hidden or removed.
func (f *Facade) WaitForInvisible(loc Locator) error {
	if err := f.Wait("element to disappear", invisible(loc)); err != nil {
		return fail("wait for invisible", loc, err)
	}
	return nil
}

// WaitForText waits until the element's text contains text.
func (f *Facade) WaitForText(loc Locator, text string) error {
	if err := f.Wait(fmt.Sprintf("text %q", text), textPresent(loc, text)); err != nil {
		return fail("wait for text", loc, err)
	}
	return nil
}
