package webui

import (
	"github.com/tebeka/selenium"
)

// Navigate loads url in the current window.
func (f *Facade) Navigate(url string) error {
	if err := f.wd.Get(url); err != nil {
		return &ActionError{Op: "navigate to " + url, Err: err}
	}
	return nil
}

// Refresh reloads the current page.
func (f *Facade) Refresh() error {
	if err := f.wd.Refresh(); err != nil {
		return &ActionError{Op: "refresh", Err: err}
	}
	return nil
}

// Back goes one step back in the browser history.
func (f *Facade) Back() error {
	if err := f.wd.Back(); err != nil {
		return &ActionError{Op: "back", Err: err}
	}
	return nil
}

// Forward goes one step forward in the browser history.
func (f *Facade) Forward() error {
	if err := f.wd.Forward(); err != nil {
		return &ActionError{Op: "forward", Err: err}
	}
	return nil
}

// CurrentURL returns the URL of the current page.
func (f *Facade) CurrentURL() (string, error) {
	u, err := f.wd.CurrentURL()
	if err != nil {
		return "", &ActionError{Op: "current url", Err: err}
	}
	return u, nil
}

// SwitchToFrame waits for the frame element to be visible and makes it the
// target of later operations.
func (f *Facade) SwitchToFrame(loc Locator) error {
	el, err := f.await(loc, visible)
	if err != nil {
		return fail("switch to frame", loc, err)
	}
	if err := f.wd.SwitchFrame(el); err != nil {
		return fail("switch to frame", loc, err)
	}
	return nil
}

// SwitchToDefaultContent returns to the top-level document.
func (f *Facade) SwitchToDefaultContent() error {
	if err := f.wd.SwitchFrame(nil); err != nil {
		return &ActionError{Op: "switch to default content", Err: err}
	}
	return nil
}

func (f *Facade) awaitAlert(op string) (string, error) {
	var text string
	if err := f.Wait("alert", alertPresent(&text)); err != nil {
		return "", &ActionError{Op: op, Err: err}
	}
	return text, nil
}

// AcceptAlert waits for an alert and accepts it.
func (f *Facade) AcceptAlert() error {
	if _, err := f.awaitAlert("accept alert"); err != nil {
		return err
	}
	if err := f.wd.AcceptAlert(); err != nil {
		return &ActionError{Op: "accept alert", Err: err}
	}
	return nil
}

// DismissAlert waits for an alert and dismisses it.
func (f *Facade) DismissAlert() error {
	if _, err := f.awaitAlert("dismiss alert"); err != nil {
		return err
	}
	if err := f.wd.DismissAlert(); err != nil {
		return &ActionError{Op: "dismiss alert", Err: err}
	}
	return nil
}

// AlertText waits for an alert and returns its message.
func (f *Facade) AlertText() (string, error) {
	return f.awaitAlert("alert text")
}

const (
	scrollIntoViewScript = "arguments[0].scrollIntoView(true);"
	clickScript          = "arguments[0].click();"
)

func (f *Facade) runOn(op, script string, loc Locator) error {
	el, err := f.await(loc, present)
	if err != nil {
		return fail(op, loc, err)
	}
	if _, err := f.wd.ExecuteScript(script, []interface{}{el}); err != nil {
		return fail(op, loc, err)
	}
	return nil
}

// ScrollTo waits for the element to be present and scrolls it into view.
func (f *Facade) ScrollTo(loc Locator) error {
	return f.runOn("scroll to", scrollIntoViewScript, loc)
}

// ClickByJS waits for the element to be present and clicks it from
// JavaScript, bypassing visibility and overlay checks.
func (f *Facade) ClickByJS(loc Locator) error {
	return f.runOn("click by js", clickScript, loc)
}

// WebDriver returns the underlying session handle.
func (f *Facade) WebDriver() selenium.WebDriver {
	return f.wd
}
