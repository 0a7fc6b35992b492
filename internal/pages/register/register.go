// Package register models the sign-up section of the login page.
package register

import (
	"github.com/ecomqa/uitest/internal/webui"
)

// Element names on the register page.
const (
	Username     = "username"
	Email        = "email"
	SignupButton = "signupButton"
	SignupHeader = "signupHeader"
)

// Locators of the register page, keyed by element name.
var Locators = map[string]webui.Locator{
	Username:     webui.XPath(Username, "//input[@data-qa='signup-name']"),
	Email:        webui.XPath(Email, "//input[@data-qa='signup-email']"),
	SignupButton: webui.XPath(SignupButton, "//button[@data-qa='signup-button']"),
	SignupHeader: webui.XPath(SignupHeader, "//h2[contains(text(),'New User Signup!')]"),
}

// required lists the elements a loaded login page shows, in check order.
var required = []string{SignupHeader, Username, Email, SignupButton}

// Locator returns the locator of the named element. It panics on an unknown
// name.
func Locator(name string) webui.Locator {
	l, ok := Locators[name]
	if !ok {
		panic("register: unknown element " + name)
	}
	return l
}

// Displayer reports whether an element is visible.
type Displayer interface {
	IsDisplayed(loc webui.Locator) (bool, error)
}

// Page answers presence questions about the register page.
type Page struct {
	ui Displayer
}

// New returns a Page backed by ui, normally a *webui.Facade.
func New(ui Displayer) *Page {
	return &Page{ui: ui}
}

// SignupHeaderVisible reports whether the "New User Signup!" header is shown.
func (p *Page) SignupHeaderVisible() (bool, error) {
	return p.ui.IsDisplayed(Locator(SignupHeader))
}

// UsernameInputVisible reports whether the name input is shown.
func (p *Page) UsernameInputVisible() (bool, error) {
	return p.ui.IsDisplayed(Locator(Username))
}

// EmailInputVisible reports whether the e-mail input is shown.
func (p *Page) EmailInputVisible() (bool, error) {
	return p.ui.IsDisplayed(Locator(Email))
}

// SignupButtonVisible reports whether the signup button is shown.
func (p *Page) SignupButtonVisible() (bool, error) {
	return p.ui.IsDisplayed(Locator(SignupButton))
}

// Missing returns the names of the sign-up elements that are not displayed,
// in page order. An empty result means the page is fully loaded.
func (p *Page) Missing() ([]string, error) {
	var missing []string
	for _, name := range required {
		ok, err := p.ui.IsDisplayed(Locator(name))
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
