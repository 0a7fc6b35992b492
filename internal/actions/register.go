// Package actions implements user-level flows on top of page objects.
package actions

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/ecomqa/uitest/internal/pages/register"
	"github.com/ecomqa/uitest/internal/webui"
)

// UI is the subset of *webui.Facade the flows need.
type UI interface {
	register.Displayer
	Navigate(url string) error
	ClearAndType(loc webui.Locator, text string) error
	Click(loc webui.Locator) error
}

// PageError is returned when a page is missing elements it must show.
type PageError struct {
	Page    string
	Missing []string
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s page is not displayed correctly: missing %s", e.Page, strings.Join(e.Missing, ", "))
}

// Register drives the sign-up part of the login page.
type Register struct {
	ui       UI
	page     *register.Page
	loginURL string
}

// NewRegister returns a Register flow that opens loginURL.
func NewRegister(ui UI, loginURL string) *Register {
	return &Register{ui: ui, page: register.New(ui), loginURL: loginURL}
}

// NavigateToLoginPage opens the login page.
func (r *Register) NavigateToLoginPage() error {
	glog.V(1).Infof("Opening login page %s", r.loginURL)
	return r.ui.Navigate(r.loginURL)
}

// VerifyLoginPage checks that the sign-up header, both inputs and the signup
// button are displayed. It returns a *PageError naming every element that is
// not.
func (r *Register) VerifyLoginPage() error {
	missing, err := r.page.Missing()
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &PageError{Page: "login", Missing: missing}
	}
	return nil
}

// InputUsername replaces the name input's content with name.
func (r *Register) InputUsername(name string) error {
	return r.ui.ClearAndType(register.Locator(register.Username), name)
}

// InputEmail replaces the e-mail input's content with email.
func (r *Register) InputEmail(email string) error {
	return r.ui.ClearAndType(register.Locator(register.Email), email)
}

// ClickSignup submits the sign-up form.
func (r *Register) ClickSignup() error {
	return r.ui.Click(register.Locator(register.SignupButton))
}
