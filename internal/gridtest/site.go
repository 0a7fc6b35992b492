package gridtest

import (
	"github.com/ecomqa/uitest/internal/pages/register"
)

func xpathElement(name, tag string) Element {
	return Element{Using: "xpath", Selector: register.Locators[name].Value, Tag: tag}
}

// LoginPage returns the sign-up part of the automationexercise.com login
// page.
func LoginPage() Page {
	header := xpathElement(register.SignupHeader, "h2")
	header.Text = "New User Signup!"

	name := xpathElement(register.Username, "input")
	name.Attrs = map[string]string{"type": "text", "name": "name", "data-qa": "signup-name"}

	email := xpathElement(register.Email, "input")
	email.Attrs = map[string]string{"type": "email", "name": "email", "data-qa": "signup-email"}

	button := xpathElement(register.SignupButton, "button")
	button.Text = "Signup"
	button.Attrs = map[string]string{"type": "submit", "data-qa": "signup-button"}

	return Page{
		Title:    "Automation Exercise - Signup / Login",
		Elements: []Element{header, name, email, button},
	}
}
