package webui

import (
	"fmt"

	"github.com/tebeka/selenium"
)

// Locator identifies an element on a page: a strategy (one of the
// selenium.By* constants) and its value, plus a semantic name used in
// errors and logs.
type Locator struct {
	Name  string
	By    string
	Value string
}

// XPath returns a Locator using an XPath expression.
func XPath(name, expr string) Locator {
	return Locator{Name: name, By: selenium.ByXPATH, Value: expr}
}

// CSS returns a Locator using a CSS selector.
func CSS(name, selector string) Locator {
	return Locator{Name: name, By: selenium.ByCSSSelector, Value: selector}
}

// ID returns a Locator matching the element's id attribute.
func ID(name, id string) Locator {
	return Locator{Name: name, By: selenium.ByID, Value: id}
}

func (l Locator) String() string {
	if l.Name == "" {
		return fmt.Sprintf("%s=%s", l.By, l.Value)
	}
	return fmt.Sprintf("%s (%s=%s)", l.Name, l.By, l.Value)
}
