package webui

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
)

// selectElement drives a <select> dropdown.
type selectElement struct {
	element selenium.WebElement
	isMulti bool
}

func newSelect(el selenium.WebElement) (*selectElement, error) {
	tag, err := el.TagName()
	if err != nil {
		return nil, err
	}
	if strings.ToLower(tag) != "select" {
		return nil, fmt.Errorf(`element should have been "select" but was %q`, tag)
	}
	s := &selectElement{element: el}
	// A missing attribute comes back as an error or an empty string.
	if mult, err := el.GetAttribute("multiple"); err == nil && mult != "" && strings.ToLower(mult) != "false" {
		s.isMulti = true
	}
	return s, nil
}

func (s *selectElement) options() ([]selenium.WebElement, error) {
	return s.element.FindElements(selenium.ByTagName, "option")
}

// selectMatching selects every option accepted by match, or only the first
// one unless the select allows multiple selections.
func (s *selectElement) selectMatching(what string, match func(selenium.WebElement) (bool, error)) error {
	opts, err := s.options()
	if err != nil {
		return err
	}
	matched := false
	for _, o := range opts {
		ok, err := match(o)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := s.setSelected(o, true); err != nil {
			return err
		}
		matched = true
		if !s.isMulti {
			return nil
		}
	}
	if !matched {
		return fmt.Errorf("cannot locate option with %s", what)
	}
	return nil
}

// byVisibleText matches the option text after trimming surrounding space.
func (s *selectElement) byVisibleText(text string) error {
	want := strings.TrimSpace(text)
	return s.selectMatching(fmt.Sprintf("text %q", text), func(o selenium.WebElement) (bool, error) {
		got, err := o.Text()
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(got) == want, nil
	})
}

func (s *selectElement) byValue(value string) error {
	return s.selectMatching(fmt.Sprintf("value %q", value), func(o selenium.WebElement) (bool, error) {
		got, err := o.GetAttribute("value")
		if err != nil {
			return false, err
		}
		return got == value, nil
	})
}

// byIndex selects the option at the zero-based position idx.
func (s *selectElement) byIndex(idx int) error {
	opts, err := s.options()
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(opts) {
		return fmt.Errorf("cannot locate option with index %d (have %d)", idx, len(opts))
	}
	return s.setSelected(opts[idx], true)
}

func (s *selectElement) setSelected(option selenium.WebElement, selected bool) error {
	sel, err := option.IsSelected()
	if err != nil {
		return err
	}
	if sel != selected {
		return option.Click()
	}
	return nil
}

func (f *Facade) withSelect(op string, loc Locator, fn func(*selectElement) error) error {
	el, err := f.await(loc, visible)
	if err != nil {
		return fail(op, loc, err)
	}
	s, err := newSelect(el)
	if err != nil {
		return fail(op, loc, err)
	}
	if err := fn(s); err != nil {
		return fail(op, loc, err)
	}
	return nil
}

// SelectByVisibleText waits for the dropdown to be visible and selects the
// option whose text is text.
func (f *Facade) SelectByVisibleText(loc Locator, text string) error {
	return f.withSelect("select by text", loc, func(s *selectElement) error {
		return s.byVisibleText(text)
	})
}

// SelectByValue waits for the dropdown to be visible and selects the option
// whose value attribute is value.
func (f *Facade) SelectByValue(loc Locator, value string) error {
	return f.withSelect("select by value", loc, func(s *selectElement) error {
		return s.byValue(value)
	})
}

// SelectByIndex waits for the dropdown to be visible and selects the option
// at the zero-based position idx.
func (f *Facade) SelectByIndex(loc Locator, idx int) error {
	return f.withSelect("select by index", loc, func(s *selectElement) error {
		return s.byIndex(idx)
	})
}
