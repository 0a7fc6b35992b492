package webui

import (
	"encoding/json"
	"fmt"

	"github.com/tebeka/selenium"
)

var (
	errNoSuchElement = &selenium.Error{Err: "no such element", Message: "unable to locate element", HTTPCode: 404}
	errStale         = &selenium.Error{Err: "stale element reference", Message: "element is not attached", HTTPCode: 404}
	errNoSuchAlert   = &selenium.Error{Err: "no such alert", Message: "no alert open", HTTPCode: 404}
)

// fakeBrowser is an in-memory selenium.WebDriver. Unimplemented methods
// panic through the nil embedded interface.
type fakeBrowser struct {
	selenium.WebDriver

	elems   map[string][]*fakeElement
	pending map[string]int // finds that fail before the element appears
	findErr error

	alert        *string
	alertPending int

	url     string
	history []string
	frame   interface{}
	scripts []string
	log     []string

	payloads   []string
	actionsErr error
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		elems:   make(map[string][]*fakeElement),
		pending: make(map[string]int),
	}
}

func (b *fakeBrowser) add(value string, e *fakeElement) *fakeElement {
	e.b = b
	if e.name == "" {
		e.name = value
	}
	for _, o := range e.options {
		o.b = b
		o.parent = e
	}
	b.elems[value] = append(b.elems[value], e)
	return e
}

func (b *fakeBrowser) logf(format string, args ...interface{}) {
	b.log = append(b.log, fmt.Sprintf(format, args...))
}

func (b *fakeBrowser) FindElement(by, value string) (selenium.WebElement, error) {
	b.logf("find %s", value)
	if b.findErr != nil {
		return nil, b.findErr
	}
	if b.pending[value] > 0 {
		b.pending[value]--
		return nil, errNoSuchElement
	}
	els := b.elems[value]
	if len(els) == 0 {
		return nil, errNoSuchElement
	}
	return els[0], nil
}

func (b *fakeBrowser) FindElements(by, value string) ([]selenium.WebElement, error) {
	b.logf("find-all %s", value)
	if b.findErr != nil {
		return nil, b.findErr
	}
	var out []selenium.WebElement
	if b.pending[value] > 0 {
		return out, nil
	}
	for _, e := range b.elems[value] {
		out = append(out, e)
	}
	return out, nil
}

func (b *fakeBrowser) AlertText() (string, error) {
	if b.alertPending > 0 {
		b.alertPending--
		return "", errNoSuchAlert
	}
	if b.alert == nil {
		return "", errNoSuchAlert
	}
	return *b.alert, nil
}

func (b *fakeBrowser) AcceptAlert() error {
	if b.alert == nil {
		return errNoSuchAlert
	}
	b.logf("accept alert")
	b.alert = nil
	return nil
}

func (b *fakeBrowser) DismissAlert() error {
	if b.alert == nil {
		return errNoSuchAlert
	}
	b.logf("dismiss alert")
	b.alert = nil
	return nil
}

func (b *fakeBrowser) SwitchFrame(frame interface{}) error {
	b.frame = frame
	if e, ok := frame.(*fakeElement); ok {
		b.logf("frame %s", e.name)
	} else {
		b.logf("frame %v", frame)
	}
	return nil
}

func (b *fakeBrowser) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	b.scripts = append(b.scripts, script)
	if len(args) == 1 {
		if e, ok := args[0].(*fakeElement); ok {
			b.logf("script %s", e.name)
		}
	}
	return nil, nil
}

// PerformActions records the action payload. It makes fakeBrowser a
// Performer, as a session handle would be.
func (b *fakeBrowser) PerformActions(payload []byte) error {
	b.logf("actions")
	if b.actionsErr != nil {
		return b.actionsErr
	}
	b.payloads = append(b.payloads, string(payload))
	return nil
}

func (b *fakeBrowser) Get(url string) error {
	b.logf("get %s", url)
	b.history = append(b.history, url)
	b.url = url
	return nil
}

func (b *fakeBrowser) Refresh() error {
	b.logf("refresh")
	return nil
}

func (b *fakeBrowser) Back() error {
	b.logf("back")
	if len(b.history) > 1 {
		b.url = b.history[len(b.history)-2]
	}
	return nil
}

func (b *fakeBrowser) Forward() error {
	b.logf("forward")
	if len(b.history) > 0 {
		b.url = b.history[len(b.history)-1]
	}
	return nil
}

func (b *fakeBrowser) CurrentURL() (string, error) {
	return b.url, nil
}

// fakeElement is an in-memory selenium.WebElement.
type fakeElement struct {
	selenium.WebElement
	b      *fakeBrowser
	parent *fakeElement

	name     string
	tag      string
	text     string
	texts    []string // successive Text results; the last one sticks
	value    string
	attrs    map[string]string
	hidden   bool
	disabled bool
	selected bool
	options  []*fakeElement

	hideAfter    int // IsDisplayed calls before the element hides
	displayCalls int
	staleOnce    bool
	displayErr   error
}

func (e *fakeElement) IsDisplayed() (bool, error) {
	e.b.logf("displayed %s", e.name)
	if e.staleOnce {
		e.staleOnce = false
		return false, errStale
	}
	if e.displayErr != nil {
		return false, e.displayErr
	}
	e.displayCalls++
	if e.hideAfter > 0 && e.displayCalls > e.hideAfter {
		return false, nil
	}
	return !e.hidden, nil
}

func (e *fakeElement) IsEnabled() (bool, error) {
	e.b.logf("enabled %s", e.name)
	return !e.disabled, nil
}

func (e *fakeElement) IsSelected() (bool, error) {
	return e.selected, nil
}

func (e *fakeElement) Click() error {
	e.b.logf("click %s", e.name)
	if e.parent != nil {
		for _, o := range e.parent.options {
			o.selected = false
		}
		e.selected = true
	}
	return nil
}

func (e *fakeElement) Clear() error {
	e.b.logf("clear %s", e.name)
	e.value = ""
	return nil
}

func (e *fakeElement) SendKeys(keys string) error {
	e.b.logf("keys %s %s", e.name, keys)
	e.value += keys
	return nil
}

func (e *fakeElement) Text() (string, error) {
	if len(e.texts) > 0 {
		t := e.texts[0]
		if len(e.texts) > 1 {
			e.texts = e.texts[1:]
		}
		return t, nil
	}
	return e.text, nil
}

func (e *fakeElement) TagName() (string, error) {
	return e.tag, nil
}

func (e *fakeElement) GetAttribute(name string) (string, error) {
	if name == "value" && e.attrs["value"] == "" {
		return e.value, nil
	}
	v, ok := e.attrs[name]
	if !ok {
		return "", fmt.Errorf("nil return value")
	}
	return v, nil
}

func (e *fakeElement) FindElements(by, value string) ([]selenium.WebElement, error) {
	var out []selenium.WebElement
	if by == selenium.ByTagName && value == "option" {
		for _, o := range e.options {
			out = append(out, o)
		}
	}
	return out, nil
}

func (e *fakeElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		legacyWebElementKey: e.name,
		webElementKey:       e.name,
	})
}
