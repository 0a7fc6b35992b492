package webui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"
)

const (
	testTimeout  = 50 * time.Millisecond
	testInterval = 2 * time.Millisecond
)

var (
	username = XPath("username", "//input[@data-qa='signup-name']")
	button   = XPath("signupButton", "//button[@data-qa='signup-button']")
	missing  = XPath("missing", "//div[@id='nowhere']")
)

func newTestFacade(b *fakeBrowser) *Facade {
	return New(b, WithTimeout(testTimeout), WithInterval(testInterval))
}

// indexOf returns the position of the first log entry equal to entry.
func indexOf(log []string, entry string) int {
	for i, l := range log {
		if l == entry {
			return i
		}
	}
	return -1
}

func TestDefaults(t *testing.T) {
	f := New(newFakeBrowser())
	if f.timeout != DefaultTimeout || f.interval != DefaultInterval {
		t.Errorf("New() timeout/interval = %v/%v, want %v/%v", f.timeout, f.interval, DefaultTimeout, DefaultInterval)
	}
	f = New(newFakeBrowser(), WithTimeout(0), WithInterval(-1))
	if f.Timeout() != DefaultTimeout || f.interval != DefaultInterval {
		t.Errorf("non-positive options changed the defaults to %v/%v", f.timeout, f.interval)
	}
}

func TestClickWaitsForClickable(t *testing.T) {
	b := newFakeBrowser()
	b.add(button.Value, &fakeElement{name: "button", tag: "button"})
	b.pending[button.Value] = 3

	if err := newTestFacade(b).Click(button); err != nil {
		t.Fatalf("Click() returned error: %v", err)
	}
	want := []string{
		"find " + button.Value,
		"find " + button.Value,
		"find " + button.Value,
		"find " + button.Value,
		"displayed button",
		"enabled button",
		"click button",
	}
	if diff := cmp.Diff(want, b.log); diff != "" {
		t.Errorf("Click() command log (-want/+got):\n%s", diff)
	}
}

func TestClickTimesOut(t *testing.T) {
	tests := []struct {
		desc string
		elem *fakeElement
	}{
		{"absent", nil},
		{"hidden", &fakeElement{hidden: true}},
		{"disabled", &fakeElement{disabled: true}},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			b := newFakeBrowser()
			if tc.elem != nil {
				b.add(button.Value, tc.elem)
			}
			start := time.Now()
			err := newTestFacade(b).Click(button)
			if err == nil {
				t.Fatalf("Click() returned no error")
			}
			if elapsed := time.Since(start); elapsed < testTimeout {
				t.Errorf("Click() gave up after %v, before the %v timeout", elapsed, testTimeout)
			}
			var ae *ActionError
			if !errors.As(err, &ae) {
				t.Fatalf("Click() error is %T, want *ActionError", err)
			}
			if ae.Op != "click" || ae.Locator != button {
				t.Errorf("ActionError = {Op: %q, Locator: %v}, want {click, %v}", ae.Op, ae.Locator, button)
			}
			if !errors.Is(err, ErrTimeout) {
				t.Errorf("Click() error %v does not wrap ErrTimeout", err)
			}
			if indexOf(b.log, "click "+button.Value) >= 0 {
				t.Errorf("Click() clicked an element that never became clickable")
			}
		})
	}
}

func TestUnexpectedRemoteErrorStopsWait(t *testing.T) {
	b := newFakeBrowser()
	b.findErr = &selenium.Error{Err: "invalid selector", Message: "bad xpath"}

	start := time.Now()
	err := newTestFacade(b).Type(username, "x")
	if err == nil {
		t.Fatalf("Type() returned no error")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("Type() error %v wraps ErrTimeout, want the remote error", err)
	}
	var se *selenium.Error
	if !errors.As(err, &se) || se.Err != "invalid selector" {
		t.Errorf("Type() error %v does not carry the remote error", err)
	}
	if elapsed := time.Since(start); elapsed >= testTimeout {
		t.Errorf("Type() waited %v after a fatal error", elapsed)
	}
	if got := len(b.log); got != 1 {
		t.Errorf("Type() issued %d finds after a fatal error, want 1", got)
	}
}

func TestStaleElementIsRetried(t *testing.T) {
	b := newFakeBrowser()
	b.add(username.Value, &fakeElement{name: "username", tag: "input", staleOnce: true})

	if err := newTestFacade(b).Type(username, "testuser01"); err != nil {
		t.Fatalf("Type() returned error: %v", err)
	}
}

func TestTypeAndClearAndType(t *testing.T) {
	b := newFakeBrowser()
	el := b.add(username.Value, &fakeElement{name: "username", tag: "input", value: "old"})
	f := newTestFacade(b)

	if err := f.Type(username, "-more"); err != nil {
		t.Fatalf("Type() returned error: %v", err)
	}
	if el.value != "old-more" {
		t.Errorf("after Type() value = %q, want %q", el.value, "old-more")
	}
	if err := f.ClearAndType(username, "testuser01"); err != nil {
		t.Fatalf("ClearAndType() returned error: %v", err)
	}
	if el.value != "testuser01" {
		t.Errorf("after ClearAndType() value = %q, want %q", el.value, "testuser01")
	}
	// Every action is preceded by a visibility check.
	for i, l := range b.log {
		if strings.HasPrefix(l, "keys ") || strings.HasPrefix(l, "clear ") {
			if i == 0 || !strings.HasPrefix(b.log[i-1], "displayed ") && !strings.HasPrefix(b.log[i-1], "clear ") {
				t.Errorf("command %q at %d was not preceded by a wait: %q", l, i, b.log)
			}
		}
	}
}

func TestText(t *testing.T) {
	b := newFakeBrowser()
	header := XPath("signupHeader", "//h2")
	b.add(header.Value, &fakeElement{tag: "h2", text: "New User Signup!"})

	got, err := newTestFacade(b).Text(header)
	if err != nil {
		t.Fatalf("Text() returned error: %v", err)
	}
	if got != "New User Signup!" {
		t.Errorf("Text() = %q, want %q", got, "New User Signup!")
	}
}

func TestIsDisplayed(t *testing.T) {
	tests := []struct {
		desc    string
		elem    *fakeElement
		want    bool
		wantErr bool
	}{
		{desc: "visible", elem: &fakeElement{}, want: true},
		{desc: "absent"},
		{desc: "hidden", elem: &fakeElement{hidden: true}},
		{desc: "remote failure", elem: &fakeElement{displayErr: &selenium.Error{Err: "unknown error", Message: "boom"}}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			b := newFakeBrowser()
			if tc.elem != nil {
				b.add(username.Value, tc.elem)
			}
			got, err := newTestFacade(b).IsDisplayed(username)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("IsDisplayed() returned no error")
				}
				var ae *ActionError
				if !errors.As(err, &ae) || ae.Op != "is displayed" {
					t.Errorf("IsDisplayed() error = %v, want an *ActionError for op %q", err, "is displayed")
				}
				return
			}
			if err != nil {
				t.Fatalf("IsDisplayed() returned error: %v", err)
			}
			if got != tc.want {
				t.Errorf("IsDisplayed() = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestIsDisplayedWaitsForLateElement(t *testing.T) {
	b := newFakeBrowser()
	b.add(username.Value, &fakeElement{})
	b.pending[username.Value] = 5

	got, err := newTestFacade(b).IsDisplayed(username)
	if err != nil || !got {
		t.Errorf("IsDisplayed() = %t, %v; want true, nil", got, err)
	}
}

func TestFindAllAndCount(t *testing.T) {
	b := newFakeBrowser()
	item := CSS("item", "li.item")
	for i := 0; i < 3; i++ {
		b.add(item.Value, &fakeElement{tag: "li"})
	}
	f := newTestFacade(b)

	els, err := f.FindAll(item)
	if err != nil {
		t.Fatalf("FindAll() returned error: %v", err)
	}
	if len(els) != 3 {
		t.Errorf("FindAll() returned %d elements, want 3", len(els))
	}
	n, err := f.Count(item)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3, nil", n, err)
	}
	n, err = f.Count(missing)
	if err != nil || n != 0 {
		t.Errorf("Count(missing) = %d, %v; want 0, nil", n, err)
	}
	if _, err := f.FindAll(missing); !errors.Is(err, ErrTimeout) {
		t.Errorf("FindAll(missing) error = %v, want ErrTimeout", err)
	}
}

func TestWaitForInvisible(t *testing.T) {
	b := newFakeBrowser()
	spinner := CSS("spinner", ".spinner")
	b.add(spinner.Value, &fakeElement{hideAfter: 3})
	f := newTestFacade(b)

	if err := f.WaitForInvisible(spinner); err != nil {
		t.Errorf("WaitForInvisible() returned error: %v", err)
	}
	if err := f.WaitForInvisible(missing); err != nil {
		t.Errorf("WaitForInvisible(missing) returned error: %v", err)
	}

	b.add(button.Value, &fakeElement{})
	if err := f.WaitForInvisible(button); !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitForInvisible(visible) error = %v, want ErrTimeout", err)
	}
}

func TestWaitForText(t *testing.T) {
	b := newFakeBrowser()
	status := ID("status", "status")
	b.add(status.Value, &fakeElement{texts: []string{"", "Loading", "Account Created!"}})
	f := newTestFacade(b)

	if err := f.WaitForText(status, "Created"); err != nil {
		t.Errorf("WaitForText() returned error: %v", err)
	}
	if err := f.WaitForText(status, "Deleted"); !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitForText() for absent text error = %v, want ErrTimeout", err)
	}
}

func TestSelect(t *testing.T) {
	days := XPath("days", "//select[@data-qa='days']")
	newDropdown := func(b *fakeBrowser) *fakeElement {
		return b.add(days.Value, &fakeElement{
			tag: "select",
			options: []*fakeElement{
				{name: "opt1", tag: "option", text: "One", attrs: map[string]string{"value": "1"}, selected: true},
				{name: "opt2", tag: "option", text: " Two ", attrs: map[string]string{"value": "2"}},
				{name: "opt3", tag: "option", text: "Three", attrs: map[string]string{"value": "3"}},
			},
		})
	}
	selected := func(el *fakeElement) []string {
		var out []string
		for _, o := range el.options {
			if o.selected {
				out = append(out, o.name)
			}
		}
		return out
	}

	tests := []struct {
		desc    string
		do      func(*Facade) error
		want    []string
		wantErr bool
	}{
		{"by text", func(f *Facade) error { return f.SelectByVisibleText(days, "Two") }, []string{"opt2"}, false},
		{"by value", func(f *Facade) error { return f.SelectByValue(days, "3") }, []string{"opt3"}, false},
		{"by index", func(f *Facade) error { return f.SelectByIndex(days, 1) }, []string{"opt2"}, false},
		{"already selected", func(f *Facade) error { return f.SelectByValue(days, "1") }, []string{"opt1"}, false},
		{"unknown text", func(f *Facade) error { return f.SelectByVisibleText(days, "Four") }, []string{"opt1"}, true},
		{"unknown value", func(f *Facade) error { return f.SelectByValue(days, "9") }, []string{"opt1"}, true},
		{"index out of range", func(f *Facade) error { return f.SelectByIndex(days, 3) }, []string{"opt1"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			b := newFakeBrowser()
			el := newDropdown(b)
			err := tc.do(newTestFacade(b))
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("select returned error %v, want error: %t", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, selected(el)); diff != "" {
				t.Errorf("selected options (-want/+got):\n%s", diff)
			}
		})
	}
}

func TestSelectRejectsOtherElements(t *testing.T) {
	b := newFakeBrowser()
	b.add(username.Value, &fakeElement{tag: "input"})
	err := newTestFacade(b).SelectByValue(username, "1")
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Op != "select by value" {
		t.Fatalf("SelectByValue() on an input = %v, want an *ActionError", err)
	}
	if !strings.Contains(err.Error(), `"input"`) {
		t.Errorf("SelectByValue() error %q does not name the tag", err)
	}
}

// decodeJSON unmarshals s for comparisons that ignore key order.
func decodeJSON(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json.Unmarshal(%q) returned error: %v", s, err)
	}
	return v
}

func TestHover(t *testing.T) {
	b := newFakeBrowser()
	src := CSS("source", "#drag")
	b.add(src.Value, &fakeElement{name: "source"})

	if err := newTestFacade(b).Hover(src); err != nil {
		t.Fatalf("Hover() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"find #drag", "displayed source", "actions"}, b.log); diff != "" {
		t.Errorf("Hover() command log (-want/+got):\n%s", diff)
	}
	if len(b.payloads) != 1 {
		t.Fatalf("Hover() sent %d action requests, want 1", len(b.payloads))
	}
	want := decodeJSON(t, `{"actions": [{
		"type": "pointer", "id": "mouse", "parameters": {"pointerType": "mouse"},
		"actions": [
			{"type": "pointerMove", "duration": 250, "x": 0, "y": 0,
			 "origin": {"element-6066-11e4-a52e-4f735466cecf": "source"}}
		]}]}`)
	if diff := cmp.Diff(want, decodeJSON(t, b.payloads[0])); diff != "" {
		t.Errorf("Hover() actions payload (-want/+got):\n%s", diff)
	}
}

func TestDragAndDrop(t *testing.T) {
	b := newFakeBrowser()
	src := CSS("source", "#drag")
	dst := CSS("target", "#drop")
	b.add(src.Value, &fakeElement{name: "source"})
	b.add(dst.Value, &fakeElement{name: "target"})
	f := newTestFacade(b)

	if err := f.DragAndDrop(src, dst); err != nil {
		t.Fatalf("DragAndDrop() returned error: %v", err)
	}
	wantLog := []string{"find #drag", "displayed source", "find #drop", "displayed target", "actions"}
	if diff := cmp.Diff(wantLog, b.log); diff != "" {
		t.Errorf("DragAndDrop() command log (-want/+got):\n%s", diff)
	}
	if len(b.payloads) != 1 {
		t.Fatalf("DragAndDrop() sent %d action requests, want 1", len(b.payloads))
	}
	want := decodeJSON(t, `{"actions": [{
		"type": "pointer", "id": "mouse", "parameters": {"pointerType": "mouse"},
		"actions": [
			{"type": "pointerMove", "duration": 250, "x": 0, "y": 0,
			 "origin": {"element-6066-11e4-a52e-4f735466cecf": "source"}},
			{"type": "pointerDown", "duration": 0, "button": 0},
			{"type": "pointerMove", "duration": 250, "x": 0, "y": 0,
			 "origin": {"element-6066-11e4-a52e-4f735466cecf": "target"}},
			{"type": "pointerUp", "duration": 0, "button": 0}
		]}]}`)
	if diff := cmp.Diff(want, decodeJSON(t, b.payloads[0])); diff != "" {
		t.Errorf("DragAndDrop() actions payload (-want/+got):\n%s", diff)
	}

	err := f.DragAndDrop(src, missing)
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Op != "drop" || ae.Locator != missing {
		t.Errorf("DragAndDrop() to a missing target = %v, want a drop error naming %v", err, missing)
	}
}

func TestPointerErrors(t *testing.T) {
	src := CSS("source", "#drag")
	dst := CSS("target", "#drop")
	setup := func() *fakeBrowser {
		b := newFakeBrowser()
		b.add(src.Value, &fakeElement{name: "source"})
		b.add(dst.Value, &fakeElement{name: "target"})
		return b
	}

	t.Run("no actions endpoint", func(t *testing.T) {
		// Hide PerformActions behind a plain WebDriver.
		wd := struct{ selenium.WebDriver }{setup()}
		f := New(wd, WithTimeout(testTimeout), WithInterval(testInterval))
		err := f.Hover(src)
		var ae *ActionError
		if !errors.As(err, &ae) || ae.Op != "hover" || !errors.Is(err, ErrNoActions) {
			t.Errorf("Hover() without an actions endpoint = %v, want a hover error wrapping ErrNoActions", err)
		}
	})

	t.Run("explicit performer", func(t *testing.T) {
		b := setup()
		other := newFakeBrowser()
		f := New(struct{ selenium.WebDriver }{b}, WithActions(other), WithTimeout(testTimeout), WithInterval(testInterval))
		if err := f.DragAndDrop(src, dst); err != nil {
			t.Fatalf("DragAndDrop() returned error: %v", err)
		}
		if len(other.payloads) != 1 || len(b.payloads) != 0 {
			t.Errorf("payloads sent to performer/browser = %d/%d, want 1/0", len(other.payloads), len(b.payloads))
		}
	})

	t.Run("remote failure", func(t *testing.T) {
		b := setup()
		b.actionsErr = &selenium.Error{Err: "unknown command", Message: "unknown command", HTTPCode: 404}
		err := newTestFacade(b).DragAndDrop(src, dst)
		var ae *ActionError
		if !errors.As(err, &ae) || ae.Op != "drag and drop" || ae.Locator != src {
			t.Errorf("DragAndDrop() with a failing endpoint = %v, want a drag and drop error naming %v", err, src)
		}
	})
}

func TestFrames(t *testing.T) {
	b := newFakeBrowser()
	frame := CSS("payment", "iframe#payment")
	b.add(frame.Value, &fakeElement{name: "payment", tag: "iframe"})
	f := newTestFacade(b)

	if err := f.SwitchToFrame(frame); err != nil {
		t.Fatalf("SwitchToFrame() returned error: %v", err)
	}
	if el, ok := b.frame.(*fakeElement); !ok || el.name != "payment" {
		t.Errorf("SwitchToFrame() switched to %v, want the payment frame element", b.frame)
	}
	if err := f.SwitchToDefaultContent(); err != nil {
		t.Fatalf("SwitchToDefaultContent() returned error: %v", err)
	}
	if b.frame != nil {
		t.Errorf("SwitchToDefaultContent() switched to %v, want nil", b.frame)
	}
}

func TestAlerts(t *testing.T) {
	b := newFakeBrowser()
	f := newTestFacade(b)
	open := func(text string) {
		b.alert = &text
		b.alertPending = 3
	}

	open("Are you sure?")
	got, err := f.AlertText()
	if err != nil || got != "Are you sure?" {
		t.Errorf("AlertText() = %q, %v; want %q, nil", got, err, "Are you sure?")
	}
	if err := f.AcceptAlert(); err != nil {
		t.Errorf("AcceptAlert() returned error: %v", err)
	}
	open("Leave page?")
	if err := f.DismissAlert(); err != nil {
		t.Errorf("DismissAlert() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"accept alert", "dismiss alert"}, b.log); diff != "" {
		t.Errorf("alert command log (-want/+got):\n%s", diff)
	}

	err = f.AcceptAlert()
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Op != "accept alert" || !errors.Is(err, ErrTimeout) {
		t.Errorf("AcceptAlert() without an alert = %v, want a timed out *ActionError", err)
	}
}

func TestScripts(t *testing.T) {
	b := newFakeBrowser()
	b.add(button.Value, &fakeElement{name: "button", hidden: true})
	f := newTestFacade(b)

	if err := f.ScrollTo(button); err != nil {
		t.Fatalf("ScrollTo() returned error: %v", err)
	}
	if err := f.ClickByJS(button); err != nil {
		t.Fatalf("ClickByJS() returned error: %v", err)
	}
	if diff := cmp.Diff([]string{scrollIntoViewScript, clickScript}, b.scripts); diff != "" {
		t.Errorf("executed scripts (-want/+got):\n%s", diff)
	}
	if indexOf(b.log, "script button") < 0 {
		t.Errorf("scripts were not called with the element: %q", b.log)
	}
	if err := f.ClickByJS(missing); !errors.Is(err, ErrTimeout) {
		t.Errorf("ClickByJS(missing) error = %v, want ErrTimeout", err)
	}
}

func TestNavigation(t *testing.T) {
	b := newFakeBrowser()
	f := newTestFacade(b)

	for _, u := range []string{"https://automationexercise.com/", "https://automationexercise.com/login"} {
		if err := f.Navigate(u); err != nil {
			t.Fatalf("Navigate(%q) returned error: %v", u, err)
		}
	}
	if err := f.Back(); err != nil {
		t.Fatalf("Back() returned error: %v", err)
	}
	if got, _ := f.CurrentURL(); got != "https://automationexercise.com/" {
		t.Errorf("CurrentURL() after Back() = %q", got)
	}
	if err := f.Forward(); err != nil {
		t.Fatalf("Forward() returned error: %v", err)
	}
	if err := f.Refresh(); err != nil {
		t.Fatalf("Refresh() returned error: %v", err)
	}
	if got, _ := f.CurrentURL(); got != "https://automationexercise.com/login" {
		t.Errorf("CurrentURL() after Forward() = %q", got)
	}
}

func TestActionErrorMessage(t *testing.T) {
	err := &ActionError{Op: "click", Locator: button, Err: ErrTimeout}
	want := "webui: click signupButton (xpath=//button[@data-qa='signup-button']): timed out"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	err = &ActionError{Op: "accept alert", Err: ErrTimeout}
	if got, want := err.Error(), "webui: accept alert: timed out"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := (Locator{By: selenium.ByCSSSelector, Value: "#x"}).String(), "css selector=#x"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
