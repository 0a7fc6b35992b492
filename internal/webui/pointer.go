package webui

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tebeka/selenium"
)

// Performer sends a W3C "Perform Actions" request for one session. payload
// is the encoded {"actions": [...]} command body.
type Performer interface {
	PerformActions(payload []byte) error
}

// ErrNoActions is returned by pointer operations when the Facade has no
// Performer for its session.
var ErrNoActions = errors.New("no input actions endpoint for this session")

// WithActions sets where pointer sequences are sent. New uses the WebDriver
// itself when it implements Performer.
func WithActions(p Performer) Option {
	return func(f *Facade) {
		if p != nil {
			f.actions = p
		}
	}
}

const (
	webElementKey       = "element-6066-11e4-a52e-4f735466cecf"
	legacyWebElementKey = "ELEMENT"

	mouseMoveDuration = 250 // milliseconds
	leftButton        = 0
)

// pointer builds the action sequence of a single mouse input source.
type pointer struct {
	actions []map[string]interface{}
	err     error
}

// elementOrigin returns the W3C reference to el, for use as a move origin.
func elementOrigin(el selenium.WebElement) (map[string]string, error) {
	buf, err := json.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("encoding element reference: %v", err)
	}
	var ref map[string]string
	if err := json.Unmarshal(buf, &ref); err != nil {
		return nil, fmt.Errorf("decoding element reference %s: %v", buf, err)
	}
	for _, k := range []string{webElementKey, legacyWebElementKey} {
		if id := ref[k]; id != "" {
			return map[string]string{webElementKey: id}, nil
		}
	}
	return nil, fmt.Errorf("element reference %s has no id", buf)
}

// moveTo moves to the center of el.
func (p *pointer) moveTo(el selenium.WebElement) *pointer {
	if p.err != nil {
		return p
	}
	origin, err := elementOrigin(el)
	if err != nil {
		p.err = err
		return p
	}
	p.actions = append(p.actions, map[string]interface{}{
		"type":     "pointerMove",
		"duration": mouseMoveDuration,
		"x":        0,
		"y":        0,
		"origin":   origin,
	})
	return p
}

func (p *pointer) press() *pointer {
	p.actions = append(p.actions, map[string]interface{}{"type": "pointerDown", "duration": 0, "button": leftButton})
	return p
}

func (p *pointer) release() *pointer {
	p.actions = append(p.actions, map[string]interface{}{"type": "pointerUp", "duration": 0, "button": leftButton})
	return p
}

func (p *pointer) encode() ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return json.Marshal(map[string]interface{}{
		"actions": []interface{}{
			map[string]interface{}{
				"type":       "pointer",
				"id":         "mouse",
				"parameters": map[string]string{"pointerType": "mouse"},
				"actions":    p.actions,
			},
		},
	})
}

func (f *Facade) perform(p *pointer) error {
	if f.actions == nil {
		return ErrNoActions
	}
	payload, err := p.encode()
	if err != nil {
		return err
	}
	return f.actions.PerformActions(payload)
}

// Hover waits for the element to be visible and moves the mouse over it.
func (f *Facade) Hover(loc Locator) error {
	el, err := f.await(loc, visible)
	if err != nil {
		return fail("hover", loc, err)
	}
	if err := f.perform(new(pointer).moveTo(el)); err != nil {
		return fail("hover", loc, err)
	}
	return nil
}

// DragAndDrop waits for both elements to be visible, then presses the mouse
// on source and releases it over target, in one action sequence.
func (f *Facade) DragAndDrop(source, target Locator) error {
	src, err := f.await(source, visible)
	if err != nil {
		return fail("drag", source, err)
	}
	dst, err := f.await(target, visible)
	if err != nil {
		return fail("drop", target, err)
	}
	if err := f.perform(new(pointer).moveTo(src).press().moveTo(dst).release()); err != nil {
		return fail("drag and drop", source, err)
	}
	return nil
}
