// Package gridtest provides an in-process WebDriver endpoint for tests. It
// speaks enough of the W3C protocol (and the legacy JSON wire aliases the
// client still uses for alerts) for github.com/tebeka/selenium to open
// sessions, navigate, find and interact with elements, switch frames, handle
// alerts and perform pointer actions, against pages described as plain Go
// values. JSON wire mouse commands are rejected as on a W3C grid.
package gridtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// W3C and legacy keys identifying an element reference in JSON.
const (
	webElementIdentifier       = "element-6066-11e4-a52e-4f735466cecf"
	legacyWebElementIdentifier = "ELEMENT"
)

// Element describes one element of a page.
type Element struct {
	// Using and Selector are matched verbatim against a find request, e.g.
	// Using "xpath" and Selector "//input[@data-qa='signup-name']".
	Using    string
	Selector string

	Tag   string
	Text  string
	Value string
	Attrs map[string]string

	Hidden   bool
	Disabled bool
	Selected bool

	// AppearAfter delays the moment the element can be found, counted from
	// page load. HideAfter makes it invisible after the given delay.
	AppearAfter time.Duration
	HideAfter   time.Duration

	// Alert, when set, opens a JavaScript alert with this text on click.
	Alert string

	// Children are found by child lookups (e.g. options of a select).
	Children []Element

	id       string
	parent   *Element
	children []*Element
}

// ID returns the element reference handed out to clients. It is empty for
// elements that were not loaded into a session.
func (e *Element) ID() string { return e.id }

// Page is a document served at a URL.
type Page struct {
	Title    string
	Elements []Element
}

// Session is a snapshot of a session's state.
type Session struct {
	ID           string
	Capabilities map[string]interface{}
	URL          string
	Closed       bool
}

type sessionState struct {
	id      string
	caps    map[string]interface{}
	history []string
	pos     int
	loaded  time.Time
	elems   []*Element
	byID    map[string]*Element
	alert   *string
	frame   interface{}
	closed  bool
}

// Grid is a fake WebDriver endpoint backed by an httptest.Server.
type Grid struct {
	srv *httptest.Server

	mu       sync.Mutex
	pages    map[string]Page
	sessions map[string]*sessionState
	order    []string
	events   []string
	reject   string
	nextID   int
}

// NewGrid starts a grid. Call Close when done.
func NewGrid() *Grid {
	g := &Grid{
		pages:    make(map[string]Page),
		sessions: make(map[string]*sessionState),
	}
	g.srv = httptest.NewServer(http.HandlerFunc(g.handle))
	return g
}

// URL returns the WebDriver endpoint to pass to selenium.NewRemote.
func (g *Grid) URL() string {
	return g.srv.URL + "/wd/hub"
}

// Addr returns the host:port the grid listens on.
func (g *Grid) Addr() string {
	return g.srv.Listener.Addr().String()
}

// Close stops the server.
func (g *Grid) Close() {
	g.srv.Close()
}

// AddPage serves p at url. Navigating to an unknown URL loads an empty page.
func (g *Grid) AddPage(url string, p Page) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pages[url] = p
}

// RejectSessions makes every following new-session request fail with the
// "session not created" error and the given message.
func (g *Grid) RejectSessions(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reject = msg
}

// Sessions returns all sessions in creation order.
func (g *Grid) Sessions() []Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Session, 0, len(g.order))
	for _, id := range g.order {
		s := g.sessions[id]
		out = append(out, Session{ID: s.id, Capabilities: s.caps, URL: s.url(), Closed: s.closed})
	}
	return out
}

// Events returns the log of commands the grid received, in order. Each entry
// is "<session> <command> [<detail>]".
func (g *Grid) Events() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.events...)
}

// SessionEvents returns Events restricted to one session, without the
// session prefix.
func (g *Grid) SessionEvents(id string) []string {
	var out []string
	prefix := id + " "
	for _, e := range g.Events() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, strings.TrimPrefix(e, prefix))
		}
	}
	return out
}

// Element returns a copy of the element matching selector on the session's
// current page.
func (g *Grid) Element(sessionID, selector string) (Element, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return Element{}, false
	}
	for _, e := range s.elems {
		if e.Selector == selector {
			c := *e
			return c, true
		}
	}
	return Element{}, false
}

func (s *sessionState) url() string {
	if len(s.history) == 0 {
		return "about:blank"
	}
	return s.history[s.pos]
}

func (g *Grid) logf(session, format string, args ...interface{}) {
	g.events = append(g.events, session+" "+fmt.Sprintf(format, args...))
}

// load instantiates the page at url into s. Called with g.mu held.
func (g *Grid) load(s *sessionState, url string) {
	s.loaded = time.Now()
	s.elems = nil
	s.byID = make(map[string]*Element)
	s.alert = nil
	s.frame = nil
	p := g.pages[url]
	for _, e := range p.Elements {
		s.elems = append(s.elems, g.instantiate(s, e, nil))
	}
}

func (g *Grid) instantiate(s *sessionState, e Element, parent *Element) *Element {
	g.nextID++
	c := e
	c.id = fmt.Sprintf("e%d", g.nextID)
	c.parent = parent
	c.children = nil
	if e.Attrs != nil {
		c.Attrs = make(map[string]string, len(e.Attrs))
		for k, v := range e.Attrs {
			c.Attrs[k] = v
		}
	}
	s.byID[c.id] = &c
	for _, child := range e.Children {
		c.children = append(c.children, g.instantiate(s, child, &c))
	}
	return &c
}

func (s *sessionState) present(e *Element) bool {
	return time.Since(s.loaded) >= e.AppearAfter
}

func (s *sessionState) displayed(e *Element) bool {
	if e.Hidden {
		return false
	}
	if e.HideAfter > 0 && time.Since(s.loaded) >= e.HideAfter {
		return false
	}
	return true
}

type wdError struct {
	status int
	code   string
	msg    string
}

func (g *Grid) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/wd/hub")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	g.mu.Lock()
	value, werr := g.dispatch(r.Method, parts, body)
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if werr != nil {
		w.WriteHeader(werr.status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": map[string]interface{}{
				"error":      werr.code,
				"message":    werr.msg,
				"stacktrace": "",
			},
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"value": value})
}

func (g *Grid) dispatch(method string, parts []string, body []byte) (interface{}, *wdError) {
	if len(parts) == 1 && parts[0] == "status" {
		return map[string]interface{}{"ready": true, "message": "gridtest ready"}, nil
	}
	if len(parts) == 0 || parts[0] != "session" {
		return nil, &wdError{http.StatusNotFound, "unknown command", "unknown path " + strings.Join(parts, "/")}
	}
	if len(parts) == 1 {
		if method != http.MethodPost {
			return nil, &wdError{http.StatusMethodNotAllowed, "unknown method", method}
		}
		return g.newSession(body)
	}

	s, ok := g.sessions[parts[1]]
	if !ok || s.closed {
		return nil, &wdError{http.StatusNotFound, "invalid session id", "no such session " + parts[1]}
	}
	if len(parts) == 2 {
		if method == http.MethodDelete {
			s.closed = true
			g.logf(s.id, "quit")
			return nil, nil
		}
		return nil, nil
	}
	return g.command(s, method, parts[2:], body)
}

func (g *Grid) newSession(body []byte) (interface{}, *wdError) {
	if g.reject != "" {
		return nil, &wdError{http.StatusInternalServerError, "session not created", g.reject}
	}
	var req struct {
		Capabilities struct {
			AlwaysMatch map[string]interface{}   `json:"alwaysMatch"`
			FirstMatch  []map[string]interface{} `json:"firstMatch"`
		} `json:"capabilities"`
		DesiredCapabilities map[string]interface{} `json:"desiredCapabilities"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &wdError{http.StatusBadRequest, "invalid argument", err.Error()}
	}
	caps := make(map[string]interface{})
	for k, v := range req.DesiredCapabilities {
		caps[k] = v
	}
	for k, v := range req.Capabilities.AlwaysMatch {
		caps[k] = v
	}
	if len(req.Capabilities.FirstMatch) > 0 {
		for k, v := range req.Capabilities.FirstMatch[0] {
			caps[k] = v
		}
	}
	g.nextID++
	id := fmt.Sprintf("session-%d", g.nextID)
	g.sessions[id] = &sessionState{id: id, caps: caps, byID: make(map[string]*Element)}
	g.order = append(g.order, id)
	g.logf(id, "new")

	returned := map[string]interface{}{}
	for k, v := range caps {
		returned[k] = v
	}
	return map[string]interface{}{"sessionId": id, "capabilities": returned}, nil
}

func elementRef(e *Element) map[string]string {
	return map[string]string{webElementIdentifier: e.id, legacyWebElementIdentifier: e.id}
}

func elementIDOf(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	for _, k := range []string{webElementIdentifier, legacyWebElementIdentifier} {
		if id, ok := m[k].(string); ok {
			return id
		}
	}
	return ""
}

func (g *Grid) command(s *sessionState, method string, parts []string, body []byte) (interface{}, *wdError) {
	var params map[string]interface{}
	if len(body) > 0 {
		json.Unmarshal(body, &params)
	}
	str := func(k string) string {
		v, _ := params[k].(string)
		return v
	}

	switch parts[0] {
	case "url":
		if method == http.MethodGet {
			return s.url(), nil
		}
		u := str("url")
		g.logf(s.id, "get %s", u)
		if len(s.history) > 0 {
			s.history = s.history[:s.pos+1]
		}
		s.history = append(s.history, u)
		s.pos = len(s.history) - 1
		g.load(s, u)
		return nil, nil
	case "refresh":
		g.logf(s.id, "refresh")
		g.load(s, s.url())
		return nil, nil
	case "back":
		g.logf(s.id, "back")
		if s.pos > 0 {
			s.pos--
			g.load(s, s.url())
		}
		return nil, nil
	case "forward":
		g.logf(s.id, "forward")
		if s.pos < len(s.history)-1 {
			s.pos++
			g.load(s, s.url())
		}
		return nil, nil
	case "title":
		return g.pages[s.url()].Title, nil
	case "element", "elements":
		if len(parts) == 1 {
			return g.find(s, nil, parts[0] == "elements", str("using"), str("value"))
		}
		if parts[1] == "active" {
			return nil, &wdError{http.StatusNotFound, "no such element", "no active element"}
		}
		e, ok := s.byID[parts[1]]
		if !ok {
			return nil, &wdError{http.StatusNotFound, "stale element reference", "element " + parts[1] + " is not attached"}
		}
		return g.elementCommand(s, e, method, parts[2:], params)
	case "alert", "accept_alert", "dismiss_alert", "alert_text":
		op := parts[0]
		if op == "alert" && len(parts) > 1 {
			op = parts[1]
		}
		if s.alert == nil {
			return nil, &wdError{http.StatusNotFound, "no such alert", "no alert open"}
		}
		switch op {
		case "accept", "accept_alert":
			g.logf(s.id, "accept-alert")
			s.alert = nil
		case "dismiss", "dismiss_alert":
			g.logf(s.id, "dismiss-alert")
			s.alert = nil
		case "text", "alert_text":
			if method == http.MethodGet {
				return *s.alert, nil
			}
		}
		return nil, nil
	case "frame":
		if len(parts) > 1 && parts[1] == "parent" {
			s.frame = nil
			g.logf(s.id, "frame parent")
			return nil, nil
		}
		id := params["id"]
		if ref := elementIDOf(id); ref != "" {
			if _, ok := s.byID[ref]; !ok {
				return nil, &wdError{http.StatusNotFound, "no such frame", "element " + ref}
			}
			s.frame = ref
			g.logf(s.id, "frame %s", ref)
			return nil, nil
		}
		s.frame = id
		if id == nil {
			g.logf(s.id, "frame default")
		} else {
			g.logf(s.id, "frame %v", id)
		}
		return nil, nil
	case "execute":
		script := str("script")
		args, _ := params["args"].([]interface{})
		var target *Element
		if len(args) > 0 {
			target = s.byID[elementIDOf(args[0])]
		}
		switch {
		case target != nil && strings.Contains(script, ".click()"):
			g.logf(s.id, "js-click %s", target.id)
			g.click(s, target)
		case target != nil && strings.Contains(script, "scrollIntoView"):
			g.logf(s.id, "scroll %s", target.id)
		default:
			g.logf(s.id, "execute")
		}
		return nil, nil
	case "moveto", "buttondown", "buttonup", "click", "doubleclick":
		// JSON wire mouse commands; sessions here are always W3C.
		return nil, &wdError{http.StatusNotFound, "unknown command", "unknown command: " + strings.Join(parts, "/")}
	case "actions":
		if method == http.MethodDelete {
			g.logf(s.id, "release-actions")
			return nil, nil
		}
		return g.performActions(s, body)
	}
	// Timeouts, window handling and the rest are accepted and ignored.
	return nil, nil
}

// performActions checks a Perform Actions body and logs one event per
// action: "pointer-move <element>", "pointer-down <button>",
// "pointer-up <button>" or "pause".
func (g *Grid) performActions(s *sessionState, body []byte) (interface{}, *wdError) {
	var req struct {
		Actions []struct {
			Type       string `json:"type"`
			ID         string `json:"id"`
			Parameters struct {
				PointerType string `json:"pointerType"`
			} `json:"parameters"`
			Actions []map[string]interface{} `json:"actions"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Actions == nil {
		return nil, &wdError{http.StatusBadRequest, "invalid argument", "actions must be an array"}
	}
	var events []string
	for _, src := range req.Actions {
		if src.ID == "" {
			return nil, &wdError{http.StatusBadRequest, "invalid argument", "input source without id"}
		}
		for _, a := range src.Actions {
			typ, _ := a["type"].(string)
			switch {
			case typ == "pause":
				events = append(events, "pause")
			case src.Type == "pointer" && typ == "pointerMove":
				origin := "viewport"
				if o, ok := a["origin"].(map[string]interface{}); ok {
					id, _ := o[webElementIdentifier].(string)
					e, ok := s.byID[id]
					if !ok {
						return nil, &wdError{http.StatusNotFound, "no such element", "move origin " + id + " is not attached"}
					}
					if !s.displayed(e) {
						return nil, &wdError{http.StatusBadRequest, "move target out of bounds", "element " + id + " is not displayed"}
					}
					origin = id
				}
				events = append(events, "pointer-move "+origin)
			case src.Type == "pointer" && (typ == "pointerDown" || typ == "pointerUp"):
				button, ok := a["button"].(float64)
				if !ok {
					return nil, &wdError{http.StatusBadRequest, "invalid argument", typ + " without button"}
				}
				events = append(events, fmt.Sprintf("%s %d", map[string]string{"pointerDown": "pointer-down", "pointerUp": "pointer-up"}[typ], int(button)))
			default:
				return nil, &wdError{http.StatusBadRequest, "invalid argument", fmt.Sprintf("unsupported %s action %q", src.Type, typ)}
			}
		}
	}
	for _, e := range events {
		g.logf(s.id, "%s", e)
	}
	return nil, nil
}

func (g *Grid) find(s *sessionState, parent *Element, many bool, using, value string) (interface{}, *wdError) {
	scope := s.elems
	if parent != nil {
		scope = parent.children
	}
	var found []*Element
	for _, e := range scope {
		if !s.present(e) {
			continue
		}
		if parent != nil && using == "tag name" && strings.EqualFold(e.Tag, value) {
			found = append(found, e)
			continue
		}
		if e.Using == using && e.Selector == value {
			found = append(found, e)
		}
	}
	owner := "document"
	if parent != nil {
		owner = parent.id
	}
	if many {
		g.logf(s.id, "find-all %s %s=%s", owner, using, value)
		refs := make([]map[string]string, 0, len(found))
		for _, e := range found {
			refs = append(refs, elementRef(e))
		}
		return refs, nil
	}
	g.logf(s.id, "find %s %s=%s", owner, using, value)
	if len(found) == 0 {
		return nil, &wdError{http.StatusNotFound, "no such element", fmt.Sprintf("unable to locate element: %s=%s", using, value)}
	}
	return elementRef(found[0]), nil
}

func (g *Grid) click(s *sessionState, e *Element) {
	if strings.EqualFold(e.Tag, "option") && e.parent != nil {
		_, multi := e.parent.Attrs["multiple"]
		if !multi {
			for _, o := range e.parent.children {
				o.Selected = false
			}
			e.Selected = true
		} else {
			e.Selected = !e.Selected
		}
	}
	if e.Alert != "" {
		text := e.Alert
		s.alert = &text
	}
}

func (g *Grid) elementCommand(s *sessionState, e *Element, method string, parts []string, params map[string]interface{}) (interface{}, *wdError) {
	if len(parts) == 0 {
		return nil, &wdError{http.StatusNotFound, "unknown command", "element " + e.id}
	}
	interactable := func() *wdError {
		if !s.displayed(e) {
			return &wdError{http.StatusBadRequest, "element not interactable", "element " + e.id + " is not visible"}
		}
		if e.Disabled {
			return &wdError{http.StatusBadRequest, "invalid element state", "element " + e.id + " is disabled"}
		}
		return nil
	}
	switch parts[0] {
	case "element", "elements":
		using, _ := params["using"].(string)
		value, _ := params["value"].(string)
		return g.find(s, e, parts[0] == "elements", using, value)
	case "displayed":
		g.logf(s.id, "displayed %s", e.id)
		return s.displayed(e), nil
	case "enabled":
		g.logf(s.id, "enabled %s", e.id)
		return !e.Disabled, nil
	case "selected":
		return e.Selected, nil
	case "name":
		return e.Tag, nil
	case "text":
		g.logf(s.id, "text %s", e.id)
		if !s.displayed(e) {
			return "", nil
		}
		return e.Text, nil
	case "attribute", "property":
		if len(parts) < 2 {
			return nil, nil
		}
		if parts[1] == "value" {
			return e.Value, nil
		}
		if v, ok := e.Attrs[parts[1]]; ok {
			return v, nil
		}
		return nil, nil
	case "css":
		return "", nil
	case "click":
		if err := interactable(); err != nil {
			return nil, err
		}
		g.logf(s.id, "click %s", e.id)
		g.click(s, e)
		return nil, nil
	case "clear":
		if err := interactable(); err != nil {
			return nil, err
		}
		g.logf(s.id, "clear %s", e.id)
		e.Value = ""
		return nil, nil
	case "value":
		if method == http.MethodGet {
			return e.Value, nil
		}
		if err := interactable(); err != nil {
			return nil, err
		}
		text, ok := params["text"].(string)
		if !ok {
			if chars, ok := params["value"].([]interface{}); ok {
				var b strings.Builder
				for _, c := range chars {
					if s, ok := c.(string); ok {
						b.WriteString(s)
					}
				}
				text = b.String()
			}
		}
		g.logf(s.id, "sendkeys %s %s", e.id, text)
		e.Value += text
		return nil, nil
	case "location", "location_in_view", "rect":
		return map[string]interface{}{"x": 0, "y": 0, "width": 100, "height": 20}, nil
	case "size":
		return map[string]interface{}{"width": 100, "height": 20}, nil
	}
	return nil, nil
}
