package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// PerformActions sends a W3C "Perform Actions" command, whose body is the
// encoded {"actions": [...]} object, to the session's grid endpoint. The
// WebDriver client has no call for it, so the request goes out on the
// client's shared HTTP client.
func (s *Session) PerformActions(payload []byte) error {
	s.mu.Lock()
	state, wd := s.state, s.wd
	s.mu.Unlock()
	if state != Open {
		return &Error{Op: "actions", Worker: s.worker, Err: ErrNotOpen}
	}

	u := strings.TrimSuffix(s.mgr.remoteURL, "/") + "/session/" + wd.SessionID() + "/actions"
	req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: "actions", Worker: s.worker, Err: err}
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")
	req.Header.Set("Accept", "application/json")

	if s.mgr.debug {
		glog.Infof("-> POST %s\n%s", req.URL.Redacted(), payload)
	}
	resp, err := selenium.HTTPClient.Do(req)
	if err != nil {
		return &Error{Op: "actions", Worker: s.worker, Err: err}
	}
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: "actions", Worker: s.worker, Err: err}
	}
	if s.mgr.debug {
		glog.Infof("<- %s\n%s", resp.Status, buf)
	}
	if resp.StatusCode < 400 {
		return nil
	}
	return &Error{Op: "actions", Worker: s.worker, Err: remoteError(resp, buf)}
}

// remoteError decodes a W3C error reply into the client's error type so
// callers can inspect it the same way as errors from the WebDriver client.
func remoteError(resp *http.Response, buf []byte) error {
	var reply struct {
		Value struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := json.Unmarshal(buf, &reply); err != nil || reply.Value.Error == "" {
		return fmt.Errorf("bad server reply status: %s", resp.Status)
	}
	return &selenium.Error{
		Err:      reply.Value.Error,
		Message:  reply.Value.Message,
		HTTPCode: resp.StatusCode,
	}
}
