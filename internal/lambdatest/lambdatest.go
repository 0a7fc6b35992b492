// Package lambdatest holds the LambdaTest-specific capabilities sent with a
// new-session request, the helpers for building the grid address and a
// manager for the tunnel binary.
package lambdatest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// CapabilitiesKey is the vendor key under which LambdaTest expects its
// options in the W3C capabilities object.
const CapabilitiesKey = "LT:Options"

// Environment variables holding grid credentials.
const (
	UsernameEnv  = "LT_USERNAME"
	AccessKeyEnv = "LT_ACCESS_KEY"
)

// DefaultHub is the public LambdaTest WebDriver endpoint.
const DefaultHub = "https://hub.lambdatest.com/wd/hub"

// Addr returns the URL to use for driving a remote web browser on the public
// hub.
func Addr(userName, accessKey string) string {
	return fmt.Sprintf("https://%s:%s@hub.lambdatest.com/wd/hub", url.PathEscape(userName), url.PathEscape(accessKey))
}

// WithCredentials returns hub with the given credentials set as user info.
// A hub URL that already carries user info is returned unchanged, as is any
// URL when userName is empty.
func WithCredentials(hub, userName, accessKey string) (string, error) {
	u, err := url.Parse(hub)
	if err != nil {
		return "", fmt.Errorf("parsing hub URL: %v", err)
	}
	if u.User != nil || userName == "" {
		return hub, nil
	}
	u.User = url.UserPassword(userName, accessKey)
	return u.String(), nil
}

// CredentialsFromEnv reads LT_USERNAME and LT_ACCESS_KEY.
func CredentialsFromEnv() (userName, accessKey string) {
	return os.Getenv(UsernameEnv), os.Getenv(AccessKeyEnv)
}

// Capabilities are the options understood by the LambdaTest grid.
//
// See the following URL for more details of each configuration parameter:
// https://www.lambdatest.com/capabilities-generator/
type Capabilities struct {
	// Operating system and version the browser should run on, e.g.
	// "Windows 11".
	Platform string `json:"platformName,omitempty"`
	// Build groups sessions in the dashboard.
	Build string `json:"build,omitempty"`
	// Project groups builds in the dashboard.
	Project string `json:"project,omitempty"`
	// TestName is the name shown for this session.
	TestName string `json:"name,omitempty"`
	// User-defined tags for filtering sessions.
	Tags []string `json:"tags,omitempty"`
	// Screen resolution, e.g. "1920x1080".
	Resolution string `json:"resolution,omitempty"`
	// Selenium version the grid should use for this session.
	SeleniumVersion string `json:"selenium_version,omitempty"`
	// Timezone of the remote machine.
	TimeZone string `json:"timezone,omitempty"`

	// Set to true to run the session through a LambdaTest tunnel, and name it
	// when more than one tunnel is open.
	Tunnel     bool   `json:"tunnel,omitempty"`
	TunnelName string `json:"tunnelName,omitempty"`

	// Recording options.
	Video      *bool `json:"video,omitempty"`
	Visual     *bool `json:"visual,omitempty"`
	Network    *bool `json:"network,omitempty"`
	Console    *bool `json:"console,omitempty"`
	Screenshot *bool `json:"screenshot,omitempty"`

	// IdleTimeout is the number of seconds the grid waits for a new command
	// before ending the session.
	IdleTimeout int `json:"idleTimeout,omitempty"`

	// W3C requests a W3C protocol session.
	W3C bool `json:"w3c,omitempty"`

	// Plugin identifies the client integration in the dashboard.
	Plugin string `json:"plugin,omitempty"`
}

// ToMap returns the capabilities in a key/value structure.
func (c *Capabilities) ToMap() (map[string]interface{}, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge returns the typed capabilities overlaid with the free-form options.
// Keys in extra win over the typed fields.
func (c *Capabilities) Merge(extra map[string]interface{}) (map[string]interface{}, error) {
	m, err := c.ToMap()
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		m[k] = v
	}
	return m, nil
}
