// Package config loads the browser and grid settings used to open remote
// WebDriver sessions, together with the target site's URLs.
package config

import (
	"strings"
)

// BrowserConfig holds the settings needed to request a remote browser.
type BrowserConfig struct {
	// BrowserName is the W3C browserName capability, e.g. "chrome".
	BrowserName string
	// BrowserVersion is the W3C browserVersion capability. Grid keywords such
	// as "latest" or "latest-1" are accepted alongside numeric versions.
	BrowserVersion string
	// RemoteURL is the WebDriver endpoint of the grid.
	RemoteURL string
	// VendorOptions are passed through to the grid under the vendor key
	// (LT:Options). Values are opaque to this package.
	VendorOptions map[string]interface{}

	// Args are extra command-line switches for the browser binary.
	Args []string
	// Headless requests a browser without a visible window.
	Headless bool
	// Logging maps a WebDriver log type ("browser", "driver", ...) to a level.
	Logging map[string]string
	// GridProxy is an optional socks5:// URL through which the grid is reached.
	GridProxy string
}

// TunnelConfig describes the LambdaTest tunnel started before a run so that
// grid browsers can reach hosts only visible from this machine.
type TunnelConfig struct {
	// Binary is the path of the tunnel executable ("LT").
	Binary string
	// Name identifies the tunnel; sessions request it through LT:Options.
	Name string
	// InfoPort is the local port of the tunnel's info API. Zero picks a
	// free port.
	InfoPort int
	// Args are extra command-line flags for the binary.
	Args []string
}

// Environment describes the site under test.
type Environment struct {
	BaseURL   string
	LoginPath string
}

// Config is the loaded, validated configuration. It is read-only after Load
// and safe for concurrent use.
type Config struct {
	path    string
	browser BrowserConfig
	env     *Environment
	tunnel  *TunnelConfig
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Browser returns a copy of the browser settings. Mutating the returned value
// does not affect c.
func (c *Config) Browser() BrowserConfig {
	b := c.browser
	b.VendorOptions = cloneMap(c.browser.VendorOptions)
	b.Args = append([]string(nil), c.browser.Args...)
	if c.browser.Logging != nil {
		b.Logging = make(map[string]string, len(c.browser.Logging))
		for k, v := range c.browser.Logging {
			b.Logging[k] = v
		}
	}
	return b
}

// Environment returns the site settings, if the document has an env block.
func (c *Config) Environment() (Environment, bool) {
	if c.env == nil {
		return Environment{}, false
	}
	return *c.env, true
}

// Tunnel returns the tunnel settings, if the document has a tunnel block.
func (c *Config) Tunnel() (TunnelConfig, bool) {
	if c.tunnel == nil {
		return TunnelConfig{}, false
	}
	t := *c.tunnel
	t.Args = append([]string(nil), c.tunnel.Args...)
	return t, true
}

// LoginURL returns the absolute URL of the login page. A login path starting
// with "/" is resolved against the base URL; any other value is used as is.
func (c *Config) LoginURL() (string, error) {
	if c.env == nil {
		return "", &Error{Path: c.path, Field: "env", Err: ErrMissingField}
	}
	p := c.env.LoginPath
	if p == "" {
		return "", &Error{Path: c.path, Field: "env.LOGIN_URL", Err: ErrMissingField}
	}
	if !strings.HasPrefix(p, "/") {
		return p, nil
	}
	if c.env.BaseURL == "" {
		return "", &Error{Path: c.path, Field: "env.BASE_URL", Err: ErrMissingField}
	}
	return strings.TrimRight(c.env.BaseURL, "/") + p, nil
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
