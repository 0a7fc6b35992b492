package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/blang/semver"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

// For mocking in tests.
var (
	osReadFile  = os.ReadFile
	osExpandEnv = os.ExpandEnv
)

// document mirrors the on-disk YAML layout.
type document struct {
	Browser *browserSection `yaml:"browser"`
	Env     *envSection     `yaml:"env"`
	Tunnel  *tunnelSection  `yaml:"tunnel"`
}

type browserSection struct {
	BrowserName    string                 `yaml:"browserName"`
	BrowserVersion string                 `yaml:"browserVersion"`
	RemoteURL      string                 `yaml:"remoteUrl"`
	HubURL         string                 `yaml:"hubUrl"` // older documents
	LTOptions      map[string]interface{} `yaml:"LT_Options"`
	Args           []string               `yaml:"args"`
	Headless       bool                   `yaml:"headless"`
	Logging        map[string]string      `yaml:"logging"`
	GridProxy      string                 `yaml:"gridProxy"`
}

type tunnelSection struct {
	Binary   string   `yaml:"binary"`
	Name     string   `yaml:"name"`
	InfoPort int      `yaml:"infoPort"`
	Args     []string `yaml:"args"`
}

type envSection struct {
	BaseURL  string `yaml:"BASE_URL"`
	LoginURL string `yaml:"LOGIN_URL"`
}

// versionKeywords are the browserVersion values grids resolve themselves.
var versionKeywords = regexp.MustCompile(`^(latest(-[0-9]+)?|beta|dev|stable|canary)$`)

// Load reads, expands and validates the YAML document at path. References of
// the form ${VAR} are substituted from the process environment before
// parsing.
func Load(path string) (*Config, error) {
	data, err := osReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Path: path, Err: ErrNotFound}
		}
		return nil, &Error{Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Path: path, Err: ErrEmpty}
	}
	return Parse(path, []byte(osExpandEnv(string(data))))
}

// Parse validates an already-read document. The path is used for error
// messages only.
func Parse(path string, data []byte) (*Config, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parsing YAML: %w", err)}
	}
	if doc.Browser == nil {
		if doc.Env == nil {
			return nil, &Error{Path: path, Err: ErrEmpty}
		}
		return nil, &Error{Path: path, Field: "browser", Err: ErrMissingField}
	}

	b := doc.Browser
	remote := b.RemoteURL
	if remote == "" {
		remote = b.HubURL
	}
	required := []struct{ field, value string }{
		{"browser.browserName", b.BrowserName},
		{"browser.browserVersion", b.BrowserVersion},
		{"browser.remoteUrl", remote},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &Error{Path: path, Field: r.field, Err: ErrMissingField}
		}
	}
	if err := validateVersion(b.BrowserVersion); err != nil {
		return nil, &Error{Path: path, Field: "browser.browserVersion", Err: err}
	}
	if err := validateURL(remote, "http", "https"); err != nil {
		return nil, &Error{Path: path, Field: "browser.remoteUrl", Err: err}
	}
	if b.GridProxy != "" {
		if err := validateURL(b.GridProxy, "socks5", "socks5h"); err != nil {
			return nil, &Error{Path: path, Field: "browser.gridProxy", Err: err}
		}
	}

	c := &Config{
		path: path,
		browser: BrowserConfig{
			BrowserName:    b.BrowserName,
			BrowserVersion: b.BrowserVersion,
			RemoteURL:      remote,
			VendorOptions:  cloneMap(b.LTOptions),
			Args:           append([]string(nil), b.Args...),
			Headless:       b.Headless,
			Logging:        b.Logging,
			GridProxy:      b.GridProxy,
		},
	}
	if doc.Env != nil {
		c.env = &Environment{BaseURL: doc.Env.BaseURL, LoginPath: doc.Env.LoginURL}
	}
	if t := doc.Tunnel; t != nil {
		if strings.TrimSpace(t.Binary) == "" {
			return nil, &Error{Path: path, Field: "tunnel.binary", Err: ErrMissingField}
		}
		if strings.TrimSpace(t.Name) == "" {
			return nil, &Error{Path: path, Field: "tunnel.name", Err: ErrMissingField}
		}
		if t.InfoPort < 0 || t.InfoPort > 65535 {
			return nil, &Error{Path: path, Field: "tunnel.infoPort", Err: fmt.Errorf("%w: port %d", ErrInvalidField, t.InfoPort)}
		}
		c.tunnel = &TunnelConfig{Binary: t.Binary, Name: t.Name, InfoPort: t.InfoPort, Args: append([]string(nil), t.Args...)}
		// Sessions must ask the grid to route through the tunnel.
		if c.browser.VendorOptions == nil {
			c.browser.VendorOptions = make(map[string]interface{})
		}
		if _, ok := c.browser.VendorOptions["tunnel"]; !ok {
			c.browser.VendorOptions["tunnel"] = true
			c.browser.VendorOptions["tunnelName"] = t.Name
		}
	}
	glog.V(1).Infof("Loaded config %s: browser=%s version=%s remote=%s", path, b.BrowserName, b.BrowserVersion, redact(remote))
	return c, nil
}

func validateVersion(v string) error {
	if versionKeywords.MatchString(strings.ToLower(v)) {
		return nil
	}
	if _, err := semver.ParseTolerant(v); err != nil {
		return fmt.Errorf("%w: browser version %q: %v", ErrInvalidField, v, err)
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidField, redact(raw))
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%w: scheme %q not one of %v", ErrInvalidField, u.Scheme, schemes)
}

// redact hides the password of a URL so that grid access keys stay out of
// logs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
