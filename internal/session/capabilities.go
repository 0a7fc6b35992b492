package session

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/log"

	"github.com/ecomqa/uitest/internal/config"
	"github.com/ecomqa/uitest/internal/lambdatest"
)

// Plugin is reported to the grid so sessions opened by this suite can be
// told apart in the dashboard.
const Plugin = "go-godog"

var logLevels = map[log.Level]bool{
	log.Off:     true,
	log.Severe:  true,
	log.Warning: true,
	log.Info:    true,
	log.Debug:   true,
	log.All:     true,
}

// BuildCapabilities turns browser settings into a new-session capability
// request. The vendor options from the configuration are sent under
// lambdatest.CapabilitiesKey and take precedence over the suite's defaults.
func BuildCapabilities(b config.BrowserConfig) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{
		"browserName":    b.BrowserName,
		"browserVersion": b.BrowserVersion,
	}

	lt := lambdatest.Capabilities{W3C: true, Plugin: Plugin}
	opts, err := lt.Merge(b.VendorOptions)
	if err != nil {
		return nil, fmt.Errorf("building %s: %v", lambdatest.CapabilitiesKey, err)
	}
	caps[lambdatest.CapabilitiesKey] = opts

	switch strings.ToLower(b.BrowserName) {
	case "chrome", "chromium", "microsoftedge":
		if len(b.Args) > 0 || b.Headless {
			c := chrome.Capabilities{
				Args: append([]string(nil), b.Args...),
				W3C:  true,
			}
			if b.Headless {
				c.Args = append(c.Args, "--headless=new")
			}
			caps.AddChrome(c)
		}
	case "firefox":
		if len(b.Args) > 0 || b.Headless {
			f := firefox.Capabilities{Args: append([]string(nil), b.Args...)}
			if b.Headless {
				f.Args = append(f.Args, "-headless")
			}
			caps.AddFirefox(f)
		}
	default:
		if len(b.Args) > 0 || b.Headless {
			return nil, fmt.Errorf("browser args and headless are not supported for %q", b.BrowserName)
		}
	}

	for typ, level := range b.Logging {
		l := log.Level(strings.ToUpper(level))
		if !logLevels[l] {
			return nil, fmt.Errorf("invalid log level %q for %q", level, typ)
		}
		caps.SetLogLevel(log.Type(typ), l)
	}
	return caps, nil
}
