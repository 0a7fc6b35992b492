package session

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/tebeka/selenium"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"github.com/ecomqa/uitest/internal/config"
	"github.com/ecomqa/uitest/internal/lambdatest"
)

// Dialer opens a remote WebDriver session. selenium.NewRemote is the
// default.
type Dialer func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)

// Option configures a Manager.
type Option func(*Manager) error

// WithDialer replaces the function used to open remote sessions.
func WithDialer(d Dialer) Option {
	return func(m *Manager) error {
		if d == nil {
			return fmt.Errorf("nil dialer")
		}
		m.dial = d
		return nil
	}
}

// WithCredentials sets the grid user name and access key. They are only
// applied when the configured remote URL carries no credentials of its own.
// Without this option, LT_USERNAME and LT_ACCESS_KEY are used.
func WithCredentials(userName, accessKey string) Option {
	return func(m *Manager) error {
		if userName == "" {
			return fmt.Errorf("empty grid user name")
		}
		m.user, m.key = userName, accessKey
		return nil
	}
}

// WithDebug enables wire-level tracing of WebDriver requests.
func WithDebug(debug bool) Option {
	return func(m *Manager) error {
		m.debug = debug
		return nil
	}
}

// Manager hands out Workers and owns every remote session they open. It is
// constructed once per test run by the entry point.
type Manager struct {
	browser   config.BrowserConfig
	remoteURL string
	dial      Dialer
	user, key string
	debug     bool

	mu       sync.Mutex
	live     map[*Session]struct{}
	shutdown bool
}

// NewManager validates the capability request derived from cfg and returns
// a Manager ready to open sessions.
//
// The WebDriver client keeps its HTTP client and debug switch in package
// variables, so both settings are process-wide: a gridProxy replaces
// selenium.HTTPClient and WithDebug(true) turns on selenium.SetDebug, and
// neither is undone. Managers in one process must therefore agree on the
// proxy; NewManager fails when another Manager's proxy is installed and cfg
// names a different one or none.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		browser: cfg.Browser(),
		dial:    selenium.NewRemote,
		live:    make(map[*Session]struct{}),
	}
	m.user, m.key = lambdatest.CredentialsFromEnv()
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	// Fail at construction rather than on the first scenario.
	if _, err := BuildCapabilities(m.browser); err != nil {
		return nil, &Error{Op: "open", Worker: "-", Err: err}
	}
	u, err := lambdatest.WithCredentials(m.browser.RemoteURL, m.user, m.key)
	if err != nil {
		return nil, &Error{Op: "open", Worker: "-", Err: err}
	}
	m.remoteURL = u

	if err := installProxy(m.browser.GridProxy); err != nil {
		return nil, &Error{Op: "open", Worker: "-", Err: err}
	}
	if m.debug {
		selenium.SetDebug(true)
	}
	return m, nil
}

// NewWorker returns a fresh per-worker context. Each concurrently running
// scenario must use its own Worker.
func (m *Manager) NewWorker() *Worker {
	return &Worker{id: uuid.NewString(), mgr: m}
}

// Live returns the number of sessions currently open.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func (m *Manager) open(ctx context.Context, worker string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "open", Worker: worker, Err: err}
	}
	m.mu.Lock()
	down := m.shutdown
	m.mu.Unlock()
	if down {
		return nil, &Error{Op: "open", Worker: worker, Err: ErrShutdown}
	}

	caps, err := BuildCapabilities(m.browser)
	if err != nil {
		return nil, &Error{Op: "open", Worker: worker, Err: err}
	}
	start := time.Now()
	wd, err := m.dial(caps, m.remoteURL)
	if err != nil {
		return nil, &Error{Op: "open", Worker: worker, Err: err}
	}

	s := &Session{worker: worker, mgr: m, state: Open, wd: wd, opened: time.Now()}
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		// Lost the race with Shutdown; do not leak the remote browser.
		if err := wd.Quit(); err != nil {
			glog.Warningf("Quitting session opened during shutdown: %v", err)
		}
		return nil, &Error{Op: "open", Worker: worker, Err: ErrShutdown}
	}
	m.live[s] = struct{}{}
	m.mu.Unlock()

	glog.Infof("Opened session %s for worker %s (%s %s) in %v", wd.SessionID(), worker, m.browser.BrowserName, m.browser.BrowserVersion, time.Since(start).Round(time.Millisecond))
	return s, nil
}

func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	delete(m.live, s)
	m.mu.Unlock()
}

// Shutdown quits every session that is still open and refuses new ones. It
// is the process exit hook for workers that did not clean up.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.shutdown = true
	sessions := make([]*Session, 0, len(m.live))
	for s := range m.live {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	if len(sessions) == 0 {
		return nil
	}
	glog.Warningf("Shutting down %d leaked session(s)", len(sessions))

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(s.Close)
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseOnExit runs Shutdown when one of sigs arrives or parent is done. With
// no sigs it listens for os.Interrupt and SIGTERM. The returned context is cancelled at that point so the run can stop early. The
// stop function runs Shutdown if it has not run yet and releases the signal
// handler; defer it from the entry point.
func (m *Manager) CloseOnExit(parent context.Context, timeout time.Duration, sigs ...os.Signal) (context.Context, func() error) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(parent, sigs...)
	var (
		once sync.Once
		err  error
	)
	shutdown := func() {
		once.Do(func() {
			sctx, scancel := context.WithTimeout(context.Background(), timeout)
			defer scancel()
			err = m.Shutdown(sctx)
		})
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		<-ctx.Done()
		shutdown()
	}()
	return ctx, func() error {
		cancel()
		<-finished
		shutdown()
		return err
	}
}

var (
	proxyMu  sync.Mutex
	proxyURL string
	proxyHC  *http.Client // the client installed for proxyURL
)

// installProxy points selenium.HTTPClient at the grid proxy raw.
func installProxy(raw string) error {
	proxyMu.Lock()
	defer proxyMu.Unlock()
	installed := proxyHC != nil && selenium.HTTPClient == proxyHC
	switch {
	case installed && raw == proxyURL:
		return nil
	case installed:
		return fmt.Errorf("grid proxy %s is already in use by this process", redact(proxyURL))
	case raw == "":
		return nil
	}
	c, err := proxyClient(raw)
	if err != nil {
		return err
	}
	selenium.HTTPClient = c
	proxyURL, proxyHC = raw, c
	return nil
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid)"
	}
	return u.Redacted()
}

func proxyClient(raw string) (*http.Client, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing grid proxy: %v", err)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("grid proxy %s: %v", u.Redacted(), err)
	}
	tr := &http.Transport{}
	if cd, ok := d.(proxy.ContextDialer); ok {
		tr.DialContext = cd.DialContext
	} else {
		tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return d.Dial(network, addr)
		}
	}
	return &http.Client{Transport: tr}, nil
}
