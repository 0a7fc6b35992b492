package lambdatest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/golang/glog"
)

// InfoPath is the readiness endpoint served by a running tunnel.
const InfoPath = "/api/v1.0/info"

// Tunnel manages an instance of the LambdaTest tunnel binary, which lets
// grid browsers reach HTTP endpoints visible only from the local machine.
type Tunnel struct {
	// Path is the path to the tunnel binary.
	Path string
	// UserName and AccessKey authenticate the tunnel with the grid.
	UserName, AccessKey string
	// Name identifies the tunnel; sessions select it with the tunnelName
	// capability.
	Name string
	// InfoAPIPort is the local port of the tunnel's info API, used to detect
	// readiness. Zero picks a free port.
	InfoAPIPort int
	// LogFile is where the binary should write its log.
	LogFile string
	// Verbose makes the binary log more and forwards its output to ours.
	Verbose bool
	// Args are additional arguments to provide to the binary.
	Args []string
	// Env is added to the environment of the binary.
	Env []string
	// StartTimeout bounds how long Start waits for readiness. Zero means one
	// minute.
	StartTimeout time.Duration

	cmd    *exec.Cmd
	exited chan struct{}
	err    error
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Start launches the tunnel and waits until its info API answers.
func (t *Tunnel) Start(ctx context.Context) error {
	if t.InfoAPIPort == 0 {
		p, err := freePort()
		if err != nil {
			return fmt.Errorf("picking tunnel info port: %v", err)
		}
		t.InfoAPIPort = p
	}
	args := append([]string(nil), t.Args...)
	if t.UserName != "" {
		args = append(args, "--user", t.UserName)
	}
	if t.AccessKey != "" {
		args = append(args, "--key", t.AccessKey)
	}
	if t.Name != "" {
		args = append(args, "--tunnelName", t.Name)
	}
	args = append(args, "--infoAPIPort", strconv.Itoa(t.InfoAPIPort))
	if t.LogFile != "" {
		args = append(args, "--logFile", t.LogFile)
	}
	t.cmd = exec.Command(t.Path, args...)
	if t.Verbose {
		t.cmd.Args = append(t.cmd.Args, "--verbose")
		t.cmd.Stdout = os.Stdout
		t.cmd.Stderr = os.Stderr
	}
	if len(t.Env) > 0 {
		t.cmd.Env = append(os.Environ(), t.Env...)
	}
	if err := t.cmd.Start(); err != nil {
		return err
	}
	t.exited = make(chan struct{})
	go func() {
		t.err = t.cmd.Wait()
		close(t.exited)
	}()

	timeout := t.StartTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		if t.ready(ctx) {
			glog.Infof("Tunnel %q is up (info API on port %d)", t.Name, t.InfoAPIPort)
			return nil
		}
		select {
		case <-t.exited:
			return fmt.Errorf("tunnel process exited before becoming ready: %v", t.err)
		case <-ctx.Done():
			t.Stop() // ignore error.
			return fmt.Errorf("tunnel did not become ready: %v", ctx.Err())
		case <-tick.C:
		}
	}
}

// InfoURL returns the URL of the tunnel's info API.
func (t *Tunnel) InfoURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", t.InfoAPIPort, InfoPath)
}

func (t *Tunnel) ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.InfoURL(), nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stop terminates the tunnel process and waits for it to exit.
func (t *Tunnel) Stop() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}
	select {
	case <-t.exited:
		return nil
	default:
	}
	if err := t.cmd.Process.Kill(); err != nil {
		return err
	}
	<-t.exited
	glog.V(1).Infof("Tunnel %q stopped", t.Name)
	return nil
}
