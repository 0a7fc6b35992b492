// Package steps binds the registration scenarios to the action layer. Each
// scenario gets its own session.Worker, so scenarios may run concurrently;
// the worker's browser session is opened on the first step that needs it and
// closed when the scenario ends.
package steps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang/glog"

	"github.com/ecomqa/uitest/internal/actions"
	"github.com/ecomqa/uitest/internal/dataset"
	"github.com/ecomqa/uitest/internal/session"
	"github.com/ecomqa/uitest/internal/webui"
)

// DefaultRow is the data row used when a step names none.
const DefaultRow = 1

// Suite holds what every scenario shares.
type Suite struct {
	Manager  *session.Manager
	Data     *dataset.Provider
	LoginURL string

	// FacadeOptions are applied to every scenario's façade.
	FacadeOptions []webui.Option
	// ShutdownTimeout bounds the session cleanup after the suite.
	ShutdownTimeout time.Duration
}

// Run executes the features selected by opts and returns godog's exit
// status: 0 on success.
func (s *Suite) Run(name string, opts *godog.Options) int {
	return godog.TestSuite{
		Name:                 name,
		TestSuiteInitializer: s.InitializeTestSuite,
		ScenarioInitializer:  s.InitializeScenario,
		Options:              opts,
	}.Run()
}

// InitializeTestSuite quits any session left open once all scenarios ran.
func (s *Suite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.AfterSuite(func() {
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Manager.Shutdown(sctx); err != nil {
			glog.Errorf("Closing leftover sessions: %v", err)
		}
	})
}

// InitializeScenario registers the step definitions for one scenario.
func (s *Suite) InitializeScenario(sc *godog.ScenarioContext) {
	st := &scenario{suite: s, worker: s.Manager.NewWorker()}

	sc.Before(st.before)
	sc.Given(`^(?:the )?user is (?:on|in) the login page$`, st.userIsOnTheLoginPage)
	sc.When(`^(?:the )?user fills? (?:the )?username and email(?: from row (\d+))?$`, st.userFillsUsernameAndEmail)
	sc.When(`^(?:the )?user clicks? (?:the )?signup button$`, st.userClicksSignupButton)
	sc.After(st.after)
}

// scenario is the per-scenario state.
type scenario struct {
	suite  *Suite
	worker *session.Worker
	flow   *actions.Register
}

func (st *scenario) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	glog.Infof("Scenario %q starting on worker %s", sc.Name, st.worker.ID())
	return ctx, nil
}

// register returns the scenario's flow, opening the browser session on first
// use.
func (st *scenario) register(ctx context.Context) (*actions.Register, error) {
	if st.flow != nil {
		return st.flow, nil
	}
	sess, err := st.worker.Session(ctx)
	if err != nil {
		return nil, err
	}
	opts := append([]webui.Option{webui.WithActions(sess)}, st.suite.FacadeOptions...)
	ui := webui.New(sess.WebDriver(), opts...)
	st.flow = actions.NewRegister(ui, st.suite.LoginURL)
	return st.flow, nil
}

func (st *scenario) userIsOnTheLoginPage(ctx context.Context) error {
	r, err := st.register(ctx)
	if err != nil {
		return err
	}
	if err := r.NavigateToLoginPage(); err != nil {
		return err
	}
	return r.VerifyLoginPage()
}

func (st *scenario) userFillsUsernameAndEmail(ctx context.Context, rowArg string) error {
	row := DefaultRow
	if rowArg != "" {
		n, err := strconv.Atoi(rowArg)
		if err != nil {
			return fmt.Errorf("bad row %q: %v", rowArg, err)
		}
		row = n
	}
	name, err := st.suite.Data.Username(row)
	if err != nil {
		return err
	}
	email, err := st.suite.Data.Email(row)
	if err != nil {
		return err
	}

	r, err := st.register(ctx)
	if err != nil {
		return err
	}
	if err := r.InputUsername(name); err != nil {
		return err
	}
	return r.InputEmail(email)
}

func (st *scenario) userClicksSignupButton(ctx context.Context) error {
	r, err := st.register(ctx)
	if err != nil {
		return err
	}
	return r.ClickSignup()
}

func (st *scenario) after(ctx context.Context, sc *godog.Scenario, stepErr error) (context.Context, error) {
	st.flow = nil
	if stepErr != nil {
		glog.Warningf("Scenario %q failed: %v", sc.Name, stepErr)
	}
	if err := st.worker.CloseSession(); err != nil {
		return ctx, err
	}
	glog.V(1).Infof("Scenario %q finished on worker %s", sc.Name, st.worker.ID())
	return ctx, nil
}
