package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/ecomqa/uitest/internal/config"
	"github.com/ecomqa/uitest/internal/dataset"
	"github.com/ecomqa/uitest/internal/lambdatest"
	"github.com/ecomqa/uitest/internal/session"
	"github.com/ecomqa/uitest/internal/steps"
	"github.com/ecomqa/uitest/internal/webui"
)

type runOptions struct {
	config      string
	data        string
	sheet       string
	tags        string
	format      string
	concurrency int
	strict      bool
	timeout     time.Duration
	shutdown    time.Duration
	debug       bool
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Run the feature files",
		Long: `Run the feature files (default: features) on the grid named in the
configuration. Every scenario gets its own browser session, closed when the
scenario ends; sessions still open on exit or on SIGINT/SIGTERM are quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.config, "config", defaultConfig, "YAML browser and grid configuration")
	f.StringVar(&o.data, "data", defaultData, "test data workbook")
	f.StringVar(&o.sheet, "sheet", dataset.DefaultSheet, "sheet of the test data workbook")
	f.StringVar(&o.tags, "tags", "", "tag expression selecting scenarios, e.g. @smoke")
	f.StringVar(&o.format, "format", "pretty", "godog formatter: pretty, progress, cucumber, junit")
	f.IntVar(&o.concurrency, "concurrency", 1, "scenarios run at the same time")
	f.BoolVar(&o.strict, "strict", true, "fail on undefined or pending steps")
	f.DurationVar(&o.timeout, "timeout", webui.DefaultTimeout, "wait timeout of every element operation")
	f.DurationVar(&o.shutdown, "shutdown-timeout", 30*time.Second, "time allowed to quit leftover sessions")
	f.BoolVar(&o.debug, "debug", false, "trace WebDriver requests")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, paths []string) error {
	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	loginURL, err := cfg.LoginURL()
	if err != nil {
		return err
	}
	if _, err := os.Stat(o.data); err != nil {
		return fmt.Errorf("test data: %v", err)
	}
	if tc, ok := cfg.Tunnel(); ok {
		user, key := lambdatest.CredentialsFromEnv()
		tun := &lambdatest.Tunnel{
			Path:        tc.Binary,
			UserName:    user,
			AccessKey:   key,
			Name:        tc.Name,
			InfoAPIPort: tc.InfoPort,
			Args:        tc.Args,
			Verbose:     o.debug,
		}
		if err := tun.Start(cmd.Context()); err != nil {
			return fmt.Errorf("starting tunnel %q: %v", tc.Name, err)
		}
		defer func() {
			if err := tun.Stop(); err != nil {
				glog.Errorf("Stopping tunnel %q: %v", tc.Name, err)
			}
		}()
	}
	m, err := session.NewManager(cfg, session.WithDebug(o.debug))
	if err != nil {
		return err
	}
	ctx, stop := m.CloseOnExit(cmd.Context(), o.shutdown, os.Interrupt, syscall.SIGTERM)
	defer func() {
		if err := stop(); err != nil {
			glog.Errorf("Closing sessions on exit: %v", err)
		}
	}()

	if len(paths) == 0 {
		paths = []string{"features"}
	}
	suite := &steps.Suite{
		Manager:         m,
		Data:            dataset.New(o.data, o.sheet),
		LoginURL:        loginURL,
		FacadeOptions:   []webui.Option{webui.WithTimeout(o.timeout)},
		ShutdownTimeout: o.shutdown,
	}
	glog.Infof("Running %v on %s %s (tags %q)", paths, cfg.Browser().BrowserName, cfg.Browser().BrowserVersion, o.tags)
	status := suite.Run("uitest", &godog.Options{
		Format:         o.format,
		Paths:          paths,
		Tags:           o.tags,
		Concurrency:    o.concurrency,
		Strict:         o.strict,
		Output:         cmd.OutOrStdout(),
		DefaultContext: ctx,
	})
	if status != 0 {
		return fmt.Errorf("suite failed with status %d", status)
	}
	return nil
}
