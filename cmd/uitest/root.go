package main

import (
	"flag"

	"github.com/spf13/cobra"
)

// Defaults shared by the subcommands.
const (
	defaultConfig = "config/config.yaml"
	defaultData   = "testdata/testdata.xlsx"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uitest",
		Short: "Run the registration UI suite on a remote Selenium grid",
		Long: `uitest drives a remote Selenium WebDriver grid through the
registration flow described by the feature files, using browser settings
from a YAML configuration and test data from an .xlsx workbook.`,
		SilenceUsage: true,
	}
	// glog registers its flags (-v, -logtostderr, ...) on the standard set.
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newDataCmd())
	return root
}
