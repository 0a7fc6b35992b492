package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecomqa/uitest/internal/config"
	"github.com/ecomqa/uitest/internal/session"
)

func newConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate a configuration and print the capabilities it requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			caps, err := session.BuildCapabilities(cfg.Browser())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(caps, "", "  ")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s\n", out)
			if u, err := cfg.LoginURL(); err == nil {
				fmt.Fprintf(w, "login page: %s\n", u)
			}
			if tc, ok := cfg.Tunnel(); ok {
				fmt.Fprintf(w, "tunnel: %s (%s)\n", tc.Name, tc.Binary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", defaultConfig, "YAML browser and grid configuration")
	return cmd
}
