package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/navvy-ai/navvy/config"
)

var configFlag string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "navvy",
		Short:         "Navvy runs LLM-driven agent conversations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
	cmd.AddCommand(runCmd())
	cmd.AddCommand(capabilitiesCmd())
	cmd.AddCommand(conversationsCmd())
	return cmd
}

// loadConfig resolves the effective configuration. An explicit --config
// path must exist; otherwise the search paths are tried and built-in
// defaults apply when nothing is found.
func loadConfig() *config.Config {
	path, err := config.FindConfig(configFlag)
	if err != nil {
		if configFlag == "" {
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
