package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - admission control and resource governance daemon",
	Long: `Warden is the admission control and resource governance daemon for the
DocForge conversion service.

It provides:
  - Tiered rate limit policy resolution with per-user overrides
  - Monthly conversion and byte quota accounting
  - Retention reconciliation for expired conversion jobs
  - Prometheus metrics and health endpoints`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
