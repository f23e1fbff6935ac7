package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docforge-hq/warden/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting the daemon.

Environment variable overrides (WARDEN_*) are applied before validation, so
the result reflects the effective configuration the daemon would run with.

Examples:
  # Validate the default config file
  warden validate

  # Validate a specific file
  warden validate --config /etc/warden/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fieldErr := range verr.Errors {
				fmt.Printf("  - %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			return fmt.Errorf("validation failed")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Listen address:   %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  Admission DB:     %s\n", cfg.Storage.AdmissionPath)
	fmt.Printf("  Jobs DB:          %s\n", cfg.Storage.JobsPath)
	if cfg.Blob.Bucket != "" {
		fmt.Printf("  Blob bucket:      %s\n", cfg.Blob.Bucket)
	}
	fmt.Printf("  Quota enabled:    %t\n", *cfg.Admission.Quota.Enabled)
	fmt.Printf("  Retention:        %t", *cfg.Retention.Enabled)
	if cfg.Retention.Schedule != "" {
		fmt.Printf(" (schedule %q)", cfg.Retention.Schedule)
	} else {
		fmt.Printf(" (every %s)", cfg.Retention.RunInterval)
	}
	fmt.Println()
	return nil
}
