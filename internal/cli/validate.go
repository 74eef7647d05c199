package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/config"
	"github.com/sharkusmanch/nssmctl/internal/http"
	"github.com/sharkusmanch/nssmctl/internal/metrics"
	"github.com/sharkusmanch/nssmctl/internal/notify"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and test connectivity",
		Long: `Validate the configuration file and test connectivity to external services.

This checks:
- Config file syntax
- NSSM binary availability
- Desired state directory (if set)
- Pushgateway connectivity (if enabled)
- Apprise server connectivity (if enabled)`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration:")
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "  ✗ Config file: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "  ✓ Config file syntax valid\n")

	configPath, _ := config.DefaultConfigPath()
	if cfgFile != "" {
		configPath = cfgFile
	}
	fmt.Fprintf(out, "  Config file: %s\n", configPath)
	fmt.Fprintf(out, "  Templates: %s\n", cfg.TemplatesDir)
	fmt.Fprintf(out, "  Max parallel: %d\n", cfg.MaxParallel)
	fmt.Fprintf(out, "  Interval: %s\n", cfg.Interval)
	fmt.Fprintf(out, "  Install missing: %t\n", cfg.InstallMissing)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "  Metrics: enabled\n")
		fmt.Fprintf(out, "  Pushgateway URL: %s\n", cfg.Metrics.PushgatewayURL)
	} else {
		fmt.Fprintf(out, "  Metrics: disabled\n")
	}
	if cfg.Apprise.Enabled {
		fmt.Fprintf(out, "  Notifications: enabled\n")
		fmt.Fprintf(out, "  Apprise URL: %s\n", cfg.Apprise.URL)
		fmt.Fprintf(out, "  Notification level: %s\n", cfg.Apprise.Notify)
	} else {
		fmt.Fprintf(out, "  Notifications: disabled\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Checks:")
	logger, _ := setupLogging(cfg)

	nssm := newExecutor(cfg, logger)
	if err := nssm.Validate(ctx); err != nil {
		fmt.Fprintf(out, "  ✗ NSSM binary: %v\n", err)
	} else if line := wrapperVersion(ctx, nssm); line != "" {
		fmt.Fprintf(out, "  ✓ NSSM binary found: %s\n", line)
	} else {
		fmt.Fprintf(out, "  ✓ NSSM binary found\n")
	}

	if cfg.DesiredDir != "" {
		if err := cfg.ValidateAgent(); err != nil {
			fmt.Fprintf(out, "  ✗ Desired state: %v\n", err)
		} else {
			services, err := newStore(cfg).LoadDir(cfg.DesiredDir)
			if err != nil {
				fmt.Fprintf(out, "  ✗ Desired state: %v\n", err)
			} else {
				fmt.Fprintf(out, "  ✓ Desired state: %d services\n", len(services))
			}
		}
	}

	httpClient := http.NewClient(
		http.WithRetryConfig(http.RetryConfig{
			MaxAttempts:  1, // No retries for validation
			InitialDelay: time.Second,
			MaxDelay:     time.Second,
		}),
		http.WithLogger(logger),
	)

	if cfg.Metrics.Enabled {
		pushgatewayClient := metrics.NewPushgatewayClient(
			cfg.Metrics.PushgatewayURL,
			metrics.WithHTTPClient(httpClient),
			metrics.WithLogger(logger),
		)

		if err := pushgatewayClient.Validate(ctx); err != nil {
			fmt.Fprintf(out, "  ✗ Pushgateway: %v\n", err)
		} else {
			fmt.Fprintf(out, "  ✓ Pushgateway reachable\n")
		}
	}

	if cfg.Apprise.Enabled {
		appriseClient := notify.NewAppriseClient(
			cfg.Apprise.URL,
			cfg.Apprise.Key,
			notify.WithHTTPClient(httpClient),
			notify.WithLogger(logger),
		)

		if err := appriseClient.Validate(ctx); err != nil {
			fmt.Fprintf(out, "  ✗ Apprise server: %v\n", err)
		} else {
			fmt.Fprintf(out, "  ✓ Apprise server reachable\n")
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Validation complete.")
	return nil
}
