package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharkusmanch/nssmctl/internal/app"
	"github.com/sharkusmanch/nssmctl/internal/config"
	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/platform"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconcile agent",
		Long: `Run the reconcile agent in the foreground.

Every interval, each YAML document in desired_dir is compared with the
live service and any drift is corrected. With install_missing set,
services that do not exist yet are installed.

Use Ctrl+C to stop. When started by the service control manager (see
"nssmctl agent install"), the agent runs as a Windows service.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	return cmd
}

// desiredSource reads desired_dir on every pass so edits are picked up
// without restarting the agent.
func desiredSource(cfg *config.Config) app.DesiredSource {
	store := newStore(cfg)
	return func(context.Context) ([]*svcconfig.Config, error) {
		return store.LoadDir(cfg.DesiredDir)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	reconciler := newReconciler(cfg, logger, true)
	scheduler := app.NewScheduler(reconciler, desiredSource(cfg),
		app.WithInterval(cfg.Interval),
		app.WithReconcileOnStartup(cfg.ReconcileOnStartup),
		app.WithSchedulerLogger(logger),
	)

	run := func(ctx context.Context) error {
		logger.Info("starting nssmctl agent",
			"desired_dir", cfg.DesiredDir,
			"install_missing", cfg.InstallMissing,
			"dry_run", cfg.DryRun,
		)
		err := scheduler.Start(ctx)
		logger.Info("nssmctl agent stopped")
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if platform.IsRunningAsService() {
		return platform.RunAsService(platform.AgentServiceName, run)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}
	return nil
}

// NewReconcileCmd creates the reconcile command.
func NewReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single reconcile pass",
		Long: `Run one reconcile pass over desired_dir and exit.

This does the same work as one serve interval, including metrics and
notifications, which makes it suitable for a scheduled task.`,
		Args: cobra.NoArgs,
		RunE: runReconcile,
	}

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.Default()
	reconciler := newReconciler(cfg, logger, true)

	result := reconciler.Reconcile(cmd.Context(), desiredSource(cfg))

	verb := "applied"
	if result.DryRun {
		verb = "planned"
	}

	out := cmd.OutOrStdout()
	for _, s := range result.Services {
		switch s.Outcome {
		case domain.OutcomeFailed:
			fmt.Fprintf(out, "%s: failed: %s\n", s.Service, s.Error())
		case domain.OutcomeNoop:
			fmt.Fprintf(out, "%s: in sync\n", s.Service)
		default:
			fmt.Fprintf(out, "%s: %d commands %s\n", s.Service, len(s.Applied), verb)
		}
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}

	if !result.Success {
		return fmt.Errorf("reconcile failed")
	}
	return nil
}
