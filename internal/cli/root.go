// Package cli provides the command-line interface.
package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sharkusmanch/nssmctl/internal/config"
	"github.com/sharkusmanch/nssmctl/pkg/version"
)

var (
	cfgFile  string
	dryRun   bool
	logLevel string
	nssmPath string
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nssmctl",
		Short: "Declarative management of NSSM-wrapped Windows services",
		Long: `nssmctl manages Windows services wrapped by NSSM from declarative
YAML documents.

It reads a service's live configuration from "nssm dump", compares it with
the desired configuration and runs only the "nssm set" commands needed to
close the gap. It can also run as an agent that corrects drift on a
schedule.`,
		Version: version.Get().String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print the wrapper commands instead of running them")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&nssmPath, "nssm", "", "path to nssm.exe")

	rootCmd.AddCommand(NewInstallCmd())
	rootCmd.AddCommand(NewApplyCmd())
	rootCmd.AddCommand(NewPlanCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewCheckCmd())
	for _, op := range lifecycleOps {
		rootCmd.AddCommand(newLifecycleCmd(op))
	}
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewLogsCmd())
	rootCmd.AddCommand(NewTemplateCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewReconcileCmd())
	rootCmd.AddCommand(NewAgentCmd())
	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// initConfig sets up stderr logging until the config is loaded.
func initConfig() error {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel, slog.LevelInfo),
	})
	slog.SetDefault(slog.New(handler))

	return nil
}

// setupLogging configures logging for long-running commands based on the
// loaded config. The CLI flag overrides the configured level.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	level := parseLevel(cfg.Log.Level, slog.LevelInfo)
	level = parseLevel(logLevel, level)

	var output io.Writer = os.Stderr
	if cfg.Log.Output != "" {
		dir := filepath.Dir(cfg.Log.Output)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.Log.Output,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}

// loadConfig loads the application configuration.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()

	if cfgFile != "" {
		loader = loader.WithConfigPath(cfgFile)
	}

	if dryRun {
		loader.Set("dry_run", true)
	}
	if logLevel != "" {
		loader.Set("log.level", logLevel)
	}
	if nssmPath != "" {
		loader.Set("nssm_path", nssmPath)
	}

	return loader.Load()
}
