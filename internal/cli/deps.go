package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/sharkusmanch/nssmctl/internal/app"
	"github.com/sharkusmanch/nssmctl/internal/config"
	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/executor"
	"github.com/sharkusmanch/nssmctl/internal/http"
	"github.com/sharkusmanch/nssmctl/internal/metrics"
	"github.com/sharkusmanch/nssmctl/internal/notify"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
	"github.com/sharkusmanch/nssmctl/internal/templates"
)

// newExecutor builds the wrapper executor. Tests replace it.
var newExecutor = func(cfg *config.Config, logger *slog.Logger) domain.Executor {
	opts := []executor.NSSMOption{
		executor.WithLogger(logger),
		executor.WithTimeout(cfg.CommandTimeout),
	}
	if cfg.NSSMPath != "" {
		opts = append(opts, executor.WithBinaryPath(cfg.NSSMPath))
	}
	return executor.NewNSSMExecutor(opts...)
}

// hostFs is the filesystem templates, manifests and service logs are read from.
var hostFs = afero.NewOsFs()

func newHTTPClient(cfg *config.Config, logger *slog.Logger) *http.Client {
	return http.NewClient(
		http.WithRetryConfig(http.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		}),
		http.WithLogger(logger),
	)
}

func newNotifier(cfg *config.Config, client *http.Client, logger *slog.Logger) *notify.AppriseClient {
	return notify.NewAppriseClient(
		cfg.Apprise.URL,
		cfg.Apprise.Key,
		notify.WithHTTPClient(client),
		notify.WithTags(cfg.Apprise.Tags...),
		notify.WithLogger(logger),
	)
}

func newPusher(cfg *config.Config, client *http.Client, logger *slog.Logger) *metrics.PushgatewayClient {
	return metrics.NewPushgatewayClient(
		cfg.Metrics.PushgatewayURL,
		metrics.WithHTTPClient(client),
		metrics.WithLogger(logger),
	)
}

// newReconciler wires a reconciler. Reporting adds the metrics pusher when
// enabled and routes notifications to the log and, when enabled, Apprise.
// Interactive commands leave reporting off.
func newReconciler(cfg *config.Config, logger *slog.Logger, reporting bool) *app.Reconciler {
	opts := []app.ReconcilerOption{
		app.WithExecutor(newExecutor(cfg, logger)),
		app.WithLogger(logger),
	}

	if reporting {
		client := newHTTPClient(cfg, logger)
		if cfg.Metrics.Enabled {
			opts = append(opts, app.WithMetricsPusher(newPusher(cfg, client, logger)))
		}
		notifier := notify.NewMultiNotifier(logger).Add("log", notify.NewLogNotifier(logger))
		if cfg.Apprise.Enabled {
			notifier.Add("apprise", newNotifier(cfg, client, logger))
		}
		opts = append(opts, app.WithNotifier(notifier))
	}

	return app.NewReconciler(cfg, opts...)
}

func newStore(cfg *config.Config) *templates.Store {
	return templates.NewStore(cfg.TemplatesDir, templates.WithFs(hostFs))
}

// setup loads the config and builds the reconciler and template store
// used by the interactive commands.
func setup() (*config.Config, *app.Reconciler, *templates.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := slog.Default()
	return cfg, newReconciler(cfg, logger, false), newStore(cfg), nil
}

// loadTargets reads the desired configurations from a manifest file, or
// instantiates a template when one is named. name overrides the identifier
// and is only allowed for a single document.
func loadTargets(store *templates.Store, args []string, template, name string) ([]*svcconfig.Config, error) {
	if template != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--template cannot be combined with a manifest file")
		}
		if name == "" {
			return nil, fmt.Errorf("--name is required with --template")
		}
		cfg, err := store.Instantiate(template, name)
		if err != nil {
			return nil, err
		}
		return []*svcconfig.Config{cfg}, nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("expected one manifest file, got %d", len(args))
	}
	cfgs, err := store.LoadFile(args[0])
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("%s: no service documents", args[0])
	}
	if name != "" {
		if len(cfgs) > 1 {
			return nil, fmt.Errorf("--name needs a manifest with one service, %s has %d", args[0], len(cfgs))
		}
		cfg, err := cfgs[0].With(func(f *svcconfig.Fields) { f.Identifier = name })
		if err != nil {
			return nil, err
		}
		cfgs[0] = cfg
	}
	return cfgs, nil
}

// printReports writes each report's message and returns an error naming
// the failed services.
func printReports(w io.Writer, reports []*app.Report) error {
	var failed []string
	for _, r := range reports {
		fmt.Fprintln(w, r.Message())
		if !r.Success() {
			failed = append(failed, r.Plan.Service)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
