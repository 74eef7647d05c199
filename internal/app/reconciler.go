// Package app provides the core application logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sharkusmanch/nssmctl/internal/config"
	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/dump"
	"github.com/sharkusmanch/nssmctl/internal/plan"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

// ErrServiceNotFound is returned when the wrapper does not know the service.
var ErrServiceNotFound = errors.New("service not found")

// Reconciler brings services to a desired configuration.
type Reconciler struct {
	executor      domain.Executor
	applier       *Applier
	metricsPusher domain.MetricsPusher
	notifier      domain.Notifier
	config        *config.Config
	logger        *slog.Logger
	hostname      string
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithExecutor sets the executor.
func WithExecutor(e domain.Executor) ReconcilerOption {
	return func(r *Reconciler) {
		r.executor = e
	}
}

// WithMetricsPusher sets the metrics pusher.
func WithMetricsPusher(m domain.MetricsPusher) ReconcilerOption {
	return func(r *Reconciler) {
		r.metricsPusher = m
	}
}

// WithNotifier sets the notifier.
func WithNotifier(n domain.Notifier) ReconcilerOption {
	return func(r *Reconciler) {
		r.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// NewReconciler creates a new Reconciler.
func NewReconciler(cfg *config.Config, opts ...ReconcilerOption) *Reconciler {
	hostname, _ := os.Hostname()

	r := &Reconciler{
		config:   cfg,
		logger:   slog.Default(),
		hostname: hostname,
		notifier: &domain.NopNotifier{},
	}

	for _, opt := range opts {
		opt(r)
	}

	r.applier = NewApplier(r.executor,
		WithApplierLogger(r.logger),
		WithDryRun(cfg.DryRun),
	)

	return r
}

// Load reads the live configuration of a service from the wrapper's dump.
// Lines the parser could not use are logged and otherwise ignored.
func (r *Reconciler) Load(ctx context.Context, id string) (*svcconfig.Config, error) {
	p, err := plan.Lifecycle(domain.SubcommandDump, id)
	if err != nil {
		return nil, err
	}

	res, err := r.executor.Run(ctx, p.Commands[0])
	if err != nil {
		return nil, fmt.Errorf("failed to dump service %s: %w", id, err)
	}
	if !res.Success() {
		if isNotFound(res.Diagnostic) {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
		}
		return nil, fmt.Errorf("failed to dump service %s: %w", id, res.Err())
	}

	parsed, err := dump.Parse(res.Stdout)
	if err != nil {
		var pe *dump.ParseError
		if errors.As(err, &pe) {
			r.logSkipped(id, pe.Skipped)
		}
		return nil, fmt.Errorf("service %s: %w", id, err)
	}
	r.logSkipped(id, parsed.Skipped)

	cfg := parsed.Config
	switch {
	case cfg.Identifier() == id:
	case strings.EqualFold(cfg.Identifier(), id):
		// Service names are case-insensitive on the host.
		return cfg.With(func(f *svcconfig.Fields) { f.Identifier = id })
	default:
		return nil, fmt.Errorf("dump of %s describes service %s", id, cfg.Identifier())
	}
	return cfg, nil
}

func (r *Reconciler) logSkipped(id string, skipped []dump.LineError) {
	for _, s := range skipped {
		r.logger.Warn("skipped dump line",
			"service", id,
			"line", s.Line,
			"text", s.Text,
			"error", s.Err,
		)
	}
}

// isNotFound recognises the wrapper's message for an unknown service.
func isNotFound(diagnostic string) bool {
	d := strings.ToLower(diagnostic)
	return strings.Contains(d, "can't open service") ||
		strings.Contains(d, "does not exist")
}

// Plan computes the commands that bring the live service to target. When
// installMissing is set and the service does not exist, an install plan
// is returned instead.
func (r *Reconciler) Plan(ctx context.Context, target *svcconfig.Config, installMissing bool) (*plan.Plan, error) {
	baseline, err := r.Load(ctx, target.Identifier())
	switch {
	case errors.Is(err, ErrServiceNotFound) && installMissing:
		return plan.Synthesize(target, nil)
	case err != nil:
		return nil, err
	}
	return plan.Synthesize(target, baseline)
}

// Apply runs a plan that was computed earlier.
func (r *Reconciler) Apply(ctx context.Context, p *plan.Plan) *Report {
	return r.report(p, r.applier.Apply(ctx, p))
}

// Install registers a new service with the target configuration.
func (r *Reconciler) Install(ctx context.Context, target *svcconfig.Config) (*Report, error) {
	p, err := plan.Synthesize(target, nil)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, p), nil
}

// Edit changes an existing service to match target. Only differing
// settings are written.
func (r *Reconciler) Edit(ctx context.Context, target *svcconfig.Config) (*Report, error) {
	p, err := r.Plan(ctx, target, false)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, p), nil
}

// Ensure edits the service, installing it first if it is missing and the
// configuration allows that.
func (r *Reconciler) Ensure(ctx context.Context, target *svcconfig.Config) (*Report, error) {
	p, err := r.Plan(ctx, target, r.config.InstallMissing)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, p), nil
}

// Start starts a service.
func (r *Reconciler) Start(ctx context.Context, id string) (*Report, error) {
	return r.lifecycle(ctx, domain.SubcommandStart, id)
}

// Stop stops a service.
func (r *Reconciler) Stop(ctx context.Context, id string) (*Report, error) {
	return r.lifecycle(ctx, domain.SubcommandStop, id)
}

// Restart stops the service, ignoring a failure to stop it, and starts it
// again.
func (r *Reconciler) Restart(ctx context.Context, id string) (*Report, error) {
	r.stopQuietly(ctx, id)
	return r.lifecycle(ctx, domain.SubcommandStart, id)
}

// Remove stops the service, ignoring a failure to stop it, and removes it.
func (r *Reconciler) Remove(ctx context.Context, id string) (*Report, error) {
	r.stopQuietly(ctx, id)
	return r.lifecycle(ctx, domain.SubcommandRemove, id)
}

// Enable sets the service to start automatically.
func (r *Reconciler) Enable(ctx context.Context, id string) (*Report, error) {
	return r.setStartMode(ctx, id, svcconfig.StartAuto)
}

// Disable prevents the service from starting.
func (r *Reconciler) Disable(ctx context.Context, id string) (*Report, error) {
	return r.setStartMode(ctx, id, svcconfig.StartDisabled)
}

func (r *Reconciler) setStartMode(ctx context.Context, id string, mode svcconfig.StartMode) (*Report, error) {
	current, err := r.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	target, err := current.With(func(f *svcconfig.Fields) { f.StartMode = mode })
	if err != nil {
		return nil, err
	}
	p, err := plan.Synthesize(target, current)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, p), nil
}

func (r *Reconciler) lifecycle(ctx context.Context, op domain.Subcommand, id string) (*Report, error) {
	p, err := plan.Lifecycle(op, id)
	if err != nil {
		return nil, err
	}
	return r.Apply(ctx, p), nil
}

func (r *Reconciler) stopQuietly(ctx context.Context, id string) {
	rep, err := r.lifecycle(ctx, domain.SubcommandStop, id)
	switch {
	case err != nil:
		r.logger.Debug("stop skipped", "service", id, "error", err)
	case !rep.Success():
		r.logger.Debug("stop failed, continuing", "service", id, "error", rep.Result.Err)
	}
}

func (r *Reconciler) report(p *plan.Plan, res *domain.ApplyResult) *Report {
	return &Report{Plan: p, Result: res, DryRun: r.config.DryRun}
}

// DesiredSource yields the desired configurations for a reconcile pass.
// It may return valid configurations together with an error describing
// the ones it could not load.
type DesiredSource func(ctx context.Context) ([]*svcconfig.Config, error)

// Static returns a DesiredSource for a fixed set of configurations.
func Static(targets ...*svcconfig.Config) DesiredSource {
	return func(context.Context) ([]*svcconfig.Config, error) {
		return targets, nil
	}
}

// Reconcile ensures every configuration from source, then pushes metrics
// and sends notifications according to the configured level.
func (r *Reconciler) Reconcile(ctx context.Context, source DesiredSource) *domain.ReconcileResult {
	result := domain.NewReconcileResult(r.config.DryRun)

	r.logger.Info("starting reconcile", "dry_run", r.config.DryRun)

	targets, err := source(ctx)
	if err != nil {
		r.logger.Error("failed to load desired state", "error", err)
		result.AddError(err)
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			result.AddError(fmt.Errorf("reconcile interrupted: %w", err))
			break
		}

		rep, err := r.Ensure(ctx, target)
		if err != nil {
			r.logger.Error("reconcile failed", "service", target.Identifier(), "error", err)
			result.AddError(fmt.Errorf("%s: %w", target.Identifier(), err))
			continue
		}
		result.Add(rep.Result)
	}

	result.Complete()

	if err := r.pushMetrics(ctx, result); err != nil {
		r.logger.Error("failed to push metrics", "error", err)
		result.AddError(err)
	}

	if err := r.sendNotifications(ctx, result); err != nil {
		r.logger.Error("failed to send notification", "error", err)
	}

	counts := result.Counts()
	r.logger.Info("reconcile completed",
		"success", result.Success,
		"applied", counts[domain.OutcomeApplied],
		"unchanged", counts[domain.OutcomeNoop],
		"failed", counts[domain.OutcomeFailed],
		"duration", result.Duration,
	)

	return result
}

// pushMetrics sends metrics to the metrics pusher.
func (r *Reconciler) pushMetrics(ctx context.Context, result *domain.ReconcileResult) error {
	if r.metricsPusher == nil {
		return nil
	}

	return r.metricsPusher.Push(ctx, domain.MetricsFor(r.hostname, result))
}

// sendNotifications sends notifications based on the result and config.
func (r *Reconciler) sendNotifications(ctx context.Context, result *domain.ReconcileResult) error {
	if r.notifier == nil {
		return nil
	}

	var notification *domain.Notification
	level := r.config.Apprise.Notify
	counts := result.Counts()

	switch {
	case !result.Success:
		notification = domain.ErrorNotification("nssmctl reconcile failed", r.buildErrorMessage(result)).
			About(r.hostname, servicesWith(result, domain.OutcomeFailed)...)

	case counts[domain.OutcomeApplied] > 0 && (level == config.NotifyWarning || level == config.NotifyAlways):
		notification = domain.WarningNotification("nssmctl corrected drift", r.buildSuccessMessage(result)).
			About(r.hostname, servicesWith(result, domain.OutcomeApplied)...)

	case level == config.NotifyAlways:
		notification = domain.InfoNotification("nssmctl reconcile completed", r.buildSuccessMessage(result)).
			About(r.hostname, servicesWith(result, domain.OutcomeApplied)...)
	}

	if notification == nil {
		return nil
	}

	return r.notifier.Notify(ctx, notification)
}

func servicesWith(result *domain.ReconcileResult, outcome domain.Outcome) []string {
	var ids []string
	for _, s := range result.Services {
		if s.Outcome == outcome {
			ids = append(ids, s.Service)
		}
	}
	return ids
}

// buildErrorMessage builds an error notification message.
func (r *Reconciler) buildErrorMessage(result *domain.ReconcileResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconcile failed on %s.\n", r.hostname)

	for _, s := range result.Services {
		if s.Success() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", s.Service, s.Error())
	}
	for _, err := range result.Errors {
		fmt.Fprintf(&b, "Error: %s\n", err)
	}

	return b.String()
}

// buildSuccessMessage builds a success notification message.
func (r *Reconciler) buildSuccessMessage(result *domain.ReconcileResult) string {
	var b strings.Builder
	counts := result.Counts()
	fmt.Fprintf(&b, "Reconcile completed on %s.\n", r.hostname)
	fmt.Fprintf(&b, "Services: %d checked, %d updated, %d unchanged\n",
		len(result.Services), counts[domain.OutcomeApplied], counts[domain.OutcomeNoop])

	for _, s := range result.Services {
		if s.Outcome == domain.OutcomeApplied {
			fmt.Fprintf(&b, "Updated %s (%d commands)\n", s.Service, len(s.Applied))
		}
	}

	fmt.Fprintf(&b, "Duration: %s", result.Duration.Round(100*time.Millisecond))

	return b.String()
}
