package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/im7mortal/kmutex"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/plan"
)

// Applier feeds plans to an executor one command at a time.
//
// Commands run strictly in order and the sequence stops at the first
// failure. Nothing is rolled back: the result records the prefix that took
// effect and Remaining reports what is left. Sequences for the same service
// never interleave.
type Applier struct {
	executor domain.Executor
	logger   *slog.Logger
	dryRun   bool
	locks    *kmutex.Kmutex
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithApplierLogger sets the logger.
func WithApplierLogger(l *slog.Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = l
	}
}

// WithDryRun logs commands instead of running them.
func WithDryRun(b bool) ApplierOption {
	return func(a *Applier) {
		a.dryRun = b
	}
}

// NewApplier creates a new Applier.
func NewApplier(executor domain.Executor, opts ...ApplierOption) *Applier {
	a := &Applier{
		executor: executor,
		logger:   slog.Default(),
		locks:    kmutex.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Apply runs the plan's commands. Cancelling ctx stops the sequence before
// the next command starts; a command that is already running is allowed to
// finish.
func (a *Applier) Apply(ctx context.Context, p *plan.Plan) *domain.ApplyResult {
	result := domain.NewApplyResult(p.Service, p.Commands)

	a.locks.Lock(p.Service)
	defer a.locks.Unlock(p.Service)

	for _, cmd := range p.Commands {
		if err := ctx.Err(); err != nil {
			result.Err = fmt.Errorf("interrupted before %s: %w", cmd, err)
			break
		}

		if a.dryRun {
			a.logger.Info("dry run: skipping command", "service", p.Service, "command", cmd.String())
			result.Applied = append(result.Applied, cmd)
			continue
		}

		res, err := a.executor.Run(context.WithoutCancel(ctx), cmd)
		if err != nil {
			failed := cmd
			result.Failed = &failed
			result.Err = err
			break
		}
		if !res.Success() {
			failed := cmd
			result.Failed = &failed
			result.Diagnostic = res.Diagnostic
			result.Err = res.Err()
			break
		}

		a.logger.Debug("command applied",
			"service", p.Service,
			"command", cmd.String(),
			"duration", res.Duration,
		)
		result.Applied = append(result.Applied, cmd)
	}

	result.Complete()

	if result.Success() {
		a.logger.Info("apply completed",
			"service", result.Service,
			"outcome", result.Outcome,
			"commands", len(result.Applied),
			"duration", result.Duration,
		)
	} else {
		a.logger.Warn("apply failed",
			"service", result.Service,
			"applied", len(result.Applied),
			"remaining", len(result.Remaining()),
			"error", result.Err,
		)
	}

	return result
}
