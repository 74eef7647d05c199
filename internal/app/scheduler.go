package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// Scheduler periodically reconciles the desired state so that drift on
// the host is corrected.
type Scheduler struct {
	reconciler         *Reconciler
	source             DesiredSource
	interval           time.Duration
	reconcileOnStartup bool
	logger             *slog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval sets the reconcile interval.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithReconcileOnStartup sets whether to reconcile immediately on start.
func WithReconcileOnStartup(b bool) SchedulerOption {
	return func(s *Scheduler) {
		s.reconcileOnStartup = b
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a new Scheduler that reconciles whatever source
// yields on every tick.
func NewScheduler(reconciler *Reconciler, source DesiredSource, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		reconciler:         reconciler,
		source:             source,
		interval:           15 * time.Minute,
		reconcileOnStartup: true,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins the scheduler loop. It runs until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.stoppedCh)
		s.mu.Unlock()
	}()

	s.logger.Info("scheduler started",
		"interval", s.interval,
		"reconcile_on_startup", s.reconcileOnStartup,
	)

	if s.reconcileOnStartup {
		s.logger.Debug("reconciling on startup")
		s.reconciler.Reconcile(ctx, s.source)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping due to context cancellation")
			s.pushAgentDown()
			return ctx.Err()

		case <-s.stopCh:
			s.logger.Info("scheduler stopping due to stop signal")
			s.pushAgentDown()
			return nil

		case <-ticker.C:
			s.logger.Debug("interval triggered, reconciling")
			s.reconciler.Reconcile(ctx, s.source)
		}
	}
}

// Stop signals the scheduler to stop and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	stoppedCh := s.stoppedCh
	s.mu.Unlock()

	<-stoppedCh
}

// IsRunning returns true if the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// pushAgentDown reports the agent as down before it exits.
func (s *Scheduler) pushAgentDown() {
	pusher := s.reconciler.metricsPusher
	if pusher == nil {
		return
	}

	s.logger.Debug("pushing final metrics before shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	metrics := domain.NewMetrics(s.reconciler.hostname)
	metrics.AgentUp = false
	if err := pusher.Push(ctx, metrics); err != nil {
		s.logger.Warn("failed to push final metrics", "error", err)
	}
}
