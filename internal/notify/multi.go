package notify

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

type sink struct {
	name     string
	notifier domain.Notifier
}

// MultiNotifier fans a notification out to named sinks. A failing sink
// does not stop delivery to the others.
type MultiNotifier struct {
	sinks  []sink
	logger *slog.Logger
}

// NewMultiNotifier creates a MultiNotifier with no sinks.
func NewMultiNotifier(logger *slog.Logger) *MultiNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiNotifier{logger: logger}
}

// Add registers a sink under name. A nil notifier is ignored, which lets
// callers pass optional sinks without branching.
func (m *MultiNotifier) Add(name string, n domain.Notifier) *MultiNotifier {
	if n == nil {
		return m
	}
	m.sinks = append(m.sinks, sink{name: name, notifier: n})
	return m
}

// Sinks returns the names of the registered sinks in delivery order.
func (m *MultiNotifier) Sinks() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.name
	}
	return names
}

// Notify delivers to every sink and returns the combined failures, each
// prefixed with the sink name.
func (m *MultiNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	var err error
	for _, s := range m.sinks {
		if serr := s.notifier.Notify(ctx, notification); serr != nil {
			m.logger.Warn("notifier failed", "sink", s.name, "error", serr)
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.name, serr))
		}
	}
	return err
}

// Validate checks every sink.
func (m *MultiNotifier) Validate(ctx context.Context) error {
	var err error
	for _, s := range m.sinks {
		if serr := s.notifier.Validate(ctx); serr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", s.name, serr))
		}
	}
	return err
}

var _ domain.Notifier = (*MultiNotifier)(nil)
