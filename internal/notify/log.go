package notify

import (
	"context"
	"log/slog"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// LogNotifier records notifications in the agent log, so drift and
// failures are visible even without an Apprise server.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification at the matching level.
func (l *LogNotifier) Notify(ctx context.Context, n *domain.Notification) error {
	attrs := []any{"title", n.Title}
	if n.Host != "" {
		attrs = append(attrs, "host", n.Host)
	}
	if len(n.Services) > 0 {
		attrs = append(attrs, "services", n.Services)
	}
	l.logger.Log(ctx, logLevel(n.Level), "notification", attrs...)
	return nil
}

// Validate always succeeds.
func (l *LogNotifier) Validate(context.Context) error {
	return nil
}

func logLevel(level domain.NotificationLevel) slog.Level {
	switch level {
	case domain.NotificationLevelError:
		return slog.LevelError
	case domain.NotificationLevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

var _ domain.Notifier = (*LogNotifier)(nil)
