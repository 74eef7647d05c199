package notify

import (
	"context"
	"sync"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// MockNotifier records notifications for tests. It is safe for concurrent
// use.
type MockNotifier struct {
	NotifyFunc   func(ctx context.Context, notification *domain.Notification) error
	ValidateFunc func(ctx context.Context) error

	mu            sync.Mutex
	notifications []*domain.Notification
}

// Notify records the notification, then calls NotifyFunc if set.
func (m *MockNotifier) Notify(ctx context.Context, notification *domain.Notification) error {
	m.mu.Lock()
	m.notifications = append(m.notifications, notification)
	m.mu.Unlock()

	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, notification)
	}
	return nil
}

// Validate calls ValidateFunc if set.
func (m *MockNotifier) Validate(ctx context.Context) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx)
	}
	return nil
}

// Sent returns a copy of the recorded notifications.
func (m *MockNotifier) Sent() []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Notification(nil), m.notifications...)
}

// Last returns the most recent notification, or nil.
func (m *MockNotifier) Last() *domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notifications) == 0 {
		return nil
	}
	return m.notifications[len(m.notifications)-1]
}

// Levels returns the level of each recorded notification in order.
func (m *MockNotifier) Levels() []domain.NotificationLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make([]domain.NotificationLevel, len(m.notifications))
	for i, n := range m.notifications {
		levels[i] = n.Level
	}
	return levels
}

var _ domain.Notifier = (*MockNotifier)(nil)
