package metrics

import (
	"context"
	"strings"
	"sync"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// MockPusher records pushed metrics for tests. It is safe for concurrent
// use.
type MockPusher struct {
	PushFunc     func(ctx context.Context, metrics *domain.Metrics) error
	ValidateFunc func(ctx context.Context) error

	mu     sync.Mutex
	pushed []*domain.Metrics
}

// Push records the metrics, then calls PushFunc if set.
func (m *MockPusher) Push(ctx context.Context, metrics *domain.Metrics) error {
	m.mu.Lock()
	m.pushed = append(m.pushed, metrics)
	m.mu.Unlock()

	if m.PushFunc != nil {
		return m.PushFunc(ctx, metrics)
	}
	return nil
}

// Validate calls ValidateFunc if set.
func (m *MockPusher) Validate(ctx context.Context) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx)
	}
	return nil
}

// Pushed returns a copy of the recorded pushes.
func (m *MockPusher) Pushed() []*domain.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Metrics(nil), m.pushed...)
}

// ResultFor returns the last pushed result for service, or nil.
func (m *MockPusher) ResultFor(service string) *domain.ApplyResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.pushed) - 1; i >= 0; i-- {
		for _, r := range m.pushed[i].Results {
			if strings.EqualFold(r.Service, service) {
				return r
			}
		}
	}
	return nil
}

var _ domain.MetricsPusher = (*MockPusher)(nil)
