package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

// MockExecutor is a mock implementation of domain.Executor for testing.
type MockExecutor struct {
	RunFunc      func(ctx context.Context, cmd domain.Command) (*domain.CommandResult, error)
	ValidateFunc func(ctx context.Context) error
	VersionFunc  func(ctx context.Context) (string, error)

	// Dumps holds canned dump output per service for the default Run.
	// A dump of a service not in the map fails like nssm does for an
	// unknown service.
	Dumps map[string]string

	mu    sync.Mutex
	calls []domain.Command
}

// Run records cmd and calls the mock RunFunc.
func (m *MockExecutor) Run(ctx context.Context, cmd domain.Command) (*domain.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, cmd)
	}

	result := &domain.CommandResult{Command: cmd}
	if cmd.Subcommand == domain.SubcommandDump {
		text, ok := m.Dumps[cmd.Service]
		if !ok {
			result.ExitCode = 3
			result.Diagnostic = "Can't open service!\r\n"
			return result, nil
		}
		result.Stdout = text
	}
	return result, nil
}

// Validate calls the mock ValidateFunc.
func (m *MockExecutor) Validate(ctx context.Context) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx)
	}
	return nil
}

// Version calls the mock VersionFunc.
func (m *MockExecutor) Version(ctx context.Context) (string, error) {
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx)
	}
	return "", errors.New("version not available")
}

// Calls returns every command passed to Run, in order.
func (m *MockExecutor) Calls() []domain.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Command(nil), m.calls...)
}

// Mutations returns the recorded commands that change persisted settings.
func (m *MockExecutor) Mutations() []domain.Command {
	var out []domain.Command
	for _, c := range m.Calls() {
		if c.Subcommand.Mutating() {
			out = append(out, c)
		}
	}
	return out
}

// Ensure MockExecutor implements domain.Executor.
var _ domain.Executor = (*MockExecutor)(nil)
