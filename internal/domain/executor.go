package domain

import "context"

// Executor hands commands to the service wrapper. NSSMExecutor runs the
// real binary; MockExecutor replays canned dumps in tests.
type Executor interface {
	// Run blocks until the wrapper exits. A rejected command comes back
	// as a result with a non-zero ExitCode and a nil error; the error is
	// for transport failures only and wraps ErrTransport.
	Run(ctx context.Context, cmd Command) (*CommandResult, error)

	// Validate reports whether the wrapper can be launched.
	Validate(ctx context.Context) error
}
