// Package executor provides implementations of the Executor interface.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/dump"
)

// NSSMExecutor implements Executor by running the nssm binary.
type NSSMExecutor struct {
	binaryPath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NSSMOption configures an NSSMExecutor.
type NSSMOption func(*NSSMExecutor)

// WithBinaryPath sets the path to the nssm binary.
func WithBinaryPath(path string) NSSMOption {
	return func(e *NSSMExecutor) {
		e.binaryPath = path
	}
}

// WithTimeout bounds every invocation. Zero means no limit.
func WithTimeout(d time.Duration) NSSMOption {
	return func(e *NSSMExecutor) {
		e.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) NSSMOption {
	return func(e *NSSMExecutor) {
		e.logger = logger
	}
}

// NewNSSMExecutor creates a new NSSMExecutor.
func NewNSSMExecutor(opts ...NSSMOption) *NSSMExecutor {
	e := &NSSMExecutor{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes one nssm command. A non-zero exit is returned as a result
// with the wrapper's diagnostic text; only failures to launch or wait for
// the process are returned as errors.
func (e *NSSMExecutor) Run(ctx context.Context, cmd domain.Command) (*domain.CommandResult, error) {
	path, err := e.getBinaryPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Debug("executing nssm", "path", path, "command", cmd.String())

	stdout, stderr, exitCode, elapsed, err := e.run(ctx, path, cmd.Argv()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrTransport, cmd, err)
	}

	result := &domain.CommandResult{
		Command:  cmd,
		ExitCode: exitCode,
		Stdout:   stdout,
		Duration: elapsed,
	}
	if exitCode != 0 {
		// nssm reports most errors on stderr but a few on stdout.
		result.Diagnostic = stderr
		if strings.TrimSpace(result.Diagnostic) == "" {
			result.Diagnostic = stdout
		}
	}

	e.logger.Debug("nssm finished",
		"command", cmd.String(),
		"exit_code", exitCode,
		"duration", elapsed,
	)

	return result, nil
}

// Version returns the version line nssm prints in its usage text.
func (e *NSSMExecutor) Version(ctx context.Context) (string, error) {
	path, err := e.getBinaryPath()
	if err != nil {
		return "", err
	}

	// nssm prints usage and exits non-zero when run without arguments.
	stdout, stderr, _, _, err := e.run(ctx, path)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Version") {
			return line, nil
		}
	}
	return "", fmt.Errorf("nssm did not report a version")
}

// Validate checks if nssm is properly configured and available.
func (e *NSSMExecutor) Validate(ctx context.Context) error {
	path, err := e.getBinaryPath()
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("nssm binary not found at %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("nssm binary path %s is a directory", path)
	}

	return nil
}

// run executes nssm with the given arguments and decodes its output.
func (e *NSSMExecutor) run(ctx context.Context, path string, args ...string) (stdout, stderr string, exitCode int, elapsed time.Duration, err error) {
	// #nosec G204 -- path is from config or auto-detected, arguments are validated settings
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = time.Second

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	start := time.Now()
	runErr := cmd.Run()
	elapsed = time.Since(start)

	stdout = dump.Decode(outBuf.Bytes())
	stderr = dump.Decode(errBuf.Bytes())

	if runErr != nil {
		if ctx.Err() != nil {
			return stdout, stderr, -1, elapsed, ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return stdout, stderr, exitErr.ExitCode(), elapsed, nil
		}
		return stdout, stderr, -1, elapsed, runErr
	}

	return stdout, stderr, 0, elapsed, nil
}

// getBinaryPath returns the path to the nssm binary.
func (e *NSSMExecutor) getBinaryPath() (string, error) {
	// Use configured path if set
	if e.binaryPath != "" {
		return e.binaryPath, nil
	}

	// Try to find in PATH
	path, err := exec.LookPath("nssm")
	if err == nil {
		return path, nil
	}

	// Try common locations based on OS
	candidates := e.getCommonPaths()
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("nssm not found in PATH or common locations")
}

// getCommonPaths returns common installation paths for nssm.
func (e *NSSMExecutor) getCommonPaths() []string {
	switch runtime.GOOS {
	case "windows":
		home := os.Getenv("USERPROFILE")
		arch := "win64"
		if runtime.GOARCH == "386" {
			arch = "win32"
		}
		return []string{
			filepath.Join(home, "scoop", "shims", "nssm.exe"),
			filepath.Join(home, "scoop", "apps", "nssm", "current", "nssm.exe"),
			filepath.Join(os.Getenv("ProgramData"), "chocolatey", "bin", "nssm.exe"),
			filepath.Join(os.Getenv("ProgramFiles"), "nssm", arch, "nssm.exe"),
			filepath.Join(os.Getenv("ProgramFiles"), "nssm", "nssm.exe"),
			"C:\\nssm\\" + arch + "\\nssm.exe",
		}
	default:
		// nssm only runs on Windows; a copy under Wine is the only option.
		home, _ := os.UserHomeDir()
		return []string{
			"/usr/local/bin/nssm",
			filepath.Join(home, ".local", "bin", "nssm"),
		}
	}
}

// Ensure NSSMExecutor implements domain.Executor.
var _ domain.Executor = (*NSSMExecutor)(nil)
