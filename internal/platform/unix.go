//go:build !windows

package platform

import (
	"context"
	"errors"
)

// ErrUnsupported is returned for service operations on platforms without
// a Windows service control manager.
var ErrUnsupported = errors.New("service management is only supported on Windows")

// UnixServiceManager is a stub service manager for non-Windows platforms.
type UnixServiceManager struct {
	opts options
}

// NewServiceManager creates a new service manager for the current platform.
func NewServiceManager(opts ...Option) ServiceManager {
	return &UnixServiceManager{opts: buildOptions(opts)}
}

// IsSupported returns false on non-Windows platforms.
func (u *UnixServiceManager) IsSupported() bool {
	return false
}

// Install is not supported on non-Windows platforms.
func (u *UnixServiceManager) Install(_ context.Context, opts InstallOptions) error {
	u.opts.logger.Debug("agent install requested", "service", agentName(opts))
	return ErrUnsupported
}

// Uninstall is not supported on non-Windows platforms.
func (u *UnixServiceManager) Uninstall(_ context.Context, _ string) error {
	return ErrUnsupported
}

// Start is not supported on non-Windows platforms.
func (u *UnixServiceManager) Start(_ context.Context, _ string) error {
	return ErrUnsupported
}

// Stop is not supported on non-Windows platforms.
func (u *UnixServiceManager) Stop(_ context.Context, _ string) error {
	return ErrUnsupported
}

// Status reports an unknown state on non-Windows platforms.
func (u *UnixServiceManager) Status(_ context.Context, name string) (*ServiceStatus, error) {
	return &ServiceStatus{
		Name:    name,
		State:   ServiceStateUnknown,
		Message: "service status is only available on Windows",
	}, nil
}

// RunAsService is not supported on non-Windows platforms.
func RunAsService(_ string, _ func(ctx context.Context) error) error {
	return ErrUnsupported
}

// IsRunningAsService returns false on non-Windows platforms.
func IsRunningAsService() bool {
	return false
}
