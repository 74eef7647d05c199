//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const stopTimeout = 30 * time.Second

// WindowsServiceManager manages services through the service control manager.
type WindowsServiceManager struct {
	opts options
}

// NewServiceManager creates a new service manager for the current platform.
func NewServiceManager(opts ...Option) ServiceManager {
	return &WindowsServiceManager{opts: buildOptions(opts)}
}

// IsSupported returns true on Windows.
func (w *WindowsServiceManager) IsSupported() bool {
	return true
}

// Install registers the running nssmctl binary as a service that runs
// "serve".
func (w *WindowsServiceManager) Install(_ context.Context, opts InstallOptions) error {
	name := agentName(opts)

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	if s, err := m.OpenService(name); err == nil {
		s.Close()
		return fmt.Errorf("service %s already exists", name)
	}

	args := []string{"serve"}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}

	startType := uint32(mgr.StartManual)
	if opts.AutoStart {
		startType = uint32(mgr.StartAutomatic)
	}

	s, err := m.CreateService(name, exePath, mgr.Config{
		DisplayName:      agentDisplayName,
		Description:      agentDescription,
		StartType:        startType,
		ServiceStartName: opts.Username,
		Password:         opts.Password,
	}, args...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer s.Close()

	recovery := []mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: 60 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 60 * time.Second},
		{Type: mgr.ServiceRestart, Delay: 60 * time.Second},
	}
	if err := s.SetRecoveryActions(recovery, 86400); err != nil {
		w.opts.logger.Warn("failed to set recovery actions", "service", name, "error", err)
	}

	w.opts.logger.Info("agent service installed", "service", name, "binary", exePath, "args", args)
	return nil
}

// Uninstall stops the named service if needed and deletes it.
func (w *WindowsServiceManager) Uninstall(ctx context.Context, name string) error {
	m, s, err := open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if status, err := s.Query(); err == nil && status.State != svc.Stopped {
		if err := stopAndWait(ctx, s); err != nil {
			w.opts.logger.Warn("failed to stop service before removal", "service", name, "error", err)
		}
	}

	if err := s.Delete(); err != nil {
		return fmt.Errorf("failed to delete service %s: %w", name, err)
	}
	return nil
}

// Start starts the named service.
func (w *WindowsServiceManager) Start(_ context.Context, name string) error {
	m, s, err := open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start service %s: %w", name, err)
	}
	return nil
}

// Stop stops the named service and waits for it to reach the stopped state.
func (w *WindowsServiceManager) Stop(ctx context.Context, name string) error {
	m, s, err := open(name)
	if err != nil {
		return err
	}
	defer m.Disconnect()
	defer s.Close()

	return stopAndWait(ctx, s)
}

// Status returns the state, PID and registration of the named service.
func (w *WindowsServiceManager) Status(_ context.Context, name string) (*ServiceStatus, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
		return &ServiceStatus{
			Name:    name,
			State:   ServiceStateNotInstalled,
			Message: "service is not installed",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open service %s: %w", name, err)
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query service status: %w", err)
	}

	result := &ServiceStatus{
		Name:  name,
		State: mapState(status.State),
		PID:   int(status.ProcessId),
	}
	if cfg, err := s.Config(); err == nil {
		result.DisplayName = cfg.DisplayName
		result.BinaryPath = cfg.BinaryPathName
	} else {
		w.opts.logger.Debug("failed to read service config", "service", name, "error", err)
	}
	return result, nil
}

func open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to service manager: %w", err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		return nil, nil, fmt.Errorf("service %s not found: %w", name, err)
	}
	return m, s, nil
}

func stopAndWait(ctx context.Context, s *mgr.Service) error {
	status, err := s.Control(svc.Stop)
	if err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	deadline := time.Now().Add(stopTimeout)
	for status.State != svc.Stopped {
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for service to stop")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
		status, err = s.Query()
		if err != nil {
			return fmt.Errorf("failed to query service status: %w", err)
		}
	}
	return nil
}

func mapState(s svc.State) ServiceState {
	switch s {
	case svc.Stopped:
		return ServiceStateStopped
	case svc.StartPending, svc.ContinuePending:
		return ServiceStateStarting
	case svc.Running:
		return ServiceStateRunning
	case svc.StopPending, svc.PausePending:
		return ServiceStateStopping
	case svc.Paused:
		return ServiceStatePaused
	default:
		return ServiceStateUnknown
	}
}

// RunAsService runs handler under the service control manager. Stop and
// shutdown requests cancel the handler's context.
func RunAsService(name string, handler func(ctx context.Context) error) error {
	return svc.Run(name, &windowsService{handler: handler})
}

// IsRunningAsService returns true if running as a Windows service.
func IsRunningAsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// windowsService implements svc.Handler.
type windowsService struct {
	handler func(ctx context.Context) error
}

func (ws *windowsService) Execute(_ []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.handler(ctx)
	}()

	changes <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return true, 1
			}
			return false, 0

		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				changes <- svc.Status{State: svc.StopPending}
				cancel()
				<-errCh
				return false, 0
			}
		}
	}
}
