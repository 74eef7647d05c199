package domain

import "context"

// ServiceState represents the state of a system service.
type ServiceState string

const (
	// ServiceStateUnknown indicates the state cannot be determined.
	ServiceStateUnknown ServiceState = "unknown"
	// ServiceStateStopped indicates the service is stopped.
	ServiceStateStopped ServiceState = "stopped"
	// ServiceStateStarting indicates the service is starting.
	ServiceStateStarting ServiceState = "starting"
	// ServiceStateRunning indicates the service is running.
	ServiceStateRunning ServiceState = "running"
	// ServiceStateStopping indicates the service is stopping.
	ServiceStateStopping ServiceState = "stopping"
	// ServiceStatePaused indicates the service is paused.
	ServiceStatePaused ServiceState = "paused"
	// ServiceStateNotInstalled indicates the service is not installed.
	ServiceStateNotInstalled ServiceState = "not_installed"
)

// String returns the string representation of the service state.
func (s ServiceState) String() string {
	return string(s)
}

// ServiceStatus contains information about a service's runtime status.
type ServiceStatus struct {
	// Name is the service identifier that was queried.
	Name string `json:"name"`

	// State is the current service state.
	State ServiceState `json:"state"`

	// PID is the process ID if running.
	PID int `json:"pid,omitempty"`

	// DisplayName is the name shown in the services console.
	DisplayName string `json:"display_name,omitempty"`

	// BinaryPath is the registered command line, normally the wrapper.
	BinaryPath string `json:"binary_path,omitempty"`

	// Message provides additional status information.
	Message string `json:"message,omitempty"`
}

// InstallOptions contains options for installing the nssmctl agent itself
// as a system service.
type InstallOptions struct {
	// Name is the service name to register.
	Name string

	// Username is the account to run the service as.
	Username string

	// Password is the password for the account.
	Password string

	// ConfigPath is the path to the config file.
	ConfigPath string

	// AutoStart enables automatic service start on boot.
	AutoStart bool
}

// ServiceManager defines the interface for querying and managing system services.
// Implementations are platform-specific.
type ServiceManager interface {
	// Install registers the nssmctl agent as a service.
	Install(ctx context.Context, opts InstallOptions) error

	// Uninstall removes the named service.
	Uninstall(ctx context.Context, name string) error

	// Start starts the named service.
	Start(ctx context.Context, name string) error

	// Stop stops the named service.
	Stop(ctx context.Context, name string) error

	// Status returns the current status of the named service.
	Status(ctx context.Context, name string) (*ServiceStatus, error)

	// IsSupported returns true if this service manager is supported on the current platform.
	IsSupported() bool
}
