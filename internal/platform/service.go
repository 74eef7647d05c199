// Package platform provides platform-specific service management.
package platform

import (
	"log/slog"

	"github.com/sharkusmanch/nssmctl/internal/domain"
)

const (
	// AgentServiceName is the default name of the nssmctl agent service.
	AgentServiceName = "nssmctl"

	agentDisplayName = "nssmctl agent"
	agentDescription = "Keeps NSSM-wrapped services in their desired configuration"
)

// ServiceManager queries and manages system services by name.
type ServiceManager = domain.ServiceManager

// InstallOptions contains options for installing the agent.
type InstallOptions = domain.InstallOptions

// ServiceStatus contains service status information.
type ServiceStatus = domain.ServiceStatus

// ServiceState represents service state.
type ServiceState = domain.ServiceState

// Service state constants.
const (
	ServiceStateUnknown      = domain.ServiceStateUnknown
	ServiceStateStopped      = domain.ServiceStateStopped
	ServiceStateStarting     = domain.ServiceStateStarting
	ServiceStateRunning      = domain.ServiceStateRunning
	ServiceStateStopping     = domain.ServiceStateStopping
	ServiceStatePaused       = domain.ServiceStatePaused
	ServiceStateNotInstalled = domain.ServiceStateNotInstalled
)

// Option configures a service manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func agentName(opts InstallOptions) string {
	if opts.Name != "" {
		return opts.Name
	}
	return AgentServiceName
}
