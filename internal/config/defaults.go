// Package config handles application configuration loading and validation.
package config

import "time"

// Default configuration values.
const (
	DefaultCommandTimeout = 2 * time.Minute
	DefaultMaxParallel    = 4

	DefaultInterval           = 15 * time.Minute
	DefaultReconcileOnStartup = true
	DefaultInstallMissing     = false

	DefaultMetricsEnabled        = false
	DefaultMetricsPushgatewayURL = ""

	DefaultRetryMaxAttempts  = 3
	DefaultRetryInitialDelay = 5 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second

	DefaultAppriseEnabled = false
	DefaultAppriseURL     = ""
	DefaultAppriseKey     = ""
	DefaultAppriseNotify  = NotifyError

	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
)

// NotifyLevel represents when to send notifications.
type NotifyLevel string

const (
	// NotifyError sends notifications only when a service fails to reconcile.
	NotifyError NotifyLevel = "error"
	// NotifyWarning also notifies when a service drifted and was corrected.
	NotifyWarning NotifyLevel = "warning"
	// NotifyAlways sends notifications on every reconcile pass.
	NotifyAlways NotifyLevel = "always"
)

// IsValid returns true if the notify level is valid.
func (n NotifyLevel) IsValid() bool {
	switch n {
	case NotifyError, NotifyWarning, NotifyAlways:
		return true
	default:
		return false
	}
}

// String returns the string representation of the notify level.
func (n NotifyLevel) String() string {
	return string(n)
}
