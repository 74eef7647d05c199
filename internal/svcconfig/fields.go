// Package svcconfig models the desired parameters of one NSSM-managed
// Windows service and enforces their field-level invariants.
package svcconfig

import "strings"

// ExitAction is what the wrapper does when the application exits.
type ExitAction string

const (
	ExitRestart ExitAction = "Restart"
	ExitIgnore  ExitAction = "Ignore"
	ExitExit    ExitAction = "Exit"
	ExitSuicide ExitAction = "Suicide"
)

// ExitActionQualifier is the token the wrapper pairs with the default exit action.
const ExitActionQualifier = "Default"

// IsValid returns true if the exit action is one of the known actions.
func (a ExitAction) IsValid() bool {
	switch a {
	case ExitRestart, ExitIgnore, ExitExit, ExitSuicide:
		return true
	default:
		return false
	}
}

// ParseExitAction accepts an action with or without the leading
// "Default " qualifier and returns the bare action.
func ParseExitAction(s string) (ExitAction, bool) {
	s = strings.TrimPrefix(s, ExitActionQualifier+" ")
	a := ExitAction(s)
	return a, a.IsValid()
}

// StartMode is the service start type.
type StartMode string

const (
	StartAuto        StartMode = "SERVICE_AUTO_START"
	StartDelayedAuto StartMode = "SERVICE_DELAYED_AUTO_START"
	StartDemand      StartMode = "SERVICE_DEMAND_START"
	StartDisabled    StartMode = "SERVICE_DISABLED"
)

// IsValid returns true if the start mode is one of the known modes.
func (m StartMode) IsValid() bool {
	switch m {
	case StartAuto, StartDelayedAuto, StartDemand, StartDisabled:
		return true
	default:
		return false
	}
}

// ProcessType is the service process type.
type ProcessType string

const (
	ProcessOwn         ProcessType = "SERVICE_WIN32_OWN_PROCESS"
	ProcessInteractive ProcessType = "SERVICE_INTERACTIVE_PROCESS"
)

// IsValid returns true if the process type is one of the known types.
func (t ProcessType) IsValid() bool {
	return t == ProcessOwn || t == ProcessInteractive
}

// PriorityClass is the Windows priority class of the application process.
type PriorityClass string

const (
	PriorityRealtime    PriorityClass = "REALTIME_PRIORITY_CLASS"
	PriorityHigh        PriorityClass = "HIGH_PRIORITY_CLASS"
	PriorityAboveNormal PriorityClass = "ABOVE_NORMAL_PRIORITY_CLASS"
	PriorityNormal      PriorityClass = "NORMAL_PRIORITY_CLASS"
	PriorityBelowNormal PriorityClass = "BELOW_NORMAL_PRIORITY_CLASS"
	PriorityIdle        PriorityClass = "IDLE_PRIORITY_CLASS"
)

// IsValid returns true if the priority class is one of the six known classes.
func (p PriorityClass) IsValid() bool {
	switch p {
	case PriorityRealtime, PriorityHigh, PriorityAboveNormal,
		PriorityNormal, PriorityBelowNormal, PriorityIdle:
		return true
	default:
		return false
	}
}

// Built-in logon accounts.
const (
	LogonLocalSystem    = "LocalSystem"
	LogonLocalService   = "LocalService"
	LogonNetworkService = "NetworkService"
)

// EnvVar is one environment override passed to the application.
type EnvVar struct {
	Name  string
	Value string
}

// Hook binds an action command to a lifecycle event such as Start_Pre.
type Hook struct {
	Event  string
	Action string
}

// Fields is the raw, unvalidated field map of a service configuration.
// Pass it to New to obtain a validated Config.
type Fields struct {
	Identifier       string
	ExecutablePath   string
	Arguments        string
	WorkingDirectory string
	ExitAction       ExitAction
	DisplayName      string
	Description      string
	LogonIdentity    string
	StartMode        StartMode
	ProcessType      ProcessType
	Dependencies     []string
	PriorityClass    PriorityClass
	StdoutPath       string
	StderrPath       string
	Environment      []EnvVar

	// Shutdown
	KillConsoleDelay int
	KillWindowDelay  int
	KillThreadsDelay int
	KillProcessTree  bool

	// Exit
	ThrottleDelay int
	RestartDelay  int

	// Rotation
	RotateFiles    bool
	RotateOnline   bool
	RotateSeconds  int
	RotateBytesLow int

	// Hooks
	HookShareOutputHandles bool
	Hooks                  []Hook
}

// DefaultFields returns the field values of a brand-new service.
// The identifier is left empty.
func DefaultFields() Fields {
	return Fields{
		ExitAction:    ExitRestart,
		LogonIdentity: LogonLocalSystem,
		StartMode:     StartAuto,
		ProcessType:   ProcessOwn,
		PriorityClass: PriorityNormal,
	}
}

// Env returns the value of the named environment override.
func (f *Fields) Env(name string) (string, bool) {
	for _, v := range f.Environment {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// SetEnv inserts or replaces an environment override, keeping the
// position of an existing name.
func (f *Fields) SetEnv(name, value string) {
	for i := range f.Environment {
		if f.Environment[i].Name == name {
			f.Environment[i].Value = value
			return
		}
	}
	f.Environment = append(f.Environment, EnvVar{Name: name, Value: value})
}

// Hook returns the action bound to an event.
func (f *Fields) Hook(event string) (string, bool) {
	for _, h := range f.Hooks {
		if h.Event == event {
			return h.Action, true
		}
	}
	return "", false
}

// SetHook inserts or replaces the action bound to an event.
func (f *Fields) SetHook(event, action string) {
	for i := range f.Hooks {
		if f.Hooks[i].Event == event {
			f.Hooks[i].Action = action
			return
		}
	}
	f.Hooks = append(f.Hooks, Hook{Event: event, Action: action})
}

// clone returns a deep copy so callers never share backing arrays.
func (f Fields) clone() Fields {
	out := f
	if f.Dependencies != nil {
		out.Dependencies = append([]string(nil), f.Dependencies...)
	}
	if f.Environment != nil {
		out.Environment = append([]EnvVar(nil), f.Environment...)
	}
	if f.Hooks != nil {
		out.Hooks = append([]Hook(nil), f.Hooks...)
	}
	return out
}
