package svcconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/multierr"
)

// MaxIdentifierLength is the longest service name the wrapper accepts.
const MaxIdentifierLength = 256

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
	envNamePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// FieldError describes one violated field invariant.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field that failed validation.
type ValidationError struct {
	errs error
}

func (e *ValidationError) Error() string {
	fields := e.Fields()
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid service configuration: " + strings.Join(msgs, "; ")
}

// Fields returns the individual field errors in the order they were found.
func (e *ValidationError) Fields() []FieldError {
	errs := multierr.Errors(e.errs)
	out := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		if fe, ok := err.(*FieldError); ok {
			out = append(out, *fe)
		}
	}
	return out
}

// Has reports whether the named field path failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields() {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Unwrap exposes the individual *FieldError values to errors.As.
func (e *ValidationError) Unwrap() []error {
	return multierr.Errors(e.errs)
}

// ValidIdentifier reports whether s is a legal service identifier.
func ValidIdentifier(s string) bool {
	return len(s) >= 1 && len(s) <= MaxIdentifierLength && identifierPattern.MatchString(s)
}

// ValidEnvName reports whether s is a legal environment variable name.
func ValidEnvName(s string) bool {
	return envNamePattern.MatchString(s)
}

// ValidLogonIdentity reports whether s names a built-in account or a
// DOMAIN\User pair with both parts non-empty.
func ValidLogonIdentity(s string) bool {
	switch s {
	case LogonLocalSystem, LogonLocalService, LogonNetworkService:
		return true
	}
	domain, user, ok := strings.Cut(s, `\`)
	return ok && domain != "" && user != ""
}

// validator accumulates field errors.
type validator struct {
	errs error
}

func (v *validator) fail(field, format string, args ...any) {
	v.errs = multierr.Append(v.errs, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if v.errs == nil {
		return nil
	}
	return &ValidationError{errs: v.errs}
}

// mergeValidation joins the field errors of several validation failures
// into one *ValidationError. Nil errors are skipped.
func mergeValidation(errs ...error) error {
	v := &validator{}
	for _, err := range errs {
		var verr *ValidationError
		if errors.As(err, &verr) {
			v.errs = multierr.Append(v.errs, verr.errs)
		}
	}
	return v.err()
}

func (v *validator) identifier(field, s string) {
	switch {
	case s == "":
		v.fail(field, "must not be empty")
	case len(s) > MaxIdentifierLength:
		v.fail(field, "must be at most %d characters, got %d", MaxIdentifierLength, len(s))
	case !identifierPattern.MatchString(s):
		v.fail(field, "%q contains illegal characters (allowed: A-Z a-z 0-9 _ . -)", s)
	}
}

func (v *validator) path(field, s string) {
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		v.fail(field, "must not contain control characters")
	}
}

func (v *validator) nonNegative(field string, n int) {
	if n < 0 {
		v.fail(field, "must not be negative, got %d", n)
	}
}

// validate checks every field of f and normalises the exit action.
// It never touches the filesystem; see CheckEnvironment for that.
func validate(f *Fields) error {
	v := &validator{}

	v.identifier("identifier", f.Identifier)
	v.path("executable_path", f.ExecutablePath)
	v.path("working_directory", f.WorkingDirectory)
	v.path("stdout_path", f.StdoutPath)
	v.path("stderr_path", f.StderrPath)

	if a, ok := ParseExitAction(string(f.ExitAction)); ok {
		f.ExitAction = a
	} else {
		v.fail("exit_action", "%q must be one of Restart, Ignore, Exit, Suicide", f.ExitAction)
	}

	if !ValidLogonIdentity(f.LogonIdentity) {
		v.fail("logon_identity", `%q must be LocalSystem, LocalService, NetworkService or DOMAIN\User`, f.LogonIdentity)
	}
	if !f.StartMode.IsValid() {
		v.fail("start_mode", "%q is not a known start mode", f.StartMode)
	}
	if !f.ProcessType.IsValid() {
		v.fail("process_type", "%q is not a known process type", f.ProcessType)
	}
	if !f.PriorityClass.IsValid() {
		v.fail("priority_class", "%q is not a known priority class", f.PriorityClass)
	}

	for i, dep := range f.Dependencies {
		v.identifier(fmt.Sprintf("dependencies[%d]", i), dep)
	}

	seenEnv := make(map[string]bool, len(f.Environment))
	for _, e := range f.Environment {
		field := fmt.Sprintf("environment[%s]", e.Name)
		if !ValidEnvName(e.Name) {
			v.fail(field, "%q is not a valid variable name", e.Name)
		}
		if seenEnv[e.Name] {
			v.fail(field, "duplicate variable")
		}
		seenEnv[e.Name] = true
	}

	v.nonNegative("kill_console_delay", f.KillConsoleDelay)
	v.nonNegative("kill_window_delay", f.KillWindowDelay)
	v.nonNegative("kill_threads_delay", f.KillThreadsDelay)
	v.nonNegative("throttle_delay", f.ThrottleDelay)
	v.nonNegative("restart_delay", f.RestartDelay)
	v.nonNegative("rotate_seconds", f.RotateSeconds)
	v.nonNegative("rotate_bytes_low", f.RotateBytesLow)

	seenHook := make(map[string]bool, len(f.Hooks))
	for _, h := range f.Hooks {
		field := fmt.Sprintf("hooks[%s]", h.Event)
		if h.Event == "" || strings.ContainsAny(h.Event, " \t\"=") {
			v.fail(field, "event name must be a non-empty token")
		}
		if seenHook[h.Event] {
			v.fail(field, "duplicate event")
		}
		seenHook[h.Event] = true
	}

	return v.err()
}
