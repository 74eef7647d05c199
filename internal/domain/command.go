package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Subcommand is a wrapper subcommand.
type Subcommand string

const (
	// SubcommandInstall registers a new service.
	SubcommandInstall Subcommand = "install"
	// SubcommandSet changes one persisted setting.
	SubcommandSet Subcommand = "set"
	// SubcommandRemove unregisters a service.
	SubcommandRemove Subcommand = "remove"
	// SubcommandStart starts a service.
	SubcommandStart Subcommand = "start"
	// SubcommandStop stops a service.
	SubcommandStop Subcommand = "stop"
	// SubcommandRestart restarts a service.
	SubcommandRestart Subcommand = "restart"
	// SubcommandDump prints every persisted setting of a service.
	SubcommandDump Subcommand = "dump"
)

// String returns the string representation of the subcommand.
func (s Subcommand) String() string {
	return string(s)
}

// Mutating reports whether the subcommand changes persisted settings.
func (s Subcommand) Mutating() bool {
	return s == SubcommandInstall || s == SubcommandSet || s == SubcommandRemove
}

// Command is one wrapper invocation: subcommand, service identifier and
// any further arguments.
type Command struct {
	Subcommand Subcommand `json:"subcommand"`
	Service    string     `json:"service"`
	Args       []string   `json:"args,omitempty"`
}

// NewCommand creates a command for the given service.
func NewCommand(sub Subcommand, service string, args ...string) Command {
	return Command{Subcommand: sub, Service: service, Args: args}
}

// Argv returns the argument vector passed to the wrapper executable.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+2)
	argv = append(argv, string(c.Subcommand), c.Service)
	return append(argv, c.Args...)
}

// String renders the command in dump syntax without the program token.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = QuoteArg(a)
	}
	return strings.Join(quoted, " ")
}

// QuoteArg wraps a token in double quotes when it is empty or contains
// whitespace. Backslashes are never escaped. A token that already carries
// balanced quotes is written as is: its quoted segments group themselves,
// and wrapping it again would split them apart.
func QuoteArg(s string) string {
	switch {
	case s == "":
		return `""`
	case strings.Contains(s, `"`) && strings.Count(s, `"`)%2 == 0:
		return s
	case strings.ContainsAny(s, " \t"):
		return `"` + s + `"`
	}
	return s
}

// CommandResult is the outcome of running one command.
type CommandResult struct {
	Command    Command       `json:"command"`
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Success returns true if the wrapper exited with status zero.
func (r *CommandResult) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Err returns a *CommandError for a failed result and nil otherwise.
func (r *CommandResult) Err() error {
	if r.Success() {
		return nil
	}
	return &CommandError{Command: r.Command, ExitCode: r.ExitCode, Diagnostic: r.Diagnostic}
}

var (
	// ErrTransport marks failures to launch or talk to the wrapper, as
	// opposed to the wrapper rejecting a command.
	ErrTransport = errors.New("wrapper transport failure")

	// ErrCommandFailed matches every *CommandError.
	ErrCommandFailed = errors.New("wrapper command failed")
)

// CommandError reports a command the wrapper rejected. Diagnostic is the
// wrapper's own output, verbatim.
type CommandError struct {
	Command    Command
	ExitCode   int
	Diagnostic string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: exit code %d", e.Command, e.ExitCode)
	if d := strings.TrimSpace(e.Diagnostic); d != "" {
		msg += ": " + d
	}
	return msg
}

// Is lets errors.Is match ErrCommandFailed.
func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}
