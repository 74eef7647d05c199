// Package plan turns desired service configuration into the ordered
// wrapper commands that bring a service to that state.
package plan

import (
	"errors"
	"fmt"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/svcconfig"
)

var (
	// ErrNoExecutable is returned when installing a service without an executable path.
	ErrNoExecutable = errors.New("an executable path is required to install a service")

	// ErrIdentifierMismatch is returned when target and baseline describe different services.
	ErrIdentifierMismatch = errors.New("target and baseline describe different services")

	// ErrUnsupportedOperation is returned by Lifecycle for subcommands it does not build.
	ErrUnsupportedOperation = errors.New("unsupported lifecycle operation")
)

// Mode says how a plan was produced.
type Mode string

const (
	// ModeInstall plans a brand-new service.
	ModeInstall Mode = "install"
	// ModeEdit plans changes to an existing service.
	ModeEdit Mode = "edit"
	// ModeLifecycle is a single lifecycle command.
	ModeLifecycle Mode = "lifecycle"
)

// Outcome tells a plan with work in it apart from a no-op.
type Outcome string

const (
	// OutcomeChanges means the plan carries at least one command.
	OutcomeChanges Outcome = "changes"
	// OutcomeNoop means the service already matches the target.
	OutcomeNoop Outcome = "noop"
)

// Plan is an ordered command sequence for one service.
type Plan struct {
	Service  string           `json:"service"`
	Mode     Mode             `json:"mode"`
	Outcome  Outcome          `json:"outcome"`
	Commands []domain.Command `json:"commands"`
}

// IsNoop returns true if there is nothing to apply.
func (p *Plan) IsNoop() bool {
	return p.Outcome == OutcomeNoop
}

func newPlan(service string, mode Mode, cmds []domain.Command) *Plan {
	p := &Plan{Service: service, Mode: mode, Outcome: OutcomeChanges, Commands: cmds}
	if len(cmds) == 0 {
		p.Outcome = OutcomeNoop
	}
	return p
}

// Synthesize returns the commands that move a service from baseline to
// target. A nil baseline plans an install: one install command followed
// by a set command for every field that differs from its default.
// Otherwise only fields that differ from the baseline produce commands,
// and an empty result is reported as OutcomeNoop.
//
// Dependencies, environment and hooks are compared as a whole. When one
// differs, every current element is written again; elements that exist
// only in the baseline are not removed.
func Synthesize(target, baseline *svcconfig.Config) (*Plan, error) {
	if target == nil {
		return nil, errors.New("target configuration is required")
	}

	id := target.Identifier()
	t := target.Fields()

	if baseline == nil {
		if t.ExecutablePath == "" {
			return nil, fmt.Errorf("service %s: %w", id, ErrNoExecutable)
		}
		cmds := []domain.Command{domain.NewCommand(domain.SubcommandInstall, id, t.ExecutablePath)}
		defaults := svcconfig.DefaultFields()
		cmds = append(cmds, diff(id, &t, &defaults)...)
		return newPlan(id, ModeInstall, cmds), nil
	}

	if baseline.Identifier() != id {
		return nil, fmt.Errorf("%w: %s and %s", ErrIdentifierMismatch, id, baseline.Identifier())
	}

	b := baseline.Fields()
	var cmds []domain.Command
	if t.ExecutablePath != b.ExecutablePath {
		cmds = append(cmds, domain.NewCommand(domain.SubcommandSet, id, svcconfig.SettingApplication, t.ExecutablePath))
	}
	cmds = append(cmds, diff(id, &t, &b)...)
	return newPlan(id, ModeEdit, cmds), nil
}

func diff(id string, target, baseline *svcconfig.Fields) []domain.Command {
	var cmds []domain.Command
	for _, s := range settings {
		if !s.differs(target, baseline) {
			continue
		}
		for _, args := range s.emit(target) {
			cmds = append(cmds, domain.NewCommand(domain.SubcommandSet, id, args...))
		}
	}
	return cmds
}

// Lifecycle returns a single-command plan for start, stop, restart,
// remove or dump. Remove carries the confirmation the wrapper requires.
func Lifecycle(op domain.Subcommand, id string) (*Plan, error) {
	if !svcconfig.ValidIdentifier(id) {
		return nil, fmt.Errorf("invalid service identifier %q", id)
	}

	var cmd domain.Command
	switch op {
	case domain.SubcommandStart, domain.SubcommandStop, domain.SubcommandRestart, domain.SubcommandDump:
		cmd = domain.NewCommand(op, id)
	case domain.SubcommandRemove:
		cmd = domain.NewCommand(op, id, "confirm")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, op)
	}
	return newPlan(id, ModeLifecycle, []domain.Command{cmd}), nil
}
