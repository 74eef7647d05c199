package app

import (
	"fmt"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/plan"
)

// Report pairs a plan with the result of applying it.
type Report struct {
	Plan   *plan.Plan
	Result *domain.ApplyResult
	DryRun bool
}

// Success returns true unless a command failed.
func (r *Report) Success() bool {
	return r.Result.Success()
}

// Message describes the outcome for a user. An edit that found nothing to
// change reports "no changes" rather than success.
func (r *Report) Message() string {
	res := r.Result
	id := res.Service

	if !res.Success() {
		if res.Failed == nil {
			return fmt.Sprintf("%s: stopped after %d of %d commands: %v",
				id, len(res.Applied), len(res.Commands), res.Err)
		}
		return fmt.Sprintf("%s: command %d of %d failed: %v",
			id, len(res.Applied)+1, len(res.Commands), res.Err)
	}

	if res.Outcome == domain.OutcomeNoop {
		return fmt.Sprintf("%s: no changes", id)
	}

	if r.DryRun {
		return fmt.Sprintf("%s: would run %d commands (dry run)", id, len(res.Commands))
	}

	switch r.Plan.Mode {
	case plan.ModeInstall:
		return fmt.Sprintf("%s: installed successfully", id)
	case plan.ModeLifecycle:
		return fmt.Sprintf("%s: %s succeeded", id, res.Commands[0].Subcommand)
	default:
		return fmt.Sprintf("%s: updated successfully (%d settings)", id, len(res.Applied))
	}
}
