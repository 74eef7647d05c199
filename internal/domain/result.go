// Package domain defines core business types and interfaces.
package domain

import "time"

// Outcome classifies an apply sequence.
type Outcome string

const (
	// OutcomeApplied means every command succeeded.
	OutcomeApplied Outcome = "applied"
	// OutcomeNoop means there was nothing to apply.
	OutcomeNoop Outcome = "noop"
	// OutcomeFailed means a command failed or could not be started.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// ApplyResult is the aggregate outcome of feeding one command sequence to
// the executor. Commands run strictly in order and stop at the first
// failure; nothing is rolled back, so Applied is exactly the prefix of
// Commands that took effect.
type ApplyResult struct {
	Service   string        `json:"service"`
	Commands  []Command     `json:"commands"`
	Applied   []Command     `json:"applied"`
	Failed    *Command      `json:"failed,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// Diagnostic is the wrapper's raw output for the failed command.
	Diagnostic string `json:"diagnostic,omitempty"`

	// Err is the failure that stopped the sequence.
	Err error `json:"-"`
}

// NewApplyResult creates a new ApplyResult for the given command sequence.
func NewApplyResult(service string, cmds []Command) *ApplyResult {
	return &ApplyResult{
		Service:   service,
		Commands:  cmds,
		Applied:   make([]Command, 0, len(cmds)),
		StartTime: time.Now(),
	}
}

// Complete marks the result as complete and derives the outcome.
func (r *ApplyResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	switch {
	case r.Err != nil:
		r.Outcome = OutcomeFailed
	case len(r.Commands) == 0:
		r.Outcome = OutcomeNoop
	default:
		r.Outcome = OutcomeApplied
	}
}

// Success returns true unless the sequence failed.
func (r *ApplyResult) Success() bool {
	return r.Outcome != OutcomeFailed
}

// Remaining returns the commands that did not take effect, starting with
// the failed one, so a caller can resume the sequence.
func (r *ApplyResult) Remaining() []Command {
	if len(r.Applied) >= len(r.Commands) {
		return nil
	}
	return append([]Command(nil), r.Commands[len(r.Applied):]...)
}

// Error returns the failure message or an empty string.
func (r *ApplyResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ReconcileResult contains the results of one reconcile pass over many services.
type ReconcileResult struct {
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	DryRun    bool           `json:"dry_run"`
	Services  []*ApplyResult `json:"services"`
	Errors    []string       `json:"errors,omitempty"`
}

// NewReconcileResult creates a new ReconcileResult.
func NewReconcileResult(dryRun bool) *ReconcileResult {
	return &ReconcileResult{
		StartTime: time.Now(),
		DryRun:    dryRun,
		Services:  make([]*ApplyResult, 0),
		Errors:    make([]string, 0),
	}
}

// Add records the result for one service.
func (r *ReconcileResult) Add(result *ApplyResult) {
	if result != nil {
		r.Services = append(r.Services, result)
	}
}

// Complete marks the pass as complete.
func (r *ReconcileResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	r.Success = len(r.Errors) == 0
	for _, s := range r.Services {
		if !s.Success() {
			r.Success = false
		}
	}
}

// AddError adds an error to the reconcile result.
func (r *ReconcileResult) AddError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// Counts returns how many services ended in each outcome.
func (r *ReconcileResult) Counts() map[Outcome]int {
	counts := map[Outcome]int{OutcomeApplied: 0, OutcomeNoop: 0, OutcomeFailed: 0}
	for _, s := range r.Services {
		counts[s.Outcome]++
	}
	return counts
}
