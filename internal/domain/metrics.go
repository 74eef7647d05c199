package domain

import (
	"context"
	"time"
)

// Metrics is one push to the metrics backend: the state of the agent and
// the apply results of the last reconcile pass.
type Metrics struct {
	Timestamp time.Time
	Hostname  string

	// AgentUp is false only for the final push before the agent exits.
	AgentUp bool

	// Results holds one apply result per reconciled service.
	Results []*ApplyResult

	// PassErrors counts failures outside any single service, such as an
	// unreadable desired-state document.
	PassErrors int

	// PassDuration is the wall time of the whole pass.
	PassDuration time.Duration
}

// NewMetrics creates an empty push for hostname with the agent up.
func NewMetrics(hostname string) *Metrics {
	return &Metrics{
		Timestamp: time.Now(),
		Hostname:  hostname,
		AgentUp:   true,
		Results:   make([]*ApplyResult, 0),
	}
}

// MetricsFor builds the push describing a completed reconcile pass.
func MetricsFor(hostname string, pass *ReconcileResult) *Metrics {
	m := NewMetrics(hostname)
	for _, s := range pass.Services {
		m.AddResult(s)
	}
	m.PassErrors = len(pass.Errors)
	m.PassDuration = pass.Duration
	return m
}

// AddResult adds an apply result; nil is ignored.
func (m *Metrics) AddResult(result *ApplyResult) {
	if result != nil {
		m.Results = append(m.Results, result)
	}
}

// Outcomes counts the results per outcome. Every outcome is present so
// gauges drop back to zero.
func (m *Metrics) Outcomes() map[Outcome]int {
	counts := map[Outcome]int{OutcomeApplied: 0, OutcomeNoop: 0, OutcomeFailed: 0}
	for _, r := range m.Results {
		counts[r.Outcome]++
	}
	return counts
}

// MetricsPusher sends metrics to a remote endpoint.
type MetricsPusher interface {
	Push(ctx context.Context, metrics *Metrics) error

	// Validate checks that the endpoint is reachable.
	Validate(ctx context.Context) error
}
