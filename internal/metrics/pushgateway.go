// Package metrics provides implementations for pushing metrics to remote endpoints.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"strings"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/http"
	"github.com/sharkusmanch/nssmctl/pkg/version"
)

const (
	metricsJobName = "nssmctl"
	contentType    = "text/plain; charset=utf-8"
)

// PushgatewayClient pushes metrics to a Prometheus Pushgateway.
type PushgatewayClient struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// PushgatewayOption configures a PushgatewayClient.
type PushgatewayOption func(*PushgatewayClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PushgatewayOption {
	return func(p *PushgatewayClient) {
		p.logger = logger
	}
}

// NewPushgatewayClient creates a new PushgatewayClient.
func NewPushgatewayClient(url string, opts ...PushgatewayOption) *PushgatewayClient {
	p := &PushgatewayClient{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: http.NewClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Push replaces the metrics of this host's group on the Pushgateway, so
// services that are no longer reconciled disappear.
func (p *PushgatewayClient) Push(ctx context.Context, metrics *domain.Metrics) error {
	body := p.buildMetrics(metrics)

	pushURL := fmt.Sprintf("%s/metrics/job/%s/instance/%s", p.url, metricsJobName, url.PathEscape(metrics.Hostname))

	p.logger.Debug("pushing metrics to pushgateway",
		"url", pushURL,
		"services", len(metrics.Results),
	)

	resp, err := p.httpClient.Put(ctx, pushURL, contentType, []byte(body))
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushgateway returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	p.logger.Debug("metrics pushed successfully")
	return nil
}

// Validate checks if the Pushgateway is reachable.
func (p *PushgatewayClient) Validate(ctx context.Context) error {
	// Pushgateway typically has a /-/ready endpoint
	readyURL := fmt.Sprintf("%s/-/ready", p.url)

	if err := p.httpClient.CheckConnectivity(ctx, readyURL); err != nil {
		// Try the root URL as fallback
		if err2 := p.httpClient.CheckConnectivity(ctx, p.url); err2 != nil {
			return fmt.Errorf("pushgateway not reachable at %s: %w", p.url, err)
		}
	}

	return nil
}

// buildMetrics constructs the Prometheus text format metrics.
func (p *PushgatewayClient) buildMetrics(m *domain.Metrics) string {
	var b strings.Builder

	b.WriteString("# HELP nssmctl_agent_up Reconcile agent is running\n")
	b.WriteString("# TYPE nssmctl_agent_up gauge\n")
	if m.AgentUp {
		b.WriteString("nssmctl_agent_up 1\n")
	} else {
		b.WriteString("nssmctl_agent_up 0\n")
	}

	info := version.Get()
	b.WriteString("# HELP nssmctl_agent_info Build information\n")
	b.WriteString("# TYPE nssmctl_agent_info gauge\n")
	fmt.Fprintf(&b, "nssmctl_agent_info{version=%q,go_version=%q} 1\n", info.Version, runtime.Version())

	if !m.AgentUp {
		return b.String()
	}

	b.WriteString("# HELP nssmctl_reconcile_errors Failures outside any service in the last pass\n")
	b.WriteString("# TYPE nssmctl_reconcile_errors gauge\n")
	fmt.Fprintf(&b, "nssmctl_reconcile_errors %d\n", m.PassErrors)
	b.WriteString("# HELP nssmctl_reconcile_duration_seconds Duration of the last pass\n")
	b.WriteString("# TYPE nssmctl_reconcile_duration_seconds gauge\n")
	fmt.Fprintf(&b, "nssmctl_reconcile_duration_seconds %.3f\n", m.PassDuration.Seconds())

	outcomes := m.Outcomes()
	b.WriteString("# HELP nssmctl_services Services per outcome of the last pass\n")
	b.WriteString("# TYPE nssmctl_services gauge\n")
	for _, o := range []domain.Outcome{domain.OutcomeApplied, domain.OutcomeNoop, domain.OutcomeFailed} {
		fmt.Fprintf(&b, "nssmctl_services{outcome=%q} %d\n", o, outcomes[o])
	}

	if len(m.Results) == 0 {
		return b.String()
	}

	b.WriteString("# HELP nssmctl_service_last_reconcile_timestamp_seconds Unix timestamp of the last apply\n")
	b.WriteString("# TYPE nssmctl_service_last_reconcile_timestamp_seconds gauge\n")
	b.WriteString("# HELP nssmctl_service_in_sync Whether the last apply left the service as desired\n")
	b.WriteString("# TYPE nssmctl_service_in_sync gauge\n")
	b.WriteString("# HELP nssmctl_service_drift_corrected Whether the last apply had to change settings\n")
	b.WriteString("# TYPE nssmctl_service_drift_corrected gauge\n")
	b.WriteString("# HELP nssmctl_service_apply_duration_seconds Duration of the last apply\n")
	b.WriteString("# TYPE nssmctl_service_apply_duration_seconds gauge\n")
	b.WriteString("# HELP nssmctl_service_commands_applied Commands that took effect in the last apply\n")
	b.WriteString("# TYPE nssmctl_service_commands_applied gauge\n")
	b.WriteString("# HELP nssmctl_service_commands_remaining Commands left unapplied after a failure\n")
	b.WriteString("# TYPE nssmctl_service_commands_remaining gauge\n")

	for _, r := range m.Results {
		p.writeServiceMetrics(&b, r)
	}

	return b.String()
}

// writeServiceMetrics writes the metrics for one apply result.
func (p *PushgatewayClient) writeServiceMetrics(b *strings.Builder, r *domain.ApplyResult) {
	svc := r.Service

	inSync := 0
	if r.Success() {
		inSync = 1
	}
	corrected := 0
	if r.Outcome == domain.OutcomeApplied {
		corrected = 1
	}

	fmt.Fprintf(b, "nssmctl_service_last_reconcile_timestamp_seconds{service=%q} %d\n", svc, r.EndTime.Unix())
	fmt.Fprintf(b, "nssmctl_service_in_sync{service=%q} %d\n", svc, inSync)
	fmt.Fprintf(b, "nssmctl_service_drift_corrected{service=%q} %d\n", svc, corrected)
	fmt.Fprintf(b, "nssmctl_service_apply_duration_seconds{service=%q} %.3f\n", svc, r.Duration.Seconds())
	fmt.Fprintf(b, "nssmctl_service_commands_applied{service=%q} %d\n", svc, len(r.Applied))
	fmt.Fprintf(b, "nssmctl_service_commands_remaining{service=%q} %d\n", svc, len(r.Remaining()))
}
