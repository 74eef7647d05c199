// Package notify provides implementations for sending notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sharkusmanch/nssmctl/internal/domain"
	"github.com/sharkusmanch/nssmctl/internal/http"
)

const (
	maxBodyLength = 1000
)

// AppriseClient sends notifications via an Apprise server.
type AppriseClient struct {
	url        string
	key        string
	tags       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// AppriseOption configures an AppriseClient.
type AppriseOption func(*AppriseClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) AppriseOption {
	return func(a *AppriseClient) {
		a.httpClient = client
	}
}

// WithTags limits delivery to the Apprise URLs carrying any of the tags.
func WithTags(tags ...string) AppriseOption {
	return func(a *AppriseClient) {
		a.tags = tags
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AppriseOption {
	return func(a *AppriseClient) {
		a.logger = logger
	}
}

// NewAppriseClient creates a new AppriseClient.
func NewAppriseClient(url, key string, opts ...AppriseOption) *AppriseClient {
	a := &AppriseClient{
		url:        strings.TrimSuffix(url, "/"),
		key:        key,
		httpClient: http.NewClient(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

type appriseRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Type   string `json:"type,omitempty"` // info, success, warning, failure
	Tag    string `json:"tag,omitempty"`
	Format string `json:"format,omitempty"`
}

// Notify posts the notification to the configured Apprise key.
func (a *AppriseClient) Notify(ctx context.Context, notification *domain.Notification) error {
	title := notification.Title
	if notification.Host != "" {
		title = fmt.Sprintf("[%s] %s", notification.Host, title)
	}

	req := appriseRequest{
		Title:  title,
		Body:   composeBody(notification),
		Type:   a.mapLevel(notification.Level),
		Tag:    strings.Join(a.tags, ","),
		Format: "text",
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	notifyURL := fmt.Sprintf("%s/notify/%s", a.url, a.key)

	a.logger.Debug("sending notification via apprise",
		"url", notifyURL,
		"title", title,
		"level", notification.Level,
		"services", len(notification.Services),
	)

	resp, err := a.httpClient.Post(ctx, notifyURL, "application/json", jsonBody)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("apprise returned status %d: %s", resp.StatusCode, string(resp.Body))
	}

	return nil
}

// composeBody appends the affected services to the body and keeps the
// result within maxBodyLength bytes. The services line survives
// truncation; the body is cut on a rune boundary.
func composeBody(n *domain.Notification) string {
	footer := ""
	if len(n.Services) > 0 {
		footer = "\n\nServices: " + strings.Join(n.Services, ", ")
	}
	if len(n.Body)+len(footer) <= maxBodyLength {
		return n.Body + footer
	}
	if len(footer) > maxBodyLength/2 {
		footer = truncate(footer, maxBodyLength/2)
	}
	return truncate(n.Body, maxBodyLength-len(footer)) + footer
}

// truncate shortens s to at most max bytes, ending in "...".
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Validate checks if the Apprise server is reachable.
func (a *AppriseClient) Validate(ctx context.Context) error {
	detailsURL := fmt.Sprintf("%s/details/%s", a.url, a.key)

	if err := a.httpClient.CheckConnectivity(ctx, detailsURL); err != nil {
		if err2 := a.httpClient.CheckConnectivity(ctx, a.url); err2 != nil {
			return fmt.Errorf("apprise server not reachable at %s: %w", a.url, err)
		}
	}

	return nil
}

// mapLevel maps domain notification level to Apprise type.
func (a *AppriseClient) mapLevel(level domain.NotificationLevel) string {
	switch level {
	case domain.NotificationLevelInfo:
		return "info"
	case domain.NotificationLevelWarning:
		return "warning"
	case domain.NotificationLevelError:
		return "failure"
	default:
		return "info"
	}
}

// Ensure AppriseClient implements domain.Notifier.
var _ domain.Notifier = (*AppriseClient)(nil)
