package domain

import "context"

// NotificationLevel represents the severity of a notification.
type NotificationLevel string

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = "info"
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning NotificationLevel = "warning"
	// NotificationLevelError is for error messages.
	NotificationLevelError NotificationLevel = "error"
)

// Notification is a message about one reconcile pass.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Level NotificationLevel `json:"level"`

	// Host is the machine the pass ran on.
	Host string `json:"host,omitempty"`

	// Services lists the services the message is about: the failed ones
	// for an error, the changed ones otherwise.
	Services []string `json:"services,omitempty"`
}

// NewNotification creates a new notification.
func NewNotification(title, body string, level NotificationLevel) *Notification {
	return &Notification{
		Title: title,
		Body:  body,
		Level: level,
	}
}

// About records the host and the services the notification concerns.
func (n *Notification) About(host string, services ...string) *Notification {
	n.Host = host
	n.Services = services
	return n
}

// InfoNotification creates an info-level notification.
func InfoNotification(title, body string) *Notification {
	return NewNotification(title, body, NotificationLevelInfo)
}

// WarningNotification creates a warning-level notification.
func WarningNotification(title, body string) *Notification {
	return NewNotification(title, body, NotificationLevelWarning)
}

// ErrorNotification creates an error-level notification.
func ErrorNotification(title, body string) *Notification {
	return NewNotification(title, body, NotificationLevelError)
}

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification.
	Notify(ctx context.Context, notification *Notification) error

	// Validate checks if the notifier is properly configured.
	Validate(ctx context.Context) error
}

// NopNotifier is a no-op notifier that does nothing.
type NopNotifier struct{}

// Notify does nothing.
func (n *NopNotifier) Notify(_ context.Context, _ *Notification) error {
	return nil
}

// Validate always returns nil.
func (n *NopNotifier) Validate(_ context.Context) error {
	return nil
}
