package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// Notification is a desktop notification raised by voxshelld itself.
type Notification struct {
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Hints         map[string]godbus.Variant
	ExpireTimeout int32
}

// SendFunc delivers a notification to the desktop.
type SendFunc func(n *Notification) error

// InternalNotifier handles sending notifications about internal voxshelld events.
// The same key is not notified again within the minimum interval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	send SendFunc
	now  func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier. send may be nil, in
// which case notifications are only logged.
func NewInternalNotifier(send SendFunc, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		send:           send,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification if not rate-limited.
// It reports whether the notification was handed to the sender.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return false
	}

	if n.send == nil {
		n.logger.Debug("internal notification skipped: no sender", "summary", summary)
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return false
	}
	n.lastNotifyTime[key] = now

	urgency := byte(1)
	icon := "dialog-warning"
	switch level {
	case NotificationLevelInfo:
		urgency = 0
		icon = "dialog-information"
	case NotificationLevelError:
		urgency = 2
		icon = "dialog-error"
	}

	notification := &Notification{
		AppName: "voxshelld",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("voxshell"),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)

	if err := n.send(notification); err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"voxshelld configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyWindowError sends a notification when a window could not be shown.
func (n *InternalNotifier) NotifyWindowError(name string, err error) {
	n.Notify(
		"window-error:"+name,
		"Window Error",
		fmt.Sprintf("Failed to show %s: %v", name, err),
		NotificationLevelError,
	)
}

// NotifyStoreError sends a notification about a settings store failure.
func (n *InternalNotifier) NotifyStoreError(err error) {
	n.Notify(
		"store-error",
		"Store Error",
		"Settings store: "+err.Error(),
		NotificationLevelWarning,
	)
}

const (
	notificationsName      = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// DesktopSender returns a SendFunc that delivers notifications to the
// session's notification daemon over conn.
func DesktopSender(conn *godbus.Conn) SendFunc {
	return func(n *Notification) error {
		obj := conn.Object(notificationsName, notificationsPath)
		call := obj.Call(notificationsInterface+".Notify", 0,
			n.AppName,
			uint32(0),
			n.AppIcon,
			n.Summary,
			n.Body,
			[]string{},
			n.Hints,
			n.ExpireTimeout,
		)
		if call.Err != nil {
			return fmt.Errorf("failed to call Notify: %w", call.Err)
		}
		return nil
	}
}
