package model

// NotificationLevel is the severity of a user-facing notification.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
}
