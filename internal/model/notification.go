package model

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification is a toast-style message surfaced to the dashboard user.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
