package trash

import (
	"fmt"
	"log/slog"
	"sync"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/model"
)

// Notifier surfaces toast-style messages to the dashboard user.
type Notifier interface {
	Notify(n model.Notification)
}

// BusNotifier logs each notification and publishes it on the event bus so
// websocket clients receive it.
type BusNotifier struct {
	bus event.Bus
}

func NewBusNotifier(bus event.Bus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Notify(note model.Notification) {
	if note.Level == model.NotificationError {
		slog.Warn("trash notification", "message", note.Message)
	} else {
		slog.Info("trash notification", "message", note.Message)
	}
	if n.bus != nil {
		n.bus.Publish(event.New(event.TypeNotification, note, ""))
	}
}

// Recorder keeps every notification in memory. The CLI prints from it and
// tests assert on it.
type Recorder struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (r *Recorder) Notify(note model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

func (r *Recorder) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.notes...)
}

// Drain returns and forgets the recorded notifications.
func (r *Recorder) Drain() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notes
	r.notes = nil
	return out
}

func successMessage(action model.Action, key model.Key) string {
	label := category.Describe(key.Category).Label
	if action == model.ActionRestore {
		return label + " restored successfully!"
	}
	return label + " permanently deleted!"
}

func failureMessage(action model.Action) string {
	if action == model.ActionRestore {
		return "Failed to restore item"
	}
	return "Failed to permanently delete item"
}

func bulkSuccessMessage(action model.Action, n int) string {
	return fmt.Sprintf("%d items %s successfully", n, action.PastTense())
}

func bulkFailureMessage(action model.Action) string {
	return fmt.Sprintf("Failed to %s items", action)
}

func success(msg string) model.Notification {
	return model.Notification{Level: model.NotificationSuccess, Message: msg}
}

func failure(msg string) model.Notification {
	return model.Notification{Level: model.NotificationError, Message: msg}
}
