package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRecordCreated     Type = "record.created"
	TypeRecordSoftDeleted Type = "record.soft_deleted"
	TypeRecordRestored    Type = "record.restored"
	TypeRecordPurged      Type = "record.purged"
	TypeTrashRefreshed    Type = "trash.refreshed"
	TypeNotification      Type = "trash.notification"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor,omitempty"`
}

func New(t Type, payload any, actor string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:     actor,
	}
}

type Bus interface {
	Publish(e Event)
	// Subscribe returns the event channel and its unsubscribe function.
	Subscribe() (<-chan Event, func())
}
