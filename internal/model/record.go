package model

import (
	"encoding/json"
	"time"
)

// VisibilityState is the canonical lifecycle of a deletable record. Every
// category adapter maps its own storage flags onto it.
type VisibilityState int

const (
	VisibilityActive VisibilityState = iota
	VisibilityHiddenFromAdmin
	VisibilityPermanentlyDeleted
)

func (v VisibilityState) String() string {
	switch v {
	case VisibilityActive:
		return "active"
	case VisibilityHiddenFromAdmin:
		return "hidden_from_admin"
	case VisibilityPermanentlyDeleted:
		return "permanently_deleted"
	default:
		return "unknown"
	}
}

// Record is a soft-deletable entity from any category.
type Record struct {
	ID               int64
	Category         Category
	DashboardDeleted bool
	Label            string
	Detail           string
	MediaPath        string
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Fields holds the category's native display columns (name, title,
	// subject, ...) so the wire format matches what each table stores.
	Fields map[string]string
}

func (r Record) Key() Key {
	return NewKey(r.Category, r.ID)
}

func (r Record) Visibility() VisibilityState {
	if r.DashboardDeleted {
		return VisibilityHiddenFromAdmin
	}
	return VisibilityActive
}

// DisplayTime is the timestamp shown next to a trashed record.
func (r Record) DisplayTime() time.Time {
	if r.DeletedAt != nil && !r.DeletedAt.IsZero() {
		return *r.DeletedAt
	}
	if !r.UpdatedAt.IsZero() {
		return r.UpdatedAt
	}
	return r.CreatedAt
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+8)
	for column, value := range r.Fields {
		out[column] = value
	}

	out["id"] = r.ID
	out["category"] = r.Category
	out["dashboard_deleted"] = r.DashboardDeleted
	out["label"] = r.Label
	out["detail"] = r.Detail
	if r.MediaPath != "" {
		out["image"] = r.MediaPath
	}
	if r.DeletedAt != nil {
		out["deleted_at"] = r.DeletedAt.UTC().Format(time.RFC3339Nano)
	}
	if !r.CreatedAt.IsZero() {
		out["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !r.UpdatedAt.IsZero() {
		out["updated_at"] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	return json.Marshal(out)
}
