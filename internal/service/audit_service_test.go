package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/model"
)

func TestAuditServiceQueryFiltersAndPaginates(t *testing.T) {
	audit, err := NewAuditService(filepath.Join(t.TempDir(), "nested", "audit.log"))
	require.NoError(t, err)

	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	audit.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	audit.Log(AuditActionSoftDelete, model.AuditActor{IP: "10.0.0.1"}, "team-1", nil, nil, nil)
	audit.Log(AuditActionRestore, model.AuditActor{IP: "10.0.0.1"}, "team-1", nil, nil, nil)
	audit.Log(AuditActionRestore, model.AuditActor{IP: "10.0.0.2"}, "events-3", nil, nil, errors.New("boom"))

	entries, meta, err := audit.Query(model.AuditQuery{Action: AuditActionRestore})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, "events-3", entries[0].Resource, "newest first")
	assert.Equal(t, "boom", entries[0].Error)

	entries, meta, err = audit.Query(model.AuditQuery{Resource: "team", Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalPages)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditActionSoftDelete, entries[0].Action)
}

func TestAuditServiceRejectsBadTimeRange(t *testing.T) {
	audit, err := NewAuditService(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	_, _, err = audit.Query(model.AuditQuery{From: "yesterday"})
	assert.Error(t, err)
}

func TestNilAuditServiceIsNoop(t *testing.T) {
	var audit *AuditService
	assert.NotPanics(t, func() {
		audit.Log(AuditActionRestore, model.AuditActor{}, "team-1", nil, nil, nil)
	})
}
