package main

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves one deleted team member; every other category is empty.
func fakeStore(t *testing.T, restores *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/team/":
			_, _ = w.Write([]byte(`{"success":true,"team":[{"id":3,"name":"Jane Doe","dashboard_deleted":true,"deleted_at":"2026-10-01T10:00:00Z"}]}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"items":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/team/3/restore/":
			restores.Add(1)
			_, _ = w.Write([]byte(`{"success":true,"message":"restored"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	apiBaseURL = srv.URL
	timeout = 2 * time.Second
	actor = "test"
	logLevel = "error"
	return srv
}

func TestListPrintsDeletedItems(t *testing.T) {
	var restores atomic.Int32
	fakeStore(t, &restores)

	var out bytes.Buffer
	cmd := listCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "team-3")
	assert.Contains(t, out.String(), "Jane Doe")
	assert.Contains(t, out.String(), "1 item(s) shown, 1 in trash")
}

func TestRestoreWithYesSkipsPrompt(t *testing.T) {
	var restores atomic.Int32
	fakeStore(t, &restores)

	var out bytes.Buffer
	cmd := actionCmd("restore", "", false)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"team-3", "--yes"})
	require.NoError(t, cmd.Execute())

	assert.EqualValues(t, 1, restores.Load())
	assert.Contains(t, out.String(), "Team Member restored successfully!")
}

func TestRestoreDeclinedSendsNothing(t *testing.T) {
	var restores atomic.Int32
	fakeStore(t, &restores)

	var out bytes.Buffer
	cmd := actionCmd("restore", "", false)
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{"team-3"})
	require.NoError(t, cmd.Execute())

	assert.Zero(t, restores.Load())
	assert.Contains(t, out.String(), "Cancelled.")
}

func TestBulkPurgeReportsFailures(t *testing.T) {
	var restores atomic.Int32
	fakeStore(t, &restores)

	var out bytes.Buffer
	cmd := actionCmd("purge", "", true)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"team-3", "events-9", "--yes"})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 items failed")
	assert.Contains(t, out.String(), "Failed to delete items")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(bufio.NewReader(strings.NewReader("yes\n")), &out))
	assert.True(t, confirm(bufio.NewReader(strings.NewReader("Y")), &out))
	assert.False(t, confirm(bufio.NewReader(strings.NewReader("\n")), &out))
	assert.False(t, confirm(bufio.NewReader(strings.NewReader("")), &out))
	assert.Contains(t, out.String(), "Continue? [y/N]")
}
