//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/config"
	"ypg-dashboard/internal/event"
)

func TestTrashRoundTrip(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	team := s.seedTrashed(t, "team", "Jane Doe")
	event1 := s.seedTrashed(t, "events", "Youth Rally")
	exec := s.seedTrashed(t, "past-executives", "Kofi Mensah")

	status, body := s.call(t, http.MethodPost, "/api/admin/trash/refresh", nil)
	require.Equal(t, http.StatusOK, status, body)
	snap := dataOf(t, body)["snapshot"].(map[string]any)
	require.EqualValues(t, 3, snap["total"])

	// restore one item through a confirmed intent
	_, body = s.call(t, http.MethodPost, "/api/admin/trash/intents", map[string]string{"action": "restore", "key": team})
	intentID := dataOf(t, body)["id"].(string)
	status, body = s.call(t, http.MethodPost, "/api/admin/trash/intents/"+intentID+"/confirm", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, dataOf(t, body)["succeeded"])

	_, body = s.call(t, http.MethodGet, "/api/team/", nil)
	assert.Len(t, body["items"].([]any), 1)

	// purge the rest in one batch
	status, body = s.call(t, http.MethodPost, "/api/admin/trash/bulk", map[string]any{
		"action": "delete",
		"keys":   []string{event1, exec},
	})
	require.Equal(t, http.StatusOK, status)
	outcome := dataOf(t, body)
	assert.ElementsMatch(t, []any{event1, exec}, outcome["succeeded"])

	// a fresh refresh agrees with the local removals
	_, body = s.call(t, http.MethodPost, "/api/admin/trash/refresh", nil)
	assert.EqualValues(t, 0, dataOf(t, body)["snapshot"].(map[string]any)["total"])

	_, body = s.call(t, http.MethodGet, "/api/audit?action=record.purge", nil)
	assert.Len(t, dataOf(t, body)["items"].([]any), 2)
}

func TestPurgeIsRateLimited(t *testing.T) {
	t.Parallel()

	s := newStack(t, func(cfg *config.Config) { cfg.PurgeRateLimitRPM = 1 })
	key := s.seedTrashed(t, "donations", "Anonymous")
	id := strings.TrimPrefix(key, "donations-")

	status, _ := s.call(t, http.MethodDelete, "/api/donations/"+id+"/delete/", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := s.call(t, http.MethodDelete, "/api/donations/"+id+"/delete/", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["success"])
}

func TestBulkPurgeAbovePurgeLimitSucceeds(t *testing.T) {
	t.Parallel()

	s := newStack(t, func(cfg *config.Config) { cfg.PurgeRateLimitRPM = 3 })
	keys := make([]any, 0, 5)
	for i := 0; i < 5; i++ {
		keys = append(keys, s.seedTrashed(t, "donations", "Anonymous"))
	}

	status, body := s.call(t, http.MethodPost, "/api/admin/trash/refresh", nil)
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.call(t, http.MethodPost, "/api/admin/trash/selection/all", nil)
	require.Equal(t, http.StatusOK, status, body)
	require.Len(t, dataOf(t, body)["keys"], 5)

	// one bulk request from the admin, five purges from the dashboard
	status, body = s.call(t, http.MethodPost, "/api/admin/trash/bulk", map[string]any{"action": "delete"})
	require.Equal(t, http.StatusOK, status, body)
	outcome := dataOf(t, body)
	assert.ElementsMatch(t, keys, outcome["succeeded"])
	assert.Empty(t, outcome["failed"])

	_, body = s.call(t, http.MethodGet, "/api/donations/?deleted=true", nil)
	assert.Empty(t, body["items"])
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.seedTrashed(t, "blog", "Draft")

	resp, err := http.Get(s.server.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `ypg_record_transitions_total{category="blog",outcome="success",transition="soft_delete"} 1`)
	assert.Contains(t, string(raw), "ypg_http_request_duration_seconds")
}

func TestNotificationsReachSockets(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	key := s.seedTrashed(t, "contact", "Prayer request")
	s.call(t, http.MethodPost, "/api/admin/trash/refresh", nil)

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.server.URL, "http")+"/api/admin/notifications", nil)
	require.NoError(t, err)
	defer conn.Close()
	// let the hub register the socket before publishing
	time.Sleep(100 * time.Millisecond)

	status, _ := s.call(t, http.MethodPost, "/api/admin/trash/bulk", map[string]any{"action": "restore", "keys": []string{key}})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var received event.Event
		require.NoError(t, json.Unmarshal(raw, &received))
		if received.Type != event.TypeNotification {
			continue
		}
		payload := received.Payload.(map[string]any)
		assert.Equal(t, "1 items restored successfully", payload["message"])
		return
	}
}
