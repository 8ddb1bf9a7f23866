package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/event"
)

func TestHubBroadcastsBusEvents(t *testing.T) {
	bus := event.NewBus()
	hub := NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := NewUpgrader([]string{"*"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(hub, conn)
	}))
	defer server.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(event.New(event.TypeNotification, map[string]string{"message": "Event restored successfully!"}, ""))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var received event.Event
	require.NoError(t, json.Unmarshal(raw, &received))
	assert.Equal(t, event.TypeNotification, received.Type)
}

func TestUpgraderChecksOrigin(t *testing.T) {
	upgrader := NewUpgrader([]string{"https://ypg.example.org"})

	allowed := httptest.NewRequest(http.MethodGet, "/", nil)
	allowed.Header.Set("Origin", "https://ypg.example.org")
	assert.True(t, upgrader.CheckOrigin(allowed))

	denied := httptest.NewRequest(http.MethodGet, "/", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, upgrader.CheckOrigin(denied))
}
