package handler

import (
	"log/slog"
	"net/http"

	gorillaws "github.com/gorilla/websocket"

	"ypg-dashboard/internal/websocket"
)

// NotificationHandler streams bus events (notifications, lifecycle
// transitions, refreshes) to dashboard sockets.
type NotificationHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

func NewNotificationHandler(hub *websocket.Hub, allowedOrigins []string) *NotificationHandler {
	return &NotificationHandler{hub: hub, upgrader: websocket.NewUpgrader(allowedOrigins)}
}

func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	websocket.Serve(h.hub, conn)
}
