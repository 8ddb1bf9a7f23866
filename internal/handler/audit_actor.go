package handler

import (
	"net/http"
	"strings"

	"ypg-dashboard/internal/middleware"
	"ypg-dashboard/internal/model"
)

// actorFromRequest identifies who triggered a transition. There is no
// authentication layer, so the name is whatever the caller put in X-Actor.
func actorFromRequest(r *http.Request) model.AuditActor {
	return model.AuditActor{
		Username: strings.TrimSpace(r.Header.Get("X-Actor")),
		IP:       middleware.ClientIP(r),
	}
}
