package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ypg-dashboard/internal/config"
	"ypg-dashboard/internal/handler"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/middleware"
)

type Handlers struct {
	Record        *handler.RecordHandler
	Trash         *handler.TrashHandler
	Audit         *handler.AuditHandler
	Notifications *handler.NotificationHandler
}

// HealthFunc reports whether the backing database is reachable.
type HealthFunc func(ctx context.Context) error

func New(cfg *config.Config, h Handlers, m *metrics.Metrics, health HealthFunc) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.PurgeRateLimitRPM, middleware.WithTrustedActor(cfg.TrashActor))

	r.Use(middleware.Recovery)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Metrics(m))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/admin/trash", func(tr chi.Router) {
			tr.Get("/", h.Trash.Snapshot)
			tr.Post("/refresh", h.Trash.Refresh)
			tr.Put("/filter", h.Trash.SetFilter)
			tr.Post("/selection/toggle", h.Trash.Toggle)
			tr.Post("/selection/all", h.Trash.SelectAll)
			tr.Delete("/selection", h.Trash.ClearSelection)
			tr.Post("/intents", h.Trash.OpenIntent)
			tr.Post("/intents/{id}/confirm", h.Trash.ConfirmIntent)
			tr.Delete("/intents/{id}", h.Trash.CancelIntent)
			tr.Post("/bulk", h.Trash.Bulk)
		})

		api.Get("/admin/notifications", h.Notifications.Stream)
		api.Get("/audit", h.Audit.List)

		api.Route("/{category}", func(rec chi.Router) {
			rec.Get("/", h.Record.List)
			rec.Post("/", h.Record.Create)
			rec.Delete("/{id}", h.Record.Delete)
			rec.Post("/{id}/restore", h.Record.Restore)
			rec.Delete("/{id}/delete", h.Record.PermanentDelete)
		})
	})

	return r
}
