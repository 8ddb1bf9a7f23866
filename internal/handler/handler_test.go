package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/database"
	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/repository"
	"ypg-dashboard/internal/service"
	"ypg-dashboard/internal/storage"
	"ypg-dashboard/internal/trash"
)

type testEnv struct {
	server    *httptest.Server
	dashboard *trash.Dashboard
	notes     *trash.Recorder
	uploads   string
}

// newTestEnv serves the entity store and the admin trash API from one
// server; the dashboard reaches the store over HTTP like it does in
// production.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))

	uploads := t.TempDir()
	media, err := storage.New(uploads)
	require.NoError(t, err)

	audit, err := service.NewAuditService(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	m := metrics.New()
	svc := service.NewRecordService(repository.NewSQLiteRecordRepository(db.Conn), media, audit, event.NewBus(), m)
	records := NewRecordHandler(svc)

	r := chi.NewRouter()
	r.Use(chimw.StripSlashes)
	r.Get("/api/audit", NewAuditHandler(audit).List)
	r.Route("/api/{category}", func(rec chi.Router) {
		rec.Get("/", records.List)
		rec.Post("/", records.Create)
		rec.Delete("/{id}", records.Delete)
		rec.Post("/{id}/restore", records.Restore)
		rec.Delete("/{id}/delete", records.PermanentDelete)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	notes := &trash.Recorder{}
	dashboard := trash.NewDashboard(trash.NewHTTPClient(server.URL, 5*time.Second), notes, trash.Options{
		Concurrency: 4,
		IntentTTL:   time.Minute,
		Metrics:     m,
	})
	trashHandler := NewTrashHandler(dashboard)
	r.Route("/api/admin/trash", func(tr chi.Router) {
		tr.Get("/", trashHandler.Snapshot)
		tr.Post("/refresh", trashHandler.Refresh)
		tr.Put("/filter", trashHandler.SetFilter)
		tr.Post("/selection/toggle", trashHandler.Toggle)
		tr.Post("/selection/all", trashHandler.SelectAll)
		tr.Delete("/selection", trashHandler.ClearSelection)
		tr.Post("/intents", trashHandler.OpenIntent)
		tr.Post("/intents/{id}/confirm", trashHandler.ConfirmIntent)
		tr.Delete("/intents/{id}", trashHandler.CancelIntent)
		tr.Post("/bulk", trashHandler.Bulk)
	})

	return &testEnv{server: server, dashboard: dashboard, notes: notes, uploads: uploads}
}

func (e *testEnv) do(t *testing.T, method string, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "tester")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// trashed creates a record in c and moves it to the trash, returning its
// composite key.
func (e *testEnv) trashed(t *testing.T, c string, label string, image string) string {
	t.Helper()

	payload := map[string]string{"label": label}
	if image != "" {
		payload["image"] = image
	}
	status, body := e.do(t, http.MethodPost, "/api/"+c+"/", payload)
	require.Equal(t, http.StatusCreated, status, body)

	item := body["item"].(map[string]any)
	id := int64(item["id"].(float64))

	status, body = e.do(t, http.MethodDelete, fmt.Sprintf("/api/%s/%d/", c, id), nil)
	require.Equal(t, http.StatusOK, status, body)

	return fmt.Sprintf("%s-%d", c, id)
}

func writeMedia(t *testing.T, root string, rel string) string {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("jpeg"), 0o644))
	return full
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
