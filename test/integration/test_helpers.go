//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ypg-dashboard/internal/config"
	"ypg-dashboard/internal/database"
	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/handler"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/repository"
	"ypg-dashboard/internal/router"
	"ypg-dashboard/internal/service"
	"ypg-dashboard/internal/storage"
	"ypg-dashboard/internal/trash"
	"ypg-dashboard/internal/websocket"
)

type swapHandler struct {
	h atomic.Value
}

func (s *swapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.h.Load().(http.Handler).ServeHTTP(w, r)
}

type stack struct {
	server  *httptest.Server
	bus     *event.InMemoryBus
	uploads string
}

func testConfig(uploads string, auditLog string) *config.Config {
	return &config.Config{
		ServerPort:           "8080",
		ServerReadTimeout:    15 * time.Second,
		ServerWriteTimeout:   30 * time.Second,
		ServerIdleTimeout:    120 * time.Second,
		RequestTimeout:       30 * time.Second,
		DatabaseDriver:       "sqlite",
		UploadsRoot:          uploads,
		AuditLogFile:         auditLog,
		CORSOrigins:          []string{"*"},
		RateLimitRPM:         1000,
		PurgeRateLimitRPM:    1000,
		TrashRequestTimeout:  5 * time.Second,
		TrashBulkConcurrency: 4,
		TrashIntentTTL:       time.Minute,
		TrashActor:           "integration",
	}
}

// newStack wires the whole server against SQLite. The trash dashboard is
// pointed back at the same server, so every action crosses HTTP twice.
func newStack(t *testing.T, tweak func(*config.Config)) *stack {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	uploads := t.TempDir()
	cfg := testConfig(uploads, filepath.Join(t.TempDir(), "audit.log"))
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "ypg.db")
	if tweak != nil {
		tweak(cfg)
	}

	db, err := database.OpenSQLite(ctx, cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))

	media, err := storage.New(cfg.UploadsRoot)
	require.NoError(t, err)
	audit, err := service.NewAuditService(cfg.AuditLogFile)
	require.NoError(t, err)

	m := metrics.New()
	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run(ctx)

	swap := &swapHandler{}
	server := httptest.NewServer(swap)
	t.Cleanup(server.Close)

	recordService := service.NewRecordService(repository.NewSQLiteRecordRepository(db.Conn), media, audit, bus, m)
	client := trash.NewHTTPClient(server.URL, cfg.TrashRequestTimeout, trash.WithActor(cfg.TrashActor))
	dashboard := trash.NewDashboard(client, trash.NewBusNotifier(bus), trash.Options{
		Concurrency: cfg.TrashBulkConcurrency,
		IntentTTL:   cfg.TrashIntentTTL,
		Metrics:     m,
	})

	swap.h.Store(router.New(cfg, router.Handlers{
		Record:        handler.NewRecordHandler(recordService),
		Trash:         handler.NewTrashHandler(dashboard),
		Audit:         handler.NewAuditHandler(audit),
		Notifications: handler.NewNotificationHandler(hub, cfg.CORSOrigins),
	}, m, db.Health))

	return &stack{server: server, bus: bus, uploads: uploads}
}

func (s *stack) call(t *testing.T, method string, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "admin")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// seedTrashed creates a record and soft-deletes it through the API.
func (s *stack) seedTrashed(t *testing.T, c string, label string) string {
	t.Helper()

	status, body := s.call(t, http.MethodPost, "/api/"+c+"/", map[string]string{"label": label})
	require.Equal(t, http.StatusCreated, status, body)
	id := int64(body["item"].(map[string]any)["id"].(float64))

	status, body = s.call(t, http.MethodDelete, fmt.Sprintf("/api/%s/%d/", c, id), nil)
	require.Equal(t, http.StatusOK, status, body)

	return fmt.Sprintf("%s-%d", c, id)
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	require.Equal(t, true, body["success"], body)
	return body["data"].(map[string]any)
}
