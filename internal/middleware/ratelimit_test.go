package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_UnlimitedGeneral(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/team/?deleted=true", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_LimitedPurge(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1).Handler(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodDelete, "/api/team/1/delete/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	// burst of one is spent
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodDelete, "/api/team/2/delete/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	bulk := httptest.NewRecorder()
	handler.ServeHTTP(bulk, httptest.NewRequest(http.MethodPost, "/api/admin/trash/bulk", nil))
	assert.Equal(t, http.StatusTooManyRequests, bulk.Code)

	restore := httptest.NewRecorder()
	handler.ServeHTTP(restore, httptest.NewRequest(http.MethodPost, "/api/team/1/restore/", nil))
	assert.Equal(t, http.StatusOK, restore.Code)
}

func TestRateLimitMiddleware_TrustedActorOnLoopback(t *testing.T) {
	handler := NewRateLimitMiddleware(0, 1, WithTrustedActor("trash-dashboard")).Handler(okHandler())

	purge := func(remote string, actor string) int {
		req := httptest.NewRequest(http.MethodDelete, "/api/donations/1/delete/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Actor", actor)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, purge("127.0.0.1:40000", "trash-dashboard"), "request %d", i)
	}

	// same loopback bucket, other actors are still limited
	assert.Equal(t, http.StatusOK, purge("127.0.0.1:40001", "admin"))
	assert.Equal(t, http.StatusTooManyRequests, purge("127.0.0.1:40001", "admin"))

	// the actor name alone is not enough from a remote address
	assert.Equal(t, http.StatusOK, purge("198.51.100.7:5000", "trash-dashboard"))
	assert.Equal(t, http.StatusTooManyRequests, purge("198.51.100.7:5000", "trash-dashboard"))
}

func TestRateLimitMiddleware_BucketsArePerClient(t *testing.T) {
	handler := NewRateLimitMiddleware(1, 0).Handler(okHandler())

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ip)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5123"
	assert.Equal(t, "192.168.1.5", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
