package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	general  *rate.Limiter
	purge    *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps per-client token buckets. Destructive requests
// draw from a separate, smaller purge bucket. A non-positive RPM disables
// that bucket.
type RateLimitMiddleware struct {
	generalRPM   int
	purgeRPM     int
	trustedActor string
	mu           sync.Mutex
	clients      map[string]*clientLimiter
}

type RateLimitOption func(*RateLimitMiddleware)

// WithTrustedActor exempts loopback requests whose X-Actor is name. The
// in-process trash dashboard fans a bulk action out as one request per item
// against this server; the bulk request itself is still limited.
func WithTrustedActor(name string) RateLimitOption {
	return func(m *RateLimitMiddleware) { m.trustedActor = strings.TrimSpace(name) }
}

func NewRateLimitMiddleware(generalRPM int, purgeRPM int, opts ...RateLimitOption) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		generalRPM: generalRPM,
		purgeRPM:   purgeRPM,
		clients:    map[string]*clientLimiter{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.trusted(r) {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(ClientIP(r))

		target := limiter.general
		if isPurge(r) {
			target = limiter.purge
		}

		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeFailure(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// trusted checks the socket address, not proxy headers, so the exemption
// cannot be claimed from outside the host.
func (m *RateLimitMiddleware) trusted(r *http.Request) bool {
	if m.trustedActor == "" || strings.TrimSpace(r.Header.Get("X-Actor")) != m.trustedActor {
		return false
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isPurge(r *http.Request) bool {
	if r.Method == http.MethodDelete && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/delete") {
		return true
	}
	return r.Method == http.MethodPost && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/trash/bulk")
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		return limiter
	}

	created := &clientLimiter{
		general:  newLimiter(m.generalRPM),
		purge:    newLimiter(m.purgeRPM),
		lastSeen: time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// ClientIP prefers proxy headers, falling back to the socket address.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}
	return r.RemoteAddr
}
