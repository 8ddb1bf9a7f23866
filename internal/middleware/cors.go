package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS lets the admin dashboard call both APIs from its own origin. The
// actor header must be allowed or browsers strip it from restore and purge
// calls.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-Actor"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         600,
		// credentials with a wildcard origin are rejected by browsers
		AllowCredentials: !slices.Contains(origins, "*"),
	})

	return handler.Handler
}
