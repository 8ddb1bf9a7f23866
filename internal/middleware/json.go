package middleware

import (
	"encoding/json"
	"net/http"

	"ypg-dashboard/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeFailure answers in the admin envelope; middleware never sees which
// API the request was meant for.
func writeFailure(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	})
}
