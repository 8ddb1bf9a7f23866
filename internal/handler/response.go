package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"ypg-dashboard/internal/model"
	"ypg-dashboard/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeJSON(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// writeStoreError answers entity store routes with their flat
// {success, error, code} body.
func writeStoreError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, model.ActionResponse{
		Success: false,
		Error:   body.Message,
		Code:    body.Code,
	})
}

func classify(err error) (int, *model.APIError) {
	apiErr := toAPIError(err)
	return apiErr.HTTPStatus, &model.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// toAPIError maps domain sentinels onto client-facing errors.
func toAPIError(err error) *apierror.APIError {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr
	}

	switch {
	case errors.Is(err, model.ErrRecordNotFound):
		return apierror.NotFound("Record not found", "")
	case errors.Is(err, model.ErrRecordNotInTrash):
		return apierror.New("NOT_IN_TRASH", "Record is not in trash", "", http.StatusNotFound)
	case errors.Is(err, model.ErrUnknownCategory):
		return apierror.New("UNKNOWN_CATEGORY", "Unknown category", err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrIntentNotFound):
		return apierror.NotFound("Confirmation not found", "")
	case errors.Is(err, model.ErrIntentExpired):
		return apierror.New("GONE", "Confirmation expired", "", http.StatusGone)
	case errors.Is(err, model.ErrActionInFlight):
		return apierror.Conflict("An action for this item is already running", err.Error())
	case errors.Is(err, model.ErrRefreshStale):
		return apierror.Conflict("Refresh superseded by a newer one", "")
	case errors.Is(err, model.ErrRefreshFailed):
		return apierror.New("UPSTREAM_ERROR", "Failed to load deleted items", "", http.StatusBadGateway)
	case errors.Is(err, model.ErrMediaNotFound):
		return apierror.NotFound("Media file not found", "")
	case errors.Is(err, model.ErrNothingSelected):
		return apierror.BadRequest("No items selected", "")
	case errors.Is(err, model.ErrInvalidKey),
		errors.Is(err, model.ErrInvalidAction),
		errors.Is(err, model.ErrInvalidFilter),
		errors.Is(err, model.ErrInvalidInput):
		return apierror.BadRequest("Invalid input", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apierror.New("TIMEOUT", "Operation timed out", "", http.StatusGatewayTimeout)
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
		return apierror.New("INTERNAL_ERROR", "Unexpected server error", "", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.BadRequest("invalid JSON body", "")
	}
	return nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
