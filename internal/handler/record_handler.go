package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ypg-dashboard/internal/category"
	"ypg-dashboard/internal/model"
	"ypg-dashboard/internal/service"
)

// RecordHandler serves the entity store API that the trash dashboard talks
// to. Its bodies are flat ({success, items, message, error}) rather than
// wrapped in the admin envelope.
type RecordHandler struct {
	service *service.RecordService
}

func NewRecordHandler(service *service.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// List answers GET /api/{category}/ and, with ?deleted=true, the trash
// listing. Records go out under "items" and under the category's own
// response key for older clients.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	c := model.Category(chi.URLParam(r, "category"))
	deleted := strings.EqualFold(r.URL.Query().Get("deleted"), "true")

	records, err := h.service.List(r.Context(), c, deleted)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}

	body := map[string]any{
		"success": true,
		"items":   records,
	}
	if desc, ok := category.Lookup(c); ok && desc.ResponseKey != "" && desc.ResponseKey != "items" {
		body[desc.ResponseKey] = records
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := model.Category(chi.URLParam(r, "category"))

	var payload model.CreateRecordRequest
	if err := decodeBody(w, r, &payload); err != nil {
		writeStoreError(w, err)
		return
	}

	rec, err := h.service.Create(r.Context(), c, payload, actorFromRequest(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"item":    rec,
		"message": fmt.Sprintf("%s created", category.Describe(c).Label),
	})
}

// Delete soft-deletes a record. ?type=hard removes the row outright.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	label := category.Describe(key.Category).Label
	if strings.EqualFold(r.URL.Query().Get("type"), "hard") {
		if _, err := h.service.HardDelete(r.Context(), key, actorFromRequest(r)); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: label + " deleted"})
		return
	}

	if _, err := h.service.SoftDelete(r.Context(), key, actorFromRequest(r)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: label + " moved to trash"})
}

func (h *RecordHandler) Restore(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if _, err := h.service.Restore(r.Context(), key, actorFromRequest(r)); err != nil {
		writeStoreError(w, err)
		return
	}

	label := category.Describe(key.Category).Label
	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: label + " restored successfully"})
}

func (h *RecordHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromRequest(r)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if _, err := h.service.PermanentDelete(r.Context(), key, actorFromRequest(r)); err != nil {
		writeStoreError(w, err)
		return
	}

	label := category.Describe(key.Category).Label
	writeJSON(w, http.StatusOK, model.ActionResponse{Success: true, Message: label + " permanently deleted"})
}

func keyFromRequest(r *http.Request) (model.Key, error) {
	c := model.Category(chi.URLParam(r, "category"))
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return model.Key{}, fmt.Errorf("%w: id %q", model.ErrInvalidKey, raw)
	}
	if !category.Known(c) {
		return model.Key{}, fmt.Errorf("%w: %q", model.ErrUnknownCategory, c)
	}
	return model.NewKey(c, id), nil
}
