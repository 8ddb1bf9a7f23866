package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ypg-dashboard/internal/model"
	"ypg-dashboard/internal/trash"
)

type TrashHandler struct {
	dashboard *trash.Dashboard
}

func NewTrashHandler(dashboard *trash.Dashboard) *TrashHandler {
	return &TrashHandler{dashboard: dashboard}
}

type refreshData struct {
	Result   trash.RefreshResult `json:"result"`
	Snapshot trash.Snapshot      `json:"snapshot"`
}

type selectionData struct {
	Selected bool     `json:"selected"`
	Keys     []string `json:"keys"`
}

// Snapshot returns the current view. ?category= switches the filter first.
func (h *TrashHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if filter := strings.TrimSpace(r.URL.Query().Get("category")); filter != "" {
		if err := h.dashboard.SetFilter(filter); err != nil {
			writeError(w, err)
			return
		}
	}

	writeSuccess(w, http.StatusOK, h.dashboard.Snapshot(), nil)
}

func (h *TrashHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboard.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, refreshData{Result: result, Snapshot: h.dashboard.Snapshot()}, nil)
}

func (h *TrashHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var payload model.FilterRequest
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.dashboard.SetFilter(strings.TrimSpace(payload.Category)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.dashboard.Snapshot(), nil)
}

func (h *TrashHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var payload model.ToggleRequest
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	selected, err := h.dashboard.Toggle(payload.Key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, selectionData{Selected: selected, Keys: h.selectedKeys()}, nil)
}

func (h *TrashHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.dashboard.SelectAllVisible()
	keys := h.selectedKeys()
	writeSuccess(w, http.StatusOK, selectionData{Selected: len(keys) > 0, Keys: keys}, nil)
}

func (h *TrashHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.dashboard.ClearSelection()
	writeSuccess(w, http.StatusOK, selectionData{Keys: []string{}}, nil)
}

func (h *TrashHandler) OpenIntent(w http.ResponseWriter, r *http.Request) {
	var payload model.IntentRequest
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	intent, err := h.dashboard.OpenIntent(payload.Action, payload.Key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, intent, nil)
}

// ConfirmIntent runs the pending action. A rejected action is still a 200:
// the outcome carries the failure and its notification.
func (h *TrashHandler) ConfirmIntent(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.dashboard.ConfirmIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, outcome, nil)
}

func (h *TrashHandler) CancelIntent(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.CancelIntent(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"cancelled": true}, nil)
}

// Bulk acts on the given keys, or on the selection when keys is empty.
func (h *TrashHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var payload model.BulkRequest
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.dashboard.Bulk(r.Context(), payload.Action, payload.Keys)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, outcome, nil)
}

func (h *TrashHandler) selectedKeys() []string {
	keys := h.dashboard.Selection().Keys()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, key.String())
	}
	return out
}
