package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mini-todo/db"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !ownerMatches(w, p, r.URL.Query().Get("owner")) {
		return
	}
	settings, err := h.store.Settings(r.Context(), p.ID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Settings not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSettings upserts the caller's settings. The row key always comes from
// the token; a body owner naming anyone else is refused.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Owner       string `json:"owner"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !ownerMatches(w, p, req.Owner) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		http.Error(w, "Display name is required", http.StatusBadRequest)
		return
	}

	settings, err := h.store.UpsertSettings(r.Context(), p.ID, name)
	if err != nil {
		h.internalError(w, r, "upsert settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
