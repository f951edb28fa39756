package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !ownerMatches(w, p, r.URL.Query().Get("owner")) {
		return
	}
	items, err := h.store.ListItems(r.Context(), p.ID)
	if err != nil {
		h.internalError(w, r, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Owner   string `json:"owner"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if !ownerMatches(w, p, req.Owner) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	item, err := h.store.InsertItem(r.Context(), p.ID, title, strings.TrimSpace(req.Content))
	if err != nil {
		h.internalError(w, r, "insert item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !ownerMatches(w, p, r.URL.Query().Get("owner")) {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	affected, err := h.store.SetCompleted(r.Context(), p.ID, id, *req.Completed)
	if err != nil {
		h.internalError(w, r, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": affected})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !ownerMatches(w, p, r.URL.Query().Get("owner")) {
		return
	}
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	affected, err := h.store.DeleteItem(r.Context(), p.ID, id)
	if err != nil {
		h.internalError(w, r, "delete item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": affected})
}
