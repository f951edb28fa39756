package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mini-todo/middleware"
	"mini-todo/models"
	"mini-todo/token"
)

// Store is the persistence the handlers need. *db.Store satisfies it.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)

	ListItems(ctx context.Context, owner string) ([]models.Item, error)
	InsertItem(ctx context.Context, owner, title, content string) (models.Item, error)
	SetCompleted(ctx context.Context, owner string, id int64, completed bool) (int64, error)
	DeleteItem(ctx context.Context, owner string, id int64) (int64, error)

	Settings(ctx context.Context, owner string) (models.UserSettings, error)
	UpsertSettings(ctx context.Context, owner, displayName string) (models.UserSettings, error)
}

type Handler struct {
	store  Store
	issuer *token.Issuer
	logger *slog.Logger
}

func New(store Store, issuer *token.Issuer, logger *slog.Logger) *Handler {
	return &Handler{store: store, issuer: issuer, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// principal returns the caller or writes a 401. Handlers behind RequireAuth
// always have one; the check keeps them safe when mounted elsewhere.
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return p, ok
}

// ownerMatches enforces the row-level policy on the owner filter a client
// supplies: it may only ever name the caller.
func ownerMatches(w http.ResponseWriter, p models.Principal, claimed string) bool {
	if claimed != "" && claimed != p.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "method", r.Method, "path", r.URL.Path)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
