package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mini-todo/db"
	"mini-todo/models"
	"mini-todo/token"
)

const minPasswordLen = 6

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") {
		http.Error(w, "A valid email is required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLen {
		http.Error(w, "Password should be at least 6 characters", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(w, r, "hash password", err)
		return
	}
	user, err := h.store.CreateUser(r.Context(), req.Email, string(hash))
	if errors.Is(err, db.ErrEmailTaken) {
		http.Error(w, "User already registered", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internalError(w, r, "create user", err)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, models.Principal{ID: user.ID, Email: user.Email})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.internalError(w, r, "lookup user", err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid login credentials", http.StatusUnauthorized)
		return
	}

	h.issueSession(w, r, user)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	claims, err := h.issuer.Parse(req.RefreshToken, token.KindRefresh)
	if err != nil {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}
	user, err := h.store.UserByID(r.Context(), claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.internalError(w, r, "lookup user", err)
		return
	}

	h.issueSession(w, r, user)
}

// User returns the principal behind the bearer token, provided the account
// still exists.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.store.UserByID(r.Context(), p.ID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.internalError(w, r, "lookup user", err)
		return
	}
	writeJSON(w, http.StatusOK, models.Principal{ID: user.ID, Email: user.Email})
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, user models.User) {
	pair, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		h.internalError(w, r, "issue tokens", err)
		return
	}
	writeJSON(w, http.StatusOK, models.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		User:         models.Principal{ID: user.ID, Email: user.Email},
	})
}
