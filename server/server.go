package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mini-todo/config"
	"mini-todo/db"
	"mini-todo/handlers"
	appmw "mini-todo/middleware"
	"mini-todo/token"
)

// NewRouter wires the platform API. Every route needs the API key; item,
// settings and user routes also need a bearer access token.
func NewRouter(h *handlers.Handler, issuer *token.Issuer, apiKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS)
	r.Use(appmw.RequireAPIKey(apiKey))

	r.Post("/api/register", h.Register)
	r.Post("/api/login", h.Login)
	r.Post("/api/refresh-token", h.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(appmw.RequireAuth(issuer, logger))
		r.Get("/api/user", h.User)
		r.Get("/api/items", h.ListItems)
		r.Post("/api/items", h.CreateItem)
		r.Patch("/api/items/{id}", h.UpdateItem)
		r.Delete("/api/items/{id}", h.DeleteItem)
		r.Get("/api/settings", h.GetSettings)
		r.Put("/api/settings", h.PutSettings)
	})

	return r
}

// Run opens the database and serves the API until ctx is canceled.
func Run(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	store, err := db.Open(ctx, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	issuer := token.NewIssuer(cfg.JWTSecret)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(handlers.New(store, issuer, logger), issuer, cfg.PlatformKey, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", cfg.Addr, "driver", cfg.DBDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
