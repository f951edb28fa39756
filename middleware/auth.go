package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"mini-todo/models"
	"mini-todo/token"
)

type contextKey struct{}

var principalKey = contextKey{}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal placed by RequireAuth.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok && p.ID != ""
}

// RequireAuth rejects requests without a valid bearer access token and
// attaches the token's principal to the request context.
func RequireAuth(issuer *token.Issuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader {
				logger.Debug("bearer prefix missing")
				http.Error(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(tokenStr, token.KindAccess)
			if err != nil {
				logger.Debug("token rejected", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), models.Principal{ID: claims.UserID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey rejects requests that do not carry the platform key in the
// apikey header. CORS preflights pass through.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("apikey")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, apikey")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
