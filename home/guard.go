package home

import (
	"context"
	"log/slog"

	"mini-todo/models"
)

// Guard gates the home screen on a signed-in principal. It is advisory: the
// platform filters every query by the token's owner regardless.
type Guard struct {
	identity Identity
	logger   *slog.Logger
}

func NewGuard(identity Identity, logger *slog.Logger) *Guard {
	return &Guard{identity: identity, logger: logger}
}

// Check returns the principal or ErrLoginRequired. A failed identity lookup
// routes to login exactly like an absent principal.
func (g *Guard) Check(ctx context.Context) (models.Principal, error) {
	p, ok, err := currentPrincipal(ctx, g.identity)
	if err != nil {
		g.logger.Warn("identity check failed", "error", err)
		return models.Principal{}, ErrLoginRequired
	}
	if !ok {
		return models.Principal{}, ErrLoginRequired
	}
	return p, nil
}
