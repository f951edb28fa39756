// Package home holds the logic behind the protected home screen: the session
// guard, the item list kept in step with the platform, the display-name
// editor and the greeting clock. It talks to the platform only through the
// interfaces below, so views can be driven by fakes in tests.
package home

import (
	"context"
	"errors"

	"mini-todo/models"
)

var (
	// ErrLoginRequired means there is no signed-in principal and the caller
	// must navigate to the login screen.
	ErrLoginRequired = errors.New("login required")
	// ErrNotSignedIn is returned by writes that need a principal when there is none.
	ErrNotSignedIn = errors.New("you must be logged in")
)

// Identity resolves the signed-in principal; (nil, nil) means nobody.
type Identity interface {
	CurrentUser(ctx context.Context) (*models.Principal, error)
}

type ItemsBackend interface {
	ListItems(ctx context.Context, owner string) ([]models.Item, error)
	InsertItem(ctx context.Context, owner, title, content string) (models.Item, error)
	SetCompleted(ctx context.Context, owner string, id int64, completed bool) (int64, error)
	DeleteItem(ctx context.Context, owner string, id int64) (int64, error)
}

// SettingsBackend reads and upserts per-user settings. Settings returns
// (nil, nil) when the user has none yet.
type SettingsBackend interface {
	Settings(ctx context.Context, owner string) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, owner, displayName string) (models.UserSettings, error)
}

// Backend is everything the home screen needs; *platform.Client implements it.
type Backend interface {
	Identity
	ItemsBackend
	SettingsBackend
}

// currentPrincipal returns the principal, or ok=false when there is none or
// the lookup failed.
func currentPrincipal(ctx context.Context, id Identity) (models.Principal, bool, error) {
	p, err := id.CurrentUser(ctx)
	if err != nil {
		return models.Principal{}, false, err
	}
	if p == nil || p.ID == "" {
		return models.Principal{}, false, nil
	}
	return *p, true, nil
}

// lifetime bounds the requests of one component to the view that owns it.
type lifetime struct {
	base   context.Context
	cancel context.CancelFunc
}

func newLifetime() lifetime {
	base, cancel := context.WithCancel(context.Background())
	return lifetime{base: base, cancel: cancel}
}

// Close cancels in-flight requests. The component must not be used afterwards.
func (l lifetime) Close() {
	l.cancel()
}

// scoped ties ctx to the lifetime. Once closed, the returned ctx is
// already done.
func (l lifetime) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	if l.base.Err() != nil {
		cancel()
		return ctx, cancel
	}
	stop := context.AfterFunc(l.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
