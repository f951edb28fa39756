package home

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"mini-todo/models"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend is an in-memory Backend. Hooks let tests block or fail
// individual calls.
type fakeBackend struct {
	mu        sync.Mutex
	principal *models.Principal
	userErr   error
	items     []models.Item
	nextID    int64
	settings  map[string]string

	calls map[string]int

	listErr   error
	insertErr error
	upsertErr error
	// beforeList runs at the start of every ListItems call with its 1-based
	// call number, outside the lock. A non-nil result replaces the listing.
	beforeList func(ctx context.Context, n int) ([]models.Item, error)
	// beforeInsert runs at the start of InsertItem, outside the lock.
	beforeInsert func(ctx context.Context) error
	// beforeSettings and beforeUpsert run at the start of the settings
	// calls, outside the lock. An error is returned as the call's result.
	beforeSettings func(ctx context.Context) error
	beforeUpsert   func(ctx context.Context) error
}

func newFakeBackend(userID string) *fakeBackend {
	f := &fakeBackend{settings: map[string]string{}, calls: map[string]int{}}
	if userID != "" {
		f.principal = &models.Principal{ID: userID, Email: userID + "@example.com"}
	}
	return f
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (*models.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CurrentUser"]++
	if f.userErr != nil {
		return nil, f.userErr
	}
	if f.principal == nil {
		return nil, nil
	}
	p := *f.principal
	return &p, nil
}

func (f *fakeBackend) ListItems(ctx context.Context, owner string) ([]models.Item, error) {
	f.mu.Lock()
	f.calls["ListItems"]++
	n := f.calls["ListItems"]
	hook := f.beforeList
	f.mu.Unlock()

	if hook != nil {
		items, err := hook(ctx, n)
		if err != nil {
			return nil, err
		}
		if items != nil {
			return items, nil
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Item{}
	for _, it := range f.items {
		if it.Owner == owner {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertItem(ctx context.Context, owner, title, content string) (models.Item, error) {
	f.mu.Lock()
	f.calls["InsertItem"]++
	hook := f.beforeInsert
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return models.Item{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return models.Item{}, f.insertErr
	}
	f.nextID++
	it := models.Item{ID: f.nextID, Title: title, Content: content, Owner: owner, CreatedAt: time.Now()}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeBackend) SetCompleted(ctx context.Context, owner string, id int64, completed bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SetCompleted"]++
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].Owner == owner {
			f.items[i].Completed = completed
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeBackend) DeleteItem(ctx context.Context, owner string, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteItem"]++
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].Owner == owner {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeBackend) Settings(ctx context.Context, owner string) (*models.UserSettings, error) {
	if hook := f.beforeSettings; hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Settings"]++
	name, ok := f.settings[owner]
	if !ok {
		return nil, nil
	}
	return &models.UserSettings{Owner: owner, DisplayName: name}, nil
}

func (f *fakeBackend) UpsertSettings(ctx context.Context, owner, displayName string) (models.UserSettings, error) {
	if hook := f.beforeUpsert; hook != nil {
		if err := hook(ctx); err != nil {
			return models.UserSettings{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpsertSettings"]++
	if f.upsertErr != nil {
		return models.UserSettings{}, f.upsertErr
	}
	f.settings[owner] = displayName
	return models.UserSettings{Owner: owner, DisplayName: displayName}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
