package home

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mini-todo/models"
)

// Items is the local view of the signed-in user's items. It never patches
// the list in place: every successful mutation is followed by a full reload,
// so what it holds is always something the platform returned.
//
// Each reload is numbered when issued. A result is applied only if it is
// newer than the last applied one, so a slow early reload cannot overwrite
// the outcome of a later mutation.
type Items struct {
	backend  ItemsBackend
	identity Identity
	logger   *slog.Logger

	lifetime

	mu       sync.Mutex
	items    []models.Item
	loaded   bool
	adding   bool
	deleting map[int64]bool
	issued   uint64
	applied  uint64
}

func NewItems(backend ItemsBackend, identity Identity, logger *slog.Logger) *Items {
	return &Items{
		backend:  backend,
		identity: identity,
		logger:   logger,
		lifetime: newLifetime(),
		deleting: map[int64]bool{},
	}
}

// Snapshot returns a copy of the current list.
func (s *Items) Snapshot() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Loaded reports whether any reload has succeeded yet.
func (s *Items) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *Items) Adding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adding
}

func (s *Items) Deleting(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting[id]
}

// Reload fetches the full list. Without a principal it does nothing. On
// error the previous list is kept. After Close it fails without a call.
func (s *Items) Reload(ctx context.Context) error {
	ctx, done := s.scoped(ctx)
	defer done()
	if err := ctx.Err(); err != nil {
		return err
	}

	p, ok, err := currentPrincipal(ctx, s.identity)
	if err != nil || !ok {
		return err
	}
	return s.reload(ctx, p.ID)
}

func (s *Items) reload(ctx context.Context, owner string) error {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	items, err := s.backend.ListItems(ctx, owner)
	if err != nil {
		s.logger.Error("list items", "error", err)
		return fmt.Errorf("load tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.logger.Debug("discarding stale reload", "seq", seq, "applied", s.applied)
		return nil
	}
	s.applied = seq
	s.items = items
	s.loaded = true
	return nil
}

// Add inserts a new item and reloads. A blank title is ignored without a
// remote call, and so is an Add while another one is in flight.
func (s *Items) Add(ctx context.Context, title, content string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	s.mu.Lock()
	if s.adding {
		s.mu.Unlock()
		return nil
	}
	s.adding = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.adding = false
		s.mu.Unlock()
	}()

	ctx, done := s.scoped(ctx)
	defer done()

	p, ok, err := currentPrincipal(ctx, s.identity)
	if err != nil {
		s.logger.Warn("identity check failed", "error", err)
	}
	if !ok {
		return ErrNotSignedIn
	}
	if _, err := s.backend.InsertItem(ctx, p.ID, title, strings.TrimSpace(content)); err != nil {
		s.logger.Error("insert item", "error", err)
		return fmt.Errorf("add task: %w", err)
	}
	return s.reload(ctx, p.ID)
}

// Toggle writes the opposite of current and reloads. The local list is not
// flipped ahead of the reload.
func (s *Items) Toggle(ctx context.Context, id int64, current bool) error {
	ctx, done := s.scoped(ctx)
	defer done()

	p, ok, err := currentPrincipal(ctx, s.identity)
	if err != nil || !ok {
		return err
	}
	if _, err := s.backend.SetCompleted(ctx, p.ID, id, !current); err != nil {
		s.logger.Error("update item", "id", id, "error", err)
		return fmt.Errorf("update task: %w", err)
	}
	return s.reload(ctx, p.ID)
}

// Delete removes the item and reloads. While the call is in flight
// Deleting(id) is true and further deletes of the same id are ignored.
func (s *Items) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if s.deleting[id] {
		s.mu.Unlock()
		return nil
	}
	s.deleting[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.deleting, id)
		s.mu.Unlock()
	}()

	ctx, done := s.scoped(ctx)
	defer done()

	p, ok, err := currentPrincipal(ctx, s.identity)
	if err != nil || !ok {
		return err
	}
	if _, err := s.backend.DeleteItem(ctx, p.ID, id); err != nil {
		s.logger.Error("delete item", "id", id, "error", err)
		return fmt.Errorf("delete task: %w", err)
	}
	return s.reload(ctx, p.ID)
}
