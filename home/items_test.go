package home

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"mini-todo/models"
)

func titles(items []models.Item) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestItemsAdd(t *testing.T) {
	ctx := context.Background()

	// Test case 1: Blank title makes no remote call
	t.Run("Blank title", func(t *testing.T) {
		fb := newFakeBackend("u1")
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Add(ctx, "   ", "ignored"); err != nil {
			t.Fatalf("Add returned %v", err)
		}
		if n := fb.count("InsertItem"); n != 0 {
			t.Errorf("Expected no insert, got %d", n)
		}
		if n := fb.count("ListItems"); n != 0 {
			t.Errorf("Expected no reload, got %d", n)
		}
	})

	// Test case 2: Add trims and reloads
	t.Run("Add and reload", func(t *testing.T) {
		fb := newFakeBackend("u1")
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Add(ctx, "  Buy milk ", " 2 litres "); err != nil {
			t.Fatalf("Add returned %v", err)
		}
		got := s.Snapshot()
		if len(got) != 1 || got[0].Title != "Buy milk" || got[0].Content != "2 litres" {
			t.Fatalf("unexpected list %+v", got)
		}
		if got[0].Completed {
			t.Error("new item should not be completed")
		}
		if !s.Loaded() {
			t.Error("Loaded should be true after a successful reload")
		}
		if s.Adding() {
			t.Error("Adding should be cleared")
		}
	})

	// Test case 3: No principal
	t.Run("Not signed in", func(t *testing.T) {
		fb := newFakeBackend("")
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		err := s.Add(ctx, "Buy milk", "")
		if !errors.Is(err, ErrNotSignedIn) {
			t.Fatalf("Expected ErrNotSignedIn, got %v", err)
		}
		if n := fb.count("InsertItem"); n != 0 {
			t.Errorf("Expected no insert, got %d", n)
		}
	})

	// Test case 4: Identity lookup fails
	t.Run("Identity error", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.userErr = errBackend
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Add(ctx, "Buy milk", ""); !errors.Is(err, ErrNotSignedIn) {
			t.Fatalf("Expected ErrNotSignedIn, got %v", err)
		}
	})

	// Test case 5: Insert fails, list untouched
	t.Run("Insert error", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.insertErr = errBackend
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Add(ctx, "Buy milk", ""); !errors.Is(err, errBackend) {
			t.Fatalf("Expected wrapped backend error, got %v", err)
		}
		if n := fb.count("ListItems"); n != 0 {
			t.Errorf("Expected no reload after failed insert, got %d", n)
		}
		if s.Adding() {
			t.Error("Adding should be cleared after failure")
		}
	})
}

func TestItemsAddGuard(t *testing.T) {
	fb := newFakeBackend("u1")
	entered := make(chan struct{})
	release := make(chan struct{})
	fb.beforeInsert = func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}
	s := NewItems(fb, fb, testLogger())
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.Add(context.Background(), "first", ""); err != nil {
			t.Errorf("first Add returned %v", err)
		}
	}()
	<-entered

	if !s.Adding() {
		t.Error("Adding should be set while an insert is in flight")
	}
	if err := s.Add(context.Background(), "second", ""); err != nil {
		t.Errorf("second Add returned %v", err)
	}
	close(release)
	wg.Wait()

	if n := fb.count("InsertItem"); n != 1 {
		t.Errorf("Expected one insert, got %d", n)
	}
	if diff := cmp.Diff([]string{"first"}, titles(s.Snapshot())); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsRoundTrip(t *testing.T) {
	ctx := context.Background()
	fb := newFakeBackend("u1")
	s := NewItems(fb, fb, testLogger())
	defer s.Close()

	if err := s.Add(ctx, "Buy milk", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "Walk dog", ""); err != nil {
		t.Fatal(err)
	}
	items := s.Snapshot()
	if diff := cmp.Diff([]string{"Buy milk", "Walk dog"}, titles(items)); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	if err := s.Toggle(ctx, items[0].ID, items[0].Completed); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot(); !got[0].Completed || got[1].Completed {
		t.Errorf("Expected only the first item completed, got %+v", got)
	}

	if err := s.Toggle(ctx, items[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot(); got[0].Completed {
		t.Error("Toggling a completed item should clear it")
	}

	if err := s.Delete(ctx, items[1].ID); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Buy milk"}, titles(s.Snapshot())); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
	if s.Deleting(items[1].ID) {
		t.Error("deleting marker should be cleared")
	}
}

func TestItemsReload(t *testing.T) {
	ctx := context.Background()

	// Test case 1: Silent without a principal
	t.Run("No principal", func(t *testing.T) {
		fb := newFakeBackend("")
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Reload(ctx); err != nil {
			t.Fatalf("Reload returned %v", err)
		}
		if n := fb.count("ListItems"); n != 0 {
			t.Errorf("Expected no list call, got %d", n)
		}
		if s.Loaded() {
			t.Error("nothing should be loaded")
		}
	})

	// Test case 2: Error keeps the previous list
	t.Run("Error keeps list", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.items = []models.Item{{ID: 1, Title: "Buy milk", Owner: "u1"}}
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Reload(ctx); err != nil {
			t.Fatal(err)
		}
		fb.mu.Lock()
		fb.listErr = errBackend
		fb.mu.Unlock()

		if err := s.Reload(ctx); !errors.Is(err, errBackend) {
			t.Fatalf("Expected wrapped backend error, got %v", err)
		}
		if diff := cmp.Diff([]string{"Buy milk"}, titles(s.Snapshot())); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
	})

	// Test case 3: Only the caller's rows
	t.Run("Owner filter", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.items = []models.Item{
			{ID: 1, Title: "mine", Owner: "u1"},
			{ID: 2, Title: "theirs", Owner: "u2"},
		}
		s := NewItems(fb, fb, testLogger())
		defer s.Close()

		if err := s.Reload(ctx); err != nil {
			t.Fatal(err)
		}
		want := []models.Item{{ID: 1, Title: "mine", Owner: "u1"}}
		if diff := cmp.Diff(want, s.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestItemsStaleReloadDiscarded(t *testing.T) {
	fb := newFakeBackend("u1")
	fb.items = []models.Item{{ID: 1, Title: "old", Owner: "u1"}}
	started := make(chan struct{})
	release := make(chan struct{})
	fb.beforeList = func(ctx context.Context, n int) ([]models.Item, error) {
		if n != 1 {
			return nil, nil
		}
		close(started)
		<-release
		// What the platform held when the slow request was served.
		return []models.Item{{ID: 1, Title: "old", Owner: "u1"}}, nil
	}
	s := NewItems(fb, fb, testLogger())
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- s.Reload(context.Background()) }()
	<-started

	if err := s.Add(context.Background(), "new", ""); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"old", "new"}, titles(s.Snapshot())); diff != "" {
		t.Fatalf("list after add mismatch (-want +got):\n%s", diff)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow Reload returned %v", err)
	}
	if diff := cmp.Diff([]string{"old", "new"}, titles(s.Snapshot())); diff != "" {
		t.Errorf("stale reload overwrote newer list (-want +got):\n%s", diff)
	}
}

func TestItemsDeleteMarker(t *testing.T) {
	fb := newFakeBackend("u1")
	fb.items = []models.Item{{ID: 7, Title: "Buy milk", Owner: "u1"}}
	entered := make(chan struct{})
	release := make(chan struct{})
	fb.beforeList = func(ctx context.Context, n int) ([]models.Item, error) {
		if n == 1 {
			close(entered)
			<-release
		}
		return nil, nil
	}
	s := NewItems(fb, fb, testLogger())
	defer s.Close()

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), 7) }()
	<-entered

	if !s.Deleting(7) {
		t.Error("Deleting should be true while the delete is in flight")
	}
	if err := s.Delete(context.Background(), 7); err != nil {
		t.Errorf("duplicate Delete returned %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if n := fb.count("DeleteItem"); n != 1 {
		t.Errorf("Expected one delete call, got %d", n)
	}
	if s.Deleting(7) {
		t.Error("deleting marker should be cleared")
	}
	if len(s.Snapshot()) != 0 {
		t.Errorf("Expected empty list, got %+v", s.Snapshot())
	}
}

func TestItemsCloseCancelsInFlight(t *testing.T) {
	fb := newFakeBackend("u1")
	entered := make(chan struct{})
	fb.beforeList = func(ctx context.Context, n int) ([]models.Item, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := NewItems(fb, fb, testLogger())

	done := make(chan error, 1)
	go func() { done <- s.Reload(context.Background()) }()
	<-entered
	s.Close()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Reload did not return after Close")
	}
	if s.Loaded() {
		t.Error("cancelled reload should not apply")
	}
}
