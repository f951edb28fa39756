package home

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNameEditorLoad(t *testing.T) {
	ctx := context.Background()

	// Test case 1: No settings row
	t.Run("No settings", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Editing {
			t.Errorf("Expected editing, got %v", e.Mode())
		}
	})

	// Test case 2: Stored name
	t.Run("Stored name", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.settings["u1"] = "Alice"
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Display || e.Shown() != "Alice" {
			t.Errorf("Expected display of Alice, got %v %q", e.Mode(), e.Shown())
		}
	})

	// Test case 3: Stored blank name counts as none
	t.Run("Blank stored name", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.settings["u1"] = "   "
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Editing {
			t.Errorf("Expected editing, got %v", e.Mode())
		}
	})

	// Test case 4: No principal
	t.Run("No principal", func(t *testing.T) {
		fb := newFakeBackend("")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if n := fb.count("Settings"); n != 0 {
			t.Errorf("Expected no settings call, got %d", n)
		}
	})
}

func TestNameEditorSubmit(t *testing.T) {
	ctx := context.Background()

	// Test case 1: Name is trimmed before saving
	t.Run("Trimmed", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Submit(ctx, "  Alice "); err != nil {
			t.Fatal(err)
		}
		if got := fb.settings["u1"]; got != "Alice" {
			t.Errorf("Expected persisted %q, got %q", "Alice", got)
		}
		if e.Mode() != Display || e.Name() != "Alice" {
			t.Errorf("Expected display of Alice, got %v %q", e.Mode(), e.Name())
		}
	})

	// Test case 2: Blank submit stays in editing
	t.Run("Blank", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Submit(ctx, "   "); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Editing {
			t.Errorf("Expected editing, got %v", e.Mode())
		}
		if n := fb.count("UpsertSettings"); n != 0 {
			t.Errorf("Expected no upsert, got %d", n)
		}
	})

	// Test case 3: Upsert fails but the editor still closes
	t.Run("Upsert error", func(t *testing.T) {
		fb := newFakeBackend("u1")
		fb.upsertErr = errBackend
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Submit(ctx, "Alice"); !errors.Is(err, errBackend) {
			t.Fatalf("Expected wrapped backend error, got %v", err)
		}
		if e.Mode() != Display {
			t.Errorf("Expected display, got %v", e.Mode())
		}
	})

	// Test case 4: No principal
	t.Run("Not signed in", func(t *testing.T) {
		fb := newFakeBackend("")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Submit(ctx, "Alice"); !errors.Is(err, ErrNotSignedIn) {
			t.Fatalf("Expected ErrNotSignedIn, got %v", err)
		}
		if e.Mode() != Editing {
			t.Errorf("Expected editing, got %v", e.Mode())
		}
	})
}

func TestNameEditorBlur(t *testing.T) {
	ctx := context.Background()

	// Test case 1: Blank blur closes without saving
	t.Run("Blank", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Blur(ctx, " "); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Display {
			t.Errorf("Expected display, got %v", e.Mode())
		}
		if e.Shown() != NamePlaceholder {
			t.Errorf("Expected placeholder, got %q", e.Shown())
		}
		if n := fb.count("UpsertSettings"); n != 0 {
			t.Errorf("Expected no upsert, got %d", n)
		}
	})

	// Test case 2: Non-blank blur saves
	t.Run("Saves", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())

		if err := e.Blur(ctx, "Bob"); err != nil {
			t.Fatal(err)
		}
		if got := fb.settings["u1"]; got != "Bob" {
			t.Errorf("Expected persisted %q, got %q", "Bob", got)
		}
	})

	// Test case 3: Edit then blank blur keeps the previous name
	t.Run("Keeps previous name", func(t *testing.T) {
		fb := newFakeBackend("u1")
		e := NewNameEditor(fb, fb, testLogger())
		if err := e.Submit(ctx, "Alice"); err != nil {
			t.Fatal(err)
		}

		e.Edit()
		if e.Mode() != Editing {
			t.Fatalf("Expected editing after Edit, got %v", e.Mode())
		}
		if err := e.Blur(ctx, ""); err != nil {
			t.Fatal(err)
		}
		if e.Mode() != Display || e.Shown() != "Alice" {
			t.Errorf("Expected display of Alice, got %v %q", e.Mode(), e.Shown())
		}
		if n := fb.count("UpsertSettings"); n != 1 {
			t.Errorf("Expected one upsert, got %d", n)
		}
	})
}

func TestNameEditorCloseCancelsInFlight(t *testing.T) {
	// blockUntilDone parks a backend call until its context ends.
	blockUntilDone := func(entered chan struct{}) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		}
	}

	// Test case 1: Settings load
	t.Run("Load", func(t *testing.T) {
		fb := newFakeBackend("u1")
		entered := make(chan struct{})
		fb.beforeSettings = blockUntilDone(entered)
		e := NewNameEditor(fb, fb, testLogger())

		done := make(chan error, 1)
		go func() { done <- e.Load(context.Background()) }()
		<-entered
		e.Close()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Load did not return after Close")
		}
	})

	// Test case 2: Name upsert
	t.Run("Submit", func(t *testing.T) {
		fb := newFakeBackend("u1")
		entered := make(chan struct{})
		fb.beforeUpsert = blockUntilDone(entered)
		e := NewNameEditor(fb, fb, testLogger())

		done := make(chan error, 1)
		go func() { done <- e.Submit(context.Background(), "Alice") }()
		<-entered
		e.Close()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Submit did not return after Close")
		}
		if _, ok := fb.settings["u1"]; ok {
			t.Error("cancelled upsert should not be stored")
		}
	})
}
