package home

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Mode is the display-name editor's state.
type Mode int

const (
	Editing Mode = iota
	Display
)

func (m Mode) String() string {
	if m == Display {
		return "display"
	}
	return "editing"
}

// NamePlaceholder is shown in Display mode when no name is set.
const NamePlaceholder = "set your name"

// NameEditor edits the display name shown in the greeting. It starts in
// Editing and moves to Display once a name is saved or the input loses focus.
type NameEditor struct {
	backend  SettingsBackend
	identity Identity
	logger   *slog.Logger

	lifetime

	mu   sync.Mutex
	mode Mode
	name string
}

func NewNameEditor(backend SettingsBackend, identity Identity, logger *slog.Logger) *NameEditor {
	return &NameEditor{
		backend:  backend,
		identity: identity,
		logger:   logger,
		lifetime: newLifetime(),
		mode:     Editing,
	}
}

func (e *NameEditor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Name is the saved name, or "" when there is none.
func (e *NameEditor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Shown is what Display mode renders.
func (e *NameEditor) Shown() string {
	if n := e.Name(); n != "" {
		return n
	}
	return NamePlaceholder
}

// Load picks the initial mode from the stored settings: a non-blank name
// means Display, anything else Editing.
func (e *NameEditor) Load(ctx context.Context) error {
	ctx, done := e.scoped(ctx)
	defer done()

	p, ok, err := currentPrincipal(ctx, e.identity)
	if err != nil || !ok {
		e.set(Editing, "")
		return err
	}
	settings, err := e.backend.Settings(ctx, p.ID)
	if err != nil {
		e.logger.Error("load settings", "error", err)
		e.set(Editing, "")
		return fmt.Errorf("load name: %w", err)
	}
	if settings == nil || strings.TrimSpace(settings.DisplayName) == "" {
		e.set(Editing, "")
		return nil
	}
	e.set(Display, strings.TrimSpace(settings.DisplayName))
	return nil
}

// Submit handles Enter. A blank name keeps the editor open and saves nothing.
func (e *NameEditor) Submit(ctx context.Context, input string) error {
	name := strings.TrimSpace(input)
	if name == "" {
		return nil
	}
	return e.save(ctx, name)
}

// Blur handles the input losing focus. A blank name closes the editor
// without saving, leaving the placeholder (or the previous name) on show.
func (e *NameEditor) Blur(ctx context.Context, input string) error {
	name := strings.TrimSpace(input)
	if name == "" {
		e.mu.Lock()
		e.mode = Display
		e.mu.Unlock()
		return nil
	}
	return e.save(ctx, name)
}

// Edit reopens the editor from Display.
func (e *NameEditor) Edit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = Editing
}

// save upserts the name for the signed-in principal and switches to Display.
// The switch happens even when the write fails; the error is returned so it
// can be shown.
func (e *NameEditor) save(ctx context.Context, name string) error {
	ctx, done := e.scoped(ctx)
	defer done()

	p, ok, err := currentPrincipal(ctx, e.identity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSignedIn
	}
	e.set(Display, name)
	if _, err := e.backend.UpsertSettings(ctx, p.ID, name); err != nil {
		e.logger.Error("save name", "error", err)
		return fmt.Errorf("save name: %w", err)
	}
	return nil
}

func (e *NameEditor) set(mode Mode, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
	e.name = name
}
