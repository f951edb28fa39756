package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"mini-todo/models"
)

// SessionStore keeps the signed-in session between runs. Load returns
// (nil, nil) when nobody is signed in.
type SessionStore interface {
	Load() (*models.Session, error)
	Save(models.Session) error
	Clear() error
}

const lockTimeout = 2 * time.Second

// FileSessions stores the session as YAML next to a lock file, so two
// running clients never interleave writes.
type FileSessions struct {
	path string
	lock *flock.Flock
}

func NewFileSessions(path string) *FileSessions {
	return &FileSessions{path: path, lock: flock.New(path + ".lock")}
}

func (f *FileSessions) Path() string { return f.path }

func (f *FileSessions) Load() (*models.Session, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s models.Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileSessions) Save(s models.Session) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return f.withLock(func() error {
		tmp := f.path + ".tmp"
		if err := os.WriteFile(tmp, b, 0o600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
		return os.Rename(tmp, f.path)
	})
}

func (f *FileSessions) Clear() error {
	return f.withLock(func() error {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	})
}

func (f *FileSessions) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := f.lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	if !locked {
		return errors.New("session file is locked by another process")
	}
	defer f.lock.Unlock()
	return fn()
}

// MemorySessions keeps the session in process memory only.
type MemorySessions struct {
	mu sync.Mutex
	s  *models.Session
}

func (m *MemorySessions) Load() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemorySessions) Save(s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return nil
}

func (m *MemorySessions) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
