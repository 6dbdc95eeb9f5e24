package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/park285/chr0n-bot/internal/obslog"
	"go.uber.org/zap"
)

// Backend persists one opaque snapshot blob.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Store owns the in-memory aggregate. Every access goes through the mutex, so the read loop
// and the background announcer can both write without losing updates.
type Store struct {
	mu      sync.Mutex
	snap    *Snapshot
	backend Backend
	onSave  func(err error)
}

type Option func(*Store)

// WithSaveHook registers a callback invoked after every save attempt (err is nil on success).
func WithSaveHook(fn func(err error)) Option {
	return func(s *Store) { s.onSave = fn }
}

// Open loads the snapshot from backend. A missing, truncated or corrupt snapshot yields an
// empty aggregate; only a backend read failure is returned as an error.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, errors.New("nil state backend")
	}
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		obslog.L().Info("state_empty", zap.String("reason", "no snapshot"))
		s.snap = NewSnapshot()
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}

	snap, derr := decode(raw)
	if derr != nil {
		obslog.L().Warn("state_corrupt", zap.Int("bytes", len(raw)), zap.Error(derr))
		snap = NewSnapshot()
	}
	s.snap = snap
	obslog.L().Info("state_loaded", zap.Int("identities", len(snap.Timestamps)))
	return s, nil
}

func decode(raw []byte) (*Snapshot, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	snap.ensure()
	return &snap, nil
}

// Update runs fn against the aggregate under the lock and persists the whole snapshot when fn
// succeeds. An error from fn skips the save and is returned unchanged; fn must not mutate
// before deciding to fail. Persistence failures are logged and swallowed.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.snap); err != nil {
		return err
	}
	s.saveLocked(ctx)
	return nil
}

// View runs fn against the aggregate under the lock. fn must not retain references.
func (s *Store) View(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.snap)
}

// Flush writes the current snapshot regardless of pending mutations.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(s.snap)
	if err == nil {
		err = s.backend.Save(ctx, raw)
	}
	if err != nil {
		obslog.L().Error("state_save_failed", zap.Error(err))
	}
	if s.onSave != nil {
		s.onSave(err)
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
