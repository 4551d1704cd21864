package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*state.SessionState
	games     map[string]*script.GameScript
	locks     map[uuid.UUID]bool
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*state.SessionState),
		games:    make(map[string]*script.GameScript),
		locks:    make(map[uuid.UUID]bool),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail every SaveSession call
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveSession stores a copy so later mutations by the caller are not visible
// until the next save, matching the Redis implementation.
func (m *MockStorage) SaveSession(ctx context.Context, s *state.SessionState) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// LockSession never waits: a held lock fails immediately with ErrSessionBusy.
func (m *MockStorage) LockSession(ctx context.Context, id uuid.UUID) (UnlockFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return nil, ErrSessionBusy
	}
	m.locks[id] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.locks, id)
		})
	}, nil
}

// IsLocked reports whether a session lock is currently held
func (m *MockStorage) IsLocked(id uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locks[id]
}

func (m *MockStorage) ListGames(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string)
	for file, g := range m.games {
		name := g.Name
		if name == "" {
			name = strings.TrimSuffix(file, filepath.Ext(file))
		}
		result[name] = file
	}
	return result, nil
}

func (m *MockStorage) GetGame(ctx context.Context, file string) (*script.GameScript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, exists := m.games[file]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, file)
	}
	return g, nil
}

// AddGame adds a game script to the mock storage (for testing)
func (m *MockStorage) AddGame(file string, g *script.GameScript) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[file] = g
}

// SessionCount returns the number of stored sessions (for testing)
func (m *MockStorage) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
