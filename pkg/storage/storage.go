package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
)

var (
	// ErrGameNotFound is returned when no game script exists under a file name.
	ErrGameNotFound = errors.New("game not found")
	// ErrSessionBusy is returned when another request holds the session lock.
	ErrSessionBusy = errors.New("session is busy")
)

// UnlockFunc releases a session lock. It is safe to call more than once.
type UnlockFunc func()

// Storage defines a unified interface for all storage operations.
// Session state lives in Redis; game scripts are loaded from the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). LoadSession returns nil, nil when
	// the session does not exist.
	SaveSession(ctx context.Context, s *state.SessionState) error
	LoadSession(ctx context.Context, id uuid.UUID) (*state.SessionState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// LockSession serializes work on one session across requests and
	// processes. It fails with ErrSessionBusy if the lock cannot be taken.
	LockSession(ctx context.Context, id uuid.UUID) (UnlockFunc, error)

	// Game script operations (filesystem-backed)
	ListGames(ctx context.Context) (map[string]string, error) // display name -> file
	GetGame(ctx context.Context, file string) (*script.GameScript, error)
}
