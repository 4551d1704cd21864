package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/map-quest/pkg/script"
	"github.com/jwebster45206/map-quest/pkg/state"
	"github.com/jwebster45206/map-quest/pkg/storage"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	sessionKeyPrefix = "session:"
	lockKeyPrefix    = "session-lock:"
	lockTTL          = 10 * time.Second
	lockAttempts     = 40
	lockRetryDelay   = 25 * time.Millisecond
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStorage implements the Storage interface using Redis for session
// state and the filesystem for game scripts.
type RedisStorage struct {
	client     *redis.Client
	logger     *slog.Logger
	dataDir    string
	sessionTTL time.Duration

	mu    sync.RWMutex
	games map[string]*script.GameScript
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port address.
func NewRedisStorage(redisURL string, dataDir string, sessionTTL time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		var err error
		opts, err = redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
	}

	if dataDir == "" {
		dataDir = "./data"
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &RedisStorage{
		client:     redis.NewClient(opts),
		logger:     logger,
		dataDir:    dataDir,
		sessionTTL: sessionTTL,
		games:      make(map[string]*script.GameScript),
	}, nil
}

// Client returns the underlying Redis client for pub/sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Session operations (Redis-backed)

func (r *RedisStorage) SaveSession(ctx context.Context, s *state.SessionState) error {
	s.UpdatedAt = time.Now()

	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID.String(), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.SessionState, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Session not found", "session_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s state.SessionState
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.UserChoices == nil {
		s.UserChoices = make(map[int]int)
	}
	if s.UserChoiceOrder == nil {
		s.UserChoiceOrder = make([]int, 0)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LockSession takes a short-lived Redis lock for the session, retrying for
// about a second before giving up with ErrSessionBusy.
func (r *RedisStorage) LockSession(ctx context.Context, id uuid.UUID) (storage.UnlockFunc, error) {
	key := lockKeyPrefix + id.String()
	token := uuid.NewString()

	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := r.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock session: %w", err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// The request context may already be done; release regardless.
					releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := releaseLock.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
						r.logger.Warn("Failed to release session lock", "session_id", id, "error", err)
					}
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while waiting for session lock: %w", ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}

	r.logger.Warn("Session lock contended", "session_id", id)
	return nil, storage.ErrSessionBusy
}

// Game script operations (filesystem-backed)

func (r *RedisStorage) gamesDir() string {
	return filepath.Join(r.dataDir, "games")
}

func (r *RedisStorage) ListGames(ctx context.Context) (map[string]string, error) {
	games := make(map[string]string)

	err := filepath.WalkDir(r.gamesDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !script.IsScriptFile(path) {
			return nil
		}

		file := filepath.Base(path)
		g, err := r.GetGame(ctx, file)
		if err != nil {
			r.logger.Warn("Failed to load game script", "path", path, "error", err)
			return nil
		}

		name := g.Name
		if name == "" {
			name = strings.TrimSuffix(file, filepath.Ext(file))
		}
		games[name] = file
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk games directory", "error", err)
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	return games, nil
}

// GetGame loads a game script by file name. Scripts are immutable, so each
// is parsed once and shared by every session.
func (r *RedisStorage) GetGame(ctx context.Context, file string) (*script.GameScript, error) {
	if file == "" || file != filepath.Base(file) || !script.IsScriptFile(file) {
		return nil, fmt.Errorf("%w: %q", storage.ErrGameNotFound, file)
	}

	r.mu.RLock()
	g, ok := r.games[file]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := script.Load(filepath.Join(r.gamesDir(), file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrGameNotFound, file)
		}
		return nil, err
	}

	r.mu.Lock()
	r.games[file] = g
	r.mu.Unlock()

	r.logger.Debug("Loaded game script", "file", file, "prompts", len(g.PromptList))
	return g, nil
}
