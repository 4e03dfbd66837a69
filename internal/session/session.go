// Package session persists wizard progress between CLI invocations.
//
// A session holds the current step and the Snapshot being edited. Three stores
// are available: memory (process lifetime), sqlite (a local file) and redis
// (shared, with expiry).
package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicer/pkg/models"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// State is one saved wizard session.
type State struct {
	Key       string           `json:"key"`
	Step      int              `json:"step"`
	Snapshot  *models.Snapshot `json:"snapshot"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store loads and saves session state. Get returns (nil, nil) when the key is
// unknown or expired.
type Store interface {
	Get(ctx context.Context, key string) (*State, error)
	Put(ctx context.Context, state *State) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	Backend       string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// TTL applies to the redis store only; zero means no expiry.
	TTL time.Duration
}

// Open creates the Store named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, WrapSessionError("Open", err, "create session directory")
			}
		}
		store, err := OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendRedis:
		store, err := OpenRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, WrapSessionError("Open", ErrUnknownBackend, cfg.Backend)
}

// NewKey returns a fresh random session key.
func NewKey() string {
	return uuid.NewString()
}

func checkKey(op, key string) error {
	if strings.TrimSpace(key) == "" {
		return WrapSessionError(op, ErrEmptyKey, "")
	}
	return nil
}

// stamp validates state and sets its update time.
func stamp(op string, state *State) error {
	if state == nil || state.Snapshot == nil {
		return WrapSessionError(op, ErrNoSnapshot, "")
	}
	if err := checkKey(op, state.Key); err != nil {
		return err
	}
	state.UpdatedAt = time.Now().UTC()
	return nil
}
