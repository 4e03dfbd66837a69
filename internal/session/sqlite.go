package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"invoicer/pkg/models"
)

// SQLiteStore persists sessions in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the session database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, WrapSessionError("OpenSQLite", err, "open sqlite db")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, WrapSessionError("OpenSQLite", execErr, fmt.Sprintf("apply pragma %q", pragma))
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, WrapSessionError("OpenSQLite", err, "")
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*State, error) {
	if err := checkKey("Get", key); err != nil {
		return nil, err
	}

	var (
		step      int
		snapJSON  string
		updatedAt string
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT step, snapshot_json, updated_at FROM sessions WHERE session_key = ?", key)
	if err := row.Scan(&step, &snapJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, WrapSessionError("Get", err, "query session")
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return nil, WrapSessionError("Get", err, "decode snapshot")
	}
	ts, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, WrapSessionError("Get", err, "parse updated_at")
	}
	return &State{Key: key, Step: step, Snapshot: &snap, UpdatedAt: ts}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, state *State) error {
	if err := stamp("Put", state); err != nil {
		return err
	}
	snapJSON, err := json.Marshal(state.Snapshot)
	if err != nil {
		return WrapSessionError("Put", err, "encode snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_key, step, snapshot_json, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(session_key) DO UPDATE SET
            step = excluded.step,
            snapshot_json = excluded.snapshot_json,
            updated_at = excluded.updated_at`,
		state.Key,
		state.Step,
		string(snapJSON),
		state.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return WrapSessionError("Put", err, "upsert session")
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := checkKey("Delete", key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_key = ?", key); err != nil {
		return WrapSessionError("Delete", err, "delete session")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
