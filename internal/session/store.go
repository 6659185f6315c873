package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// CheckpointStore persists the full session state keyed by thread id. The
// stage logic never touches the store; only the machine driver does.
type CheckpointStore interface {
	Save(ctx context.Context, threadID string, state State) error
	Load(ctx context.Context, threadID string) (State, bool, error)
}

// SQLiteStore is a write-through checkpoint store. Each save replaces the
// whole state blob for the thread.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	thread_id  TEXT PRIMARY KEY,
	stage      TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, threadID string, state State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (thread_id, stage, state, updated_at) VALUES (?, ?, ?, ?)`,
		threadID, state.CurrentStage, string(blob), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, threadID string) (State, bool, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob, `SELECT state FROM sessions WHERE thread_id = ?`, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var state State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return State{}, false, fmt.Errorf("unmarshal session state: %w", err)
	}
	return state, true, nil
}

var _ CheckpointStore = (*SQLiteStore)(nil)
