package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// Store persists and retrieves run events.
type Store interface {
	Append(ctx context.Context, e Event) error
	ByRun(ctx context.Context, runID string) ([]Event, error)
	LastFingerprint(ctx context.Context, subrepo, locale string) (string, error)
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeError("open sqlite database", err).WithContext("path", dbPath).Build()
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, storeError("initialize schema", err).WithContext("path", dbPath).Build()
	}
	return store, nil
}

func storeError(msg string, err error) *errors.ErrorBuilder {
	return errors.NewError(errors.CategoryHistory, msg).WithCause(err)
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		subrepo TEXT NOT NULL DEFAULT '',
		locale TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	CREATE INDEX IF NOT EXISTS idx_subrepo_locale ON events(subrepo, locale);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if e.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(e.Metadata); err != nil {
			return storeError("marshal metadata", err).Build()
		}
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := e.Payload
	if payload == nil {
		payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (run_id, event_type, timestamp, subrepo, locale, payload, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.RunID, string(e.Type), ts.UnixMilli(), e.Subrepo, e.Locale, payload, metadataJSON,
	)
	if err != nil {
		return storeError("insert event", err).WithContext("run_id", e.RunID).Build()
	}
	return nil
}

const selectEvents = "SELECT id, run_id, event_type, timestamp, subrepo, locale, payload, metadata FROM events"

// ByRun retrieves all events of one run in insertion order.
func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectEvents+" WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, storeError("query events", err).Build()
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

// LastFingerprint returns the fingerprint recorded by the most recent
// LocaleCopied event for subrepo/locale, or "" when there is none.
func (s *SQLiteStore) LastFingerprint(ctx context.Context, subrepo, locale string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM events WHERE event_type = ? AND subrepo = ? AND locale = ? ORDER BY id DESC LIMIT 1",
		string(LocaleCopied), subrepo, locale,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", storeError("query fingerprint", err).Build()
	}
	var p LocaleCopiedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", storeError("decode fingerprint payload", err).Build()
	}
	return p.Fingerprint, nil
}

// RecentRuns summarizes the newest runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	ids, err := s.recentRunIDs(ctx, limit)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, len(ids))
	for _, id := range ids {
		events, err := s.ByRun(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(id, events))
	}
	return summaries, nil
}

func (s *SQLiteStore) recentRunIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id FROM events WHERE event_type = ? ORDER BY id DESC LIMIT ?",
		string(RunStarted), limit,
	)
	if err != nil {
		return nil, storeError("query runs", err).Build()
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeError("scan run id", err).Build()
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate runs", err).Build()
	}
	return ids, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e            Event
			typ          string
			tsMillis     int64
			metadataJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.RunID, &typ, &tsMillis, &e.Subrepo, &e.Locale, &e.Payload, &metadataJSON); err != nil {
			return nil, storeError("scan event", err).Build()
		}
		e.Type = EventType(typ)
		e.Timestamp = time.UnixMilli(tsMillis)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, storeError("unmarshal metadata", err).Build()
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate rows", err).Build()
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
