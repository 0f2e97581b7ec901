package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/resilience"

	_ "modernc.org/sqlite"
)

// DefaultLimit is how many rows Recent returns when asked for none.
const DefaultLimit = 200

// MaxLimit caps Recent.
const MaxLimit = 5000

// Record is one persisted event.
type Record struct {
	ID      int64           `json:"id"`
	Time    int64           `json:"time"` // unix milliseconds
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Store keeps the event history in SQLite.
type Store struct {
	db      *sql.DB
	backoff resilience.Backoff
}

// Open opens (or creates) the database at path and creates the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}

	s := &Store{db: db, backoff: resilience.DefaultBackoff}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS events (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		time    INTEGER NOT NULL,
		type    TEXT NOT NULL,
		payload TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`)
	return err
}

// Append persists one event, retrying on lock contention.
func (s *Store) Append(ctx context.Context, e events.Event) error {
	payload, err := sonic.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	return resilience.Retry(ctx, s.backoff, isTransient, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO events (time, type, payload) VALUES (?, ?, ?)`,
			e.Timestamp.UnixMilli(), string(e.Type), string(payload),
		)
		return err
	})
}

// Recent returns up to limit events, newest first. A limit of zero or less
// means DefaultLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, type, payload FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Iterate calls fn for every event, oldest first, stopping at the first
// error fn returns.
func (s *Store) Iterate(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, time, type, payload FROM events ORDER BY id ASC`)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// Clear deletes the whole history.
func (s *Store) Clear(ctx context.Context) error {
	return resilience.Retry(ctx, s.backoff, isTransient, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM events`)
		return err
	})
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r       Record
		payload sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.Time, &r.Type, &payload); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	if payload.Valid && payload.String != "" {
		r.Payload = json.RawMessage(payload.String)
	} else {
		r.Payload = json.RawMessage("null")
	}
	return r, nil
}

// isTransient reports SQLite errors that go away on retry: busy and locked
// databases and short WAL reads.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"IOERR_SHORT_READ",
		"database is locked",
		"database table is locked",
		"(5)",
		"(6)",
		"(522)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
