// Package store archives analytics events in SQLite.
//
// Only analytics are persisted. Query caches and seen sets are
// process-lifetime state and never touch the database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AlexLem84/east-idaho-news-app/internal/analytics"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ analytics.Sink = (*Store)(nil)

// Open creates a Store at dbPath, creating tables if needed.
// ":memory:" opens a private in-memory database; file databases use WAL.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		session_id TEXT NOT NULL,
		params TEXT,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_recorded ON analytics_events(recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_events_name ON analytics_events(name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Record inserts one event. Params are stored as a JSON object.
func (s *Store) Record(ctx context.Context, e analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var params []byte
	if len(e.Params) > 0 {
		var err error
		if params, err = json.Marshal(e.Params); err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
	}
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_events (name, session_id, params, recorded_at) VALUES (?, ?, ?, ?)`,
		e.Name, e.SessionID, string(params), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", e.Name, err)
	}
	return nil
}

// Events returns up to limit events, newest first. An empty name matches
// every event.
func (s *Store) Events(name string, limit int) ([]analytics.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT name, session_id, params, recorded_at FROM analytics_events`
	args := []any{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []analytics.Event
	for rows.Next() {
		var e analytics.Event
		var params sql.NullString
		if err := rows.Scan(&e.Name, &e.SessionID, &params, &e.Time); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
				return nil, fmt.Errorf("decode params for %s: %w", e.Name, err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByName returns the number of stored events per name.
func (s *Store) CountByName() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT name, COUNT(*) FROM analytics_events GROUP BY name`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Prune deletes events recorded before cutoff and returns how many went.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM analytics_events WHERE recorded_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}
