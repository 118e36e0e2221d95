// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: seqlog/seqlog.go
// Summary: SQLite-backed recorder for parser event streams.
//
// Records parsed escape sequence events for offline analysis with:
//   - One row per event, grouped into UUID-identified sessions
//   - Async batch writes with size and timeout flushing
//   - Schema versioning with drop-and-recreate on mismatch
//   - Per-session listings, kind counts and recent session queries

package seqlog

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/framegrace/texelvt/vtparse"
)

// Recorder accepts a stream of parser events for one session.
type Recorder interface {
	// Record queues one event. It never blocks; when the queue is full the
	// event is dropped and counted.
	Record(e vtparse.Event)

	// ID returns the session UUID.
	ID() string

	// Flush blocks until every queued event is written.
	Flush() error

	// Close flushes pending events and stops the background writer. The
	// database stays open; closing it is the Store's job.
	Close() error
}

// Config holds the batching configuration for one recording session.
type Config struct {
	// Label is stored with the session, typically the traced command line.
	Label string

	// BatchSize is the number of events to accumulate before writing.
	// Default: 256
	BatchSize int

	// BatchTimeout is how long to wait before writing a partial batch.
	// Default: 2s
	BatchTimeout time.Duration

	// ChannelBuffer is the size of the async event queue.
	// Default: 4096
	ChannelBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     256,
		BatchTimeout:  2 * time.Second,
		ChannelBuffer: 4096,
	}
}

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	Label     string
	Events    int64
}

// StoredEvent is one recorded event row.
type StoredEvent struct {
	Seq       int64
	Timestamp time.Time
	Kind      vtparse.EventKind
	Detail    string
}

// KindCount pairs an event kind with its occurrence count.
type KindCount struct {
	Kind  vtparse.EventKind
	Count int64
}

// Current schema version - bump when a change requires recreating tables.
const schemaVersion = 1

const schema = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- One row per recording run
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,              -- UUID
    started_at INTEGER NOT NULL,      -- UnixNano
    label TEXT NOT NULL DEFAULT ''
);

-- One row per parser event
CREATE TABLE IF NOT EXISTS events (
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,             -- per-session event number, from 1
    timestamp INTEGER NOT NULL,       -- UnixNano
    kind INTEGER NOT NULL,
    detail TEXT NOT NULL,             -- canonical one-line rendering
    PRIMARY KEY (session_id, seq)
);

-- Index for recent-session listing
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
`

// Store is an open sequence log database. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the sequence log at dbPath.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Pragmas for performance and concurrency
	dsn := dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Close every Session first.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates the tables and recreates them when the stored
// schema version does not match.
func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var current int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err != nil {
		// No row or no table yet, treat as fresh
		current = 0
	}
	if current == schemaVersion {
		return nil
	}

	if current != 0 {
		log.Printf("[SEQLOG] Schema version %d found, want %d, recreating tables", current, schemaVersion)
		drops := []string{
			"DROP TABLE IF EXISTS events",
			"DROP TABLE IF EXISTS sessions",
			"DELETE FROM schema_version",
		}
		for _, stmt := range drops {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("schema recreate failed on '%s': %w", stmt, err)
			}
		}
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to recreate schema: %w", err)
		}
	}

	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to store schema version: %w", err)
	}
	return nil
}

// entry is one queued event row.
type entry struct {
	seq       int64
	timestamp time.Time
	kind      vtparse.EventKind
	detail    string
}

// Session records one event stream into the store.
type Session struct {
	store *Store
	cfg   Config
	id    string
	seq   int64

	batchChan chan entry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	dropped   int64
	closeOnce sync.Once
}

// StartSession registers a new session and starts its background writer.
// Zero config fields take their defaults.
func (s *Store) StartSession(cfg Config) (*Session, error) {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = def.ChannelBuffer
	}

	sess := &Session{
		store:     s,
		cfg:       cfg,
		id:        uuid.NewString(),
		batchChan: make(chan entry, cfg.ChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}

	s.mu.Lock()
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, started_at, label) VALUES (?, ?, ?)",
		sess.id, time.Now().UnixNano(), cfg.Label,
	)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	go sess.batchWriter()
	return sess, nil
}

// ID returns the session UUID.
func (sess *Session) ID() string { return sess.id }

// Handler returns a vtparse.Handler that records every callback.
func (sess *Session) Handler() vtparse.Handler {
	return vtparse.EventFunc(sess.Record)
}

// Record queues one event without blocking. Full queue drops the event.
func (sess *Session) Record(e vtparse.Event) {
	sess.seq++
	ent := entry{
		seq:       sess.seq,
		timestamp: time.Now(),
		kind:      e.Kind,
		detail:    e.String(),
	}
	select {
	case sess.batchChan <- ent:
	default:
		sess.dropped++
	}
}

// Flush blocks until all queued events are written.
func (sess *Session) Flush() error {
	done := make(chan struct{})
	select {
	case sess.flushCh <- done:
		<-done
	case <-sess.stopCh:
		// Already stopped
	}
	return nil
}

// Close drains the queue and stops the background writer.
func (sess *Session) Close() error {
	sess.closeOnce.Do(func() {
		close(sess.stopCh)
		<-sess.doneCh
		if sess.dropped > 0 {
			log.Printf("[SEQLOG] Session %s dropped %d events (queue full)", sess.id, sess.dropped)
		}
	})
	return nil
}

// batchWriter runs in a background goroutine, batching entries and writing
// them on size or timeout.
func (sess *Session) batchWriter() {
	defer close(sess.doneCh)

	batch := make([]entry, 0, sess.cfg.BatchSize)
	timer := time.NewTimer(sess.cfg.BatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		sess.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ent := <-sess.batchChan:
			batch = append(batch, ent)
			if len(batch) >= sess.cfg.BatchSize {
				flush()
				timer.Reset(sess.cfg.BatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(sess.cfg.BatchTimeout)

		case done := <-sess.flushCh:
			// Manual flush request - drain the queue first
			draining := true
			for draining {
				select {
				case ent := <-sess.batchChan:
					batch = append(batch, ent)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-sess.stopCh:
			// Drain the queue and flush before exit
			for {
				select {
				case ent := <-sess.batchChan:
					batch = append(batch, ent)
				default:
					flush()
					return
				}
			}
		}
	}
}

// writeBatch stores a batch of entries in a single transaction.
func (sess *Session) writeBatch(batch []entry) {
	sess.store.mu.Lock()
	defer sess.store.mu.Unlock()

	tx, err := sess.store.db.Begin()
	if err != nil {
		log.Printf("[SEQLOG] Failed to begin transaction: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO events (session_id, seq, timestamp, kind, detail) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("[SEQLOG] Failed to prepare statement: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, ent := range batch {
		if _, err := stmt.Exec(sess.id, ent.seq, ent.timestamp.UnixNano(), int(ent.kind), ent.detail); err != nil {
			log.Printf("[SEQLOG] Failed to insert event %d: %v", ent.seq, err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[SEQLOG] Failed to commit batch: %v", err)
	}
}

// Sessions returns the most recent sessions, newest first.
func (s *Store) Sessions(limit int) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT s.id, s.started_at, s.label, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("session query failed: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var startedNano int64
		if err := rows.Scan(&info.ID, &startedNano, &info.Label, &info.Events); err != nil {
			return nil, err
		}
		info.StartedAt = time.Unix(0, startedNano)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Events returns a session's events in order. A non-positive limit
// returns them all.
func (s *Store) Events(sessionID string, limit int) ([]StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`
		SELECT seq, timestamp, kind, detail
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("event query failed: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var ev StoredEvent
		var tsNano int64
		var kind int
		if err := rows.Scan(&ev.Seq, &tsNano, &kind, &ev.Detail); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(0, tsNano)
		ev.Kind = vtparse.EventKind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// KindCounts returns how often each event kind occurred in a session,
// most frequent first.
func (s *Store) KindCounts(sessionID string) ([]KindCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT kind, COUNT(*)
		FROM events
		WHERE session_id = ?
		GROUP BY kind
		ORDER BY COUNT(*) DESC, kind ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("kind count query failed: %w", err)
	}
	defer rows.Close()

	var counts []KindCount
	for rows.Next() {
		var kind int
		var kc KindCount
		if err := rows.Scan(&kind, &kc.Count); err != nil {
			return nil, err
		}
		kc.Kind = vtparse.EventKind(kind)
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

// Compile-time interface check
var _ Recorder = (*Session)(nil)
