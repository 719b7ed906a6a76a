// Package store persists the last accepted scene per strip, plus an
// append-only ledger of updates, in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledstrip/internal/scene"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens the database and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scene_state (
			strip TEXT PRIMARY KEY,
			frame BLOB NOT NULL,
			version INTEGER DEFAULT 1,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create scene_state table: %w", err)
	}

	// Event ledger: every accepted scene or action, tagged with its source.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS event_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			payload BLOB,
			source TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_ts ON event_ledger(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("failed to create event_ledger table: %w", err)
	}
	return nil
}

// SaveFrame stores the wire frame of the scene a strip is showing.
func (s *Store) SaveFrame(strip string, frame []byte) error {
	if frame == nil {
		// OFF is an empty frame; a nil slice would bind as NULL.
		frame = []byte{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO scene_state (strip, frame, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(strip) DO UPDATE SET
			frame = excluded.frame,
			version = version + 1,
			updated_at = excluded.updated_at
	`, strip, frame, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	log.Debug().Str("strip", strip).Hex("frame", frame).Msg("scene saved")
	return nil
}

// SaveScene encodes sc and stores it.
func (s *Store) SaveScene(strip string, sc scene.Scene) error {
	frame, err := scene.EncodeFrame(sc)
	if err != nil {
		return err
	}
	return s.SaveFrame(strip, frame)
}

// LastFrame returns the stored frame and its version. A strip that never
// saved anything yields a nil frame and version 0.
func (s *Store) LastFrame(strip string) ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var frame []byte
	var version int64
	err := s.db.QueryRow(`
		SELECT frame, version FROM scene_state WHERE strip = ?
	`, strip).Scan(&frame, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return frame, version, nil
}

// LastScene decodes the stored frame with d's tag table; nil when nothing is
// stored. Frames are always stored in the current layout, so d's
// LegacyFrames setting does not apply here.
func (s *Store) LastScene(strip string, d scene.Decoder) (scene.Scene, error) {
	frame, v, err := s.LastFrame(strip)
	if err != nil || v == 0 {
		return nil, err
	}
	return scene.Decoder{Table: d.Table}.DecodeFrame(frame)
}

// Event is one ledger row.
type Event struct {
	ID      int64
	Type    string
	At      time.Time
	Payload []byte
	Source  string
}

// Record appends to the ledger.
func (s *Store) Record(eventType, source string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO event_ledger (event_type, timestamp, payload, source)
		VALUES (?, ?, ?, ?)
	`, eventType, time.Now().UTC().UnixMilli(), payload, source)
	return err
}

// Events returns the newest limit ledger rows, newest first.
func (s *Store) Events(limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, event_type, timestamp, payload, source FROM event_ledger
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var ms int64
		var src sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &ms, &e.Payload, &src); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(ms).UTC()
		e.Source = src.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
