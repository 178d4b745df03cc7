// Package rounds keeps a local history of played rounds in SQLite.
package rounds

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tessro/cuecard/internal/core"
)

// FileName is the name of the history database inside the state directory.
const FileName = "rounds.db"

// Round is one played card.
type Round struct {
	ID         string
	TrackURI   string
	Name       string
	Artists    string
	Year       *int
	DeviceID   string
	PlayedAt   time.Time
	RevealedAt *time.Time
}

// Revealed reports whether the round's answer was shown.
func (r Round) Revealed() bool {
	return r.RevealedAt != nil
}

// Store persists rounds.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rounds db: %w", err)
	}
	// The TUI and a concurrent `cuecard history` may share the file.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure rounds db: %w", err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS rounds (
		id          TEXT PRIMARY KEY,
		track_uri   TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		artists     TEXT NOT NULL DEFAULT '',
		year        INTEGER,
		device_id   TEXT NOT NULL DEFAULT '',
		played_at   INTEGER NOT NULL,
		revealed_at INTEGER
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create rounds table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a newly played round and returns its id.
func (s *Store) Record(ctx context.Context, track *core.Track, deviceID string) (string, error) {
	if track == nil {
		return "", fmt.Errorf("record round: no track")
	}

	id := uuid.NewString()
	var year sql.NullInt64
	if track.Year != nil {
		year = sql.NullInt64{Int64: int64(*track.Year), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO rounds (id, track_uri, name, artists, year, device_id, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, track.URI, track.Name, strings.Join(track.Artists, ", "), year, deviceID, s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("record round: %w", err)
	}
	return id, nil
}

// MarkRevealed records when a round's answer was first shown.
func (s *Store) MarkRevealed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET revealed_at = ? WHERE id = ? AND revealed_at IS NULL`,
		s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark round revealed: %w", err)
	}
	return nil
}

// Recent returns up to limit rounds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, track_uri, name, artists, year, device_id, played_at, revealed_at
		FROM rounds ORDER BY played_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var result []Round
	for rows.Next() {
		var r Round
		var year, revealed sql.NullInt64
		var played int64
		if err := rows.Scan(&r.ID, &r.TrackURI, &r.Name, &r.Artists, &year, &r.DeviceID, &played, &revealed); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			r.Year = &y
		}
		r.PlayedAt = time.UnixMilli(played)
		if revealed.Valid {
			t := time.UnixMilli(revealed.Int64)
			r.RevealedAt = &t
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
