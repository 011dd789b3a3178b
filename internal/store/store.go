// Package store persists pages of committed strokes in SQLite. It is the
// durable side of the drawing surface: the in-memory stroke collection
// stays the source of truth while a page is open, and the store is
// reconciled on commit and page switches.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"KhataPad/internal/ink"
)

const strokesSchema = `
CREATE TABLE IF NOT EXISTS strokes (
    id         TEXT PRIMARY KEY,
    page_id    TEXT NOT NULL,
    tool       TEXT NOT NULL,
    color      TEXT NOT NULL,
    base_width REAL NOT NULL,
    opacity    REAL NOT NULL,
    created_at TEXT NOT NULL,
    points     BLOB NOT NULL
);
`

const strokesIndex = `
CREATE INDEX IF NOT EXISTS idx_strokes_page ON strokes(page_id);
`

// Open opens (or creates) the stroke database at path and switches it to
// WAL so saves during drawing never block reads.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stroke db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}

// StrokeStore persists strokes per page. It implements ink.Store.
type StrokeStore struct {
	db *sql.DB
}

// NewStrokeStore initializes the strokes table and returns a StrokeStore.
func NewStrokeStore(db *sql.DB) (*StrokeStore, error) {
	if _, err := db.Exec(strokesSchema); err != nil {
		return nil, fmt.Errorf("create strokes table: %w", err)
	}
	if _, err := db.Exec(strokesIndex); err != nil {
		return nil, fmt.Errorf("create strokes index: %w", err)
	}
	return &StrokeStore{db: db}, nil
}

// SaveStroke upserts one committed stroke.
func (st *StrokeStore) SaveStroke(pageID string, s *ink.Stroke) error {
	points, err := json.Marshal(s.Points)
	if err != nil {
		return fmt.Errorf("encode stroke %s: %w", s.ID, err)
	}
	_, err = st.db.Exec(`
		INSERT OR REPLACE INTO strokes
		(id, page_id, tool, color, base_width, opacity, created_at, points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, pageID, s.Tool.String(), s.Color, s.BaseWidth, s.Opacity,
		s.CreatedAt.UTC().Format(time.RFC3339Nano), points,
	)
	if err != nil {
		return fmt.Errorf("save stroke %s: %w", s.ID, err)
	}
	return nil
}

// LoadPage returns a page's strokes in commit order. An unknown page is
// an empty page, not an error.
func (st *StrokeStore) LoadPage(pageID string) ([]*ink.Stroke, error) {
	rows, err := st.db.Query(`
		SELECT id, tool, color, base_width, opacity, created_at, points
		FROM strokes WHERE page_id = ? ORDER BY rowid`, pageID)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", pageID, err)
	}
	defer rows.Close()

	var out []*ink.Stroke
	for rows.Next() {
		var s ink.Stroke
		var tool, createdAt string
		var points []byte
		if err := rows.Scan(&s.ID, &tool, &s.Color, &s.BaseWidth, &s.Opacity, &createdAt, &points); err != nil {
			return nil, fmt.Errorf("scan stroke: %w", err)
		}
		if s.Tool, err = ink.ParseTool(tool); err != nil {
			return nil, fmt.Errorf("page %s stroke %s: %w", pageID, s.ID, err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("page %s stroke %s: %w", pageID, s.ID, err)
		}
		if err := json.Unmarshal(points, &s.Points); err != nil {
			return nil, fmt.Errorf("decode stroke %s: %w", s.ID, err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load page %s: %w", pageID, err)
	}
	return out, nil
}

// ReplacePage atomically rewrites a page to exactly the given strokes.
// Used when flushing a page whose history diverged from what was saved
// incrementally (undone strokes, clears).
func (st *StrokeStore) ReplacePage(pageID string, strokes []*ink.Stroke) error {
	tx, err := st.db.Begin()
	if err != nil {
		return fmt.Errorf("replace page %s: %w", pageID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM strokes WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("replace page %s: %w", pageID, err)
	}
	for _, s := range strokes {
		points, err := json.Marshal(s.Points)
		if err != nil {
			return fmt.Errorf("encode stroke %s: %w", s.ID, err)
		}
		if _, err := tx.Exec(`
			INSERT INTO strokes
			(id, page_id, tool, color, base_width, opacity, created_at, points)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, pageID, s.Tool.String(), s.Color, s.BaseWidth, s.Opacity,
			s.CreatedAt.UTC().Format(time.RFC3339Nano), points,
		); err != nil {
			return fmt.Errorf("save stroke %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace page %s: %w", pageID, err)
	}
	return nil
}

// DeleteStroke removes one stroke from a page.
func (st *StrokeStore) DeleteStroke(pageID, strokeID string) error {
	_, err := st.db.Exec(`DELETE FROM strokes WHERE page_id = ? AND id = ?`, pageID, strokeID)
	if err != nil {
		return fmt.Errorf("delete stroke %s: %w", strokeID, err)
	}
	return nil
}

// ListPages returns the ids of all pages holding at least one stroke.
func (st *StrokeStore) ListPages() ([]string, error) {
	rows, err := st.db.Query(`SELECT DISTINCT page_id FROM strokes ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
