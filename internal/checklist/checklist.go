// Package checklist persists per-artifact review status records.
package checklist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sprite-ai/trawl/internal/model"
)

// DB is the review checklist, backed by a SQLite database under the
// repository root (.trawl/checklist.db by default).
type DB struct {
	db *sql.DB
}

// DefaultPath returns the checklist database path for a repository root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".trawl", "checklist.db")
}

// Open opens or creates the checklist database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create checklist directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checklist database: %w", err)
	}

	c := &DB{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init checklist schema: %w", err)
	}
	return c, nil
}

// Close closes the underlying database.
func (c *DB) Close() error {
	return c.db.Close()
}

func (c *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checklist (
		artifact_id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'todo',
		note TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// All returns every record, keyed by artifact ID.
func (c *DB) All() (map[string]model.StatusRecord, error) {
	rows, err := c.db.Query(`SELECT artifact_id, status, note, updated_at FROM checklist`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.StatusRecord)
	for rows.Next() {
		var (
			id, status, note string
			updated          int64
		)
		if err := rows.Scan(&id, &status, &note, &updated); err != nil {
			return nil, err
		}
		out[id] = model.StatusRecord{
			ArtifactID: id,
			Status:     model.ParseStatus(status),
			Note:       note,
			UpdatedAt:  time.Unix(updated, 0),
		}
	}
	return out, rows.Err()
}

// Update is a partial mutation of one record.
type Update struct {
	Status *model.ReviewStatus
	Note   *string
}

// Patch upserts the record for id, applying only the set fields of upd and
// refreshing the timestamp. A fresh record starts as todo with no note.
func (c *DB) Patch(id string, upd Update) (model.StatusRecord, error) {
	rec := model.StatusRecord{ArtifactID: id, Status: model.StatusTodo}

	var (
		status, note string
		updated      int64
	)
	err := c.db.QueryRow(
		`SELECT status, note, updated_at FROM checklist WHERE artifact_id = ?`, id,
	).Scan(&status, &note, &updated)
	switch err {
	case nil:
		rec.Status = model.ParseStatus(status)
		rec.Note = note
	case sql.ErrNoRows:
		// start from the default record
	default:
		return model.StatusRecord{}, err
	}

	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Note != nil {
		rec.Note = *upd.Note
	}
	rec.UpdatedAt = time.Now()

	_, err = c.db.Exec(`
		INSERT INTO checklist (artifact_id, status, note, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(artifact_id) DO UPDATE SET
			status = excluded.status,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		id, rec.Status.String(), rec.Note, rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return model.StatusRecord{}, err
	}
	return rec, nil
}
