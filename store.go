package blogcontent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/blogcontent/content"
)

// Store wraps a SQLite database holding the raw documents of every
// collection and the history of content syncs.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets page renders read while a sync writes; the busy timeout makes
	// the writer wait rather than fail with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    collection TEXT NOT NULL,
    stem TEXT NOT NULL,
    extension TEXT NOT NULL,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_collection ON documents (collection, id);
CREATE TABLE IF NOT EXISTS sync_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    documents INTEGER NOT NULL,
    collections TEXT NOT NULL,
    warnings TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// ReplaceCollection swaps the stored documents of a collection for recs in a
// single transaction, so readers see either the old or the new set.
func (s *Store) ReplaceCollection(ctx context.Context, collection string, recs []content.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO documents (id, collection, stem, extension, data, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range recs {
		id, _ := rec["id"].(string)
		if id == "" {
			return errors.New("blogcontent: record without id")
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", id, err)
		}
		stem, _ := rec["stem"].(string)
		ext, _ := rec["extension"].(string)
		if _, err := stmt.ExecContext(ctx, id, collection, stem, ext, string(data), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Records returns the documents of a collection ordered by id. An empty
// collection name returns every document.
func (s *Store) Records(ctx context.Context, collection string) ([]content.Record, error) {
	var rows *sql.Rows
	var err error
	if collection == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT data FROM documents ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT data FROM documents WHERE collection = ? ORDER BY id`, collection)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []content.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Document returns a single document by id, or ErrNotFound.
func (s *Store) Document(ctx context.Context, id string) (content.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

// Collections returns the number of stored documents per collection.
func (s *Store) Collections(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT collection, COUNT(*) FROM documents GROUP BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

// RecordSync appends a sync run to the history.
func (s *Store) RecordSync(ctx context.Context, run SyncRun) error {
	colls, err := json.Marshal(run.Collections)
	if err != nil {
		return err
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warn, err := json.Marshal(warnings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sync_runs (started_at, duration_ms, documents, collections, warnings, error) VALUES (?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(), run.Documents, string(colls), string(warn), run.Err)
	return err
}

// LastSync returns the most recent sync run, or ErrNotFound if none ran yet.
func (s *Store) LastSync(ctx context.Context) (SyncRun, error) {
	var started, colls, warn, errText string
	var ms int64
	var run SyncRun
	err := s.db.QueryRowContext(ctx, `SELECT started_at, duration_ms, documents, collections, warnings, error FROM sync_runs ORDER BY id DESC LIMIT 1`).
		Scan(&started, &ms, &run.Documents, &colls, &warn, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncRun{}, ErrNotFound
	}
	if err != nil {
		return SyncRun{}, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return SyncRun{}, err
	}
	run.Duration = time.Duration(ms) * time.Millisecond
	run.Err = errText
	if err := json.Unmarshal([]byte(colls), &run.Collections); err != nil {
		return SyncRun{}, err
	}
	if err := json.Unmarshal([]byte(warn), &run.Warnings); err != nil {
		return SyncRun{}, err
	}
	return run, nil
}

func decodeRecord(data string) (content.Record, error) {
	var rec content.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
