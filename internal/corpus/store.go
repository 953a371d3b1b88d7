package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrStorageUnavailable marks a corpus whose backing location is missing or
// unreadable. Callers degrade to an empty corpus instead of failing the query.
var ErrStorageUnavailable = errors.New("corpus storage unavailable")

// Store persists document chunks in SQLite, partitioned by source document.
// Readers always observe either the pre- or post-replace chunk set for a
// source, never a partial one.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the corpus database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("corpus path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, stmt := range pragmas {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init corpus db: %w", err)
		}
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			source TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL DEFAULT 'text',
			content TEXT NOT NULL,
			PRIMARY KEY (source, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks (source);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init corpus db: %w", err)
		}
	}
	return nil
}

// LoadAll returns every persisted chunk ordered by source then sequence.
// The ordering is the corpus order lexical ranking ties break on.
func (s *Store) LoadAll(ctx context.Context) ([]Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, seq, kind, content FROM chunks ORDER BY source, seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Source, &c.Seq, &c.Kind, &c.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return chunks, nil
}

// ReplaceForSource atomically replaces all chunks belonging to one source
// document. Sequence numbers are assigned from the slice order.
func (s *Store) ReplaceForSource(ctx context.Context, source string, chunks []Chunk) error {
	if source == "" {
		return fmt.Errorf("source is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete chunks for %s: %w", source, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (source, seq, kind, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		kind := c.Kind
		if kind == "" {
			kind = "text"
		}
		if _, err := stmt.ExecContext(ctx, source, i, kind, c.Content); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %d for %s: %w", i, source, err)
		}
	}
	return tx.Commit()
}

// SourceCount holds the chunk count for one source document.
type SourceCount struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// Sources lists indexed source documents with their chunk counts.
func (s *Store) Sources(ctx context.Context) ([]SourceCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM chunks GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Chunks); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Count returns the total number of chunks in the corpus.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
