package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a content-addressed cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	key        TEXT PRIMARY KEY,
	backend    TEXT NOT NULL,
	score      REAL NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS embeddings (
	key        TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	dims       INTEGER NOT NULL,
	vector     BLOB NOT NULL,
	created_at INTEGER NOT NULL
);`

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Key hashes parts into a stable cache key.
func Key(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h[:])
}

// Score returns a cached similarity score.
func (s *Store) Score(ctx context.Context, key string) (float64, bool, error) {
	var score float64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT score FROM scores WHERE key = ?`, key).Scan(&score)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cached score: %w", err)
	}
	return score, true, nil
}

// PutScore stores a similarity score.
func (s *Store) PutScore(ctx context.Context, key, backend string, score float64) error {
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO scores (key, backend, score, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET score = excluded.score, backend = excluded.backend`,
			key, backend, score, time.Now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("write cached score: %w", err)
	}
	return nil
}

// Embedding returns a cached embedding vector.
func (s *Store) Embedding(ctx context.Context, key string) ([]float32, bool, error) {
	var blob []byte
	var dims int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT dims, vector FROM embeddings WHERE key = ?`, key).Scan(&dims, &blob)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached embedding: %w", err)
	}
	if len(blob) != dims*4 {
		return nil, false, fmt.Errorf("cached embedding %s truncated: %d bytes for %d dims", key, len(blob), dims)
	}
	vec := make([]float32, dims)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, vec); err != nil {
		return nil, false, fmt.Errorf("decode cached embedding: %w", err)
	}
	return vec, true, nil
}

// PutEmbedding stores an embedding vector.
func (s *Store) PutEmbedding(ctx context.Context, key, model string, vec []float32) error {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO embeddings (key, model, dims, vector, created_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET model = excluded.model, dims = excluded.dims, vector = excluded.vector`,
			key, model, len(vec), buf.Bytes(), time.Now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("write cached embedding: %w", err)
	}
	return nil
}

// Stats reports row counts per table.
func (s *Store) Stats(ctx context.Context) (scores, embeddings int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&scores); err != nil {
		return 0, 0, fmt.Errorf("count scores: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&embeddings); err != nil {
		return 0, 0, fmt.Errorf("count embeddings: %w", err)
	}
	return scores, embeddings, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
