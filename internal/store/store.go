// Package store is the SQLite-backed persistence layer for the offline
// core: the drug catalog, patients, encounter drafts, and the Merkle
// log's content-addressed node storage. Every other component (catalog,
// draft, merkle, syncproto) consumes it only through the narrow
// interfaces it satisfies — catalog.Lookup, draft.Store, merkle.NodeRepo.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store is a SQLite-backed store for the offline core's entire state.
// SQLite allows only one writer at a time, so the connection pool is
// capped at one connection and writes are additionally serialized
// through mu.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (if necessary) and opens the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return open(connString(path, false))
}

// OpenInMemory opens a private, non-shared in-memory database — used by
// tests and by any caller that wants an ephemeral scratch store.
func OpenInMemory() (*Store, error) {
	return open("file::memory:?_pragma=foreign_keys(ON)")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// connString builds a SQLite connection string with the standard
// pragmas: a configurable busy_timeout (VETCORE_LOCK_TIMEOUT, default
// 30s), foreign_keys, and the sqlite time format.
func connString(path string, readOnly bool) string {
	path = strings.TrimSpace(path)

	busy := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("VETCORE_LOCK_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			busy = d
		}
	}
	busyMs := int64(busy / time.Millisecond)

	if readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_time_format=sqlite", path, busyMs)
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_time_format=sqlite", path, busyMs)
}

func (s *Store) initSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w\nSQL: %s", err, stmt)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// retryMaxElapsed bounds retries to a short elapsed window — a single
// process holds the only writer connection, so contention is between
// this process's own goroutines, never another host.
const retryMaxElapsed = 5 * time.Second

func newRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return bo
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// withTx runs fn inside a transaction, serialized against the rest of
// this process via mu, and retries the whole transaction with backoff if
// SQLite reports lock contention — mirroring the withRetry idiom the
// dolt backend uses for its own transient errors, generalized to a
// single-writer embedded database instead of a server connection pool.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bo := newRetryBackoff()
	return backoff.Retry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			if isRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if isRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if err := tx.Commit(); err != nil {
			if isRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}
