package provider

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteCache is a CacheProvider backed by a SQLite database file.
type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
	namespace  string
}

// NewSQLiteCache creates a provider with the given filename as the db.
// If the filename is empty, a new in-memory db is opened.
func NewSQLiteCache(filename, namespace string) (*SQLiteCache, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS cache (key TEXT PRIMARY KEY, expires INTEGER, bytes BLOB)")
	if err != nil {
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)")
	if err != nil {
		return nil, fmt.Errorf("create expires index: %w", err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return &SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
		namespace:  namespace,
	}, nil
}

func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var expires int64
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, bytes FROM cache WHERE key = ?", key).Scan(&expires, &value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(time.Unix(expires, 0)) {
		_ = s.Purge(ctx, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLiteCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	expires := time.Now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, expires, bytes) VALUES (?, ?, ?)", key, expires, value)
	return err
}

func (s *SQLiteCache) Purge(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
	return err
}

func (s *SQLiteCache) Namespace() string {
	return s.namespace
}

func (s *SQLiteCache) Connect(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
