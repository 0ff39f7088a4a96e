package composer

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ldc/internal/interp"
)

// Cache is an optional on-disk store of previously loaded relation
// documents, keyed by alias and a second string column (CachingLoader
// stores the relation's path there), so a host evaluating many documents
// against the same sibling
// data doesn't re-fetch it on every call. Modeled on the WAL-mode
// Open/pragma setup the engine's own event store uses.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if necessary) a SQLite-backed relation
// cache at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("composer: open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("composer: ping cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("composer: cache pragma %q: %w", p, err)
		}
	}

	const schema = `
CREATE TABLE IF NOT EXISTS relation_cache (
	alias TEXT NOT NULL,
	digest TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (alias, digest)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("composer: cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached body stored for (alias, digest), if any.
func (c *Cache) Get(alias, digest string) (string, bool, error) {
	var body string
	err := c.db.QueryRow(
		`SELECT body FROM relation_cache WHERE alias = ? AND digest = ?`,
		alias, digest,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("composer: cache get: %w", err)
	}
	return body, true, nil
}

// Put stores body under (alias, digest), replacing any prior entry.
func (c *Cache) Put(alias, digest, body string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO relation_cache (alias, digest, body) VALUES (?, ?, ?)`,
		alias, digest, body,
	)
	if err != nil {
		return fmt.Errorf("composer: cache put: %w", err)
	}
	return nil
}

// RawFetch retrieves a sibling document's raw JSON bytes for (alias,
// path); it is the uncached transport the host actually performs (file
// read, HTTP call, etc.).
type RawFetch func(alias, path string) ([]byte, error)

// CachingLoader wraps fetch so repeated evaluations against the same
// (alias, path) pair skip the transport and decode straight from c. The
// alias+path pair is the cache key; this never re-validates that the
// underlying source hasn't changed, so hosts pointing at mutable sources
// should size the cache's lifetime accordingly.
func CachingLoader(c *Cache, fetch RawFetch) Loader {
	return func(alias, path string) (interp.Value, error) {
		if c != nil {
			if body, ok, err := c.Get(alias, path); err == nil && ok {
				if v, err := interp.DecodeDocument([]byte(body)); err == nil {
					return v, nil
				}
			}
		}
		body, err := fetch(alias, path)
		if err != nil {
			return nil, err
		}
		v, err := interp.DecodeDocument(body)
		if err != nil {
			return nil, err
		}
		if c != nil {
			_ = c.Put(alias, path, string(body))
		}
		return v, nil
	}
}
