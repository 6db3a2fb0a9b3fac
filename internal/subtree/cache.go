package subtree

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const syncPointsSchema = `
CREATE TABLE IF NOT EXISTS sync_points (
	prefix   TEXT PRIMARY KEY,
	tip      TEXT NOT NULL,
	mainline TEXT NOT NULL,
	split    TEXT NOT NULL
)`

// SyncCache memoizes resolved sync points per prefix. An entry only answers
// for the branch tip it was computed at.
type SyncCache struct {
	db *sql.DB
}

// OpenSyncCache opens or creates the cache database at path.
func OpenSyncCache(path string) (*SyncCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sync cache: %w", err)
	}
	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", syncPointsSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sync cache: %w", err)
		}
	}
	return &SyncCache{db: db}, nil
}

// Get returns the sync point of prefix if it was stored for tip.
func (c *SyncCache) Get(prefix, tip string) (SyncPoint, bool, error) {
	var storedTip string
	var sp SyncPoint
	err := c.db.QueryRow(
		`SELECT tip, mainline, split FROM sync_points WHERE prefix = ?`, prefix,
	).Scan(&storedTip, &sp.Mainline, &sp.Subordinate)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncPoint{}, false, nil
	}
	if err != nil {
		return SyncPoint{}, false, fmt.Errorf("query sync point: %w", err)
	}
	if storedTip != tip {
		return SyncPoint{}, false, nil
	}
	return sp, true, nil
}

// Put records sp as the sync point of prefix at tip, replacing older entries.
func (c *SyncCache) Put(prefix, tip string, sp SyncPoint) error {
	_, err := c.db.Exec(
		`INSERT INTO sync_points (prefix, tip, mainline, split) VALUES (?, ?, ?, ?)
		 ON CONFLICT(prefix) DO UPDATE SET tip = excluded.tip, mainline = excluded.mainline, split = excluded.split`,
		prefix, tip, sp.Mainline, sp.Subordinate,
	)
	if err != nil {
		return fmt.Errorf("store sync point: %w", err)
	}
	return nil
}

// Forget drops the entry of prefix.
func (c *SyncCache) Forget(prefix string) error {
	if _, err := c.db.Exec(`DELETE FROM sync_points WHERE prefix = ?`, prefix); err != nil {
		return fmt.Errorf("delete sync point: %w", err)
	}
	return nil
}

func (c *SyncCache) Close() error {
	return c.db.Close()
}
