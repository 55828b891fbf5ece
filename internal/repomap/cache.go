// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/repomapper-dev/repomapper/pkg/types"
)

// cacheSchemaVersion is bumped on any incompatible change to the stored
// row shape. A mismatched directory name simply starts a fresh store —
// stale versions are never migrated in place.
const cacheSchemaVersion = 1

// cacheDirName is the directory created at the repository root to hold the
// persistent tag cache (§6 "Persisted state").
func cacheDirName() string {
	return fmt.Sprintf(".repomapper.tags.cache.v%d", cacheSchemaVersion)
}

// tagCache is the persistent key-value store backing CacheEntry, keyed by
// absolute file path and validated by exact (mtime, size) equality.
//
// When the on-disk store cannot be opened, tagCache degrades to a
// in-memory map for the run and reports the fallback once via warn.
type tagCache struct {
	db       *sql.DB
	mem      map[string]types.CacheEntry
	degraded bool
	warn     func(string)
}

// openCache opens (creating if absent) the sqlite-backed cache under
// root/cacheDirName(). A failure to open or migrate degrades to an
// in-memory cache rather than failing the run (§4.3, §7 class 2).
func openCache(root string, warn func(string)) *tagCache {
	if warn == nil {
		warn = func(string) {}
	}
	dir := filepath.Join(root, cacheDirName())
	if err := ensureDir(dir); err != nil {
		warn(fmt.Sprintf("tag cache: creating %s: %v; using in-memory cache", dir, err))
		return &tagCache{mem: make(map[string]types.CacheEntry), degraded: true, warn: warn}
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		warn(fmt.Sprintf("tag cache: opening %s: %v; using in-memory cache", dbPath, err))
		return &tagCache{mem: make(map[string]types.CacheEntry), degraded: true, warn: warn}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		warn(fmt.Sprintf("tag cache: pinging %s: %v; using in-memory cache", dbPath, err))
		return &tagCache{mem: make(map[string]types.CacheEntry), degraded: true, warn: warn}
	}
	if _, err := db.Exec(cacheSchemaDDL); err != nil {
		db.Close()
		warn(fmt.Sprintf("tag cache: migrating %s: %v; using in-memory cache", dbPath, err))
		return &tagCache{mem: make(map[string]types.CacheEntry), degraded: true, warn: warn}
	}

	return &tagCache{db: db, warn: warn}
}

const cacheSchemaDDL = `
CREATE TABLE IF NOT EXISTS tag_cache (
	abs_path   TEXT PRIMARY KEY,
	mtime_ns   INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	tags_json  TEXT NOT NULL
);
`

// get returns the cached entry for absPath iff present. The caller is
// responsible for comparing (ModTimeNanos, Size) against the current file
// stat — get never validates staleness itself.
func (c *tagCache) get(absPath string) (types.CacheEntry, bool) {
	if c.degraded {
		e, ok := c.mem[absPath]
		return e, ok
	}
	var mtimeNS, size int64
	var tagsJSON string
	row := c.db.QueryRow(`SELECT mtime_ns, size, tags_json FROM tag_cache WHERE abs_path = ?`, absPath)
	if err := row.Scan(&mtimeNS, &size, &tagsJSON); err != nil {
		return types.CacheEntry{}, false
	}
	var tags []types.Tag
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return types.CacheEntry{}, false
	}
	return types.CacheEntry{ModTimeNanos: mtimeNS, Size: size, Tags: tags}, true
}

// put stores entry for absPath, overwriting any prior value. Each call is
// written to the store immediately as its own statement; commit only
// closes the connection.
func (c *tagCache) put(absPath string, entry types.CacheEntry) {
	if c.degraded {
		c.mem[absPath] = entry
		return
	}
	data, err := json.Marshal(entry.Tags)
	if err != nil {
		return
	}
	_, err = c.db.Exec(
		`INSERT INTO tag_cache (abs_path, mtime_ns, size, tags_json) VALUES (?, ?, ?, ?)
		 ON CONFLICT(abs_path) DO UPDATE SET mtime_ns = excluded.mtime_ns, size = excluded.size, tags_json = excluded.tags_json`,
		absPath, entry.ModTimeNanos, entry.Size, string(data),
	)
	if err != nil {
		c.warn(fmt.Sprintf("tag cache: writing %s: %v", absPath, err))
	}
}

// commit flushes and closes the store. Safe to call on a degraded
// (in-memory) cache as a no-op.
func (c *tagCache) commit() error {
	if c.degraded || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ensureDir creates dir (and parents) if it does not already exist.
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
