// Package cache remembers which files passed the import check, so unchanged
// files are not checked again under the same policy.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DirName is the per-project cache directory, skipped when walking the tree
const DirName = ".pypolicy_cache"

const schema = `
CREATE TABLE IF NOT EXISTS clean_files (
	path        TEXT NOT NULL PRIMARY KEY,
	digest      TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	checked_at  INTEGER NOT NULL
);
`

// Cache records files found clean under a policy fingerprint
type Cache struct {
	db          *sql.DB
	fingerprint string
	logger      *zap.Logger
}

// Path returns the cache database location for a project root
func Path(root string) string {
	return filepath.Join(root, DirName, "imports.db")
}

// Fingerprint digests everything a check result depends on besides the file
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Open opens or creates the cache database at path. Entries recorded under a
// different fingerprint are never reported clean.
func Open(path, fingerprint string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	// Entries from another policy can never be reused
	res, err := db.Exec("DELETE FROM clean_files WHERE fingerprint <> ?", fingerprint)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prune cache: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logger.Debug("pruned stale cache entries", zap.Int64("count", n))
	}

	return &Cache{db: db, fingerprint: fingerprint, logger: logger}, nil
}

func digest(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Clean reports whether path with content src was found clean before
func (c *Cache) Clean(path string, src []byte) bool {
	var one int
	err := c.db.QueryRow(
		"SELECT 1 FROM clean_files WHERE path = ? AND digest = ? AND fingerprint = ?",
		path, digest(src), c.fingerprint,
	).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		c.logger.Warn("cache lookup failed", zap.String("file", path), zap.Error(err))
	}
	return err == nil
}

// MarkClean records that path with content src passed the check
func (c *Cache) MarkClean(path string, src []byte) error {
	_, err := c.db.Exec(`
		INSERT INTO clean_files (path, digest, fingerprint, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			digest = excluded.digest,
			fingerprint = excluded.fingerprint,
			checked_at = excluded.checked_at`,
		path, digest(src), c.fingerprint, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record clean file: %w", err)
	}
	return nil
}

// Len returns the number of recorded clean files
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM clean_files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}
