package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/attune/internal/config"
)

// FileName is the database file created under the base directory.
const FileName = "attune.db"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// migrations[i] upgrades the schema from version i to i+1.
var migrations = []string{
	`
	CREATE TABLE profiles (
	  id         TEXT PRIMARY KEY,
	  created_at INTEGER NOT NULL,
	  updated_at INTEGER NOT NULL
	);

	CREATE INDEX idx_profiles_updated ON profiles(updated_at DESC);

	-- One row per persisted preference entry of a visitor profile.
	CREATE TABLE kv (
	  profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	  key        TEXT NOT NULL,
	  value      TEXT NOT NULL,
	  updated_at INTEGER NOT NULL,
	  PRIMARY KEY (profile_id, key)
	);
	`,
}

// CurrentSchemaVersion is the schema version after all migrations ran.
var CurrentSchemaVersion = len(migrations)

// Init opens (creating if needed) baseDir/attune.db and brings its schema up
// to date. Tests pass t.TempDir() instead of ~/.attune.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	path := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := checkJournalMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// The file exists once the first migration has run.
	_ = os.Chmod(path, 0600)
	return db, nil
}

func dsn(path string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(params, "&")
}

// ConfigurePool applies the connection limits set in cfg. Zero values keep
// the database/sql defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate runs every pending migration, each in its own transaction.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		// user_version is transactional in sqlite.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: failed to set user_version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}
	return nil
}

func checkJournalMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in the user_version pragma.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion overwrites the user_version pragma.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
