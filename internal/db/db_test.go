package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()

	db, err := Init(dir)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys;").Scan(&fk))
	require.Equal(t, 1, fk, "cascade deletes of kv rows rely on foreign keys")

	for _, obj := range []struct{ typ, name string }{
		{"table", "profiles"},
		{"table", "kv"},
		{"index", "idx_profiles_updated"},
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type=? AND name=?", obj.typ, obj.name).Scan(&name)
		require.NoError(t, err, "%s %s missing", obj.typ, obj.name)
	}
}

func TestInit_CreatesNestedBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "home", "visitor", ".attune")

	db, err := Init(base)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInit_ReopenKeepsDataAndVersion(t *testing.T) {
	dir := t.TempDir()

	first, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, InsertProfile(first, &Profile{ID: "01KEEP", CreatedAt: 1, UpdatedAt: 1}))
	first.Close()

	second, err := Init(dir)
	require.NoError(t, err)
	defer second.Close()

	version, err := GetUserVersion(second)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)

	_, err = GetProfile(second, "01KEEP")
	require.NoError(t, err)
}

func TestInit_RejectsNewerSchema(t *testing.T) {
	dir := t.TempDir()

	db, err := Init(dir)
	require.NoError(t, err)
	require.NoError(t, SetUserVersion(db, CurrentSchemaVersion+1))
	db.Close()

	_, err = Init(dir)
	require.ErrorContains(t, err, "newer than supported")
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/x.db")
	require.Equal(t, "/tmp/x.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", got)
}
