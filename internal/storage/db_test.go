package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_NilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestOpen_RunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'cache_entries'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "cache_entries", name)
}

func TestMigrationManager_Version(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	mgr, err := NewMigrationManager(path)
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.Up())
	version, dirty, err := mgr.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, mgr.Up())
}
