package db

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/searcharr/db"
)

func migrations(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(db.MigrationsFS, "migrations")
	require.NoError(t, err)
	return sub
}

func TestRunMigrateUnknownCommand(t *testing.T) {
	t.Parallel()

	err := RunMigrate(nil, filepath.Join(t.TempDir(), "x.db"), nil, "invalid", nil)
	assert.Error(t, err)
}

func TestRunMigrateForceRequiresVersion(t *testing.T) {
	t.Parallel()

	err := RunMigrate(nil, filepath.Join(t.TempDir(), "x.db"), nil, "force", nil)
	assert.Error(t, err)
}

func TestRunMigrateUpCreatesTables(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "searcharr.db")
	conn, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, RunMigrate(nil, path, migrations(t), "up", nil))
	// A second run is a no-op.
	require.NoError(t, RunMigrate(nil, path, migrations(t), "up", nil))

	for _, table := range []string{"conversations", "users", "add_data"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}
