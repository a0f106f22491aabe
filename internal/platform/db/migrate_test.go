package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_subscriptions.sql", "0001_init.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_subscriptions.sql"}, files)
}

func TestRepositoryMigrationsPresent(t *testing.T) {
	files, err := MigrationFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
