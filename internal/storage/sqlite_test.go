package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "metadata.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err, "missing parent directories are created")
	defer db.Close()

	// Bootstrap is idempotent.
	require.NoError(t, BootstrapSQLite(ctx, db))

	for _, table := range []string{"measurements", "plugin_dependencies"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?;", table).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, table, name)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}
