package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectral-works/prism/internal/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStore_MergeIsShallowLastWriterWins(t *testing.T) {
	s := newStore(t)

	s.MergeMetadata("peaks", map[string]any{"peak_count": 2, "algo": "simple"})
	s.MergeMetadata("baseline", map[string]any{"algo": "als", "lambda": 1e5})

	pending := s.Pending()
	assert.Equal(t, 2, pending["peak_count"])
	assert.Equal(t, "als", pending["algo"], "later plugin overwrites on collision")
	assert.Equal(t, 1e5, pending["lambda"])
}

func TestStore_CommitMeasurement(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.MergeMetadata("peaks", map[string]any{"peak_count": 3})

	id, err := s.CommitMeasurement(ctx, "WP-00123")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "measurement ids are UUIDs")

	assert.Empty(t, s.Pending(), "commit resets the pending map")

	m, err := s.Measurement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "WP-00123", m.SerialNumber)
	assert.Equal(t, float64(3), m.Metadata["peak_count"], "JSON round-trip widens to float64")
	assert.False(t, m.SavedAt.IsZero())
}

func TestStore_CommitWithNoPendingMetadata(t *testing.T) {
	s := newStore(t)

	id, err := s.CommitMeasurement(context.Background(), "WP-00123")
	require.NoError(t, err)

	m, err := s.Measurement(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, m.Metadata)
}

func TestStore_DependencyPersistence(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDependency(ctx, "saver", "output_dir", "/srv/spectra"))
	require.NoError(t, s.SaveDependency(ctx, "saver", "output_dir", "/srv/spectra/v2"))
	require.NoError(t, s.SaveDependency(ctx, "saver", "archive_dir", "/srv/archive"))

	deps, err := s.LoadDependencies(ctx, "saver")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"output_dir":  "/srv/spectra/v2",
		"archive_dir": "/srv/archive",
	}, deps)

	deps, err = s.LoadDependencies(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, deps)

	assert.Error(t, s.SaveDependency(ctx, "", "x", "y"))
}
