// Package metadata accumulates plugin-contributed metadata for the next
// saved measurement and persists it to SQLite when the operator saves.
// It also keeps persisted plugin dependency values (directories the user
// picked once) across host restarts.
package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spectral-works/prism/internal/log"
)

// Store is the host's metadata sink. MergeMetadata may be called from the
// completion pump while CommitMeasurement runs on a save trigger.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]any
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		logger:  log.WithComponent("metadata"),
		pending: make(map[string]any),
	}
}

// MergeMetadata folds one plugin's metadata into the pending map as a
// shallow merge. On key collision the later write wins, regardless of
// which plugin wrote first.
func (s *Store) MergeMetadata(plugin string, metadata map[string]any) {
	if len(metadata) == 0 {
		return
	}
	s.mu.Lock()
	for k, v := range metadata {
		if _, exists := s.pending[k]; exists {
			s.logger.Debug("metadata key overwritten", "plugin", plugin, "key", k)
		}
		s.pending[k] = v
	}
	s.mu.Unlock()
}

// Pending returns a copy of the metadata accumulated since the last commit.
func (s *Store) Pending() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.pending))
	for k, v := range s.pending {
		out[k] = v
	}
	return out
}

// CommitMeasurement persists the pending metadata as one measurement row
// and resets the pending map. It returns the new measurement id.
func (s *Store) CommitMeasurement(ctx context.Context, serialNumber string) (string, error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]any)
	s.mu.Unlock()

	blob, err := json.Marshal(pending)
	if err != nil {
		return "", fmt.Errorf("marshal measurement metadata: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO measurements(id, serial_number, saved_at, metadata)
VALUES(?, ?, ?, ?);
`, id, serialNumber, now, string(blob))
	if err != nil {
		return "", fmt.Errorf("insert measurement: %w", err)
	}

	s.logger.Info("measurement saved", "measurement_id", id, "keys", len(pending))
	return id, nil
}

// Measurement is one persisted measurement record.
type Measurement struct {
	ID           string
	SerialNumber string
	SavedAt      time.Time
	Metadata     map[string]any
}

// Measurement loads one persisted measurement by id.
func (s *Store) Measurement(ctx context.Context, id string) (*Measurement, error) {
	var m Measurement
	var savedAt, blob string
	err := s.db.QueryRowContext(ctx, `
SELECT id, serial_number, saved_at, metadata FROM measurements WHERE id = ?;
`, id).Scan(&m.ID, &m.SerialNumber, &savedAt, &blob)
	if err != nil {
		return nil, fmt.Errorf("read measurement: %w", err)
	}

	if m.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}
	if err := json.Unmarshal([]byte(blob), &m.Metadata); err != nil {
		return nil, fmt.Errorf("decode measurement metadata: %w", err)
	}
	return &m, nil
}

// SaveDependency upserts one resolved dependency value for a plugin.
func (s *Store) SaveDependency(ctx context.Context, plugin, name, value string) error {
	if plugin == "" || name == "" {
		return fmt.Errorf("plugin and dependency name are required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO plugin_dependencies(plugin, name, value, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(plugin, name) DO UPDATE SET
  value = excluded.value,
  updated_at = excluded.updated_at;
`, plugin, name, value, now)
	if err != nil {
		return fmt.Errorf("upsert dependency: %w", err)
	}
	return nil
}

// LoadDependencies returns all persisted dependency values for a plugin.
func (s *Store) LoadDependencies(ctx context.Context, plugin string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, value FROM plugin_dependencies WHERE plugin = ?;", plugin)
	if err != nil {
		return nil, fmt.Errorf("read dependencies: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}
