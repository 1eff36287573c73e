package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
service:
  name: bench-rig
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bench-rig", cfg.Service.Name)
	assert.Equal(t, "info", cfg.Service.LogLevel)
	assert.Equal(t, "nm", cfg.Service.XAxisUnit)
	assert.Equal(t, 250*time.Millisecond, cfg.Service.AcquisitionInterval)
	assert.Equal(t, "./data/metadata.db", cfg.Metadata.Path)
	assert.False(t, cfg.API.Enabled)
}

func TestLoad_PluginDefaultsMerged(t *testing.T) {
	path := writeConfig(t, `
plugins:
  peak-finder:
    enabled: true
  baseline:
    enabled: true
    blocking: host
    queue_depth: 32
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	pf := cfg.Plugins["peak-finder"]
	assert.Equal(t, 8, pf.QueueDepth)
	assert.Equal(t, 3, pf.FailureLimit)
	assert.Equal(t, 1*time.Second, pf.HostTimeout)
	assert.Equal(t, 2*time.Second, pf.DisconnectGrace)

	bl := cfg.Plugins["baseline"]
	assert.Equal(t, "host", bl.Blocking)
	assert.Equal(t, 32, bl.QueueDepth)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("PRISM_TEST_SAVE_DIR", "/srv/spectra")

	path := writeConfig(t, `
service:
  save_path: ${PRISM_TEST_SAVE_DIR}
plugins:
  saver:
    enabled: true
    dependencies:
      output_dir: ${PRISM_TEST_SAVE_DIR}/out
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/spectra", cfg.Service.SavePath)
	assert.Equal(t, "/srv/spectra/out", cfg.Plugins["saver"].Dependencies["output_dir"])
}

func TestLoad_UnresolvedDependencyEnvVarFails(t *testing.T) {
	path := writeConfig(t, `
plugins:
  saver:
    enabled: true
    dependencies:
      output_dir: ${PRISM_TEST_UNSET_VAR}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRISM_TEST_UNSET_VAR")
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad log level", "service:\n  log_level: loud\n"},
		{"bad axis unit", "service:\n  x_axis_unit: furlongs\n"},
		{"too-fast acquisition", "service:\n  acquisition_interval: 1ms\n"},
		{"bad blocking mode", "plugins:\n  p:\n    enabled: true\n    blocking: sometimes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_DisabledPluginSkipsValidation(t *testing.T) {
	path := writeConfig(t, `
plugins:
  broken:
    enabled: false
    blocking: sometimes
`)

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ChecksumVerification(t *testing.T) {
	path := writeConfig(t, "service:\n  name: locked\n")
	dir := filepath.Dir(path)

	// Unlocked directory loads fine.
	_, err := Load(path)
	require.NoError(t, err)

	// Lock, still loads.
	require.NoError(t, GenerateChecksums(dir, []string{"config.yaml"}))
	_, err = Load(path)
	require.NoError(t, err)

	// Tampering after locking is rejected.
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: tampered\n"), 0644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tampering")
}

func TestGenerateAndLoadChecksums(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: {}\n"), 0644))

	require.NoError(t, GenerateChecksums(dir, []string{"config.yaml", "optional.yaml"}))

	manifest, err := LoadChecksums(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Version)
	assert.Contains(t, manifest.Hashes, "config.yaml")
	assert.NotContains(t, manifest.Hashes, "optional.yaml", "missing files are skipped")

	hash, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Equal(t, manifest.Hashes["config.yaml"], hash)
	assert.NoError(t, VerifyFileHash(path, hash))
	assert.Error(t, VerifyFileHash(path, "deadbeef"))
}
