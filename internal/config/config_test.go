package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that a missing implicit config file yields
// the defaults without error.
func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "botstack.yml", cfg.StackFile)
	assert.Equal(t, "http://localhost:9090", cfg.PrometheusURL)
	assert.Equal(t, 30*time.Second, cfg.ProbeTimeout.Std())
}

// TestLoad_JSONC verifies comments and trailing commas are accepted and
// that partial files merge over the defaults.
func TestLoad_JSONC(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "botstack.jsonc")
	content := `{
  // Descriptor lives next to the bot sources.
  "stackFile": "deploy/botstack.yml",
  "probeTimeout": "2m", // ports can be slow on first image pull
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "deploy/botstack.yml", cfg.StackFile)
	assert.Equal(t, 2*time.Minute, cfg.ProbeTimeout.Std())
	assert.Equal(t, "http://localhost:9090", cfg.PrometheusURL,
		"unset fields should keep their defaults")
}

// TestLoad_ExplicitMissing verifies an explicitly named missing file is an
// error, unlike the implicit probe.
func TestLoad_ExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonc"))
	assert.Error(t, err)
}

// TestLoad_Invalid covers malformed JSON and field validation.
func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.jsonc")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err := Load(bad)
	assert.Error(t, err)

	zero := filepath.Join(dir, "zero.jsonc")
	require.NoError(t, os.WriteFile(zero, []byte(`{"probeTimeout": "0s"}`), 0o644))
	_, err = Load(zero)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probeTimeout")

	badDur := filepath.Join(dir, "dur.jsonc")
	require.NoError(t, os.WriteFile(badDur, []byte(`{"probeTimeout": "fast"}`), 0o644))
	_, err = Load(badDur)
	assert.Error(t, err)
}
