package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_Defaults(t *testing.T) {
	t.Setenv("CONFIG", "")
	opts := &Options{BackendURL: DefaultBackendURL, LogLevel: "info", Config: filepath.Join(t.TempDir(), "missing.json")}

	require.NoError(t, apply(opts))
	assert.Equal(t, DefaultBackendURL, opts.BackendURL)
	assert.Equal(t, "info", opts.LogLevel)
	assert.False(t, opts.AttachToken)
}

func TestApply_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend_url":"http://10.0.0.2:5000","log_level":"debug","attach_token":true}`), 0600))
	t.Setenv("CONFIG", path)

	opts := &Options{BackendURL: DefaultBackendURL}
	require.NoError(t, apply(opts))
	assert.Equal(t, "http://10.0.0.2:5000", opts.BackendURL)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.True(t, opts.AttachToken)
}

func TestApply_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend_url":"http://file:5000"}`), 0600))
	t.Setenv("CONFIG", path)
	t.Setenv("RESEARCHHIVE_BACKEND_URL", "http://env:5000")
	t.Setenv("RESEARCHHIVE_VIEWER_ADDR", "")
	t.Setenv("DATABASE_DSN", "postgres://x")

	opts := &Options{ViewerAddr: "127.0.0.1:8090"}
	require.NoError(t, apply(opts))
	assert.Equal(t, "http://env:5000", opts.BackendURL)
	assert.Empty(t, opts.ViewerAddr)
	assert.Equal(t, "postgres://x", opts.DatabaseDSN)
}

func TestApply_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))
	t.Setenv("CONFIG", path)

	err := apply(&Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while parsing config file")
}

func TestApply_BadAttachToken(t *testing.T) {
	t.Setenv("CONFIG", "")
	t.Setenv("RESEARCHHIVE_ATTACH_TOKEN", "sometimes")

	err := apply(&Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEARCHHIVE_ATTACH_TOKEN")
}

func TestBackendURLFlag_MarkedForTesting(t *testing.T) {
	f := flag.Lookup("url")
	require.NotNil(t, f)
	assert.Equal(t, DefaultBackendURL, f.DefValue)
	assert.Contains(t, f.Usage, "local testing only")
}
