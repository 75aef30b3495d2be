package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
  allowed_origins: ["https://farm.example"]
models:
  dir: /srv/models
  fallback: rules
  load_timeout: 2m
cache:
  size: 0
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, []string{"https://farm.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "/srv/models", cfg.Models.Dir)
	assert.Equal(t, FallbackRules, cfg.Models.Fallback)
	assert.Equal(t, 2*time.Minute, cfg.Models.LoadTimeout)
	assert.Equal(t, 0, cfg.Cache.Size)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxBodyBytes, "untouched keys keep their default")
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTP.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvModelsDir, "/env/models")
	t.Setenv(EnvHTTPPort, "7070")

	cfg, err := Load(writeConfig(t, "models:\n  dir: /file/models\n"))
	require.NoError(t, err)
	assert.Equal(t, "/env/models", cfg.Models.Dir)
	assert.Equal(t, 7070, cfg.HTTP.Port)

	t.Setenv(EnvHTTPPort, "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "models:\n  fallback: magic\n"))
	assert.ErrorContains(t, err, "models.fallback")

	_, err = Load(writeConfig(t, "http:\n  port: 70000\n"))
	assert.ErrorContains(t, err, "http.port")

	_, err = Load(writeConfig(t, "http: [not, a, map]\n"))
	assert.Error(t, err)
}
