package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Engine.CompositionTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_DriverInference(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/scrims")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_DRIVER", "mongo")
	t.Setenv("ENGINE_COMPOSITION_TIMEOUT", "0s")
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, `DATABASE_DRIVER "mongo"`)
	assert.Contains(t, msg, "ENGINE_COMPOSITION_TIMEOUT")
	assert.Contains(t, msg, "HTTP_PORT")
	assert.Contains(t, msg, "HTTP_API_KEY_HASHES")
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, getEnvStringSlice("TEST_LIST", nil))
	assert.Nil(t, getEnvStringSlice("TEST_LIST_UNSET", nil))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCRIM_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SCRIM_DOTENV_PROBE") })

	assert.Equal(t, path, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("SCRIM_DOTENV_PROBE"))
	assert.Equal(t, "", LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, c.Families(), 5)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"families": [{"name": "dive", "variants": [["ENGAGE","ENGAGE","PICK","PICK","FLEX"]]}]
	}`), 0o600))

	c, err = LoadCatalog(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"DIVE"}, c.Families())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"families": [{"name": "x", "variants": [["ROAM"]]}]}`), 0o600))

	_, err = LoadCatalog(bad)
	assert.ErrorIs(t, err, lineup.ErrInvalidTemplate)
	assert.True(t, shared.IsConfiguration(err))

	_, err = LoadCatalog(filepath.Join(dir, "nope.json"))
	assert.True(t, strings.Contains(err.Error(), "read templates file"))
}
