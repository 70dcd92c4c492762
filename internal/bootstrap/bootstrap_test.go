package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimhub/scrim-lineup/config"
	"github.com/scrimhub/scrim-lineup/internal/application/command"
	"github.com/scrimhub/scrim-lineup/internal/application/query"
)

func testConfig(driver config.DatabaseDriver) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "scrim-lineup", Environment: config.EnvDevelopment, Version: "test"},
		Database: config.DatabaseConfig{Driver: driver, SQLitePath: ":memory:"},
		Redis:    config.RedisConfig{Disabled: true, LineupTTL: time.Minute},
		Engine: config.EngineConfig{
			CompositionTimeout: time.Second,
			MaxRosterSize:      10,
			ExpectedMatches:    1000,
		},
		Resilience: config.ResilienceConfig{
			RetryMaxAttempts:  1,
			RetryInitialDelay: time.Millisecond,
			RetryMaxDelay:     time.Millisecond,
			BreakerThreshold:  3,
			BreakerTimeout:    time.Second,
		},
		Observability: config.ObservabilityConfig{LogLevel: "error", LogFormat: "text"},
	}
}

func TestNew_Drivers(t *testing.T) {
	for _, driver := range []config.DatabaseDriver{config.DriverMemory, config.DriverSQLite} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()
			rt, err := New(ctx, testConfig(driver), nil)
			require.NoError(t, err)
			defer func() { assert.NoError(t, rt.Close()) }()

			assert.Nil(t, rt.Cache)
			assert.Equal(t, []string{"ENGAGE", "PICK", "PROTECT", "SIEGE", "SPLIT"}, rt.Catalog.Families())

			status := rt.Health.Check(ctx)
			assert.True(t, status.Ready)
			assert.Contains(t, status.Checks, "store")

			p, err := rt.RegisterPlayer.Handle(ctx, command.RegisterPlayerCommand{DisplayName: "Keria"})
			require.NoError(t, err)

			got, err := rt.GetPlayer.Handle(ctx, query.GetPlayerQuery{PlayerID: p.ID.String()})
			require.NoError(t, err)
			assert.Equal(t, "Keria", got.DisplayName)
		})
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("mongo"), nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNew_BadTemplatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"families":`), 0o600))

	cfg := testConfig(config.DriverMemory)
	cfg.Engine.TemplatesFile = path

	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "load template catalog")
}

func TestNew_UnreachableRedisDisablesCache(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.Redis = config.RedisConfig{
		URL:         "redis://127.0.0.1:1/0",
		DialTimeout: 200 * time.Millisecond,
		LineupTTL:   time.Minute,
	}

	rt, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Cache)
	assert.NotContains(t, rt.Health.Check(context.Background()).Checks, "lineup_cache")
}
