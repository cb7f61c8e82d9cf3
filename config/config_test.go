package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/node"
	"github.com/ridoystarlord/ormschema/policy"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "ORMSCHEMA_MODELS", "ORMSCHEMA_UNKNOWN", "ORMSCHEMA_CALLABLE_MISSING", "ORMSCHEMA_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		ModelsFile: "models.yaml",
		Unknown:    node.Ignore,
		Callables:  policy.EvaluateCallable,
		LogLevel:   slog.LevelInfo,
	}, cfg)

	driver, err := cfg.Driver()
	require.NoError(t, err)
	assert.Empty(t, driver)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://file:test.db?cache=shared")
	t.Setenv("ORMSCHEMA_MODELS", "schema/models.yaml")
	t.Setenv("ORMSCHEMA_UNKNOWN", "Raise")
	t.Setenv("ORMSCHEMA_CALLABLE_MISSING", "drop")
	t.Setenv("ORMSCHEMA_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "schema/models.yaml", cfg.ModelsFile)
	assert.Equal(t, node.Raise, cfg.Unknown)
	assert.Equal(t, policy.DropCallable, cfg.Callables)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	driver, err := cfg.Driver()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, driver)
	assert.Equal(t, "file:test.db?cache=shared", cfg.SQLitePath())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"ORMSCHEMA_UNKNOWN", "sometimes"},
		{"ORMSCHEMA_CALLABLE_MISSING", "later"},
		{"ORMSCHEMA_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDriver(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"postgres://user@localhost/db", DriverPostgres, false},
		{"postgresql://user@localhost/db", DriverPostgres, false},
		{"sqlite://app.db", DriverSQLite, false},
		{"mysql://localhost/db", "", true},
	}
	for _, tt := range tests {
		got, err := (&Config{DatabaseURL: tt.url}).Driver()
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}
