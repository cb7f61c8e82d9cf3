package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/ormschema/config"
)

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestPing(t *testing.T) {
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "app.db")
	assert.NoError(t, Ping(ctx, &config.Config{DatabaseURL: "sqlite://" + dsn}))

	assert.Error(t, Ping(ctx, &config.Config{}))
	assert.Error(t, Ping(ctx, &config.Config{DatabaseURL: "mysql://localhost"}))
}
