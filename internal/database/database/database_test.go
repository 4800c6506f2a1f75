package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/database/config"
)

func TestNewWithConfig_SQLite(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")}

	db, err := NewWithConfig(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	assert.NoError(t, HealthCheck(context.Background(), db))

	stats, err := GetStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestNewWithConfig_InvalidDriver(t *testing.T) {
	db, err := NewWithConfig(config.Config{Driver: "oracle"}, zap.NewNop().Sugar())
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestNilConnection(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background(), nil))
	assert.NoError(t, Close(nil))

	stats, err := GetStats(nil)
	assert.Error(t, err)
	assert.Nil(t, stats)
}

func TestHealthCheck_ClosedConnection(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, Path: ":memory:"}
	db, err := NewWithConfig(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, Close(db))

	assert.Error(t, HealthCheck(context.Background(), db))
}
