package config

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finportal/internal/models"
)

func TestOpenDB_AppliesPoolAndMigrates(t *testing.T) {
	pool := PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Minute, ConnMaxIdleTime: time.Minute}

	db, err := openDB(context.Background(), sqlite.Open(":memory:"), pool)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.True(t, db.Migrator().HasTable(&models.Account{}))
}

func TestInitDB_EmptyDSN(t *testing.T) {
	_, err := InitDB(context.Background(), "", PoolConfig{MaxOpenConns: 1})
	require.Error(t, err)
}

func TestPoolConfig_Validate(t *testing.T) {
	assert.NoError(t, PoolConfig{MaxOpenConns: 20, MaxIdleConns: 10}.validate())
	assert.Error(t, PoolConfig{MaxOpenConns: 0}.validate())
	assert.Error(t, PoolConfig{MaxOpenConns: 5, MaxIdleConns: 6}.validate())
	assert.Error(t, PoolConfig{MaxOpenConns: 5, ConnMaxLifetime: -time.Second}.validate())
}
