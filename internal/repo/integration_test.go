package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finportal/internal/config"
	"github.com/Skotchmaster/finportal/internal/models"
)

func newPostgresRepo(t *testing.T) *GormRepo {
	t.Helper()

	dsn := os.Getenv("FINPORTAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FINPORTAL_TEST_DATABASE_URL is required for postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := config.InitDB(ctx, dsn, config.PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2})
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Exec("TRUNCATE TABLE accounts RESTART IDENTITY CASCADE")
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormRepo(db)
}

func uniqueEmail() string {
	return "u_" + uuid.NewString() + "@x.com"
}

func TestPostgres_CreateConflictAndStatus(t *testing.T) {
	r := newPostgresRepo(t)
	ctx := context.Background()
	email := uniqueEmail()

	require.NoError(t, r.CreateIfNotExists(ctx, newAccount(email)))
	assert.ErrorIs(t, r.CreateIfNotExists(ctx, newAccount(email)), ErrAccountExists)

	require.NoError(t, r.SetStatus(ctx, email, false, true))
	got, err := r.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.False(t, got.Usable())
	assert.Equal(t, models.RoleClient, got.Role)

	require.NoError(t, r.Ping(ctx))
}
