package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Operator{}))

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Cfg:   config.Config{AdminOperatorIDs: []int64{1000}},
		Clock: clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)),
	})
}

func TestAdminIsAlwaysAuthorized(t *testing.T) {
	svc := setupAuthService(t)

	assert.True(t, svc.IsAdmin(1000))
	assert.False(t, svc.IsAdmin(2000))

	ok, err := svc.IsAuthorized(context.Background(), 1000)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantAndRevoke(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	ok, err := svc.IsAuthorized(ctx, 2000)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Grant(ctx, 1000, 2000))
	// Granting twice is a no-op.
	require.NoError(t, svc.Grant(ctx, 1000, 2000))

	ok, err = svc.IsAuthorized(ctx, 2000)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Revoke(ctx, 1000, 2000))
	ok, err = svc.IsAuthorized(ctx, 2000)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.Revoke(ctx, 1000, 2000)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestOnlyAdminsMayGrant(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Grant(ctx, 2000, 3000), ErrAdminOnly)
	assert.ErrorIs(t, svc.Revoke(ctx, 2000, 3000), ErrAdminOnly)
}
