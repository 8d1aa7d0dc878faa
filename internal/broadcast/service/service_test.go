package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/broadcast/repository"
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) Reconcile(ctx context.Context) error {
	f.calls++
	return f.err
}

func setupBroadcastService(t *testing.T) (broadcastdomain.Service, *fakeRegistrar) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&broadcastdomain.BroadcastSlot{}))

	registrar := &fakeRegistrar{}
	svc := NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		Registrar: registrar,
	})
	return svc, registrar
}

func int64Ptr(v int64) *int64 { return &v }

func TestConfigureNormalizesTimeAndReconciles(t *testing.T) {
	svc, registrar := setupBroadcastService(t)
	ctx := context.Background()

	slot, err := svc.Configure(ctx, broadcastdomain.ConfigureRequest{
		Slot:      1,
		Time:      "8",
		ChatID:    int64Ptr(-100200),
		ChatTitle: "Collections",
		Message:   "pay today",
	})
	require.NoError(t, err)
	assert.Equal(t, "08:00", slot.SendTime)
	assert.True(t, slot.IsActive)
	assert.Equal(t, 1, registrar.calls)

	slot, err = svc.Configure(ctx, broadcastdomain.ConfigureRequest{
		Slot:    1,
		Time:    "21:30",
		ChatID:  int64Ptr(-100200),
		Message: "closing soon",
	})
	require.NoError(t, err)
	assert.Equal(t, "21:30", slot.SendTime)
	assert.Equal(t, 2, registrar.calls)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "closing soon", rows[0].Message)
}

func TestConfigureValidation(t *testing.T) {
	svc, registrar := setupBroadcastService(t)
	ctx := context.Background()

	_, err := svc.Configure(ctx, broadcastdomain.ConfigureRequest{Slot: 4, Time: "8", Message: "x"})
	assert.ErrorIs(t, err, broadcastdomain.ErrSlotOutOfRange)

	_, err = svc.Configure(ctx, broadcastdomain.ConfigureRequest{Slot: 1, Time: "25:00", Message: "x"})
	assert.ErrorIs(t, err, broadcastdomain.ErrInvalidTime)

	_, err = svc.Configure(ctx, broadcastdomain.ConfigureRequest{Slot: 1, Time: "8", Message: "   "})
	assert.ErrorIs(t, err, broadcastdomain.ErrEmptyMessage)

	// Rejected input must never touch the scheduler.
	assert.Equal(t, 0, registrar.calls)
}

func TestSetActiveToggles(t *testing.T) {
	svc, registrar := setupBroadcastService(t)
	ctx := context.Background()

	_, err := svc.Configure(ctx, broadcastdomain.ConfigureRequest{Slot: 2, Time: "9", Message: "hello"})
	require.NoError(t, err)

	slot, err := svc.SetActive(ctx, 2, false)
	require.NoError(t, err)
	assert.False(t, slot.IsActive)
	assert.Equal(t, 2, registrar.calls)

	_, err = svc.SetActive(ctx, 3, true)
	assert.ErrorIs(t, err, broadcastdomain.ErrSlotNotFound)
}

func TestDeleteClearsSlot(t *testing.T) {
	svc, registrar := setupBroadcastService(t)
	ctx := context.Background()

	_, err := svc.Configure(ctx, broadcastdomain.ConfigureRequest{Slot: 3, Time: "10", Message: "hi"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 3))
	assert.Equal(t, 2, registrar.calls)

	_, err = svc.Get(ctx, 3)
	assert.ErrorIs(t, err, broadcastdomain.ErrSlotNotFound)

	err = svc.Delete(ctx, 3)
	assert.ErrorIs(t, err, broadcastdomain.ErrSlotNotFound)
}

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"8":     "08:00",
		"08":    "08:00",
		"23:59": "23:59",
		"0:05":  "00:05",
	}
	for raw, want := range cases {
		got, err := broadcastdomain.NormalizeTime(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "24", "12:60", "noon", "1:2"} {
		_, err := broadcastdomain.NormalizeTime(raw)
		assert.ErrorIs(t, err, broadcastdomain.ErrInvalidTime, raw)
	}
}
