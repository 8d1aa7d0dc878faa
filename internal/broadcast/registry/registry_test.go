package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/broadcast/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingSender struct {
	mu    sync.Mutex
	sends []int64
	err   error
}

func (s *recordingSender) Send(ctx context.Context, chatID int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, chatID)
	return s.err
}

func setupRegistry(t *testing.T) (*Registry, *gorm.DB, broadcastdomain.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&broadcastdomain.BroadcastSlot{}))

	repo := repository.Provide()
	reg := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repo,
		Sender: &recordingSender{},
	})
	return reg, db, repo
}

func seedSlot(t *testing.T, db *gorm.DB, repo broadcastdomain.Repository, slot int, sendTime string, active bool) {
	t.Helper()
	chatID := int64(-1000 - slot)
	require.NoError(t, repo.Upsert(context.Background(), db, &broadcastdomain.BroadcastSlot{
		Slot:      slot,
		SendTime:  sendTime,
		ChatID:    &chatID,
		Message:   "scheduled notice",
		IsActive:  active,
		UpdatedAt: time.Now().UTC(),
	}))
}

func TestReconcileRegistersOneJobPerActiveSlot(t *testing.T) {
	reg, db, repo := setupRegistry(t)
	ctx := context.Background()

	seedSlot(t, db, repo, 1, "08:00", true)
	seedSlot(t, db, repo, 2, "12:30", true)
	seedSlot(t, db, repo, 3, "21:00", false)

	require.NoError(t, reg.Reconcile(ctx))
	assert.Equal(t, 2, reg.RegisteredJobs())
}

func TestReconcileAfterDeleteLeavesMatchingJobs(t *testing.T) {
	reg, db, repo := setupRegistry(t)
	ctx := context.Background()

	seedSlot(t, db, repo, 1, "08:00", true)
	seedSlot(t, db, repo, 2, "12:30", true)
	seedSlot(t, db, repo, 3, "21:00", true)
	require.NoError(t, reg.Reconcile(ctx))
	assert.Equal(t, 3, reg.RegisteredJobs())

	ok, err := repo.Delete(ctx, db, 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, reg.Reconcile(ctx))
	assert.Equal(t, 2, reg.RegisteredJobs())
}

func TestReconcileIsRepeatableWithoutLeaks(t *testing.T) {
	reg, db, repo := setupRegistry(t)
	ctx := context.Background()

	seedSlot(t, db, repo, 1, "08:00", true)
	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Reconcile(ctx))
	}
	assert.Equal(t, 1, reg.RegisteredJobs())
}

func TestReconcileSkipsMalformedStoredTime(t *testing.T) {
	reg, db, repo := setupRegistry(t)
	ctx := context.Background()

	seedSlot(t, db, repo, 1, "bogus", true)
	seedSlot(t, db, repo, 2, "09:15", true)

	require.NoError(t, reg.Reconcile(ctx))
	assert.Equal(t, 1, reg.RegisteredJobs())
}

func TestJobDeliversThroughSender(t *testing.T) {
	reg, _, _ := setupRegistry(t)
	sender := &recordingSender{}
	reg.sender = sender

	chatID := int64(-42)
	job := reg.jobFor(broadcastdomain.BroadcastSlot{
		Slot:    1,
		ChatID:  &chatID,
		Message: "pay today",
	})
	job()

	require.Len(t, sender.sends, 1)
	assert.Equal(t, int64(-42), sender.sends[0])
}

func TestJobWithoutDestinationDoesNotSend(t *testing.T) {
	reg, _, _ := setupRegistry(t)
	sender := &recordingSender{}
	reg.sender = sender

	reg.jobFor(broadcastdomain.BroadcastSlot{Slot: 1, Message: "pay today"})()
	assert.Empty(t, sender.sends)
}

func TestJobSendFailureIsSwallowed(t *testing.T) {
	reg, _, _ := setupRegistry(t)
	sender := &recordingSender{err: errors.New("transport down")}
	reg.sender = sender

	chatID := int64(-42)
	assert.NotPanics(t, func() {
		reg.jobFor(broadcastdomain.BroadcastSlot{Slot: 1, ChatID: &chatID, Message: "x"})()
	})
	assert.Len(t, sender.sends, 1)
}
