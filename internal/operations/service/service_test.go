package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/lendora/internal/clock"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/lendora/internal/ledger/service"
	opsdomain "github.com/smallbiznis/lendora/internal/operations/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	orderrepository "github.com/smallbiznis/lendora/internal/order/repository"
	"github.com/smallbiznis/lendora/internal/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	ops    opsdomain.Service
	ledger ledgerdomain.Service
	fake   *clock.FakeClock
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&ledgerdomain.GlobalLedger{},
		&ledgerdomain.DailyLedger{},
		&ledgerdomain.GroupLedger{},
	))
	require.NoError(t, db.Create(&ledgerdomain.GlobalLedger{ID: ledgerdomain.GlobalLedgerID}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	periods := period.NewResolver(fake, 0)
	log := zap.NewNop()

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Periods: periods,
	})

	ops := NewService(Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Periods:   periods,
		OrderRepo: orderrepository.Provide(),
		LedgerSvc: ledgerSvc,
	})

	return &fixture{db: db, ops: ops, ledger: ledgerSvc, fake: fake}
}

func (f *fixture) createOrder(t *testing.T, chatID int64, amount int64) opsdomain.Result {
	t.Helper()
	result, err := f.ops.CreateOrder(context.Background(), opsdomain.CreateOrderRequest{
		ChatID:   chatID,
		GroupID:  "g-1",
		Customer: "ana",
		Amount:   decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) totals(t *testing.T) ledgerdomain.GlobalLedger {
	t.Helper()
	totals, err := f.ledger.Totals(context.Background())
	require.NoError(t, err)
	return totals
}

func TestCreateOrderBooksValidPool(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	result := f.createOrder(t, 100, 2000)
	assert.Equal(t, orderdomain.StateNormal, result.Order.State)
	assert.Equal(t, "group_one", result.Order.WeekdayGroup)

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, int64(1), totals.ValidOrders)
	assert.Equal(t, int64(1), totals.NewClients)
	assert.Equal(t, int64(0), totals.OldClients)

	var stored orderdomain.Order
	require.NoError(t, f.db.WithContext(ctx).Where("chat_id = ?", 100).Take(&stored).Error)
	assert.Equal(t, orderdomain.StateNormal, stored.State)
	assert.Equal(t, "g-1", stored.GroupID)
}

func TestCreateOrderReturningClientCountsOldClients(t *testing.T) {
	f := setupFixture(t)

	_, err := f.ops.CreateOrder(context.Background(), opsdomain.CreateOrderRequest{
		ChatID:          101,
		GroupID:         "g-1",
		Customer:        "ben",
		Amount:          decimal.NewFromInt(500),
		ReturningClient: true,
	})
	require.NoError(t, err)

	totals := f.totals(t)
	assert.Equal(t, int64(0), totals.NewClients)
	assert.Equal(t, int64(1), totals.OldClients)
}

func TestCreateOrderRejectsSecondActiveOrder(t *testing.T) {
	f := setupFixture(t)

	f.createOrder(t, 100, 1000)
	_, err := f.ops.CreateOrder(context.Background(), opsdomain.CreateOrderRequest{
		ChatID:   100,
		GroupID:  "g-1",
		Customer: "ana",
		Amount:   decimal.NewFromInt(700),
	})
	assert.ErrorIs(t, err, orderdomain.ErrActiveOrderExists)

	// The rejected attempt must leave no ledger trace.
	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(1), totals.ValidOrders)
}

func TestCreateOrderValidation(t *testing.T) {
	f := setupFixture(t)

	_, err := f.ops.CreateOrder(context.Background(), opsdomain.CreateOrderRequest{
		ChatID:   100,
		GroupID:  "g-1",
		Customer: "ana",
		Amount:   decimal.Zero,
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidAmount)

	_, err = f.ops.CreateOrder(context.Background(), opsdomain.CreateOrderRequest{
		ChatID:   100,
		Customer: "ana",
		Amount:   decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, orderdomain.ErrInvalidState)
}

func TestOverdueRoundTrip(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1000)

	result, err := f.ops.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateOverdue, result.Order.State)

	result, err = f.ops.MarkNormal(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateNormal, result.Order.State)

	// State flips alone never move money.
	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.CompletedAmount.IsZero())
}

func TestMarkBreachRequiresOverdue(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1000)

	_, err := f.ops.MarkBreach(ctx, 100)
	assert.ErrorIs(t, err, orderdomain.ErrPreconditionFailed)

	_, err = f.ops.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	result, err := f.ops.MarkBreach(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateBreach, result.Order.State)
}

func TestCompleteOrderRecoversFunds(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1500)
	result, err := f.ops.CompleteOrder(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateEnd, result.Order.State)

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.IsZero())
	assert.Equal(t, int64(0), totals.ValidOrders)
	assert.True(t, totals.CompletedAmount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, int64(1), totals.CompletedOrders)
	assert.True(t, totals.LiquidFunds.Equal(decimal.NewFromInt(1500)))

	daily, err := f.ledger.DailyRows(ctx, period.Key("2026-03-09"))
	require.NoError(t, err)
	require.NotEmpty(t, daily)
	assert.True(t, daily[0].LiquidFlow.Equal(decimal.NewFromInt(1500)))

	// A terminal order no longer blocks a fresh one for the chat.
	f.createOrder(t, 100, 300)
}

func TestBreachThenSettleRecoversOnlySettledAmount(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 2000)
	_, err := f.ops.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	_, err = f.ops.MarkBreach(ctx, 100)
	require.NoError(t, err)

	result, err := f.ops.SettleBreach(ctx, 100, decimal.NewFromInt(1200))
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateBreachEnd, result.Order.State)
	assert.True(t, result.Settled.Equal(decimal.NewFromInt(1200)))

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.IsZero())
	assert.True(t, totals.BreachAmount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, int64(1), totals.BreachOrders)
	assert.True(t, totals.BreachEndAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, int64(1), totals.BreachEndOrders)
	assert.True(t, totals.LiquidFunds.Equal(decimal.NewFromInt(1200)))
}

func TestSettleBreachOnlyFromBreach(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 2000)
	_, err := f.ops.SettleBreach(ctx, 100, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, orderdomain.ErrPreconditionFailed)

	_, err = f.ops.SettleBreach(ctx, 999, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}

func TestReducePrincipalKeepsOrderActive(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 2000)
	result, err := f.ops.ReducePrincipal(ctx, 100, decimal.NewFromInt(800))
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StateNormal, result.Order.State)
	assert.True(t, result.Order.Amount.Equal(decimal.NewFromInt(1200)))

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, int64(1), totals.ValidOrders)
	assert.True(t, totals.CompletedAmount.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, int64(0), totals.CompletedOrders)
	assert.True(t, totals.LiquidFunds.Equal(decimal.NewFromInt(800)))
}

func TestReducePrincipalNeverExceedsRemaining(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1000)
	_, err := f.ops.ReducePrincipal(ctx, 100, decimal.NewFromInt(1500))
	assert.ErrorIs(t, err, orderdomain.ErrPreconditionFailed)

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.LiquidFunds.IsZero())
}

func TestReducePrincipalSecondReductionSeesRemaining(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1000)

	result, err := f.ops.ReducePrincipal(ctx, 100, decimal.NewFromInt(600))
	require.NoError(t, err)
	assert.True(t, result.Order.Amount.Equal(decimal.NewFromInt(400)))

	// Only 400 remains, so a repeat of the same reduction must lose the
	// amount guard and leave the ledger untouched.
	_, err = f.ops.ReducePrincipal(ctx, 100, decimal.NewFromInt(600))
	assert.ErrorIs(t, err, orderdomain.ErrPreconditionFailed)

	totals := f.totals(t)
	assert.True(t, totals.ValidAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, int64(1), totals.ValidOrders)
	assert.True(t, totals.CompletedAmount.Equal(decimal.NewFromInt(600)))
	assert.True(t, totals.LiquidFunds.Equal(decimal.NewFromInt(600)))
}

func TestRecordInterestAttributesToActiveOrderGroup(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.createOrder(t, 100, 1000)
	require.NoError(t, f.ops.RecordInterest(ctx, 100, decimal.NewFromInt(90)))

	totals := f.totals(t)
	assert.True(t, totals.Interest.Equal(decimal.NewFromInt(90)))
	assert.True(t, totals.LiquidFunds.Equal(decimal.NewFromInt(90)))

	groups, err := f.ledger.GroupRows(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Interest.Equal(decimal.NewFromInt(90)))
}

func TestRecordInterestWithoutOrderStaysUngrouped(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ops.RecordInterest(ctx, 555, decimal.NewFromInt(40)))

	totals := f.totals(t)
	assert.True(t, totals.Interest.Equal(decimal.NewFromInt(40)))

	groups, err := f.ledger.GroupRows(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestTransitionsOnMissingOrder(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.ops.MarkOverdue(ctx, 42)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
	_, err = f.ops.CompleteOrder(ctx, 42)
	assert.ErrorIs(t, err, orderdomain.ErrNotFound)
}
