package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	accountrepository "github.com/smallbiznis/lendora/internal/account/repository"
	accountservice "github.com/smallbiznis/lendora/internal/account/service"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	broadcastrepository "github.com/smallbiznis/lendora/internal/broadcast/repository"
	broadcastservice "github.com/smallbiznis/lendora/internal/broadcast/service"
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/lendora/internal/ledger/service"
	opsdomain "github.com/smallbiznis/lendora/internal/operations/domain"
	operationsservice "github.com/smallbiznis/lendora/internal/operations/service"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	orderrepository "github.com/smallbiznis/lendora/internal/order/repository"
	orderservice "github.com/smallbiznis/lendora/internal/order/service"
	"github.com/smallbiznis/lendora/internal/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopRegistrar struct{}

func (noopRegistrar) Reconcile(ctx context.Context) error { return nil }

type serverFixture struct {
	engine *gin.Engine
	ops    opsdomain.Service
	db     *gorm.DB
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orderdomain.Order{},
		&ledgerdomain.GlobalLedger{},
		&ledgerdomain.DailyLedger{},
		&ledgerdomain.GroupLedger{},
		&accountdomain.PaymentAccount{},
		&broadcastdomain.BroadcastSlot{},
	))
	require.NoError(t, db.Create(&ledgerdomain.GlobalLedger{ID: ledgerdomain.GlobalLedgerID}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	periods := period.NewResolver(fake, 0)

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, GenID: node, Periods: periods,
	})
	orderRepo := orderrepository.Provide()
	opsSvc := operationsservice.NewService(operationsservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Periods: periods,
		OrderRepo: orderRepo, LedgerSvc: ledgerSvc,
	})
	orderSvc := orderservice.NewService(orderservice.Params{DB: db, Log: log, Repo: orderRepo})
	accountSvc := accountservice.NewService(accountservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: accountrepository.Provide(),
	})
	broadcastSvc := broadcastservice.NewService(broadcastservice.Params{
		DB: db, Log: log, Clock: fake,
		Repo: broadcastrepository.Provide(), Registrar: noopRegistrar{},
	})

	srv := New(Params{
		Cfg:        config.Config{HTTPAddr: ":0"},
		Log:        log,
		Orders:     orderSvc,
		Ledger:     ledgerSvc,
		Accounts:   accountSvc,
		Broadcasts: broadcastSvc,
		Periods:    periods,
	})
	return &serverFixture{engine: NewEngine(srv), ops: opsSvc, db: db}
}

func (f *serverFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := setupServer(t)
	rec := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOrder(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	_, err := f.ops.CreateOrder(ctx, opsdomain.CreateOrderRequest{
		ChatID: -42, GroupID: "g-1", Customer: "A", Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)

	rec := f.get(t, "/v1/orders/-42")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		GroupID string `json:"group_id"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "g-1", body.GroupID)
	assert.Equal(t, "normal", body.State)
}

func TestGetOrderNotFound(t *testing.T) {
	f := setupServer(t)

	rec := f.get(t, "/v1/orders/-999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Type)
}

func TestLedgerEndpoints(t *testing.T) {
	f := setupServer(t)
	ctx := context.Background()

	_, err := f.ops.CreateOrder(ctx, opsdomain.CreateOrderRequest{
		ChatID: -42, GroupID: "g-1", Customer: "A", Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)
	_, err = f.ops.CompleteOrder(ctx, -42)
	require.NoError(t, err)

	rec := f.get(t, "/v1/ledger/totals")
	require.Equal(t, http.StatusOK, rec.Code)
	var totals struct {
		CompletedAmount string `json:"completed_amount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	assert.Equal(t, "1500", totals.CompletedAmount)

	rec = f.get(t, "/v1/ledger/daily")
	require.Equal(t, http.StatusOK, rec.Code)
	var daily struct {
		Period string            `json:"period"`
		Rows   []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &daily))
	assert.Equal(t, "2026-03-09", daily.Period)
	assert.NotEmpty(t, daily.Rows)

	rec = f.get(t, "/v1/ledger/groups")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccountsEndpoint(t *testing.T) {
	f := setupServer(t)

	require.NoError(t, f.db.Create(&accountdomain.PaymentAccount{
		ID: 1, AccountType: accountdomain.TypeGcash, AccountNumber: "g-1", AccountName: "Ana",
	}).Error)
	require.NoError(t, f.db.Create(&accountdomain.PaymentAccount{
		ID: 2, AccountType: accountdomain.TypePaymaya, AccountNumber: "p-1", AccountName: "Maya",
	}).Error)

	rec := f.get(t, "/v1/accounts")
	require.Equal(t, http.StatusOK, rec.Code)
	var all struct {
		Accounts []json.RawMessage `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all.Accounts, 2)

	rec = f.get(t, "/v1/accounts?type=gcash")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all.Accounts, 1)

	rec = f.get(t, "/v1/accounts?type=bank")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.get(t, "/v1/accounts/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.get(t, "/v1/accounts/404404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
