package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lendora/internal/account"
	"github.com/smallbiznis/lendora/internal/authorization"
	"github.com/smallbiznis/lendora/internal/broadcast"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	"github.com/smallbiznis/lendora/internal/dispatch"
	"github.com/smallbiznis/lendora/internal/ledger"
	"github.com/smallbiznis/lendora/internal/logger"
	"github.com/smallbiznis/lendora/internal/migration"
	obsmetrics "github.com/smallbiznis/lendora/internal/observability/metrics"
	"github.com/smallbiznis/lendora/internal/operations"
	"github.com/smallbiznis/lendora/internal/order"
	"github.com/smallbiznis/lendora/internal/period"
	"github.com/smallbiznis/lendora/internal/server"
	"github.com/smallbiznis/lendora/internal/session"
	"github.com/smallbiznis/lendora/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		clock.Module,
		period.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional Domains
		ledger.Module,
		order.Module,
		operations.Module,
		account.Module,
		broadcast.Module,
		session.Module,
		authorization.Module,

		// Chat dispatch and HTTP surface
		fx.Provide(
			fx.Annotate(broadcast.NewLogSender, fx.As(new(broadcastdomain.Sender))),
			fx.Annotate(dispatch.NewLogSender, fx.As(new(dispatch.Sender))),
		),
		dispatch.Module,
		server.Module,

		// Keep the dispatcher alive even before a transport feeds it.
		fx.Invoke(func(*dispatch.Router) {}),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
