package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/config"
	ledgerdomain "github.com/smallbiznis/lendora/internal/ledger/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"github.com/smallbiznis/lendora/internal/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Orders     orderdomain.Service
	Ledger     ledgerdomain.Service
	Accounts   accountdomain.Service
	Broadcasts broadcastdomain.Service
	Periods    *period.Resolver
}

// Server is the read-mostly operations API for dashboards and support
// tooling. Financial mutations only flow through the chat dispatcher.
type Server struct {
	cfg        config.Config
	log        *zap.Logger
	orders     orderdomain.Service
	ledger     ledgerdomain.Service
	accounts   accountdomain.Service
	broadcasts broadcastdomain.Service
	periods    *period.Resolver
}

func New(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		orders:     p.Orders,
		ledger:     p.Ledger,
		accounts:   p.Accounts,
		broadcasts: p.Broadcasts,
		periods:    p.Periods,
	}
}

func NewEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/orders/:chat_id", s.getOrder)
		v1.GET("/groups/:group_id/orders", s.listGroupOrders)
		v1.GET("/ledger/totals", s.getTotals)
		v1.GET("/ledger/daily", s.getDailyRows)
		v1.GET("/ledger/groups", s.getGroupRows)
		v1.GET("/accounts", s.listAccounts)
		v1.GET("/accounts/:id", s.getAccount)
		v1.GET("/broadcasts", s.listBroadcasts)
	}

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Provide(NewEngine),
	fx.Invoke(run),
)
