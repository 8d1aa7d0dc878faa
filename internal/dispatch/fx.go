package dispatch

import (
	"github.com/smallbiznis/lendora/internal/authorization"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RouterParams struct {
	fx.In

	Log      *zap.Logger
	Sender   Sender
	Auth     *authorization.Service
	Handlers *Handlers
}

func NewDispatcher(p RouterParams) *Router {
	r := NewRouter(p.Log)
	p.Handlers.Register(r,
		Recover(p.Log.Named("dispatch"), p.Sender),
		RequireAuthorized(p.Auth, p.Log.Named("dispatch")),
		RequireGroupChat(),
		RequirePrivateChat(),
	)
	return r
}

var Module = fx.Module("dispatch",
	fx.Provide(NewHandlers),
	fx.Provide(NewDispatcher),
)
