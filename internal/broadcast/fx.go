package broadcast

import (
	"context"

	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"github.com/smallbiznis/lendora/internal/broadcast/registry"
	"github.com/smallbiznis/lendora/internal/broadcast/repository"
	"github.com/smallbiznis/lendora/internal/broadcast/service"
	"go.uber.org/fx"
)

var Module = fx.Module("broadcast.service",
	fx.Provide(repository.Provide),
	fx.Provide(registry.New),
	fx.Provide(func(r *registry.Registry) broadcastdomain.Registrar { return r }),
	fx.Provide(service.NewService),
	fx.Invoke(runRegistry),
)

func runRegistry(lc fx.Lifecycle, r *registry.Registry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return r.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return r.Stop(ctx)
		},
	})
}
