package period

import (
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("period",
	fx.Provide(func(c clock.Clock, cfg config.Config) *Resolver {
		return NewResolver(c, cfg.DayCutoverHour)
	}),
)
