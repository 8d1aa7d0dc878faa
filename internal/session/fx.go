package session

import (
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/lendora/internal/clock"
	"github.com/smallbiznis/lendora/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewStore(cfg config.Config, c clock.Clock, log *zap.Logger) Store {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("session").Info("redis not configured, using in-memory sessions")
		return NewMemoryStore(c, ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	return NewRedisStore(client, ttl)
}

var Module = fx.Module("session",
	fx.Provide(NewStore),
)
