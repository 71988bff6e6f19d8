// Package wire 提供依赖注入配置
package wire

import (
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/infrastructure/persistence/postgres"
	"rapidsite-ai-api/internal/infrastructure/persistence/redis"
	"rapidsite-ai-api/internal/interfaces/http/middleware"
)

// DataLayer 数据层依赖容器
type DataLayer struct {
	// PostgreSQL
	PgClient     *postgres.Client
	TxManager    *postgres.TxManager
	UserRepo     *postgres.UserRepository
	WebsiteRepo  *postgres.WebsiteRepository
	PageRepo     *postgres.PageRepository
	SessionRepo  *postgres.ConversationSessionRepository
	TurnRepo     *postgres.ConversationTurnRepository
	LLMUsageRepo *postgres.LLMUsageEventRepository

	// Redis
	RedisClient    *redis.Client
	Cache          *redis.Cache
	RateLimiter    *redis.RateLimiter
	GenerationLock *redis.GenerationLock
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret:    cfg.Security.JWT.Secret,
		Issuer:    cfg.Security.JWT.Issuer,
		SkipPaths: middleware.DefaultSkipPaths,
		Enabled:   true,
	}
}
