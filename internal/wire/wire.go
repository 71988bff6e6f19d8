//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"rapidsite-ai-api/internal/application/sitegen"
	appwebsite "rapidsite-ai-api/internal/application/website"
	"rapidsite-ai-api/internal/config"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/domain/service"
	"rapidsite-ai-api/internal/infrastructure/llm"
	"rapidsite-ai-api/internal/infrastructure/persistence/postgres"
	"rapidsite-ai-api/internal/infrastructure/persistence/redis"
	"rapidsite-ai-api/internal/interfaces/http/handler"
	"rapidsite-ai-api/internal/interfaces/http/middleware"
	"rapidsite-ai-api/internal/interfaces/http/router"
	workflowport "rapidsite-ai-api/internal/workflow/port"
)

// InitializeDataLayer 初始化数据层
func InitializeDataLayer(ctx context.Context, cfg *config.Config) (*DataLayer, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		wire.Struct(new(DataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		AppSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewWebsiteRepository,
	postgres.NewPageRepository,
	postgres.NewConversationSessionRepository,
	postgres.NewConversationTurnRepository,
	postgres.NewLLMUsageEventRepository,
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	redis.NewGenerationLock,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
	wire.Bind(new(sitegen.GenerationLocker), new(*redis.GenerationLock)),
	wire.Bind(new(sitegen.CacheInvalidator), new(*redis.Cache)),
)

// AppSet 应用层提供者集合
var AppSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	sitegen.NewLLMUsageRecorder,
	wire.Bind(new(service.LLMUsageRecorder), new(*sitegen.LLMUsageRecorder)),
	sitegen.NewExpressGenerator,
	sitegen.NewDesignChatService,
	appwebsite.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	handler.NewAuthHandler,
	handler.NewHealthHandler,
	handler.NewUserHandler,
	handler.NewWebsiteHandler,
	handler.NewConversationHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.WebsiteRepository), new(*postgres.WebsiteRepository)),
	wire.Bind(new(repository.PageRepository), new(*postgres.PageRepository)),
	wire.Bind(new(repository.ConversationSessionRepository), new(*postgres.ConversationSessionRepository)),
	wire.Bind(new(repository.ConversationTurnRepository), new(*postgres.ConversationTurnRepository)),
	wire.Bind(new(repository.LLMUsageEventRepository), new(*postgres.LLMUsageEventRepository)),
)

