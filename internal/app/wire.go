//go:build wireinject
// +build wireinject

package app

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/sandeepkv93/session-auth-service/internal/config"
	"github.com/sandeepkv93/session-auth-service/internal/http/handler"
	"github.com/sandeepkv93/session-auth-service/internal/http/router"
	"github.com/sandeepkv93/session-auth-service/internal/repository"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

func InitializeApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*App, func(), error) {
	wire.Build(
		provideObservability,
		provideDatabase,
		provideGormDB,
		provideRedis,
		provideRedisClient,
		provideJWTManager,
		providePasswordHasher,
		repository.NewUserRepository,
		repository.NewSessionRepository,
		provideTokenService,
		provideAuthService,
		wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
		handler.NewAuthHandler,
		handler.NewUserHandler,
		handler.NewAdminHandler,
		provideReadiness,
		provideHealthHandler,
		provideRateLimitBackend,
		provideGlobalRateLimiter,
		provideLoginRateLimiter,
		provideRouterDependencies,
		router.NewRouter,
		provideHTTPServer,
		New,
	)
	return nil, nil, nil
}
