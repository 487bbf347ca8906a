package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"

	"github.com/sandeepkv93/session-auth-service/internal/cache"
	"github.com/sandeepkv93/session-auth-service/internal/config"
	"github.com/sandeepkv93/session-auth-service/internal/database"
	"github.com/sandeepkv93/session-auth-service/internal/health"
	"github.com/sandeepkv93/session-auth-service/internal/http/handler"
	"github.com/sandeepkv93/session-auth-service/internal/http/middleware"
	"github.com/sandeepkv93/session-auth-service/internal/http/router"
	"github.com/sandeepkv93/session-auth-service/internal/observability"
	"github.com/sandeepkv93/session-auth-service/internal/repository"
	"github.com/sandeepkv93/session-auth-service/internal/security"
	"github.com/sandeepkv93/session-auth-service/internal/service"
)

func provideObservability(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*observability.Runtime, error) {
	return observability.InitRuntime(ctx, cfg, logger, lp)
}

func provideDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.DB, func(), error) {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("database schema up to date", "dialect", string(db.Dialect))
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}
	return db, cleanup, nil
}

func provideGormDB(db *database.DB) *gorm.DB {
	return db.Gorm
}

// redisConn is the configured client and whether it answered at boot.
type redisConn struct {
	client    *redis.Client
	reachable bool
}

// provideRedis keeps the client even when the boot ping fails so readiness keeps probing it.
func provideRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redisConn, func(), error) {
	client, err := cache.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info("redis disabled")
		return &redisConn{}, func() {}, nil
	}
	cleanup := func() { _ = client.Close() }
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "error", err)
		return &redisConn{client: client}, cleanup, nil
	}
	logger.Info("redis connected")
	return &redisConn{client: client, reachable: true}, cleanup, nil
}

func provideRedisClient(rc *redisConn) *redis.Client {
	return rc.client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret, cfg.AccessTokenTTL())
}

func providePasswordHasher(cfg *config.Config) security.PasswordHasher {
	return security.NewBcryptHasher(cfg.BcryptCost)
}

func provideTokenService(jwtMgr *security.JWTManager, sessions repository.SessionRepository, hasher security.PasswordHasher, cfg *config.Config) *service.TokenService {
	return service.NewTokenService(jwtMgr, sessions, hasher, cfg.RefreshTTL())
}

func provideAuthService(users repository.UserRepository, tokens *service.TokenService, hasher security.PasswordHasher, cfg *config.Config) (*service.AuthService, error) {
	return service.NewAuthService(users, tokens, hasher, service.WithPasswordPolicy(cfg.PasswordPolicyEnabled))
}

func provideReadiness(cfg *config.Config, db *database.DB, redisClient *redis.Client) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, health.DatabaseChecker(db), health.RedisChecker(redisClient))
}

func provideHealthHandler(readiness *health.ProbeRunner) *handler.HealthHandler {
	return handler.NewHealthHandler(readiness)
}

func provideRateLimitBackend(rc *redisConn) middleware.Limiter {
	if !rc.reachable {
		return middleware.NewLocalFixedWindowLimiter()
	}
	return middleware.NewRedisFixedWindowLimiter(rc.client, "rl")
}

func provideGlobalRateLimiter(cfg *config.Config, backend middleware.Limiter) router.GlobalRateLimiterFunc {
	mode := middleware.ParseFailureMode(cfg.RateLimitFailureMode)
	return middleware.NewDistributedRateLimiter(backend, cfg.RateLimitMax, cfg.RateLimitWindow, mode, "global").Middleware()
}

func provideLoginRateLimiter(cfg *config.Config, backend middleware.Limiter) router.LoginRateLimiterFunc {
	mode := middleware.ParseFailureMode(cfg.RateLimitFailureMode)
	return middleware.NewDistributedRateLimiter(backend, cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow, mode, "login").Middleware()
}

func provideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	healthHandler *handler.HealthHandler,
	jwtMgr *security.JWTManager,
	globalLimiter router.GlobalRateLimiterFunc,
	loginLimiter router.LoginRateLimiterFunc,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		AdminHandler:       adminHandler,
		HealthHandler:      healthHandler,
		JWTManager:         jwtMgr,
		APIRateLimitMax:    cfg.RateLimitMax,
		APIRateLimitWindow: cfg.RateLimitWindow,
		LoginRateLimitMax:  cfg.LoginRateLimitMax,
		LoginWindow:        cfg.LoginRateLimitWindow,
		GlobalRateLimiter:  globalLimiter,
		LoginRateLimiter:   loginLimiter,
		EnableOTelHTTP:     cfg.OTELTracingEnabled || cfg.OTELMetricsEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
