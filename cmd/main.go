package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/surdiana/auth-service/config"
	"github.com/surdiana/auth-service/internal/constants"
	"github.com/surdiana/auth-service/internal/handler"
	"github.com/surdiana/auth-service/internal/middleware"
	"github.com/surdiana/auth-service/internal/repository"
	"github.com/surdiana/auth-service/internal/router"
	"github.com/surdiana/auth-service/internal/service"
	"github.com/surdiana/auth-service/pkg/database"
	"github.com/surdiana/auth-service/pkg/logger"
	"github.com/surdiana/auth-service/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config.App.Environment); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:     config.Database.Host,
		Port:     config.Database.Port,
		User:     config.Database.User,
		Password: config.Database.Password,
		Database: config.Database.Name,
		SSLMode:  config.Database.SSLMode,

		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 60,
		ConnMaxIdleTime: 10,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Run auto migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	accessTokenRepo := repository.NewAccessTokenRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)

	// Redis backs the profile cache only. Startup continues without it.
	redisClient, err := redis.NewClient(redis.Config{
		Host:         config.Redis.Host,
		Port:         config.Redis.Port,
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
	})
	if err != nil {
		logger.GetLogger().Warn("Redis unavailable, profile cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Services
	passwordService, err := service.NewPasswordService(service.DefaultPasswordParams())
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize password service", zap.Error(err))
	}

	tokenService, err := service.NewTokenService(config.Auth.Secret)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize token service", zap.Error(err))
	}

	authService, err := service.NewAuthService(
		userRepo,
		accessTokenRepo,
		refreshTokenRepo,
		accessLogRepo,
		passwordService,
		tokenService,
		config.Auth.AccessTokenExpiry,
		config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		logger.GetLogger().Fatal("Invalid token expiry configuration", zap.Error(err))
	}

	cacheService := service.NewCacheService(redisClient, config.Auth.UserCacheTTL)
	userService := service.NewUserService(userRepo, accessLogRepo, cacheService)

	// Background purge of expired ledger rows. Expired tokens are already
	// rejected by claim; this only keeps the tables small.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go purgeExpiredTokens(purgeCtx, accessTokenRepo, refreshTokenRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, authService)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,
		authMiddleware,
		config,
	).SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + config.App.Port,
		Handler: r,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}

	logger.GetLogger().Info("Server stopped")
}

// purgeExpiredTokens drops expired ledger rows once an hour until ctx ends.
func purgeExpiredTokens(ctx context.Context, accessTokens *repository.AccessTokenRepository, refreshTokens *repository.RefreshTokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := accessTokens.DeleteExpired(ctx); err != nil {
				logger.GetLogger().Warn("Access token purge failed", zap.Error(err))
			}
			if _, err := refreshTokens.DeleteExpired(ctx); err != nil {
				logger.GetLogger().Warn("Refresh token purge failed", zap.Error(err))
			}
		}
	}
}
