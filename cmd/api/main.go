package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"memory-makers/internal/config"
	"memory-makers/internal/db"
	apihttp "memory-makers/internal/http"
	"memory-makers/internal/identity"
	"memory-makers/internal/repository"
	"memory-makers/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)

	var (
		sessionCache service.SessionCache
		loginLimiter service.LoginRateLimiter
		redisClient  *redis.Client
	)
	loginLimiter = service.NewLoginRateLimiter(time.Minute, 10)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			sessionCache = service.NewRedisSessionCache(redisClient)
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, time.Minute, 10)
		}
		cancel()
	}

	provider := identity.NewHTTPClient(cfg.IdentityBaseURL, zap.NewStdLog(logger))
	authSvc := service.NewAuthService(
		logger,
		userRepo,
		sessionRepo,
		sessionCache,
		provider,
		loginLimiter,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
	)
	pairingSvc := service.NewPairingService(logger, userRepo)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	friendHandler := apihttp.NewFriendHandler(logger, pairingSvc)
	router := apihttp.NewRouter(logger, authHandler, friendHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
