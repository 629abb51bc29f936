package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vaani/internal/config"
	"vaani/internal/gemini"
	"vaani/internal/server"
	"vaani/internal/storage"
	"vaani/internal/translate"
	"vaani/pkg/cache"
	"vaani/pkg/logger"
	"vaani/pkg/resilience"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	debug := os.Getenv("DEBUG") != ""
	if err := logger.Init(debug); err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting vaani translation server")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
		return
	}

	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; translation requests will fail until it is configured")
	}

	upstream := gemini.NewClient(cfg.Gemini.Endpoint, cfg.Gemini.Model, cfg.Gemini.APIKey)

	var opts []translate.Option
	var serverOpts []server.Option

	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			24*time.Hour,
		)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
			return
		}
		defer redisCache.Close()
		opts = append(opts, translate.WithCache(redisCache))
		logger.Info("Result cache enabled")
	}

	if cfg.Postgres.DSN != "" {
		db, err := storage.NewPostgresStore(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
			return
		}
		defer db.Close()
		opts = append(opts, translate.WithRecordStore(db))
		serverOpts = append(serverOpts, server.WithTranslationReader(db))
		logger.Info("Audit log enabled")
	}

	if cfg.S3.Bucket != "" {
		archive, err := storage.NewS3Archive(
			cfg.S3.Endpoint,
			cfg.S3.Region,
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			cfg.S3.Bucket,
		)
		if err != nil {
			logger.Fatal("Failed to initialize audio archive", zap.Error(err))
			return
		}
		opts = append(opts, translate.WithAudioArchive(archive))
		serverOpts = append(serverOpts, server.WithAudioFetcher(archive))
		logger.Info("Audio archive enabled")
	}

	svc := translate.NewService(upstream, cfg.Gemini.APIKey, opts...)

	var limiter *resilience.RateLimiter
	if cfg.Server.RateLimit > 0 {
		interval, err := time.ParseDuration(cfg.Server.RateInterval)
		if err != nil {
			logger.Fatal("Invalid rate interval", zap.Error(err))
			return
		}
		limiter = resilience.NewRateLimiter(cfg.Server.RateLimit, interval)
		logger.Info("Request throttling enabled",
			zap.Int("rate", cfg.Server.RateLimit),
			zap.String("interval", cfg.Server.RateInterval))
	}

	srv := server.New(cfg.Server.Addr, svc, limiter, serverOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
		return
	}

	logger.Info("Server shutdown complete")
}
