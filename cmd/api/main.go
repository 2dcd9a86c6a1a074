package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"livedesk/internal/config"
	"livedesk/internal/domain"
	internalredis "livedesk/internal/redis"
	"livedesk/internal/server"
	"livedesk/internal/storage"
	"livedesk/pkg/database"
	"livedesk/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.Server.Environment == "production" {
		mode = logger.ProductionMode
	}
	appLogger := logger.New(mode)
	logger.SetGlobalLogger(appLogger)

	database.Connect(cfg.Database)

	if err := database.ApplyRawMigrations("migrations/pre"); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}

	if err := database.DB.AutoMigrate(
		&domain.User{},
		&domain.Conversation{},
		&domain.Message{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	if err := database.ApplyRawMigrations("migrations/post"); err != nil {
		log.Fatalf("Failed to apply index migrations: %v", err)
	}

	if err := database.EnsureReservedActors(database.DB); err != nil {
		log.Fatalf("Failed to seed reserved actors: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *goredis.Client
	redisClient = internalredis.NewClient(internalredis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		appLogger.Warnf("redis unavailable, broadcasts and rate limits disabled: %v", err)
		redisClient = nil
	}
	cancel()

	var s3Client *storage.Client
	if cfg.S3.Bucket != "" {
		s3Client, err = storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PublicBase: cfg.S3.PublicBase,
			PresignTTL: 15 * time.Minute,
		})
		if err != nil {
			appLogger.Warnf("s3 unavailable, attachments disabled: %v", err)
			s3Client = nil
		}
	}

	srv := server.New(cfg, database.DB, redisClient, s3Client, appLogger)
	srv.Start(ctx, appLogger)

	appLogger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := srv.Engine.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
