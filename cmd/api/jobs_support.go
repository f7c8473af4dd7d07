package main

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/curriculum-forge/internal/auth"
	"github.com/yourusername/curriculum-forge/internal/config"
	"github.com/yourusername/curriculum-forge/internal/jobs"
	"github.com/yourusername/curriculum-forge/internal/sessioncache"
	"github.com/yourusername/curriculum-forge/internal/storage"
)

// redisBackend は REDIS_URL の有無で切り替わる依存をまとめたものです。
// Redis が無い場合 jobs と exports は nil で、キャッシュはプロセス内になります。
type redisBackend struct {
	client    *redis.Client
	curricula sessioncache.Store
	exports   *jobs.Store
	jobs      *jobs.Manager
	logger    logrus.FieldLogger
}

// assets は削除タスクがロゴを消すために使います。
func setupRedis(cfg *config.Config, assets storage.Storage, logger logrus.FieldLogger) (*redisBackend, error) {
	if !cfg.UsesRedis() {
		return &redisBackend{
			curricula: sessioncache.NewMemoryStore(auth.SessionLifetime()),
			logger:    logger,
		}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	exports := jobs.NewStore(client, cfg.ExportRetention)
	manager, err := jobs.NewManager(cfg.RedisURL, exports, assets, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	manager.StartWorkers()

	return &redisBackend{
		client:    client,
		curricula: sessioncache.NewRedisStore(client, auth.SessionLifetime()),
		exports:   exports,
		jobs:      manager,
		logger:    logger,
	}, nil
}

// Close はワーカーを止めてから Redis 接続を閉じます。
func (b *redisBackend) Close() {
	if b.jobs != nil {
		if err := b.jobs.Shutdown(); err != nil {
			b.logger.WithError(err).Warn("asynq shutdown failed")
		}
	}
	if b.client != nil {
		_ = b.client.Close()
	}
}

// setupAssets はロゴの保存先を返します。ASSET_S3_BUCKET が設定されていれば S3 を使います。
func setupAssets(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.AssetS3Bucket == "" {
		return storage.NewLocal(cfg.StaticDir), nil
	}
	return storage.NewS3(ctx, storage.S3Config{
		Bucket:    cfg.AssetS3Bucket,
		Region:    cfg.AssetS3Region,
		Endpoint:  cfg.AssetS3Endpoint,
		AccessKey: cfg.AssetS3AccessKey,
		SecretKey: cfg.AssetS3SecretKey,
	})
}
