package main

import (
	"context"
	"log"

	"linkvault/pkg/blob"
	"linkvault/pkg/cache"
	"linkvault/pkg/config"
	"linkvault/pkg/logging"
	"linkvault/pkg/service"
	"linkvault/pkg/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Standalone one-shot sweep, for running reclamation out of band of the API
// process (cron or a scheduled job).
func main() {
	cfg := config.Load()
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	blobs, err := blob.NewMinioStore(ctx, blob.MinioConfig{
		Endpoint:      cfg.BlobEndpoint,
		AccessKey:     cfg.BlobAccessKey,
		SecretKey:     cfg.BlobSecretKey,
		Bucket:        cfg.BlobBucket,
		UseSSL:        cfg.BlobUseSSL,
		PublicBaseURL: cfg.BlobPublicURL,
	})
	if err != nil {
		log.Fatal(err)
	}

	recordStore := storage.NewPostgresRecordStore(pool)
	peekCache := cache.NewPeekCache(redisClient)

	sweeper := service.NewSweeper(recordStore, blobs, peekCache, logger, cfg.SweepInterval)
	if err := sweeper.SweepOnce(ctx); err != nil {
		log.Fatal("sweep failed:", err)
	}
}
