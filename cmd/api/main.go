package main

import (
	"context"
	"log"
	stdhttp "net/http"

	"linkvault/pkg/blob"
	"linkvault/pkg/cache"
	"linkvault/pkg/config"
	"linkvault/pkg/http"
	"linkvault/pkg/logging"
	"linkvault/pkg/middleware"
	"linkvault/pkg/service"
	"linkvault/pkg/storage"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))
	ctx := context.Background()

	// DB connection
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	recordStore := storage.NewPostgresRecordStore(pool)
	if err := recordStore.Migrate(ctx); err != nil {
		log.Fatal("migration failed:", err)
	}

	// Redis connection
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()
	peekCache := cache.NewPeekCache(redisClient)

	// Blob store
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

	// Service
	gen := service.NewRandomIDGenerator(cfg.IDLength)
	records := service.NewRecordService(recordStore, peekCache, blobs, gen, logger, cfg.DefaultExpiry)

	// Identity middleware is optional: without an issuer every caller is a
	// guest and the dashboard endpoints reject everything.
	var identity *middleware.IdentityMiddleware
	if cfg.OIDCIssuer != "" {
		identity, err = middleware.NewIdentityMiddleware(middleware.IdentityConfig{
			IssuerURL: cfg.OIDCIssuer,
			Audience:  cfg.OIDCAudience,
		})
		if err != nil {
			log.Fatal("failed to create identity middleware:", err)
		}
	}

	// Background sweeper
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	sweeper := service.NewSweeper(recordStore, blobs, peekCache, logger, cfg.SweepInterval)
	go sweeper.Run(sweepCtx)

	// Handler
	handler := http.NewHandler(records, blobs, logger, cfg.MaxUploadSize)

	// Router
	r := chi.NewRouter()
	http.SetupRoutes(r, handler, identity)

	// Server
	log.Println("Starting API server on :" + cfg.Port)
	log.Fatal(stdhttp.ListenAndServe(":"+cfg.Port, r))
}
