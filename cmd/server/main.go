package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/emailtype/internal/api"
	"github.com/ignite/emailtype/internal/config"
	"github.com/ignite/emailtype/internal/export"
	"github.com/ignite/emailtype/internal/pkg/distlock"
	"github.com/ignite/emailtype/internal/pkg/logger"
	"github.com/ignite/emailtype/internal/repository/postgres"
	rediscache "github.com/ignite/emailtype/internal/repository/redis"
	"github.com/ignite/emailtype/internal/service/suppression"
	"github.com/ignite/emailtype/internal/storage"
	matching "github.com/ignite/emailtype/internal/suppression"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(cfg.Logging.Redact())

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	logger.Info("database connected")

	var repo suppression.Repository = postgres.NewSuppressionRepo(db)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		repo = rediscache.NewCachedRepo(repo, redisClient, cfg.Redis.CacheTTL())
		logger.Info("redis membership cache enabled", "ttl", cfg.Redis.CacheTTL().String())
	} else {
		logger.Warn("REDIS_URL not set: no membership cache, locks use postgres advisory locks")
	}

	svc := suppression.NewService(repo)
	lists := matching.NewManager()
	handlers := api.NewHandlers(svc, lists)
	handlers.SetMaxScrubBatch(cfg.Suppression.MaxScrubBatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var s3Client *s3.Client
	if cfg.Export.Enabled() || cfg.Dynamo.Table != "" {
		awsCfg, err := storage.LoadAWSConfig(ctx, storage.AWSOptions{
			Region:          cfg.AWS.Region,
			Profile:         cfg.AWS.GetProfile(),
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.Endpoint,
		})
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}

		if cfg.Export.Enabled() {
			s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
				o.Region = cfg.Export.S3Region
				o.UsePathStyle = cfg.AWS.Endpoint != ""
			})
			lockTTL := cfg.Export.LockTTL()
			exporter := export.NewExporter(s3Client, svc,
				func(key string) distlock.DistLock { return distlock.NewLock(redisClient, db, key, lockTTL) },
				export.Config{Bucket: cfg.Export.S3Bucket, Prefix: cfg.Export.Prefix})
			handlers.SetExporter(exporter)
			logger.Info("suppression export enabled", "bucket", cfg.Export.S3Bucket, "prefix", cfg.Export.Prefix)

			preload(ctx, exporter, lists, cfg.Suppression.PreloadOrgs)
		}

		if cfg.Dynamo.Table != "" {
			handlers.SetDirectory(storage.NewDirectory(storage.NewDynamoClient(awsCfg), cfg.Dynamo.Table))
			logger.Info("address directory enabled", "table", cfg.Dynamo.Table)
		}
	}

	var bucketHeader api.BucketHeader
	if s3Client != nil {
		bucketHeader = s3Client
	}
	hc := api.NewHealthChecker(db, redisClient, bucketHeader, cfg.Export.S3Bucket, lists)
	server := api.NewServer(handlers, hc, api.RouteOptions{AllowedOrigins: cfg.Server.AllowedOrigins})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := cfg.Server.Addr()
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// preload installs each org's last export in the matching engine. Orgs
// without an export are skipped.
func preload(ctx context.Context, exporter *export.Exporter, lists *matching.Manager, orgs []string) {
	for _, org := range orgs {
		list, err := exporter.Import(ctx, org, lists)
		switch {
		case errors.Is(err, export.ErrNoExport), errors.Is(err, matching.ErrEmptyList):
			logger.Info("no export to preload", "org_id", org)
		case err != nil:
			logger.Error("preload failed", "org_id", org, "error", err)
		default:
			logger.Info("preloaded suppression list", "org_id", org, "count", list.Count())
		}
	}
}
