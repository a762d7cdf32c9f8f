// The server command runs the text analysis and retrieval HTTP service:
// corpus loading, word search, ranked multi-keyword retrieval, frequency
// rankings, and frequency exports, with Redis query caching and Kafka-backed
// query analytics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/textanasearch/textana/internal/analytics"
	"github.com/textanasearch/textana/internal/export"
	"github.com/textanasearch/textana/internal/server/cache"
	"github.com/textanasearch/textana/internal/server/handler"
	"github.com/textanasearch/textana/internal/session"
	"github.com/textanasearch/textana/pkg/config"
	"github.com/textanasearch/textana/pkg/health"
	"github.com/textanasearch/textana/pkg/kafka"
	"github.com/textanasearch/textana/pkg/logger"
	"github.com/textanasearch/textana/pkg/metrics"
	"github.com/textanasearch/textana/pkg/middleware"
	"github.com/textanasearch/textana/pkg/postgres"
	pkgredis "github.com/textanasearch/textana/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(sctx); err != nil {
				log.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	sess := session.New(cfg.Loader)

	// Redis is optional: without it the service runs uncached.
	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, retrieval caching disabled", "addr", cfg.Redis.Addr, "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		log.Info("retrieval cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
	defer producer.Close()
	collector := analytics.NewCollector(producer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleEvent(aggregator))
	go func() {
		if err := aggregator.Start(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("analytics aggregator stopped", "error", err)
		}
	}()
	analyticsHandler := analytics.NewHandler(aggregator)

	var pgSink *export.PostgresSink
	if cfg.Export.PostgresSnapshot {
		pgClient, err := postgres.New(cfg.Postgres)
		if err != nil {
			log.Error("postgres unavailable, snapshot export disabled", "error", err)
		} else {
			defer pgClient.Close()
			pgSink = export.NewPostgresSink(pgClient)
			if err := pgSink.EnsureSchema(ctx); err != nil {
				log.Error("failed to ensure snapshot schema", "error", err)
				pgSink = nil
			}
		}
	}

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		if !sess.Loaded() {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: "no documents loaded",
			}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{
					Status:  health.StatusDegraded,
					Message: err.Error(),
				}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	api := handler.New(sess, queryCache, collector, m, pgSink, cfg.Export, cfg.Search)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/corpus/load", api.Load)
	mux.HandleFunc("GET /api/v1/corpus/documents", api.Documents)
	mux.HandleFunc("GET /api/v1/search", api.SearchWord)
	mux.HandleFunc("GET /api/v1/retrieve", api.Retrieve)
	mux.HandleFunc("GET /api/v1/frequency/corpus", api.TopCorpus)
	mux.HandleFunc("GET /api/v1/frequency/document", api.TopDocument)
	mux.HandleFunc("POST /api/v1/frequency/export", api.Export)
	mux.HandleFunc("GET /api/v1/cache/stats", api.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", api.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics/stats", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var root http.Handler = mux
	if m != nil {
		root = middleware.Metrics(m)(root)
	}
	root = middleware.RequestID(root)
	root = middleware.Timeout(cfg.Server.WriteTimeout)(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
