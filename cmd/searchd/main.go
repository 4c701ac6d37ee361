// Command searchd serves the in-memory ranked search engine over HTTP.
// The corpus can be seeded from Postgres at startup and extended at
// runtime through the API or a Kafka ingest topic.
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

	"golang.org/x/sync/errgroup"

	"github.com/vpetrenko/ranksearch/internal/engine"
	"github.com/vpetrenko/ranksearch/internal/ingest"
	"github.com/vpetrenko/ranksearch/internal/requests"
	"github.com/vpetrenko/ranksearch/internal/server"
	"github.com/vpetrenko/ranksearch/internal/stats"
	"github.com/vpetrenko/ranksearch/pkg/config"
	"github.com/vpetrenko/ranksearch/pkg/health"
	"github.com/vpetrenko/ranksearch/pkg/kafka"
	"github.com/vpetrenko/ranksearch/pkg/logger"
	"github.com/vpetrenko/ranksearch/pkg/metrics"
	"github.com/vpetrenko/ranksearch/pkg/middleware"
	"github.com/vpetrenko/ranksearch/pkg/postgres"
	pkgredis "github.com/vpetrenko/ranksearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting searchd",
		"port", cfg.Server.Port,
		"stop_words", len(cfg.Search.StopWords),
		"max_results", cfg.Search.MaxResults,
	)

	eng, err := engine.New(cfg.Search.StopWords, engine.WithMaxResults(cfg.Search.MaxResults))
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	queue := requests.New(eng, cfg.Requests.WindowSize)
	index := server.NewIndex(eng, queue)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", index.DocumentCount()),
		}
	})

	var pgClient *postgres.Client
	if cfg.Postgres.Enabled {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		added, err := ingest.LoadFromPostgres(ctx, pgClient, cfg.Postgres.Table, index)
		if err != nil {
			slog.Error("corpus seed failed", "error", err)
			os.Exit(1)
		}
		m.DocsIndexedTotal.Add(float64(added))
		m.IndexedDocuments.Set(float64(index.DocumentCount()))
		slog.Info("corpus seeded from postgres", "table", cfg.Postgres.Table, "documents", added)
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	var queryCache *server.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = server.NewQueryCache(redisClient, cfg.Redis)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				if err := redisClient.Ping(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
		}
	}

	group, ctx := errgroup.WithContext(ctx)

	var collector *stats.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector = stats.NewCollector(producer, 100, 0)
		collector.Start(ctx)
		defer collector.Close()

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, ingest.KafkaHandler(index))
		group.Go(func() error {
			return consumer.Start(ctx)
		})
		slog.Info("kafka ingest enabled", "topic", cfg.Kafka.Topics.DocumentIngest)
	}

	h := server.NewHandler(index, queryCache, collector, m)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	group.Go(func() error {
		slog.Info("api server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("searchd exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("searchd stopped")
}
