package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/laborlens/laborlens/internal/config"
	logpkg "github.com/laborlens/laborlens/internal/logger"
	"github.com/laborlens/laborlens/internal/metrics"
	datasetrepo "github.com/laborlens/laborlens/internal/repository/dataset"
	"github.com/laborlens/laborlens/internal/repository/vecsearch"
	"github.com/laborlens/laborlens/internal/transport/httpapi"
	openaiEmb "github.com/laborlens/laborlens/internal/transport/openai"
	aggregateuc "github.com/laborlens/laborlens/internal/usecase/aggregate"
	clusteruc "github.com/laborlens/laborlens/internal/usecase/cluster"
	healthuc "github.com/laborlens/laborlens/internal/usecase/health"
	ingestuc "github.com/laborlens/laborlens/internal/usecase/ingest"
	retrieveuc "github.com/laborlens/laborlens/internal/usecase/retrieve"
	similarityuc "github.com/laborlens/laborlens/internal/usecase/similarity"
	"github.com/laborlens/laborlens/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting laborlens engine",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("dataset", cfg.Dataset.Path),
	)

	metrics.RegisterEngineMetrics()

	ctx := context.Background()

	// The vector-search capability is optional: without it computational
	// queries still work, semantic ones surface retrieval unavailability.
	var store *vecsearch.Store
	var embedder *openaiEmb.Embedder
	if len(cfg.Database.Addrs) > 0 {
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: cfg.Database.Addrs,
			Password:    cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to connect to search backend", zap.Error(err))
		}
		defer client.Close()

		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})

		store = vecsearch.New(vecsearch.Config{
			KeyPrefix:  cfg.Database.KeyPrefix,
			Dimensions: cfg.Embedding.Dimensions,
		}, client, embedder, logger)

		readyCtx, cancel := context.WithTimeout(ctx,
			time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
		defer cancel()
		if err := store.Ping(readyCtx); err != nil {
			logger.Fatal("Search backend not ready", zap.Error(err))
		}
		if err := store.EnsureIndex(readyCtx); err != nil {
			logger.Fatal("Failed to ensure search index", zap.Error(err))
		}
		logger.Info("Connected to search backend")
	} else {
		logger.Warn("No search backend configured, semantic retrieval disabled")
	}

	// Use case services
	clusterSvc := clusteruc.New(clusteruc.Config{
		TaskClusters:       cfg.Engine.TaskClusters,
		ActivityClusters:   cfg.Engine.ActivityClusters,
		OccupationClusters: cfg.Engine.OccupationClusters,
		SampleThreshold:    cfg.Engine.SampleThreshold,
		SampleSize:         cfg.Engine.SampleSize,
		MaxFeatures:        cfg.Engine.MaxFeatures,
		ComponentCap:       cfg.Engine.ComponentCap,
		Seed:               cfg.Engine.Seed,
	}, logger)

	builder := aggregateuc.NewBuilder(aggregateuc.Config{
		HourlyValueRate: cfg.Engine.HourlyValueRate,
	}, logger)

	var indexer ingestuc.VectorIndexer
	var searcher retrieveuc.VectorSearcher
	if store != nil {
		indexer = store
		searcher = store
	}

	ingestSvc := ingestuc.New(clusterSvc, builder, indexer, logger)

	retrieveSvc := retrieveuc.New(retrieveuc.Config{
		TopK:           cfg.Engine.TopK,
		MaxTopK:        cfg.Engine.MaxTopK,
		EvidenceCap:    cfg.Engine.EvidenceCap,
		SemanticWeight: cfg.Engine.SemanticWeight,
		StatWeight:     cfg.Engine.StatWeight,
		SearchTimeout:  time.Duration(cfg.Engine.SearchTimeoutSec) * time.Second,
	}, searcher, logger)

	similaritySvc := similarityuc.New(similarityuc.Config{
		Threshold:   cfg.Engine.SimilarityThreshold,
		MaxFeatures: cfg.Engine.MaxFeatures,
	}, logger)

	dataset := datasetrepo.New(cfg.Dataset.Path, logger)

	var pinger healthuc.Pinger
	var embChecker healthuc.EmbeddingChecker
	if store != nil {
		pinger = store
		embChecker = embedder
	}
	healthSvc := healthuc.New(pinger, embChecker, generationChecker{ingestSvc})

	// Build the first generation at startup so queries can be served
	// immediately. Failure is fatal only when the dataset itself is broken.
	records, err := dataset.Load(ctx)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}
	start := time.Now()
	gen, err := ingestSvc.Build(ctx, records)
	if err != nil {
		logger.Fatal("Failed to build initial generation", zap.Error(err))
	}
	metrics.ActiveGeneration.Set(float64(gen.Seq))
	metrics.GenerationBuildDuration.Observe(time.Since(start).Seconds())

	// HTTP surface
	server := httpapi.NewServer(ingestSvc, retrieveSvc, similaritySvc, dataset, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// generationChecker adapts the ingest service to health.GenerationChecker.
type generationChecker struct {
	ingest *ingestuc.Service
}

func (g generationChecker) Active() error {
	_, err := g.ingest.Active()
	return err
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
