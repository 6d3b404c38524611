package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/config"
	"github.com/kailas-cloud/newsdex/internal/db"
	dbRedis "github.com/kailas-cloud/newsdex/internal/db/redis"
	"github.com/kailas-cloud/newsdex/internal/domain"
	logpkg "github.com/kailas-cloud/newsdex/internal/logger"
	"github.com/kailas-cloud/newsdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/newsdex/internal/repository/budget"
	chunkindexrepo "github.com/kailas-cloud/newsdex/internal/repository/chunkindex"
	"github.com/kailas-cloud/newsdex/internal/repository/embcache"
	interactionrepo "github.com/kailas-cloud/newsdex/internal/repository/interaction"
	preferencerepo "github.com/kailas-cloud/newsdex/internal/repository/preference"
	chiTransport "github.com/kailas-cloud/newsdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/newsdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/newsdex/internal/usecase/embedding"
	feeduc "github.com/kailas-cloud/newsdex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/newsdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/newsdex/internal/usecase/ingest"
	learneruc "github.com/kailas-cloud/newsdex/internal/usecase/learner"
	profileuc "github.com/kailas-cloud/newsdex/internal/usecase/profile"
	queryuc "github.com/kailas-cloud/newsdex/internal/usecase/query"
	usageuc "github.com/kailas-cloud/newsdex/internal/usecase/usage"
	"github.com/kailas-cloud/newsdex/internal/version"
)

// fullEmbedder is what the embedder chain exposes to the composition root.
type fullEmbedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting newsdex personalization server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()

	// Single BudgetTracker shared across both embedder chains.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.Embedding.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence store, loads current counters from DB.
		budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
		budget.WithStore(ctx, budgetStore)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, store, budgetChecker, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, store, budgetChecker, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories (domain-native, no adapters)
	interactionRepo := interactionrepo.New(store)
	preferenceRepo := preferencerepo.New(store)
	chunkRepo := chunkindexrepo.New(store).WithHNSW(chunkindexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	// Use case services
	lc := cfg.Engine.Learner
	learnerSvc := learneruc.New(interactionRepo, preferenceRepo, learneruc.Config{
		MaxStoredInteractions:  lc.MaxStoredInteractions,
		AnalysisWindow:         lc.AnalysisWindow,
		MinInteractions:        lc.MinInteractions,
		ConfidenceTau:          lc.ConfidenceTau,
		SignificantVolume:      lc.SignificantVolume,
		RatioEpsilon:           lc.RatioEpsilon,
		EmergingWindowHours:    lc.EmergingWindowHours,
		EmergingMinCount:       lc.EmergingMinCount,
		PreferredRatioMin:      lc.PreferredRatioMin,
		DecliningNegativeRatio: lc.DecliningNegativeRatio,
		StoreTimeout:           time.Duration(lc.StoreTimeoutSec) * time.Second,
	}, logger)

	querySvc := queryuc.New(queryEmbedder, cfg.Engine.Query.FallbackText, logger)
	profileSvc := profileuc.New(preferenceRepo, learnerSvc, lc.CommitThreshold, logger)

	fc := cfg.Engine.Feed
	feedSvc := feeduc.New(chunkRepo, querySvc, profileSvc, feeduc.Config{
		MaxResults:          fc.MaxResults,
		MinRelevanceScore:   fc.MinRelevanceScore,
		CandidateMultiplier: fc.CandidateMultiplier,
		CategoryBoost:       fc.CategoryBoost,
		SourceBoost:         fc.SourceBoost,
		RecencyMaxBoost:     fc.RecencyMaxBoost,
		RecencyDecayHours:   fc.RecencyDecayHours,
		TrendingScanLimit:   fc.TrendingScanLimit,
		IndexTimeout:        time.Duration(fc.IndexTimeoutSec) * time.Second,
	}, logger)

	ingestSvc := ingestuc.New(chunkRepo, docEmbedder, ingestuc.Config{
		ChunkWords:   cfg.Engine.Ingest.ChunkWords,
		OverlapWords: cfg.Engine.Ingest.OverlapWords,
	}, logger)

	if err := ingestSvc.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure chunk index", zap.Error(err))
	}

	// Usage service reads from the shared BudgetTracker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(docEmbedder))

	server := chiTransport.NewServer(learnerSvc, profileSvc, feedSvc, ingestSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
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

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	instruction string,
	store db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) fullEmbedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + metrics)
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		embedder, embCfg.Provider, embCfg.Model, budget, logger,
	)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}

	return instrumented
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

			// Canonical log line, one line per request
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
