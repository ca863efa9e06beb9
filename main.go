package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/concepts"
	"github.com/queryforge-ai/queryforge-engine/pkg/config"
	"github.com/queryforge-ai/queryforge-engine/pkg/handlers"
	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
	"github.com/queryforge-ai/queryforge-engine/pkg/middleware"
	"github.com/queryforge-ai/queryforge-engine/pkg/optimizer"
	"github.com/queryforge-ai/queryforge-engine/pkg/ranking"
	"github.com/queryforge-ai/queryforge-engine/pkg/services"
	"github.com/queryforge-ai/queryforge-engine/pkg/similarity"
	"github.com/queryforge-ai/queryforge-engine/pkg/store"
	"github.com/queryforge-ai/queryforge-engine/pkg/workpool"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("concepts_dir", cfg.ConceptsDir),
		zap.Bool("ai_enabled", cfg.AI.Enabled))

	// All collaborators are constructed here, up front; a missing or
	// broken dependency stops the process before it serves traffic.
	var client llm.Client
	if cfg.AI.Enabled {
		client, err = llm.NewClientFromConfig(llm.FactoryConfig{
			Provider:          cfg.AI.Provider,
			Endpoint:          cfg.AI.Endpoint,
			Model:             cfg.AI.Model,
			APIKey:            cfg.AI.APIKey,
			EmbeddingEndpoint: cfg.AI.EmbeddingEndpoint,
			EmbeddingModel:    cfg.AI.EmbeddingModel,
			EmbeddingAPIKey:   cfg.AI.EmbeddingAPIKey,
		}, logger)
		if err != nil {
			logger.Fatal("failed to build LLM client", zap.Error(err))
		}
	}

	var embedder llm.Embedder
	var generator llm.Generator
	if client != nil {
		embedder = client
		generator = client
	}

	scorer := similarity.NewScorer(embedder, logger)

	loader, err := concepts.NewLoader(cfg.ConceptsDir, logger)
	if err != nil {
		logger.Fatal("failed to load concept catalog", zap.Error(err))
	}
	matcher := concepts.NewMatcher(scorer, logger)
	contextSvc := services.NewBusinessContextService(loader, matcher,
		cfg.Pipeline.MatchThreshold, cfg.Pipeline.MaxExamples, logger)

	rankerConfig := ranking.DefaultConfig()
	rankerConfig.MaxEntities = cfg.Pipeline.MaxEntities
	ranker := ranking.NewRanker(scorer, rankerConfig, nil, logger)

	var searcher services.EntitySearcher
	if cfg.StorePath != "" && embedder != nil {
		docStore, err := store.Open(cfg.StorePath, embedder, logger)
		if err != nil {
			logger.Fatal("failed to open document store", zap.Error(err))
		}
		defer func() { _ = docStore.Close() }()
		searcher = docStore
	}

	genSvc := services.NewSQLGenerationService(generator, logger)
	pool := workpool.New(workpool.DefaultConfig(), logger)
	pipeline := services.NewPipelineService(searcher, ranker, contextSvc, genSvc, nil,
		pool, services.PipelineConfig{
			MaxEntities: cfg.Pipeline.MaxEntities,
			MaxRows:     cfg.Pipeline.MaxRows,
		}, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewEngineHandler(searcher, ranker, contextSvc, pipeline,
		optimizer.New(logger), logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting queryforge-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
