package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/concepts"
	"github.com/queryforge-ai/queryforge-engine/pkg/config"
	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
	"github.com/queryforge-ai/queryforge-engine/pkg/optimizer"
	"github.com/queryforge-ai/queryforge-engine/pkg/ranking"
	"github.com/queryforge-ai/queryforge-engine/pkg/services"
	"github.com/queryforge-ai/queryforge-engine/pkg/similarity"
	"github.com/queryforge-ai/queryforge-engine/pkg/store"
	"github.com/queryforge-ai/queryforge-engine/pkg/workpool"
)

// engine bundles the constructed collaborators a command may need.
type engine struct {
	cfg       *config.Config
	searcher  services.EntitySearcher
	ranker    *ranking.Ranker
	context   services.BusinessContextService
	pipeline  services.PipelineService
	optimizer *optimizer.Optimizer
	close     func()
}

// buildEngine constructs the full dependency graph from the configured
// file. CLI runs log to stderr at warn level so stdout stays pure JSON.
func buildEngine() (*engine, error) {
	cfg, err := config.LoadFrom(configPath, Version)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

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
			return nil, fmt.Errorf("failed to build LLM client: %w", err)
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
		return nil, fmt.Errorf("failed to load concept catalog: %w", err)
	}
	matcher := concepts.NewMatcher(scorer, logger)
	contextSvc := services.NewBusinessContextService(loader, matcher,
		cfg.Pipeline.MatchThreshold, cfg.Pipeline.MaxExamples, logger)

	rankerConfig := ranking.DefaultConfig()
	rankerConfig.MaxEntities = cfg.Pipeline.MaxEntities
	ranker := ranking.NewRanker(scorer, rankerConfig, nil, logger)

	closeStore := func() {}
	var searcher services.EntitySearcher
	if cfg.StorePath != "" && embedder != nil {
		docStore, err := store.Open(cfg.StorePath, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		closeStore = func() { _ = docStore.Close() }
		searcher = docStore
	}

	genSvc := services.NewSQLGenerationService(generator, logger)
	pool := workpool.New(workpool.DefaultConfig(), logger)
	pipeline := services.NewPipelineService(searcher, ranker, contextSvc, genSvc, nil,
		pool, services.PipelineConfig{
			MaxEntities: cfg.Pipeline.MaxEntities,
			MaxRows:     cfg.Pipeline.MaxRows,
		}, logger)

	return &engine{
		cfg:       cfg,
		searcher:  searcher,
		ranker:    ranker,
		context:   contextSvc,
		pipeline:  pipeline,
		optimizer: optimizer.New(logger),
		close: func() {
			closeStore()
			_ = logger.Sync()
		},
	}, nil
}

// readInput returns the first positional argument, or stdin when absent.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
