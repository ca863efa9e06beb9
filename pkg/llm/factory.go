package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by the factory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// FactoryConfig selects and configures the generation/embedding backends.
type FactoryConfig struct {
	Provider string // "openai" (default) or "anthropic"

	// Generation backend settings.
	Endpoint string
	Model    string
	APIKey   string

	// Embedding backend. Always OpenAI-compatible; when Provider is
	// "anthropic" these must point at a separate embedding endpoint.
	EmbeddingEndpoint string
	EmbeddingModel    string
	EmbeddingAPIKey   string
}

// NewClientFromConfig builds a Client for the configured provider.
// Misconfiguration (unknown provider, missing endpoint/model/key) is an
// error here, at construction time, so a bad deployment fails at startup
// rather than degrading silently on first use.
func NewClientFromConfig(cfg FactoryConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(&Config{
			Endpoint:       cfg.Endpoint,
			Model:          cfg.Model,
			EmbeddingModel: cfg.EmbeddingModel,
			APIKey:         cfg.APIKey,
		}, logger)

	case ProviderAnthropic:
		gen, err := NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("anthropic client: %w", err)
		}
		embedEndpoint := cfg.EmbeddingEndpoint
		if embedEndpoint == "" {
			return nil, fmt.Errorf("anthropic provider requires an embedding endpoint")
		}
		emb, err := NewOpenAIClient(&Config{
			Endpoint:       embedEndpoint,
			Model:          cfg.Model, // unused for embedding calls, required by constructor
			EmbeddingModel: cfg.EmbeddingModel,
			APIKey:         cfg.EmbeddingAPIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("embedding client: %w", err)
		}
		return NewSplitClient(gen, emb), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
