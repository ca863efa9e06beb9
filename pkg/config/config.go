package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for queryforge-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// ConceptsDir is the root of the business concept catalog (YAML files).
	ConceptsDir string `yaml:"concepts_dir" env:"CONCEPTS_DIR" env-default:"concepts"`

	// StorePath is the SQLite file backing the document store. Empty
	// disables the store; the ranker then runs on its lexical pass alone.
	StorePath string `yaml:"store_path" env:"STORE_PATH" env-default:"queryforge.db"`

	// AI model configuration
	AI AIConfig `yaml:"ai"`

	// Pipeline tunables
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// AIConfig configures the generation and embedding backends.
type AIConfig struct {
	// Enabled controls whether AI-backed features (SQL generation,
	// embedding similarity) are available. When false the engine serves
	// ranking and validation only. Defaulted to true in LoadFrom rather
	// than via env-default: cleanenv applies env-default whenever the
	// field holds its zero value, which would clobber an explicit
	// "enabled: false" in YAML.
	Enabled bool `yaml:"enabled" env:"AI_ENABLED"`

	// Provider selects the generation backend: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// Endpoint is the OpenAI-compatible base URL. Empty uses the
	// provider's default endpoint.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`

	// Model is the generation model name. Required when Enabled.
	Model string `yaml:"model" env:"AI_MODEL" env-default:""`

	// APIKey authenticates against the provider. Secret - not in YAML.
	APIKey string `yaml:"-" env:"AI_API_KEY"`

	// Embedding backend. Required when Provider is "anthropic", which has
	// no embedding API of its own.
	EmbeddingEndpoint string `yaml:"embedding_endpoint" env:"AI_EMBEDDING_ENDPOINT" env-default:""`
	EmbeddingModel    string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:""`
	EmbeddingAPIKey   string `yaml:"-" env:"AI_EMBEDDING_API_KEY"` // Secret - not in YAML
}

// PipelineConfig holds query pipeline tunables.
type PipelineConfig struct {
	// MaxEntities is how many tables are surfaced per query.
	MaxEntities int `yaml:"max_entities" env:"PIPELINE_MAX_ENTITIES" env-default:"5"`
	// MaxRows caps the rows sampled when executing generated SQL.
	MaxRows int `yaml:"max_rows" env:"PIPELINE_MAX_ROWS" env-default:"100"`
	// MatchThreshold is the minimum similarity for a concept match.
	MatchThreshold float64 `yaml:"match_threshold" env:"PIPELINE_MATCH_THRESHOLD" env-default:"0.5"`
	// MaxExamples caps the examples returned per matched concept.
	MaxExamples int `yaml:"max_examples" env:"PIPELINE_MAX_EXAMPLES" env-default:"3"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (AI_API_KEY, AI_EMBEDDING_API_KEY) must come
// from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom reads configuration from the given YAML path. Used by the CLI,
// which takes the path as a flag.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}
	// Pre-seeded so YAML "enabled: false" and AI_ENABLED=false both stick.
	cfg.AI.Enabled = true

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validateAI(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	if cfg.ConceptsDir != "" {
		if _, err := os.Stat(cfg.ConceptsDir); err != nil {
			return nil, fmt.Errorf("concepts directory does not exist: %w", err)
		}
	}

	return cfg, nil
}

// validateAI ensures the AI backend is fully specified when enabled.
// Misconfiguration fails here, at load time, so a bad deployment stops at
// startup rather than degrading silently on first use.
func (c *Config) validateAI() error {
	if !c.AI.Enabled {
		return nil
	}

	if c.AI.Model == "" {
		return fmt.Errorf("ai.model is required when AI is enabled")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY must be set when AI is enabled")
	}

	switch c.AI.Provider {
	case "", "openai":
	case "anthropic":
		if c.AI.EmbeddingEndpoint == "" || c.AI.EmbeddingModel == "" {
			return fmt.Errorf("ai.embedding_endpoint and ai.embedding_model are required for the anthropic provider")
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}

	return nil
}
