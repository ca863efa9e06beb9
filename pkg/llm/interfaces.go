// Package llm provides the generation and embedding collaborators behind
// the scoring and SQL-generation pipeline. Both are opaque to the core:
// generation is prompt in, text out; embedding is text in, vector out.
package llm

import (
	"context"
)

// Generator produces a completion for a prompt.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// Generate produces a chat completion for prompt under systemMessage.
	Generate(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Embedder turns text into a vector.
type Embedder interface {
	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Client combines generation and embedding capabilities.
type Client interface {
	Generator
	Embedder
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client    = (*OpenAIClient)(nil)
	_ Client    = (*MockClient)(nil)
	_ Generator = (*AnthropicClient)(nil)
)
