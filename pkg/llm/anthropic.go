package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/logging"
	"github.com/queryforge-ai/queryforge-engine/pkg/retry"
)

// AnthropicClient is a generation-only backend for Anthropic models.
// Anthropic exposes no embedding endpoint, so deployments using it pair it
// with an OpenAI-compatible embedder via SplitClient.
type AnthropicClient struct {
	client   *anthropic.Client
	model    string
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewAnthropicClient creates an Anthropic generation client.
func NewAnthropicClient(apiKey, model string, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &AnthropicClient{
		client:   anthropic.NewClient(apiKey),
		model:    model,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("llm-anthropic"),
	}, nil
}

// Generate produces a completion for prompt under systemMessage.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()
	temp := float32(temperature)

	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (anthropic.MessagesResponse, error) {
		return c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      systemMessage,
			MaxTokens:   4096,
			Temperature: &temp,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(prompt),
			},
		})
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return "", fmt.Errorf("create messages: %w", err)
	}

	var text string
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText && content.Text != nil {
			text += *content.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// SplitClient combines a Generator and an Embedder from different backends
// into one Client.
type SplitClient struct {
	Generator
	Embedder
}

// NewSplitClient pairs a generation backend with an embedding backend.
func NewSplitClient(g Generator, e Embedder) *SplitClient {
	return &SplitClient{Generator: g, Embedder: e}
}

var _ Client = (*SplitClient)(nil)
