package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/domain"
	"github.com/askdocs/askdocs/internal/metrics"
)

// Generation parameters for answer synthesis. Low temperature keeps the
// model close to the supplied context.
const (
	chatTemperature = 0.3
	chatMaxTokens   = 2000
)

// Chat is a chat-completion provider using the OpenAI-compatible API.
type Chat struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewChat creates an OpenAI-compatible chat-completion provider.
func NewChat(cfg *Config) *Chat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Chat{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer with a single system+user
// exchange, no internal retries. Errors wrap domain.ErrCompletionProvider.
func (c *Chat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues("completion", c.model, "error").Inc()
		return "", parseAPIError("completion", err, domain.ErrCompletionProvider)
	}
	if len(resp.Choices) == 0 {
		metrics.ModelRequestsTotal.WithLabelValues("completion", c.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrCompletionProvider)
	}

	metrics.ModelRequestsTotal.WithLabelValues("completion", c.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues("completion", c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues("completion", c.model, "prompt").
			Add(float64(resp.Usage.PromptTokens))
		metrics.ModelTokensTotal.WithLabelValues("completion", c.model, "total").
			Add(float64(resp.Usage.TotalTokens))
	}

	c.logger.Debug("Completion finished",
		zap.String("model", c.model),
		zap.Duration("latency", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
