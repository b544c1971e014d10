// Package llm implements progress.CompletionService over langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/fyrsmithlabs/taskpulse/internal/config"
	"github.com/fyrsmithlabs/taskpulse/internal/logging"
	"github.com/fyrsmithlabs/taskpulse/internal/progress"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrEmptyResponse is returned when the model answers with no content.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrAPIKeyMissing is returned when no API key is configured.
	ErrAPIKeyMissing = errors.New("llm API key not set")
)

// Client sends one request per call. It never retries; the limiter only
// paces calls when requests_per_second is set.
type Client struct {
	model     llms.Model
	modelName string
	limiter   *rate.Limiter
	logger    *logging.Logger
}

// New builds a client for the configured provider.
func New(cfg config.LLMConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, ErrAPIKeyMissing
	}
	httpClient := &http.Client{Timeout: cfg.Timeout.Duration()}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey.Value()),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey.Value()),
			anthropic.WithModel(cfg.Model),
			anthropic.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		model, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return NewWithModel(model, cfg.Model, cfg.RequestsPerSecond, logger), nil
}

// NewWithModel wraps an existing langchaingo model. rps <= 0 disables pacing.
func NewWithModel(model llms.Model, modelName string, rps float64, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		model:     model,
		modelName: modelName,
		limiter:   rate.NewLimiter(limit, int(math.Max(1, math.Ceil(rps)))),
		logger:    logger.Named("llm"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// Complete implements progress.CompletionService.
func (c *Client) Complete(ctx context.Context, req progress.CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	var opts []llms.CallOption
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	c.logger.Trace(ctx, "completion request",
		zap.String("model", c.modelName),
		zap.String("system", req.System),
		zap.String("prompt", req.Prompt))

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Trace(ctx, "completion response", zap.String("content", content))
	return content, nil
}
