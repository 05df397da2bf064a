package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-scout/config"
	"travel-scout/utils"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNotConfigured is returned when no API key is available
var ErrNotConfigured = errors.New("anthropic api key is not configured")

// AnthropicAnalyzer sends single-turn prompts to the Anthropic Messages API
type AnthropicAnalyzer struct {
	client  anthropic.Client
	model   string
	limiter *utils.RateLimiter
	logger  *utils.Logger
}

// NewAnthropicAnalyzer creates an analyzer from cfg
func NewAnthropicAnalyzer(cfg config.AnthropicConfig, logger *utils.Logger) (*AnthropicAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &AnthropicAnalyzer{
		client:  anthropic.NewClient(opts...),
		model:   cfg.Model,
		limiter: utils.NewRateLimiter(cfg.RateLimitDelay),
		logger:  logger,
	}, nil
}

// Complete sends prompt, with an optional system instruction, at temperature 0 and
// returns the concatenated text of the reply
func (a *AnthropicAnalyzer) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: AI processing error: %d", ErrUpstream, apiErr.StatusCode)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: AI request failed: %v", ErrUpstream, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from AI", ErrUpstream)
	}
	return text, nil
}
