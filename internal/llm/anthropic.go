package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Completer using Anthropic Claude
type AnthropicCompleter struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
}

func NewAnthropicCompleter(apiKey string, opts Options) (*AnthropicCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicCompleter{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

func (c *AnthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(maxTokens(req)),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := CleanResponse(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
