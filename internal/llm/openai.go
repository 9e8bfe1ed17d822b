package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Completer using any OpenAI-compatible Chat Completions endpoint
type OpenAICompleter struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAICompleter(apiKey string, opts Options) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAICompleter{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	completion, err := c.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages:    messages,
			Model:       c.model,
			Temperature: openai.Float(req.Temperature),
			MaxTokens:   openai.Int(int64(maxTokens(req))),
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := CleanResponse(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
