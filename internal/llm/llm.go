// Package llm wraps the chat-completion backends used for translation and
// summaries behind one Completer interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// single chat request
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer sends one system+user exchange and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// chat service provider
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const (
	DefaultBaseURL   = "https://api.siliconflow.cn/v1/"
	DefaultModel     = "Qwen/Qwen2.5-7B-Instruct"
	DefaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

type Options struct {
	Model   string
	BaseURL string        // OpenAI-compatible endpoint, openai provider only
	Timeout time.Duration // per request, 0 disables
}

// creates Completer based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Completer, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicCompleter(apiKey, opts)
	case ProviderGemini:
		return NewGeminiCompleter(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

var fenceRegex = regexp.MustCompile("(?m)^```[a-zA-Z]*[ \t]*$")

// CleanResponse strips markdown code fences models wrap around plain output.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = fenceRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
