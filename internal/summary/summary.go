// Package summary condenses a transcript into a short structured digest.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hua1232/AI-video-translate-lear/internal/llm"
)

const (
	DefaultMaxInputChars = 4000
	DefaultMaxTokens     = 500
	DefaultMaxLength     = 350
)

// ErrNoText is returned for blank input; no request is made.
var ErrNoText = errors.New("no text to summarize")

type Options struct {
	Language      string // output language
	MaxInputChars int    // input is cut to this many runes
	MaxTokens     int
	MaxLength     int // requested summary length in characters
}

type Summarizer struct {
	completer llm.Completer
	options   Options
}

func New(completer llm.Completer, opts Options) *Summarizer {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.Language == "" {
		opts.Language = "Chinese"
	}
	return &Summarizer{completer: completer, options: opts}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}

	out, err := s.completer.Complete(ctx, llm.Request{
		User:        BuildPrompt(s.options, truncate(text, s.options.MaxInputChars)),
		MaxTokens:   s.options.MaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	return out, nil
}

// BuildPrompt asks for a dense digest: one-line thesis, three key points
// and a one-line conclusion.
func BuildPrompt(opts Options, text string) string {
	var sb strings.Builder

	sb.WriteString("You are a highly efficient professional content analyst. ")
	sb.WriteString("Read the subtitles below and write a dense, fast-paced professional summary.\n\n")

	sb.WriteString("STRICT LIMITS:\n")
	sb.WriteString(fmt.Sprintf("1. The whole summary must stay under %d characters.\n", opts.MaxLength))
	sb.WriteString("2. No preamble such as \"this video is about\"; go straight to the substance.\n")
	sb.WriteString("3. Professional, sharp and concise wording.\n")
	sb.WriteString(fmt.Sprintf("4. Write in %s.\n\n", opts.Language))

	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString("### Core idea (1 sentence)\n")
	sb.WriteString("### Key points (exactly 3)\n")
	sb.WriteString("*   **Keyword**: one-sentence explanation.\n")
	sb.WriteString("### Conclusion (1 sentence)\n\n")

	sb.WriteString("Subtitles:\n")
	sb.WriteString(text)

	return sb.String()
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes])
}
