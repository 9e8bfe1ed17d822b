package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hua1232/AI-video-translate-lear/internal/chunk"
	"github.com/hua1232/AI-video-translate-lear/internal/llm"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
)

// ErrTranslationEmpty is returned when no chunk produced any translated text.
var ErrTranslationEmpty = errors.New("translation produced no text")

const defaultTemperature = 0.3

type Options struct {
	SourceLanguage string
	TargetLanguage string
	MaxChars       int // per request, see chunk.Split
	Concurrency    int
	Prompt         string // extra instructions appended to the system prompt
}

// Translator sends SRT text to a chat model chunk by chunk. A chunk that
// fails or comes back empty is dropped; the rest are re-joined in order.
type Translator struct {
	completer llm.Completer
	options   Options
	logger    *logging.Logger
}

func New(completer llm.Completer, opts Options, logger *logging.Logger) (*Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = chunk.DefaultMaxChars
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Translator{
		completer: completer,
		options:   opts,
		logger:    logger,
	}, nil
}

// BuildPrompt creates the system prompt for subtitle translation
func BuildPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("You are a professional subtitle translation engine. ")
	if opts.SourceLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the %s subtitles you receive into %s and output only the %s translation. ",
			opts.SourceLanguage,
			opts.TargetLanguage,
			opts.TargetLanguage,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Output only the %s translation of the subtitles you receive. ",
			opts.TargetLanguage,
		))
	}
	sb.WriteString("Keep the SRT format: every block keeps its index line and its timestamp line unchanged. ")
	sb.WriteString("Do not explain anything and do not modify the timeline.")

	if opts.Prompt != "" {
		sb.WriteString(fmt.Sprintf("\n\nAdditional instructions: %s", opts.Prompt))
	}

	return sb.String()
}

type chunkResult struct {
	Index int
	Text  string
	Err   error
}

// Translate returns the translated SRT text. Chunks run on a bounded worker
// pool and are stitched back together in source order.
func (t *Translator) Translate(ctx context.Context, srt string) (string, error) {
	chunks := chunk.Split(srt, t.options.MaxChars)
	if len(chunks) == 0 {
		return "", ErrTranslationEmpty
	}

	system := BuildPrompt(t.options)
	results := make([]chunkResult, 0, len(chunks))

	workChan := make(chan int)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < t.options.Concurrency && i < len(chunks); i++ {
		wg.Go(func() {
			for idx := range workChan {
				text, err := t.translateChunk(ctx, system, chunks[idx])
				resultChan <- chunkResult{Index: idx, Text: text, Err: err}
			}
		})
	}

	go func() {
		defer close(workChan)
		for i := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		if result.Err != nil {
			t.logger.Warnw("Translation chunk dropped",
				"chunk", result.Index+1,
				"total", len(chunks),
				"error", result.Err,
			)
			continue
		}
		results = append(results, result)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrTranslationEmpty
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Text
	}

	t.logger.Debugw("Translation finished",
		"chunks", len(chunks),
		"translated", len(results),
	)

	return strings.Join(parts, "\n\n") + "\n\n", nil
}

func (t *Translator) translateChunk(ctx context.Context, system, text string) (string, error) {
	translated, err := t.completer.Complete(ctx, llm.Request{
		System:      system,
		User:        text,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", err
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", llm.ErrEmptyResponse
	}
	return translated, nil
}
