package transcribe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

// Result is what an engine heard in one audio file. Segment times are
// relative to the start of that file.
type Result struct {
	Segments []subtitle.Segment
	Language string
	Duration time.Duration
}

// Transcriber is a speech recognition engine.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderWhisperCpp Provider = "whisper-cpp"
)

type Options struct {
	Language           string // source language of the audio, empty to auto-detect
	TranscriptLanguage string // output language, "native" keeps the source
	Model              string
	Prompt             string
	BaseURL            string // OpenAI-compatible endpoint
	BinaryPath         string // whisper-cpp executable
	ModelPath          string // whisper-cpp ggml model
}

// Factory builds the engine for provider; an empty provider means openai.
func Factory(ctx context.Context, provider Provider, apiKey string, opts Options) (Transcriber, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderWhisperCpp:
		return NewWhisperCppTranscriber(opts, nil)
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", provider)
	}
}

// TranscribeChunks sends chunks to t with at most concurrency requests in
// flight. Each chunk's segments are shifted by the chunk's start offset and
// the merged result follows the order of chunks. The first failure cancels
// the requests still running and is returned.
func TranscribeChunks(ctx context.Context, t Transcriber, chunks []audio.ChunkInfo, concurrency int) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{}, nil
	}
	concurrency = max(concurrency, 1)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	shifted := make([]*Result, len(chunks))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

dispatch:
	for i, chunk := range chunks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}
		wg.Go(func() {
			defer func() { <-sem }()
			res, err := transcribeChunk(ctx, t, chunk)
			if err != nil {
				cancel(fmt.Errorf("chunk %d failed: %w", chunk.Index, err))
				return
			}
			shifted[i] = res
		})
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}

	merged := &Result{Duration: chunks[len(chunks)-1].EndTime}
	for _, res := range shifted {
		merged.Segments = append(merged.Segments, res.Segments...)
		if merged.Language == "" {
			merged.Language = res.Language
		}
	}
	return merged, nil
}

func transcribeChunk(ctx context.Context, t Transcriber, chunk audio.ChunkInfo) (*Result, error) {
	res, err := t.Transcribe(ctx, chunk.Path)
	if err != nil {
		return nil, err
	}

	segments := make([]subtitle.Segment, len(res.Segments))
	for i, seg := range res.Segments {
		seg.StartTime += chunk.StartTime
		seg.EndTime += chunk.StartTime
		segments[i] = seg
	}
	return &Result{Segments: segments, Language: res.Language}, nil
}
