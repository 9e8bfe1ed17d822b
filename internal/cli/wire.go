package cli

import (
	"context"
	"fmt"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/compose"
	"github.com/hua1232/AI-video-translate-lear/internal/config"
	"github.com/hua1232/AI-video-translate-lear/internal/dub"
	"github.com/hua1232/AI-video-translate-lear/internal/ffmpeg"
	"github.com/hua1232/AI-video-translate-lear/internal/llm"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
	"github.com/hua1232/AI-video-translate-lear/internal/pipeline"
	"github.com/hua1232/AI-video-translate-lear/internal/summary"
	"github.com/hua1232/AI-video-translate-lear/internal/transcribe"
	"github.com/hua1232/AI-video-translate-lear/internal/translate"
	"github.com/hua1232/AI-video-translate-lear/internal/tts"
	"github.com/hua1232/AI-video-translate-lear/internal/video"
)

// engines built once per process and shared by every file
type engines struct {
	runner     *ffmpeg.Runner
	video      *video.Processor
	audio      *audio.Processor
	transcribe transcribe.Transcriber
	completer  llm.Completer
}

func newEngines(ctx context.Context, cfg *config.Config, needCompleter bool) (*engines, error) {
	runner := ffmpeg.NewRunner(ffmpeg.NewExecutor())
	e := &engines{
		runner: runner,
		video:  video.NewProcessor(runner),
		audio:  audio.NewProcessor(runner),
	}

	var err error
	e.transcribe, err = transcribe.Factory(ctx, transcribe.Provider(cfg.Transcribe.Provider), cfg.Transcribe.APIKey, transcribe.Options{
		Language:   cfg.Transcribe.Language,
		Model:      cfg.Transcribe.Model,
		Prompt:     cfg.Transcribe.Prompt,
		BaseURL:    cfg.Transcribe.BaseURL,
		BinaryPath: cfg.Transcribe.BinaryPath,
		ModelPath:  cfg.Transcribe.ModelPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	if needCompleter {
		if e.completer, err = newCompleter(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	completer, err := llm.Factory(ctx, llm.Provider(cfg.LLM.Provider), cfg.LLM.APIKey, llm.Options{
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLMTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return completer, nil
}

func newTranslator(completer llm.Completer, cfg *config.Config, logger *logging.Logger) (*translate.Translator, error) {
	return translate.New(completer, translate.Options{
		SourceLanguage: cfg.Translate.SourceLanguage,
		TargetLanguage: cfg.Translate.TargetLanguage,
		MaxChars:       cfg.Translate.MaxChars,
		Concurrency:    cfg.Translate.Concurrency,
	}, logger)
}

func (e *engines) videoTranscriber(cfg *config.Config, logger *logging.Logger) *transcribe.VideoTranscriber {
	return transcribe.NewVideoTranscriber(e.transcribe, e.video, e.audio, transcribe.MediaOptions{
		WorkDir:       cfg.Paths.Temp,
		ChunkDuration: cfg.ChunkDuration(),
		Concurrency:   cfg.Transcribe.Concurrency,
	}, logger)
}

// buildPipeline wires every configured stage.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pipeline.Pipeline, error) {
	e, err := newEngines(ctx, cfg, true)
	if err != nil {
		return nil, err
	}

	translator, err := newTranslator(e.completer, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Transcriber: e.videoTranscriber(cfg, logger),
		Translator:  translator,
		Composer:    compose.NewComposer(e.runner),
		Prober:      audio.NewProber(e.runner),
	}

	if cfg.Summary.Enabled {
		deps.Summarizer = summary.New(e.completer, summary.Options{
			Language:      cfg.Translate.TargetLanguage,
			MaxInputChars: cfg.Summary.MaxInputChars,
			MaxTokens:     cfg.Summary.MaxTokens,
			MaxLength:     cfg.Summary.MaxLength,
		})
	}

	if cfg.Dub.Enabled {
		provider := tts.Provider(cfg.Dub.Provider)
		synth, err := tts.Factory(provider, cfg.Dub.APIKey, tts.Options{
			Model:      cfg.Dub.Model,
			BaseURL:    cfg.Dub.BaseURL,
			BinaryPath: cfg.Dub.BinaryPath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
		}

		voice := cfg.Dub.Voice
		if voice == "" {
			voice = tts.DefaultVoice(provider)
		}
		workDir := cfg.Paths.Temp
		if workDir == "" {
			workDir = cfg.Paths.Output
		}

		deps.Dubber = dub.NewAssembler(synth, dub.NewFFmpegConcatenator(e.runner), logger, dub.Options{
			BatchSize:    cfg.Dub.BatchSize,
			Voice:        voice,
			WorkDir:      workDir,
			Concurrency:  cfg.Dub.Concurrency,
			BatchTimeout: cfg.BatchTimeout(),
		})
	}

	return pipeline.New(deps, pipeline.Options{
		InputDir:       cfg.Paths.Input,
		OutputDir:      cfg.Paths.Output,
		ProcessedDir:   cfg.Paths.Processed,
		SourceLanguage: sourceSuffix(cfg),
	}, logger), nil
}

// sourceSuffix names the source subtitle file, e.g. talk_en.srt.
func sourceSuffix(cfg *config.Config) string {
	if cfg.Transcribe.Language != "" {
		return cfg.Transcribe.Language
	}
	return "src"
}
