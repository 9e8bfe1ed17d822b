package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/logging"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
	"github.com/hua1232/AI-video-translate-lear/internal/video"
)

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string, opts video.ExtractAudioOptions) error
}

type AudioChunker interface {
	ChunkAudio(ctx context.Context, audioPath string, chunkDuration time.Duration, outputDir string, concurrency int) ([]audio.ChunkInfo, error)
}

type MediaOptions struct {
	WorkDir       string        // parent for per-file scratch dirs, empty for the OS temp dir
	ChunkDuration time.Duration // 0 sends the whole track in one request
	Concurrency   int
}

// VideoTranscriber turns a video file into timed segments: it extracts a
// compact audio track, splits long audio and hands the pieces to the engine.
type VideoTranscriber struct {
	engine    Transcriber
	extractor AudioExtractor
	chunker   AudioChunker
	opts      MediaOptions
	logger    *logging.Logger
}

func NewVideoTranscriber(
	engine Transcriber,
	extractor AudioExtractor,
	chunker AudioChunker,
	opts MediaOptions,
	logger *logging.Logger,
) *VideoTranscriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &VideoTranscriber{
		engine:    engine,
		extractor: extractor,
		chunker:   chunker,
		opts:      opts,
		logger:    logger,
	}
}

func (v *VideoTranscriber) Transcribe(ctx context.Context, videoPath string) ([]subtitle.Segment, error) {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	if v.opts.WorkDir != "" {
		if err := os.MkdirAll(v.opts.WorkDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(v.opts.WorkDir, "vidtrans-"+base+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	audioPath := filepath.Join(scratch, base+".mp3")
	if err := v.extractor.ExtractAudio(ctx, videoPath, audioPath, video.DefaultExtractAudioOptions()); err != nil {
		return nil, err
	}

	if v.opts.ChunkDuration <= 0 || v.chunker == nil {
		result, err := v.engine.Transcribe(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		return result.Segments, nil
	}

	chunks, err := v.chunker.ChunkAudio(ctx, audioPath, v.opts.ChunkDuration, filepath.Join(scratch, "chunks"), v.opts.Concurrency)
	if err != nil {
		return nil, err
	}
	v.logger.Debugw("Audio split for transcription", "chunks", len(chunks))

	if len(chunks) <= 1 {
		result, err := v.engine.Transcribe(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		return result.Segments, nil
	}

	result, err := TranscribeChunks(ctx, v.engine, chunks, v.opts.Concurrency)
	if err != nil {
		return nil, err
	}
	return result.Segments, nil
}
