package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hua1232/AI-video-translate-lear/internal/audio"
	"github.com/hua1232/AI-video-translate-lear/internal/config"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

var transcribeOutput string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Write source-language subtitles for an audio or video file",
	Long: `Run only the transcription stage on a single audio or video file.

Videos go through the same extraction and chunking as the pipeline
(transcribe.chunk_minutes). Audio files are re-encoded to mono 16 kHz mp3
and sent in one request.

Examples:
  vidtrans transcribe lecture.mp4
  vidtrans transcribe podcast.wav -o podcast.srt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscribe(cmd, args[0], transcribeOutput)
	},
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVarP(&transcribeOutput, "output", "o", "", "Output path (default: <name>_<language>.srt)")
}

// sourceSubtitlePath is <base>_<language>.srt next to the media file.
func sourceSubtitlePath(mediaPath string, cfg *config.Config) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + "_" + sourceSuffix(cfg) + ".srt"
}

func runTranscribe(cmd *cobra.Command, mediaPath, out string) error {
	ctx := cmd.Context()

	if _, err := os.Stat(mediaPath); err != nil {
		return fmt.Errorf("media file not found: %w", err)
	}
	if out == "" {
		out = sourceSubtitlePath(mediaPath, cfg)
	}

	e, err := newEngines(ctx, cfg, false)
	if err != nil {
		return err
	}

	log := logger.With("input", mediaPath, "provider", cfg.Transcribe.Provider)
	log.Infow("Transcribing")

	var segments []subtitle.Segment
	if audio.IsVideoFile(mediaPath) {
		segments, err = e.videoTranscriber(cfg, logger).Transcribe(ctx, mediaPath)
	} else {
		segments, err = e.transcribeAudioFile(ctx, mediaPath, cfg.Paths.Temp)
	}
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	entries := subtitle.FromSegments(segments)
	if len(entries) == 0 {
		return fmt.Errorf("transcription produced no subtitles")
	}
	if err := subtitle.WriteFile(out, subtitle.Format(entries)); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	log.Infow("Subtitles written", "output", out, "entries", len(entries))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// transcribeAudioFile re-encodes a standalone audio file in a scratch
// directory under tempRoot and transcribes it in one request.
func (e *engines) transcribeAudioFile(ctx context.Context, path, tempRoot string) ([]subtitle.Segment, error) {
	if tempRoot != "" {
		if err := os.MkdirAll(tempRoot, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(tempRoot, "vidtrans-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	compressed := filepath.Join(scratch, "audio.mp3")
	if err := e.audio.CompressAudio(ctx, path, compressed, audio.DefaultCompressionOptions()); err != nil {
		return nil, fmt.Errorf("failed to compress audio: %w", err)
	}

	result, err := e.transcribe.Transcribe(ctx, compressed)
	if err != nil {
		return nil, err
	}
	return result.Segments, nil
}
