package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Runner executes ffmpeg command graphs and ffprobe queries.
type Runner interface {
	Run(ctx context.Context, stream *ffmpeg.Stream) error
	Probe(ctx context.Context, args ...string) (string, error)
}

type CompressionOptions struct {
	Format     string // mp3 or aac
	SampleRate int
	Channels   int
	Bitrate    string
}

// mono 16 kHz 64k mp3, what hosted speech APIs accept comfortably
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{Format: "mp3", SampleRate: 16000, Channels: 1, Bitrate: "64k"}
}

// Processor compresses and splits audio for transcription.
type Processor struct {
	runner Runner
	prober *Prober
}

func NewProcessor(runner Runner) *Processor {
	return &Processor{runner: runner, prober: NewProber(runner)}
}

// CompressAudio re-encodes inputPath to outputPath without any video stream.
func (p *Processor) CompressAudio(ctx context.Context, inputPath, outputPath string, opts CompressionOptions) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	encoder := "libmp3lame"
	if opts.Format == "aac" {
		encoder = "aac"
	}
	out := ffmpeg.KwArgs{"vn": "", "acodec": encoder, "ar": opts.SampleRate, "ac": opts.Channels}
	if opts.Bitrate != "" {
		out["b:a"] = opts.Bitrate
	}

	stream := ffmpeg.Input(inputPath).Output(outputPath, out).OverWriteOutput()
	if err := p.runner.Run(ctx, stream); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}

var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".flv"}

// IsVideoFile reports whether path has an extension the pipeline accepts.
func IsVideoFile(path string) bool {
	return slices.Contains(videoExtensions, strings.ToLower(filepath.Ext(path)))
}

// VideoExtensions lists the accepted video extensions.
func VideoExtensions() []string {
	return slices.Clone(videoExtensions)
}
