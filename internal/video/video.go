package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Runner executes ffmpeg command graphs and ffprobe queries.
type Runner interface {
	Run(ctx context.Context, stream *ffmpeg.Stream) error
	Probe(ctx context.Context, args ...string) (string, error)
}

// video file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
}

// holds options for audio extraction
type ExtractAudioOptions struct {
	Format     string // mp3, aac, flac or wav
	SampleRate int
	Channels   int
	Bitrate    string
}

// mono 16 kHz mp3, small enough for hosted transcription uploads
func DefaultExtractAudioOptions() ExtractAudioOptions {
	return ExtractAudioOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// default implementation using ffmpeg
type Processor struct {
	runner Runner
}

func NewProcessor(runner Runner) *Processor {
	return &Processor{runner: runner}
}

// encoder per output format; lossy encoders honour Bitrate
var audioCodecs = map[string]struct {
	encoder string
	lossy   bool
}{
	"mp3":  {"libmp3lame", true},
	"aac":  {"aac", true},
	"flac": {"flac", false},
	"wav":  {"pcm_s16le", false},
}

// SupportedAudioFormat reports whether ExtractAudio can write format.
func SupportedAudioFormat(format string) bool {
	_, ok := audioCodecs[format]
	return ok
}

// ExtractAudio writes the audio track of videoPath to outputPath, dropping
// the video stream. Unknown formats are written as 16-bit PCM.
func (p *Processor) ExtractAudio(ctx context.Context, videoPath, outputPath string, opts ExtractAudioOptions) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video file not found: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	codec, ok := audioCodecs[opts.Format]
	if !ok {
		codec = audioCodecs["wav"]
	}

	out := ffmpeg.KwArgs{"vn": "", "acodec": codec.encoder}
	if opts.SampleRate > 0 {
		out["ar"] = opts.SampleRate
	}
	if opts.Channels > 0 {
		out["ac"] = opts.Channels
	}
	if codec.lossy && opts.Bitrate != "" {
		out["b:a"] = opts.Bitrate
	}

	stream := ffmpeg.Input(videoPath).Output(outputPath, out).OverWriteOutput()
	if err := p.runner.Run(ctx, stream); err != nil {
		return fmt.Errorf("ffmpeg extraction failed: %w", err)
	}
	return nil
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// retrieves video file information
func (p *Processor) GetInfo(ctx context.Context, videoPath string) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	out, err := p.runner.Probe(ctx,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseInfo(videoPath, out)
}

func parseInfo(videoPath, raw string) (*Info, error) {
	var probe probeResult
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{Path: videoPath}
	if seconds, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	foundVideo := false
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if foundVideo {
				continue
			}
			foundVideo = true
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.FrameRate = parseFrameRate(s.AvgFrameRate)
		case "audio":
			info.HasAudio = true
		}
	}

	if !foundVideo {
		return nil, fmt.Errorf("no video stream in %s", filepath.Base(videoPath))
	}
	return info, nil
}

// parses ffprobe rationals like "30000/1001"
func parseFrameRate(value string) float64 {
	num, den, ok := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
