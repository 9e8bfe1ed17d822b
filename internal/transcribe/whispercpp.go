package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hua1232/AI-video-translate-lear/internal/ffmpeg"
	"github.com/hua1232/AI-video-translate-lear/internal/subtitle"
)

const defaultWhisperBinary = "whisper-cli"

// implements Transcriber by running a local whisper.cpp build that writes
// an SRT next to a scratch prefix
type WhisperCppTranscriber struct {
	binary    string
	modelPath string
	options   Options
	exec      ffmpeg.Executor
}

func NewWhisperCppTranscriber(opts Options, exec ffmpeg.Executor) (*WhisperCppTranscriber, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("whisper-cpp requires a model path")
	}

	binary := opts.BinaryPath
	if binary == "" {
		binary = defaultWhisperBinary
	}
	if exec == nil {
		exec = ffmpeg.NewExecutor()
	}

	return &WhisperCppTranscriber{
		binary:    binary,
		modelPath: opts.ModelPath,
		options:   opts,
		exec:      exec,
	}, nil
}

func (t *WhisperCppTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	outDir, err := os.MkdirTemp(filepath.Dir(audioPath), "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	prefix := filepath.Join(outDir, "transcript")
	if _, err := t.exec.Execute(ctx, t.binary, t.args(audioPath, prefix)...); err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	entries, err := subtitle.ParseFile(prefix + ".srt")
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	segments := make([]subtitle.Segment, 0, len(entries))
	for _, e := range entries {
		segments = append(segments, subtitle.Segment{
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Text:      strings.TrimSpace(e.Text),
		})
	}

	result := &Result{Segments: segments, Language: t.options.Language}
	if len(segments) > 0 {
		result.Duration = segments[len(segments)-1].EndTime
	}
	return result, nil
}

func (t *WhisperCppTranscriber) args(audioPath, prefix string) []string {
	lang := t.options.Language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", t.modelPath,
		"-f", audioPath,
		"-l", lang,
		"-osrt",
		"-of", prefix,
		"-np",
	}
	if wantsEnglish(t.options.TranscriptLanguage) {
		args = append(args, "-tr")
	}
	if t.options.Prompt != "" {
		args = append(args, "--prompt", t.options.Prompt)
	}
	return args
}
